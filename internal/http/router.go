package http

import (
	"log/slog"
	"net/http"

	"github.com/fleetdev/carhub/internal/auth"
	"github.com/fleetdev/carhub/internal/cache"
	"github.com/fleetdev/carhub/internal/config"
	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/fleetdev/carhub/internal/http/handlers"
	"github.com/fleetdev/carhub/internal/http/middlewares"
	"github.com/fleetdev/carhub/internal/observability"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// trustTier is the minimum authorization level a route requires. Declaring it
// per route keeps the whole auth policy in one table instead of scattering
// middleware calls across near-duplicate route sets.
type trustTier int

const (
	tierOpen trustTier = iota
	tierAuthenticated
	tierAdmin
)

type route struct {
	method      string
	path        string
	tier        trustTier
	rateLimited bool
	handler     gin.HandlerFunc
}

type UsersStore interface {
	handlers.UserReader
	handlers.UserWriter
}

// Deps carries explicitly constructed collaborators; nothing here is a
// package-level singleton, so tests can swap in the in-memory repos.
type Deps struct {
	Cars           handlers.CarsStore
	Users          UsersStore
	JWT            *auth.Manager
	Prom           *observability.Prom
	ListCache      *cache.Cache
	LoginLimiter   gin.HandlerFunc
	Ping           func() error
	MetricsHandler http.Handler
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.MaxBodyBytes(1 << 20))
	r.Use(middlewares.RequireJSON())
	r.Use(otelgin.Middleware("carhub"))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	}

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	// health + metrics
	h := handlers.NewHealthHandler(deps.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(deps.MetricsHandler))
	}

	// wire up handlers
	carsHandler := handlers.NewCarsHandlerWithCache(deps.Cars, deps.ListCache)
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Users, deps.JWT, deps.Prom)

	authmw := middlewares.NewAuthMiddleware(deps.JWT)

	guards := func(tier trustTier) []gin.HandlerFunc {
		switch tier {
		case tierAuthenticated:
			return []gin.HandlerFunc{authmw.RequireAuth()}
		case tierAdmin:
			return []gin.HandlerFunc{authmw.RequireAuth(), authmw.RequireRole(user.RoleAdmin)}
		default:
			return nil
		}
	}

	routes := []route{
		{method: http.MethodGet, path: "/carros", tier: tierAuthenticated, handler: carsHandler.ListCars},
		{method: http.MethodGet, path: "/carros/:id", tier: tierAuthenticated, handler: carsHandler.GetCarByID},
		{method: http.MethodPost, path: "/carros", tier: tierAdmin, handler: carsHandler.CreateCar},
		{method: http.MethodPut, path: "/carros/:id", tier: tierAdmin, handler: carsHandler.UpdateCar},
		{method: http.MethodDelete, path: "/carros/:id", tier: tierAdmin, handler: carsHandler.DeleteCar},
		{method: http.MethodPost, path: "/seguranca/register", tier: tierAdmin, handler: authHandler.Register},
		{method: http.MethodPost, path: "/seguranca/login", tier: tierOpen, rateLimited: true, handler: authHandler.Login},
	}

	for _, rt := range routes {
		chain := guards(rt.tier)

		if rt.rateLimited && deps.LoginLimiter != nil {
			chain = append(chain, deps.LoginLimiter)
		}

		chain = append(chain, rt.handler)
		r.Handle(rt.method, rt.path, chain...)
	}

	return r
}
