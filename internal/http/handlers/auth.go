package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fleetdev/carhub/internal/auth"
	"github.com/fleetdev/carhub/internal/config"
	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/fleetdev/carhub/internal/observability"
	"github.com/fleetdev/carhub/internal/security"
	"github.com/gin-gonic/gin"
)

type UserReader interface {
	GetByLogin(ctx context.Context, login string) (user.User, error)
}

type UserWriter interface {
	Create(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error)
}

type AuthHandler struct {
	users      UserReader
	userWriter UserWriter
	jwt        *auth.Manager
	prom       *observability.Prom
}

func NewAuthHandler(users UserReader, userWriter UserWriter, jwtManager *auth.Manager, prom *observability.Prom) *AuthHandler {
	return &AuthHandler{
		users:      users,
		userWriter: userWriter,
		jwt:        jwtManager,
		prom:       prom,
	}
}

type RegisterRequest struct {
	Name     string `json:"nome" binding:"required,min=2,max=120"`
	Email    string `json:"email" binding:"required,email"`
	Login    string `json:"login" binding:"required,min=3,max=60"`
	Password string `json:"senha" binding:"required,min=6"`
	// optional, the route is admin-gated so the caller may pick a role
	Role string `json:"role" binding:"omitempty,oneof=STANDARD ADMIN"`
}

type LoginRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"senha" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)

	defer cancel()

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Não foi possível criar o usuário")
		return
	}

	role := req.Role

	if role == "" {
		role = user.RoleStandard
	}

	u, err := h.userWriter.Create(cctx, req.Name, req.Email, req.Login, hash, role)

	if err != nil {
		if errors.Is(err, user.ErrLoginTaken) {
			RespondError(ctx, http.StatusBadRequest, "login_taken", "Login já cadastrado.", nil)
			return
		}
		if errors.Is(err, user.ErrEmailTaken) {
			RespondError(ctx, http.StatusBadRequest, "email_taken", "E-mail já cadastrado.", nil)
			return
		}

		RespondInternal(ctx, "Não foi possível criar o usuário")
		return
	}

	// respond with the projection, never the stored record
	ctx.JSON(http.StatusCreated, u.Public())
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByLogin(cctx, req.Login)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			// unknown login and bad password return different statuses;
			// the login route is rate limited to blunt account probing
			h.countLogin("unknown_login")
			RespondNotFound(ctx, "Usuário não encontrado")
			return
		}

		h.countLogin("error")
		RespondInternal(ctx, "Não foi possível efetuar o login")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		h.countLogin("bad_password")
		RespondUnAuthorized(ctx, "invalid_password", "Senha inválida")
		return
	}

	token, err := h.jwt.GenerateToken(foundUser.ID, foundUser.Login, foundUser.Role)

	if err != nil {
		h.countLogin("error")
		RespondInternal(ctx, "Não foi possível gerar o token")
		return
	}

	h.countLogin("ok")

	ctx.JSON(http.StatusOK, gin.H{
		"token": token,
	})
}

func (h *AuthHandler) countLogin(result string) {
	if h.prom != nil {
		h.prom.LoginsTotal.WithLabelValues(result).Inc()
	}
}
