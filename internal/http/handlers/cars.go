package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fleetdev/carhub/internal/cache"
	"github.com/fleetdev/carhub/internal/config"
	"github.com/fleetdev/carhub/internal/domain/car"
	"github.com/gin-gonic/gin"
)

type CarsStore interface {
	Create(ctx context.Context, req car.CreateCarRequest) (car.Car, error)
	List(ctx context.Context) ([]car.Car, error)
	GetByID(ctx context.Context, id string) (car.Car, error)
	Update(ctx context.Context, id string, req car.UpdateCarRequest) (car.Car, error)
	Delete(ctx context.Context, id string) error
}

type CarsHandler struct {
	repo  CarsStore
	cache *cache.Cache
}

const listCacheKey = "cars:list"

func NewCarsHandler(repo CarsStore) *CarsHandler {
	return &CarsHandler{repo: repo}
}

func NewCarsHandlerWithCache(repo CarsStore, c *cache.Cache) *CarsHandler {
	return &CarsHandler{repo: repo, cache: c}
}

func (h *CarsHandler) ListCars(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(listCacheKey); ok {
			if cars, ok := v.([]car.Car); ok {
				RespondJSONWithETag(ctx, http.StatusOK, cars)
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	cars, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Não foi possível listar os carros")
		return
	}

	if h.cache != nil {
		h.cache.Set(listCacheKey, cars)
	}

	RespondJSONWithETag(ctx, http.StatusOK, cars)
}

func (h *CarsHandler) GetCarByID(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, car.ErrNotFound) {
			RespondNotFound(ctx, "Carro não encontrado")
			return
		}
		RespondInternal(ctx, "Não foi possível buscar o carro")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, c)
}

func (h *CarsHandler) CreateCar(ctx *gin.Context) {
	var req car.CreateCarRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.Create(cctx, req)

	if err != nil {
		if errors.Is(err, car.ErrPlacaTaken) {
			RespondError(ctx, http.StatusBadRequest, "placa_taken", "Placa já registrada.", nil)
			return
		}
		RespondInternal(ctx, "Não foi possível criar o carro")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusCreated, c)
}

func (h *CarsHandler) UpdateCar(ctx *gin.Context) {
	id := ctx.Param("id")

	var req car.UpdateCarRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	c, err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, car.ErrNotFound) {
			RespondNotFound(ctx, "Carro não encontrado")
			return
		}
		if errors.Is(err, car.ErrPlacaTaken) {
			RespondError(ctx, http.StatusBadRequest, "placa_taken", "Placa já registrada.", nil)
			return
		}
		RespondInternal(ctx, "Não foi possível atualizar o carro")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusOK, c)
}

func (h *CarsHandler) DeleteCar(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, car.ErrNotFound) {
			RespondNotFound(ctx, "Carro não encontrado")
			return
		}
		RespondInternal(ctx, "Não foi possível deletar o carro")
		return
	}

	h.invalidateList()

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Carro deletado com sucesso!",
	})
}

func (h *CarsHandler) invalidateList() {
	if h.cache != nil {
		h.cache.Delete(listCacheKey)
	}
}
