package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fleetdev/carhub/internal/domain/car"
	"github.com/google/uuid"
)

// CarsRepo is the in-memory counterpart of the postgres repo, used by the
// router-level tests and local development without a database.
type CarsRepo struct {
	mu    sync.RWMutex
	items map[string]car.Car
	order []string // insertion order, matches the store-defined list order
}

func NewCarsRepo() *CarsRepo {
	return &CarsRepo{
		items: make(map[string]car.Car),
	}
}

func (r *CarsRepo) Create(ctx context.Context, req car.CreateCarRequest) (car.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.Placa == req.Placa {
			return car.Car{}, car.ErrPlacaTaken
		}
	}

	now := time.Now().UTC()

	c := car.Car{
		ID:        uuid.NewString(),
		Placa:     req.Placa,
		Marca:     req.Marca,
		Modelo:    req.Modelo,
		Valor:     req.Valor,
		CreatedAt: now,
		UpdatedAt: now,
	}

	r.items[c.ID] = c
	r.order = append(r.order, c.ID)

	return c, nil
}

func (r *CarsRepo) List(ctx context.Context) ([]car.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]car.Car, 0, len(r.order))

	for _, id := range r.order {
		out = append(out, r.items[id])
	}

	return out, nil
}

func (r *CarsRepo) GetByID(ctx context.Context, id string) (car.Car, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.items[id]

	if !ok {
		return car.Car{}, car.ErrNotFound
	}

	return c, nil
}

func (r *CarsRepo) Update(ctx context.Context, id string, req car.UpdateCarRequest) (car.Car, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]

	if !ok {
		return car.Car{}, car.ErrNotFound
	}

	if req.Placa != nil {
		for otherID, other := range r.items {
			if otherID != id && other.Placa == *req.Placa {
				return car.Car{}, car.ErrPlacaTaken
			}
		}
		c.Placa = *req.Placa
	}
	if req.Marca != nil {
		c.Marca = *req.Marca
	}
	if req.Modelo != nil {
		c.Modelo = *req.Modelo
	}
	if req.Valor != nil {
		c.Valor = *req.Valor
	}

	c.UpdatedAt = time.Now().UTC()
	r.items[id] = c

	return c, nil
}

func (r *CarsRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return car.ErrNotFound
	}

	delete(r.items, id)

	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}
