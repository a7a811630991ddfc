package car

import (
	"errors"
	"time"
)

type Car struct {
	ID        string    `json:"id"`
	Placa     string    `json:"placa"`
	Marca     string    `json:"marca"`
	Modelo    string    `json:"modelo"`
	Valor     float64   `json:"valor"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var (
	ErrNotFound   = errors.New("car not found")
	ErrPlacaTaken = errors.New("placa already registered")
)

type CreateCarRequest struct {
	Placa  string  `json:"placa" binding:"required,min=3,max=12"`
	Marca  string  `json:"marca" binding:"required,min=2,max=60"`
	Modelo string  `json:"modelo" binding:"required,min=1,max=60"`
	Valor  float64 `json:"valor" binding:"required,gt=0"`
}

// pointer fields so an absent key is distinguishable from a zero value
type UpdateCarRequest struct {
	Placa  *string  `json:"placa" binding:"omitempty,min=3,max=12"`
	Marca  *string  `json:"marca" binding:"omitempty,min=2,max=60"`
	Modelo *string  `json:"modelo" binding:"omitempty,min=1,max=60"`
	Valor  *float64 `json:"valor" binding:"omitempty,gt=0"`
}
