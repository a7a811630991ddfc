package user

import (
	"errors"
	"time"
)

const (
	RoleStandard = "STANDARD"
	RoleAdmin    = "ADMIN"
)

var (
	ErrNotFound   = errors.New("user not found")
	ErrLoginTaken = errors.New("login already taken")
	ErrEmailTaken = errors.New("email already taken")
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"nome"`
	Email        string    `json:"email"`
	Login        string    `json:"login"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the boundary projection of an account. Responses are built from
// this type so the stored hash cannot cross the API boundary.
type Public struct {
	ID        string    `json:"id"`
	Name      string    `json:"nome"`
	Email     string    `json:"email"`
	Login     string    `json:"login"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u User) Public() Public {
	return Public{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Login:     u.Login,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
