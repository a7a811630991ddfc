package memory

import (
	"context"
	"sync"
	"time"

	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/google/uuid"
)

type UsersRepo struct {
	mu    sync.RWMutex
	items map[string]user.User // keyed by login
}

func NewUsersRepo() *UsersRepo {
	return &UsersRepo{
		items: make(map[string]user.User),
	}
}

func (r *UsersRepo) GetByLogin(ctx context.Context, login string) (user.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.items[login]

	if !ok {
		return user.User{}, user.ErrNotFound
	}

	return u, nil
}

func (r *UsersRepo) Create(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[login]; ok {
		return user.User{}, user.ErrLoginTaken
	}

	for _, existing := range r.items {
		if existing.Email == email {
			return user.User{}, user.ErrEmailTaken
		}
	}

	now := time.Now().UTC()

	u := user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		Login:        login,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	r.items[login] = u

	return u, nil
}
