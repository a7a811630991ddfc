package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fleetdev/carhub/internal/auth"
	"github.com/fleetdev/carhub/internal/domain/user"
	"github.com/fleetdev/carhub/internal/http/handlers"
	"github.com/fleetdev/carhub/internal/security"
)

type fakeUsersRepo struct {
	getByLoginFn func(ctx context.Context, login string) (user.User, error)
	createFn     func(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error)
}

func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (user.User, error) {
	if f.getByLoginFn != nil {
		return f.getByLoginFn(ctx, login)
	}

	return user.User{}, user.ErrNotFound
}

func (f *fakeUsersRepo) Create(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
	if f.createFn != nil {
		return f.createFn(ctx, name, email, login, passwordHash, role)
	}

	return user.User{}, nil
}

func TestRegisterHandler(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeUsersRepo)
		wantStatusCode int
		wantMessage    string
		checkBody      func(t *testing.T, body []byte)
	}{
		{
			name: "success_default_role",
			body: `{"nome": "Maria Silva", "email": "maria@example.com", "login": "maria", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
					if role != user.RoleStandard {
						return user.User{}, errors.New("role should default to STANDARD")
					}
					if passwordHash == "s3creta" {
						return user.User{}, errors.New("password must be hashed before storage")
					}

					return user.User{
						ID:           "u-1",
						Name:         name,
						Email:        email,
						Login:        login,
						PasswordHash: passwordHash,
						Role:         role,
						CreatedAt:    now,
						UpdatedAt:    now,
					}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
			checkBody: func(t *testing.T, body []byte) {
				var resp map[string]any
				if err := json.Unmarshal(body, &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}
				if resp["login"] != "maria" {
					t.Fatalf("got login %v, want maria", resp["login"])
				}
				if resp["role"] != user.RoleStandard {
					t.Fatalf("got role %v, want %s", resp["role"], user.RoleStandard)
				}
				// the stored hash must never leak through the projection
				lower := strings.ToLower(string(body))
				if strings.Contains(lower, "senha") || strings.Contains(lower, "hash") {
					t.Fatalf("response leaks credential material: %s", body)
				}
			},
		},
		{
			name: "explicit_admin_role",
			body: `{"nome": "Root", "email": "root@example.com", "login": "root", "senha": "s3creta", "role": "ADMIN"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
					if role != user.RoleAdmin {
						return user.User{}, errors.New("explicit role should pass through")
					}

					return user.User{ID: "u-2", Name: name, Email: email, Login: login, Role: role, CreatedAt: now, UpdatedAt: now}, nil
				}
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name: "login_taken",
			body: `{"nome": "Maria Silva", "email": "maria@example.com", "login": "maria", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
					return user.User{}, user.ErrLoginTaken
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "Login já cadastrado.",
		},
		{
			name: "email_taken",
			body: `{"nome": "Maria Silva", "email": "maria@example.com", "login": "maria2", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.createFn = func(ctx context.Context, name, email, login, passwordHash, role string) (user.User, error) {
					return user.User{}, user.ErrEmailTaken
				}
			},
			wantStatusCode: http.StatusBadRequest,
			wantMessage:    "E-mail já cadastrado.",
		},
		{
			name:           "invalid_role",
			body:           `{"nome": "Maria Silva", "email": "maria@example.com", "login": "maria", "senha": "s3creta", "role": "ROOT"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name:           "missing_fields",
			body:           `{"login": "maria"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			jwtManager := auth.NewManager("test-secret", time.Hour)
			h := handlers.NewAuthHandler(fakeRepo, fakeRepo, jwtManager, nil)

			r := setupRouter(http.MethodPost, "/seguranca/register", h.Register)

			req := httptest.NewRequest(http.MethodPost, "/seguranca/register", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				var resp struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal error body: %v", err)
				}
				if resp.Error.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", resp.Error.Message, tt.wantMessage)
				}
			}

			if tt.checkBody != nil {
				tt.checkBody(t, w.Body.Bytes())
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("s3creta")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	stored := user.User{
		ID:           "u-1",
		Name:         "Maria Silva",
		Email:        "maria@example.com",
		Login:        "maria",
		PasswordHash: hash,
		Role:         user.RoleStandard,
	}

	tests := []struct {
		name           string
		body           string
		repoSetup      func(*fakeUsersRepo)
		wantStatusCode int
		wantMessage    string
	}{
		{
			name: "success",
			body: `{"login": "maria", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "unknown_login",
			body: `{"login": "ghost", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
					return user.User{}, user.ErrNotFound
				}
			},
			wantStatusCode: http.StatusNotFound,
			wantMessage:    "Usuário não encontrado",
		},
		{
			name: "wrong_password",
			body: `{"login": "maria", "senha": "errada"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
					return stored, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
			wantMessage:    "Senha inválida",
		},
		{
			name:           "missing_fields",
			body:           `{"login": "maria"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			name: "repo_error",
			body: `{"login": "maria", "senha": "s3creta"}`,
			repoSetup: func(f *fakeUsersRepo) {
				f.getByLoginFn = func(ctx context.Context, login string) (user.User, error) {
					return user.User{}, errors.New("db error")
				}
			},
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			fakeRepo := &fakeUsersRepo{}

			if tt.repoSetup != nil {
				tt.repoSetup(fakeRepo)
			}

			h := handlers.NewAuthHandler(fakeRepo, fakeRepo, jwtManager, nil)

			r := setupRouter(http.MethodPost, "/seguranca/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/seguranca/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantMessage != "" {
				var resp struct {
					Error struct {
						Message string `json:"message"`
					} `json:"error"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal error body: %v", err)
				}
				if resp.Error.Message != tt.wantMessage {
					t.Fatalf("got message %q, want %q", resp.Error.Message, tt.wantMessage)
				}
			}
		})
	}
}

func TestLoginHandler_TokenCarriesIdentity(t *testing.T) {
	hash, err := security.HashPassword("s3creta")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	fakeRepo := &fakeUsersRepo{
		getByLoginFn: func(ctx context.Context, login string) (user.User, error) {
			return user.User{
				ID:           "u-42",
				Login:        "admin1",
				PasswordHash: hash,
				Role:         user.RoleAdmin,
			}, nil
		},
	}

	jwtManager := auth.NewManager("test-secret", time.Hour)
	h := handlers.NewAuthHandler(fakeRepo, fakeRepo, jwtManager, nil)

	r := setupRouter(http.MethodPost, "/seguranca/login", h.Login)

	req := httptest.NewRequest(http.MethodPost, "/seguranca/login", bytes.NewBufferString(`{"login": "admin1", "senha": "s3creta"}`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token in the response")
	}

	claims, err := jwtManager.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token failed verification: %v", err)
	}

	if claims.UserID != "u-42" {
		t.Fatalf("got userID %q, want u-42", claims.UserID)
	}
	if claims.Login != "admin1" {
		t.Fatalf("got login %q, want admin1", claims.Login)
	}
	if claims.Role != user.RoleAdmin {
		t.Fatalf("got role %q, want %s", claims.Role, user.RoleAdmin)
	}
}
