package application

import (
	"context"
	"errors"
	"log"
	"os"
	"testing"

	"dronelink-cloud/internal/auth"
	identity "dronelink-cloud/internal/identity/domain"
)

type memoryRepository struct {
	users map[string]identity.User
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{users: make(map[string]identity.User)}
}

func (r *memoryRepository) Create(_ context.Context, user identity.User) error {
	if _, ok := r.users[user.Username]; ok {
		return identity.ErrDuplicateUsername
	}
	r.users[user.Username] = user
	return nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (*identity.User, error) {
	user, ok := r.users[username]
	if !ok {
		return nil, identity.ErrNotFound
	}
	return &user, nil
}

func newTestService(t *testing.T) (*Service, []byte) {
	t.Helper()
	secret := []byte("identity-test-secret")
	service, err := NewService(newMemoryRepository(), secret, log.New(os.Stdout, "", log.LstdFlags))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service, secret
}

func TestRegisterAndLogin(t *testing.T) {
	service, secret := newTestService(t)
	ctx := context.Background()

	if err := service.Register(ctx, "op1", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, err := service.Login(ctx, "op1", "hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := auth.ParseToken(token, secret)
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	ident := claims.Identity()
	if ident.DisplayName != "op1" {
		t.Fatalf("expected display name op1, got %s", ident.DisplayName)
	}
	if ident.Role != auth.RoleOperator {
		t.Fatalf("expected default operator role, got %s", ident.Role)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Register(ctx, "op1", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := service.Login(ctx, "op1", "wrong"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Login(context.Background(), "ghost", "pw"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestRegisterDuplicate(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	if err := service.Register(ctx, "op1", "hunter2"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := service.Register(ctx, "op1", "other"); !errors.Is(err, identity.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
}
