package application

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"dronelink-cloud/internal/auth"
	identity "dronelink-cloud/internal/identity/domain"
)

// Service implements registration and login for the identity store.
type Service struct {
	repo   identity.Repository
	secret []byte
	logger *log.Logger
}

// NewService constructs an identity service.
func NewService(repo identity.Repository, secret []byte, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("identity: nil repository")
	}
	if len(secret) == 0 {
		return nil, errors.New("identity: empty secret")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, secret: secret, logger: logger}, nil
}

// Register creates a new account with the default operator role.
func (s *Service) Register(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return identity.ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := identity.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         auth.RoleOperator,
		CreatedAt:    time.Now().UTC(),
	}
	return s.repo.Create(ctx, user)
}

// Login verifies credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return "", identity.ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", identity.ErrInvalidCredentials
	}
	return auth.IssueToken(user.ID, user.Username, user.Role, s.secret)
}
