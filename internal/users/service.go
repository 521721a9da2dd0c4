// Package users handles account registration and credential checks.
package users

import (
	"context"
	"errors"

	"github.com/example/retailhub/internal/auth"
	"github.com/example/retailhub/internal/domain/user"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Repository interface {
	Create(ctx context.Context, email, passwordHash, fullName, phone string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id string) (*user.User, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an account. Duplicate emails surface as
// user.ErrEmailTaken so the handler can answer 409.
func (s *Service) Register(ctx context.Context, email, password, fullName, phone string) (*user.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, email, hash, fullName, phone)
}

// Authenticate verifies credentials. A missing account and a wrong
// password return the same error so login does not leak which emails
// are registered.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, id string) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}
