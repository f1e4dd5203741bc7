package users

import (
	"context"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/fintrack/fintrack/internal/domain"
)

// CreateUserRequest is the body of POST /api/users
type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// Service manages account holders
type Service struct {
	repo *Repository
	log  zerolog.Logger
}

// NewService creates a new user service
func NewService(repo *Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("service", "users").Logger(),
	}
}

// Repository exposes the underlying repository
func (s *Service) Repository() *Repository {
	return s.repo
}

// CreateUser registers an account holder
func (s *Service) CreateUser(ctx context.Context, req CreateUserRequest) (*domain.User, error) {
	u := &domain.User{
		Username:  strings.TrimSpace(req.Username),
		Email:     strings.TrimSpace(req.Email),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	}
	if u.Username == "" || u.FirstName == "" || u.LastName == "" {
		return nil, domain.InvalidState("username, first name and last name are required")
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return nil, domain.InvalidState("invalid email address %q", u.Email)
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("User created")
	return u, nil
}

// GetUser returns NotFound for a missing user
func (s *Service) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	u, err := s.repo.GetByID(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.NotFound("user %d not found", userID)
	}
	return u, nil
}
