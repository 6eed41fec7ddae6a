package investment

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"investcore/internal/models"
	"investcore/internal/repository"
)

// ErrInvalidCredentials is returned by Authenticate for an unknown email or bad password.
var ErrInvalidCredentials = errors.New("invalid email or password")

type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	Role      string
}

// CreateUser stores a user with a bcrypt password hash.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || len(in.Password) < 8 {
		return nil, newError(KindValidation, "email and a password of at least 8 characters are required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleUser
	}
	if role != models.RoleUser && role != models.RoleAdmin {
		return nil, newError(KindValidation, "unknown role %q", role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}

	ctx, cancel := s.dbContext(ctx)
	defer cancel()
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, "create user")
	}
	return user, nil
}

// Authenticate checks an email and password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, storeError(err, "user")
	}
	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
