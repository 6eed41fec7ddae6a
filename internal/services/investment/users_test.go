package investment

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcore/internal/models"
)

func TestAuthenticate(t *testing.T) {
	f := newFixture(t, "2024-01-01")
	ctx := context.Background()

	admin, err := f.svc.CreateUser(ctx, CreateUserInput{
		FirstName: "Grace",
		Email:     " Grace@Example.com ",
		Password:  "correct-horse",
		Role:      models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", admin.Email)
	assert.NotEqual(t, "correct-horse", admin.PasswordHash)

	t.Run("Valid credentials", func(t *testing.T) {
		user, err := f.svc.Authenticate(ctx, "grace@example.com", "correct-horse")
		require.NoError(t, err)
		assert.Equal(t, admin.ID, user.ID)
		assert.Equal(t, models.RoleAdmin, user.Role)
	})

	t.Run("Wrong password", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "grace@example.com", "battery-staple")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("Unknown email", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "nobody@example.com", "correct-horse")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("User without password", func(t *testing.T) {
		_, err := f.svc.Authenticate(ctx, "ada@example.com", "")
		assert.True(t, errors.Is(err, ErrInvalidCredentials))
	})

	t.Run("Rejects short password", func(t *testing.T) {
		_, err := f.svc.CreateUser(ctx, CreateUserInput{Email: "x@example.com", Password: "short"})
		assert.True(t, errors.Is(err, ErrValidation))
	})
}
