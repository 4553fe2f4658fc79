package auth

import (
	"context"
	"testing"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSeedAdmin_CreatesAdmin(t *testing.T) {
	users := new(MockUserRepository)
	hasher := newHasher()

	users.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, repository.ErrNotFound)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleAdmin && u.Name == "Admin" && hasher.Verify("Sup3r-secret!", u.PasswordHash)
	})).Return(nil)

	u, created, err := SeedAdmin(context.Background(), users, hasher, SeedAdminInput{
		Email: " admin@example.com ", Password: "Sup3r-secret!",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@example.com", u.Email)
	users.AssertExpectations(t)
}

func TestSeedAdmin_ExistingAdminIsKept(t *testing.T) {
	users := new(MockUserRepository)
	existing := &model.User{ID: 1, Email: "admin@example.com", Role: model.RoleAdmin}
	users.On("FindByEmail", mock.Anything, "admin@example.com").Return(existing, nil)

	u, created, err := SeedAdmin(context.Background(), users, newHasher(), SeedAdminInput{
		Email: "admin@example.com", Password: "Sup3r-secret!",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int64(1), u.ID)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSeedAdmin_Rejects(t *testing.T) {
	t.Run("email used by buyer", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "taken@example.com").
			Return(&model.User{ID: 2, Role: model.RoleBuyer}, nil)

		_, _, err := SeedAdmin(context.Background(), users, newHasher(), SeedAdminInput{
			Email: "taken@example.com", Password: "Sup3r-secret!",
		})
		assert.ErrorContains(t, err, "already registered as buyer")
	})

	t.Run("invalid input", func(t *testing.T) {
		users := new(MockUserRepository)
		_, _, err := SeedAdmin(context.Background(), users, newHasher(), SeedAdminInput{Email: "nope", Password: "Sup3r-secret!"})
		assert.Error(t, err)
		_, _, err = SeedAdmin(context.Background(), users, newHasher(), SeedAdminInput{Email: "a@example.com", Password: "short"})
		assert.Error(t, err)
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})
}
