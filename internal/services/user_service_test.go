package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"
	"storefront/pkg/hash"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func newHasher() *hash.Bcrypt {
	return hash.NewBcrypt(bcrypt.MinCost)
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	pub := new(MockPublisher)
	hasher := newHasher()
	svc := services.NewUserService(repo, hasher, pub, zap.NewNop())

	repo.On("GetByEmail", ctx, "ada@example.com").Return(nil, repositories.ErrNotFound).Once()
	repo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()
	pub.On("Publish", ctx, services.EventUserRegistered, mock.Anything).Return(nil).Once()

	user, err := svc.Create(ctx, services.CreateUserInput{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret1", user.Password)
	assert.True(t, hasher.Verify("secret1", user.Password))
	repo.AssertExpectations(t)
	pub.AssertExpectations(t)
}

func TestUserService_CreateDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByEmail", ctx, "ada@example.com").Return(&models.User{ID: "1", Email: "ada@example.com"}, nil).Once()

	_, err := svc.Create(ctx, services.CreateUserInput{Username: "ada2", Email: "ada@example.com", Password: "other1"})
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_CreateRaceLostToUniqueIndex(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByEmail", ctx, "ada@example.com").Return(nil, repositories.ErrNotFound).Once()
	repo.On("Create", ctx, mock.Anything).Return(repositories.ErrDuplicate).Once()

	_, err := svc.Create(ctx, services.CreateUserInput{Username: "ada", Email: "ada@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
}

func TestUserService_CreateInvalidRole(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByEmail", ctx, "ada@example.com").Return(nil, repositories.ErrNotFound).Once()

	_, err := svc.Create(ctx, services.CreateUserInput{Email: "ada@example.com", Password: "secret1", Role: "root"})
	assert.ErrorIs(t, err, services.ErrInvalidRole)
}

func TestUserService_FindByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByID", ctx, "missing").Return(nil, repositories.ErrNotFound).Once()

	_, err := svc.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestUserService_UpdateRehashesPassword(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	hasher := newHasher()
	svc := services.NewUserService(repo, hasher, nil, zap.NewNop())

	oldHash, err := hasher.Hash("oldpass")
	require.NoError(t, err)
	stored := &models.User{ID: "u1", Username: "ada", Email: "ada@example.com", Password: oldHash, Role: models.RoleUser}

	repo.On("GetByID", ctx, "u1").Return(stored, nil)
	repo.On("Update", ctx, mock.AnythingOfType("*models.User")).Return(nil).Once()

	newName := "ada lovelace"
	newPass := "newpass"
	updated, err := svc.Update(ctx, "u1", services.UpdateUserInput{Username: &newName, Password: &newPass})
	require.NoError(t, err)
	assert.Equal(t, "ada lovelace", updated.Username)
	assert.Equal(t, "ada@example.com", updated.Email)
	assert.True(t, hasher.Verify("newpass", updated.Password))
	assert.False(t, hasher.Verify("oldpass", updated.Password))
}

func TestUserService_UpdateEmailTaken(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByID", ctx, "u1").Return(&models.User{ID: "u1", Email: "ada@example.com"}, nil).Once()
	repo.On("GetByEmail", ctx, "bob@example.com").Return(&models.User{ID: "u2", Email: "bob@example.com"}, nil).Once()

	email := "bob@example.com"
	_, err := svc.Update(ctx, "u1", services.UpdateUserInput{Email: &email})
	assert.ErrorIs(t, err, services.ErrDuplicateEmail)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_DeleteReturnsSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	pub := new(MockPublisher)
	svc := services.NewUserService(repo, newHasher(), pub, zap.NewNop())

	repo.On("GetByID", ctx, "u1").Return(&models.User{ID: "u1", Email: "ada@example.com"}, nil).Once()
	repo.On("Delete", ctx, "u1").Return(nil).Once()
	pub.On("Publish", ctx, services.EventUserDeleted, mock.Anything).Return(errors.New("broker down")).Once()

	user, err := svc.Delete(ctx, "u1")
	require.NoError(t, err, "publish failures are not surfaced")
	assert.Equal(t, "u1", user.ID)
	pub.AssertExpectations(t)
}

func TestUserService_EnsureAdmin(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())

	repo.On("GetByEmail", ctx, "root@example.com").Return(nil, repositories.ErrNotFound).Twice()
	repo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin
	})).Return(nil).Once()

	admin, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	existing := &models.User{ID: "a1", Email: "root@example.com", Role: models.RoleAdmin}
	repo.On("GetByEmail", ctx, "root@example.com").Return(existing, nil).Once()
	again, err := svc.EnsureAdmin(ctx, "root", "root@example.com", "rootpass")
	require.NoError(t, err)
	assert.Equal(t, "a1", again.ID)
	repo.AssertExpectations(t)
}

func TestUserService_PasswordTooLong(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := services.NewUserService(repo, newHasher(), nil, zap.NewNop())
	long := strings.Repeat("a", 73)

	repo.On("GetByEmail", ctx, "ada@example.com").Return(nil, repositories.ErrNotFound)
	_, err := svc.Create(ctx, services.CreateUserInput{Username: "ada", Email: "ada@example.com", Password: long})
	assert.ErrorIs(t, err, services.ErrPasswordTooLong)

	repo.On("GetByEmail", ctx, "root@example.com").Return(nil, repositories.ErrNotFound)
	_, err = svc.EnsureAdmin(ctx, "root", "root@example.com", long)
	assert.ErrorIs(t, err, services.ErrPasswordTooLong)

	repo.On("GetByID", ctx, "u1").Return(&models.User{ID: "u1", Email: "ada@example.com"}, nil).Once()
	_, err = svc.Update(ctx, "u1", services.UpdateUserInput{Password: &long})
	assert.ErrorIs(t, err, services.ErrPasswordTooLong)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
