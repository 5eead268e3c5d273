package service

import (
	"context"
	"strings"
	"testing"

	"feedhub/internal/cache"
	"feedhub/internal/database"
	"feedhub/internal/models"
	"feedhub/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserService_UpdateStatus(t *testing.T) {
	t.Parallel()

	t.Run("sets the status", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		var gotID uint
		var gotStatus string
		users.updateStatusFn = func(_ context.Context, userID uint, status string) error {
			gotID = userID
			gotStatus = status
			return nil
		}
		users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Status: gotStatus}, nil
		}

		svc := NewUserService(users)
		user, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{UserID: 1, Status: "shipping it"})
		require.NoError(t, err)
		assert.Equal(t, uint(1), gotID)
		assert.Equal(t, "shipping it", gotStatus)
		assert.Equal(t, "shipping it", user.Status)
	})

	t.Run("empty status clears it", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		cleared := false
		users.updateStatusFn = func(_ context.Context, _ uint, status string) error {
			cleared = status == ""
			return nil
		}

		svc := NewUserService(users)
		user, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{UserID: 1, Status: ""})
		require.NoError(t, err)
		assert.True(t, cleared)
		assert.Empty(t, user.Status)
	})

	t.Run("status too long", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{UserID: 1, Status: strings.Repeat("x", 281)})
		assertValidationError(t, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		t.Parallel()
		users := noopUserRepo()
		users.updateStatusFn = func(_ context.Context, userID uint, _ string) error {
			return models.NewNotFoundError("User", userID)
		}

		svc := NewUserService(users)
		_, err := svc.UpdateStatus(context.Background(), UpdateStatusInput{UserID: 404, Status: "hello"})
		assertNotFoundError(t, err)
	})
}

// Not parallel: swaps the package-level cache client.
func TestUserService_UpdateStatus_KeepsCredentialHash(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	require.NoError(t, db.Create(&models.User{
		Username: "mina",
		Email:    "mina@example.com",
		Password: "bcrypt-hash",
		Status:   "old",
	}).Error)

	repo := repository.NewUserRepository(db)
	svc := NewUserService(repo)
	ctx := context.Background()

	// Warm the cache the way GET /users/me does. The cached copy never
	// carries the password hash.
	_, err = repo.GetByID(ctx, 1)
	require.NoError(t, err)
	cached, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, cached.Password)

	updated, err := svc.UpdateStatus(ctx, UpdateStatusInput{UserID: 1, Status: "new status"})
	require.NoError(t, err)
	assert.Equal(t, "new status", updated.Status)

	var stored models.User
	require.NoError(t, db.First(&stored, 1).Error)
	assert.Equal(t, "new status", stored.Status)
	assert.Equal(t, "bcrypt-hash", stored.Password, "status update must not erase the credential hash")
}
