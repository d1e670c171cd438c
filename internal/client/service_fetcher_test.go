package client

import (
	"context"
	"fmt"
	"testing"
	"time"

	"charityops_backend/internal/config"
	"charityops_backend/internal/models"
	"charityops_backend/internal/repositories"
	"charityops_backend/internal/services"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newServiceStack(t *testing.T) (services.NotificationService, repositories.NotificationRepository, []string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))

	userRepo := repositories.NewUserRepository(db)
	adminIDs := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		admin := &models.User{
			Email:        fmt.Sprintf("admin%d@charityops.local", i),
			PasswordHash: "x",
			Name:         fmt.Sprintf("Admin %d", i),
			Role:         models.UserRoleAdmin,
			Status:       models.UserStatusActive,
		}
		require.NoError(t, userRepo.Create(admin))
		adminIDs = append(adminIDs, admin.ID)
	}

	notificationRepo := repositories.NewNotificationRepository(db)
	service := services.NewNotificationService(
		notificationRepo,
		services.NewRecipientResolver(userRepo),
		4,
	)
	return service, notificationRepo, adminIDs
}

// The feed polling the real service must observe fan-out output and push
// read transitions all the way down to the store.
func TestServiceFeed_EndToEnd(t *testing.T) {
	cfg := &config.Config{}
	cfg.Notifications.PollIntervalSeconds = 30
	cfg.Notifications.FanOutConcurrency = 4
	config.AppConfig = cfg

	service, notificationRepo, adminIDs := newServiceStack(t)
	ctx := context.Background()

	created, err := service.Notify(ctx, services.Event{
		Audience: services.AllAdmins(),
		Type:     "new_user",
		Content:  "New scholar registered: Jane",
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	feed := NewServiceFeed(service, adminIDs[0])
	assert.Equal(t, 30*time.Second, feed.interval)

	require.NoError(t, feed.Refresh(ctx))
	items := feed.Notifications()
	require.Len(t, items, 1)
	assert.False(t, items[0].Read)
	assert.Equal(t, 1, feed.UnreadCount())

	// Single click: the flip reaches the store, not just the snapshot.
	require.NoError(t, feed.MarkRead(ctx, items[0].ID))
	count, err := notificationRepo.CountUnread(adminIDs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Other recipients' copies stay unread.
	count, err = notificationRepo.CountUnread(adminIDs[1])
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	// A second event arrives; closing the panel commits it server-side.
	_, err = service.Notify(ctx, services.Event{
		Audience: services.AllAdmins(),
		Type:     "distribution",
		Content:  "5 pcs of Notebooks has been distributed to John Doe (scholar)",
	})
	require.NoError(t, err)

	require.NoError(t, feed.Refresh(ctx))
	assert.Equal(t, 1, feed.UnreadCount())

	require.NoError(t, feed.Dismiss(ctx))
	count, err = notificationRepo.CountUnread(adminIDs[0])
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The next poll agrees with the store.
	require.NoError(t, feed.Refresh(ctx))
	assert.Equal(t, 0, feed.UnreadCount())
}
