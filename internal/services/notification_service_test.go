package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"charityops_backend/internal/metrics"
	"charityops_backend/internal/models"
	"charityops_backend/internal/repositories"
	"charityops_backend/pkg/apperrors"

	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Notification{}))
	return db
}

func seedAdmins(t *testing.T, db *gorm.DB, n int) []string {
	t.Helper()

	userRepo := repositories.NewUserRepository(db)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		admin := &models.User{
			Email:        fmt.Sprintf("admin%d@charityops.local", i),
			PasswordHash: "x",
			Name:         fmt.Sprintf("Admin %d", i),
			Role:         models.UserRoleAdmin,
			Status:       models.UserStatusActive,
		}
		require.NoError(t, userRepo.Create(admin))
		ids = append(ids, admin.ID)
	}
	return ids
}

func newService(db *gorm.DB) (NotificationService, repositories.NotificationRepository) {
	notificationRepo := repositories.NewNotificationRepository(db)
	resolver := NewRecipientResolver(repositories.NewUserRepository(db))
	return NewNotificationService(notificationRepo, resolver, 4), notificationRepo
}

// failingNotificationRepo fails Create for selected recipients and
// delegates everything else.
type failingNotificationRepo struct {
	repositories.NotificationRepository
	failFor map[string]bool
}

func (r *failingNotificationRepo) Create(n *models.Notification) error {
	if r.failFor[n.RecipientID] {
		return errors.New("simulated storage failure")
	}
	return r.NotificationRepository.Create(n)
}

// erroringUserRepo simulates an unavailable roster store.
type erroringUserRepo struct {
	repositories.UserRepository
}

func (r *erroringUserRepo) FindAdmins() ([]models.User, error) {
	return nil, errors.New("roster storage unavailable")
}

func TestNotify_FanOutCardinality(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	admins := seedAdmins(t, db, 3)
	svc, _ := newService(db)

	created, err := svc.Notify(context.Background(), Event{
		Audience:  AllAdmins(),
		Type:      "new_user",
		Content:   "Jane Doe has registered as a scholar",
		RelatedID: "42",
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	seenIDs := make(map[string]bool)
	seenRecipients := make(map[string]bool)
	for _, n := range created {
		assert.False(t, seenIDs[n.ID], "ids must be distinct")
		seenIDs[n.ID] = true
		seenRecipients[n.RecipientID] = true
		assert.False(t, n.Read)
		assert.Equal(t, "new_user", n.Type)
		assert.Equal(t, "Jane Doe has registered as a scholar", n.Content)
		require.NotNil(t, n.RelatedID)
		assert.Equal(t, "42", *n.RelatedID)
	}
	for _, id := range admins {
		assert.True(t, seenRecipients[id], "every admin receives a copy")
	}
}

func TestNotify_EmptyRoster(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, _ := newService(db)

	created, err := svc.Notify(context.Background(), Event{
		Audience: AllAdmins(),
		Type:     "test",
		Content:  "nobody listening",
	})
	require.NoError(t, err)
	assert.Empty(t, created)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "an empty roster performs zero store writes")
}

func TestNotify_ExplicitRecipients(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, _ := newService(db)

	created, err := svc.Notify(context.Background(), Event{
		Audience: Recipients("r1", "r2"),
		Type:     "test",
		Content:  "direct",
	})
	require.NoError(t, err)
	assert.Len(t, created, 2)
}

func TestNotify_PartialFailureIsolation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	notificationRepo := &failingNotificationRepo{
		NotificationRepository: repositories.NewNotificationRepository(db),
		failFor:                map[string]bool{"r2": true},
	}
	resolver := NewRecipientResolver(repositories.NewUserRepository(db))
	svc := NewNotificationService(notificationRepo, resolver, 4)

	created, err := svc.Notify(context.Background(), Event{
		Audience: Recipients("r1", "r2", "r3"),
		Type:     "distribution",
		Content:  "5 pcs of Notebooks has been distributed to John Doe (scholar)",
	})
	require.NoError(t, err, "a per-recipient failure never propagates")
	require.Len(t, created, 2)

	recipients := map[string]bool{}
	for _, n := range created {
		recipients[n.RecipientID] = true
		assert.Equal(t, "distribution", n.Type)
		assert.False(t, n.Read)
	}
	assert.True(t, recipients["r1"])
	assert.True(t, recipients["r3"])
	assert.False(t, recipients["r2"])
}

func TestNotify_ResolutionErrorPropagates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	notificationRepo := repositories.NewNotificationRepository(db)
	resolver := NewRecipientResolver(&erroringUserRepo{})
	svc := NewNotificationService(notificationRepo, resolver, 4)

	_, err := svc.Notify(context.Background(), Event{
		Audience: AllAdmins(),
		Type:     "test",
		Content:  "x",
	})
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, apperrors.As(err, &appErr))
	assert.Equal(t, apperrors.CodeResolutionFailed, appErr.Code)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "fan-out is not attempted when resolution fails")
}

func TestNotify_NoDedup(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	seedAdmins(t, db, 2)
	svc, _ := newService(db)

	event := Event{
		Audience:  AllAdmins(),
		Type:      "donation_verified",
		Content:   "Donation of ₱500.00 from Bob has been verified",
		RelatedID: "d-1",
	}
	_, err := svc.Notify(context.Background(), event)
	require.NoError(t, err)
	_, err = svc.Notify(context.Background(), event)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	assert.EqualValues(t, 4, count, "repeated fan-outs produce duplicate rows per recipient")
}

func TestMarkAsRead_OwnershipAndIdempotence(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, _ := newService(db)
	ctx := context.Background()

	created, err := svc.Notify(ctx, Event{
		Audience: Recipients("admin-1"),
		Type:     "test",
		Content:  "hello",
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	id := created[0].ID

	// Another recipient cannot see or mark it.
	_, err = svc.MarkAsRead(ctx, "admin-2", id)
	assert.ErrorIs(t, err, repositories.ErrNotificationNotFound)

	first, err := svc.MarkAsRead(ctx, "admin-1", id)
	require.NoError(t, err)
	assert.True(t, first.Read)

	second, err := svc.MarkAsRead(ctx, "admin-1", id)
	require.NoError(t, err)
	assert.True(t, second.Read)
	assert.Equal(t, first.Content, second.Content)
	assert.Equal(t, first.CreatedAt.Unix(), second.CreatedAt.Unix())
}

// markFailRepo delegates everything but fails the read transition.
type markFailRepo struct {
	repositories.NotificationRepository
}

func (r *markFailRepo) MarkAsRead(notificationID string) (*models.Notification, error) {
	return nil, errors.New("simulated storage failure")
}

// Not parallel: it reads a process-wide counter around the failing call.
func TestMarkAsRead_FailedUpdateNotCounted(t *testing.T) {
	db := newTestDB(t)
	svc, repo := newService(db)
	ctx := context.Background()

	created, err := svc.Notify(ctx, Event{
		Audience: Recipients("admin-1"),
		Type:     "test",
		Content:  "hello",
	})
	require.NoError(t, err)
	require.Len(t, created, 1)

	failingSvc := NewNotificationService(
		&markFailRepo{NotificationRepository: repo},
		NewRecipientResolver(repositories.NewUserRepository(db)),
		4,
	)

	before := testutil.ToFloat64(metrics.MarkedRead.WithLabelValues("single"))

	_, err = failingSvc.MarkAsRead(ctx, "admin-1", created[0].ID)
	require.Error(t, err)

	after := testutil.ToFloat64(metrics.MarkedRead.WithLabelValues("single"))
	assert.Equal(t, before, after, "a failed update is not a read transition")

	// The row is still unread.
	count, err := repo.CountUnread("admin-1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMarkAllAsRead_ReturnsCountThenZero(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	svc, _ := newService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Notify(ctx, Event{
			Audience: Recipients("admin-1"),
			Type:     "test",
			Content:  fmt.Sprintf("n%d", i),
		})
		require.NoError(t, err)
	}

	changed, err := svc.MarkAllAsRead(ctx, "admin-1")
	require.NoError(t, err)
	assert.EqualValues(t, 3, changed)

	changed, err = svc.MarkAllAsRead(ctx, "admin-1")
	require.NoError(t, err)
	assert.EqualValues(t, 0, changed)
}

func TestNotify_EndToEndScenario(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	admins := seedAdmins(t, db, 3)
	svc, _ := newService(db)
	ctx := context.Background()

	created, err := svc.Notify(ctx, Event{
		Audience:  AllAdmins(),
		Type:      "new_user",
		Content:   "Jane Doe has registered as a scholar",
		RelatedID: "42",
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	for _, id := range admins {
		count, err := svc.GetUnreadCount(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	}

	// One admin opens and dismisses the panel.
	changed, err := svc.MarkAllAsRead(ctx, admins[0])
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	count, err := svc.GetUnreadCount(ctx, admins[0])
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)

	// The other two are unaffected: rows are independent per recipient.
	for _, id := range admins[1:] {
		count, err := svc.GetUnreadCount(ctx, id)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	}
}

func TestProducerHelpers(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	seedAdmins(t, db, 1)
	svc, _ := newService(db)
	ctx := context.Background()

	actor := &Actor{ID: "u-1", Name: "Jane", AvatarURL: "https://cdn.example.com/jane.png"}

	require.NoError(t, svc.NotifyNewUser(ctx, "Jane", "scholar", "u-1", actor))
	require.NoError(t, svc.NotifyEventLeft(ctx, "Bob", "Outreach Day", "e-1", nil))
	require.NoError(t, svc.NotifyScholarDonation(ctx, "Bob", "Alice", 500, "d-1", nil))
	require.NoError(t, svc.NotifyDistribution(ctx, 5, "Notebooks", "John Doe", "dist-1"))

	list, err := svc.GetRecipientNotifications(ctx, mustFirstAdminID(t, db))
	require.NoError(t, err)
	require.Equal(t, 4, list.Total)

	contents := make(map[string]string)
	for _, n := range list.Notifications {
		contents[n.Type] = n.Content
	}
	assert.Equal(t, "New scholar registered: Jane", contents["new_user"])
	assert.Equal(t, `Bob has left event: "Outreach Day"`, contents["event_leave"])
	assert.Equal(t, "New scholar donation: ₱500.00 for Alice from Bob is waiting for verification.", contents["scholar_donation"])
	assert.Equal(t, "5 pcs of Notebooks has been distributed to John Doe (scholar)", contents["distribution"])
}

func mustFirstAdminID(t *testing.T, db *gorm.DB) string {
	t.Helper()

	var admin models.User
	require.NoError(t, db.Where("role = ?", models.UserRoleAdmin).First(&admin).Error)
	return admin.ID
}
