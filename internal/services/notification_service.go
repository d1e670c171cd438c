package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"charityops_backend/internal/logger"
	"charityops_backend/internal/metrics"
	"charityops_backend/internal/models"
	"charityops_backend/internal/repositories"
	"charityops_backend/internal/services/dto"
	"charityops_backend/pkg/apperrors"

	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

// Actor describes who triggered a domain event.
type Actor struct {
	ID        string
	Name      string
	AvatarURL string
}

// Event is the producer-facing fan-out contract: one domain event that
// becomes one independent notification row per resolved recipient.
type Event struct {
	Audience  Audience
	Type      string
	Content   string
	RelatedID string // optional; the entity the event concerns
	Actor     *Actor
	Data      map[string]interface{} // optional producer payload
}

type NotificationService interface {
	// Notify resolves the audience and fans the event out. Resolution
	// failures propagate; per-recipient insert failures are logged and
	// only shrink the result. Calling Notify twice for the same logical
	// event produces two rows per recipient: there is no dedup.
	Notify(ctx context.Context, event Event) ([]*dto.NotificationResponse, error)

	GetRecipientNotifications(ctx context.Context, recipientID string) (*dto.NotificationListResponse, error)
	GetUnreadCount(ctx context.Context, recipientID string) (int64, error)
	MarkAsRead(ctx context.Context, recipientID, notificationID string) (*dto.NotificationResponse, error)
	MarkAllAsRead(ctx context.Context, recipientID string) (int64, error)

	// Producer helpers for common event types.
	NotifyNewUser(ctx context.Context, name, kind, userID string, actor *Actor) error
	NotifyEventJoined(ctx context.Context, participantName, eventTitle, eventID string, actor *Actor) error
	NotifyEventLeft(ctx context.Context, participantName, eventTitle, eventID string, actor *Actor) error
	NotifyScholarDonation(ctx context.Context, donorName, scholarName string, amount float64, donationID string, actor *Actor) error
	NotifyDonationVerified(ctx context.Context, donorName string, amount float64, donationID string) error
	NotifyDonationRejected(ctx context.Context, donorName string, amount float64, donationID string) error
	NotifyReportCard(ctx context.Context, scholarName, reportCardID string, actor *Actor) error
	NotifyDistribution(ctx context.Context, quantity int, itemName, scholarName, distributionID string) error
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	resolver         RecipientResolver
	concurrency      int
}

func NewNotificationService(
	notificationRepo repositories.NotificationRepository,
	resolver RecipientResolver,
	concurrency int,
) NotificationService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &notificationService{
		notificationRepo: notificationRepo,
		resolver:         resolver,
		concurrency:      concurrency,
	}
}

// ---------------- Fan-out ----------------

func (s *notificationService) Notify(ctx context.Context, event Event) ([]*dto.NotificationResponse, error) {
	if event.Type == "" {
		return nil, apperrors.NewBadRequestError("notification type is required")
	}
	if event.Content == "" {
		return nil, apperrors.NewBadRequestError("notification content is required")
	}

	recipients, err := s.resolver.Resolve(ctx, event.Audience)
	if err != nil {
		return nil, apperrors.ResolutionError(err)
	}

	metrics.FanOutEvents.WithLabelValues(event.Type).Inc()

	responses := make([]*dto.NotificationResponse, 0, len(recipients))
	if len(recipients) == 0 {
		return responses, nil
	}

	for _, n := range s.fanOut(ctx, event, recipients) {
		responses = append(responses, buildNotificationResponse(n))
	}
	return responses, nil
}

// fanOut attempts one independent insert per recipient. A failed insert is
// logged and that recipient omitted from the result; sibling inserts are
// never aborted and there is no cross-recipient transaction.
func (s *notificationService) fanOut(ctx context.Context, event Event, recipients []string) []*models.Notification {
	var (
		mu      sync.Mutex
		created []*models.Notification
	)

	var payload datatypes.JSON
	if event.Data != nil {
		if raw, err := json.Marshal(event.Data); err == nil {
			payload = datatypes.JSON(raw)
		} else {
			logger.CtxWithError(ctx, "failed to marshal notification payload", err, "type", event.Type)
		}
	}

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, recipientID := range recipients {
		recipientID := recipientID
		g.Go(func() error {
			n := buildNotification(event, recipientID, payload)
			if err := s.notificationRepo.Create(n); err != nil {
				logger.CtxWithError(ctx, "fan-out insert failed", err,
					"recipient_id", recipientID,
					"type", event.Type,
				)
				metrics.FanOutRecipients.WithLabelValues("failed").Inc()
				return nil
			}
			metrics.FanOutRecipients.WithLabelValues("created").Inc()

			mu.Lock()
			created = append(created, n)
			mu.Unlock()
			return nil
		})
	}
	// Workers always return nil; failures only shrink the result.
	_ = g.Wait()

	return created
}

func buildNotification(event Event, recipientID string, payload datatypes.JSON) *models.Notification {
	n := &models.Notification{
		RecipientID: recipientID,
		Type:        event.Type,
		Content:     event.Content,
		Data:        payload,
	}
	if event.RelatedID != "" {
		related := event.RelatedID
		n.RelatedID = &related
	}
	if event.Actor != nil {
		actorID := event.Actor.ID
		n.ActorID = &actorID
		n.ActorName = event.Actor.Name
		n.ActorAvatar = event.Actor.AvatarURL
	}
	return n
}

// ---------------- Read path ----------------

func (s *notificationService) GetRecipientNotifications(ctx context.Context, recipientID string) (*dto.NotificationListResponse, error) {
	notifications, err := s.notificationRepo.FindByRecipient(recipientID)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, buildNotificationResponse(&notifications[i]))
	}
	return &dto.NotificationListResponse{
		Notifications: responses,
		Total:         len(responses),
	}, nil
}

func (s *notificationService) GetUnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.notificationRepo.CountUnread(recipientID)
}

// ---------------- Read-state transitions ----------------

func (s *notificationService) MarkAsRead(ctx context.Context, recipientID, notificationID string) (*dto.NotificationResponse, error) {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		return nil, err
	}
	// Another recipient's notification is indistinguishable from a
	// missing one.
	if notification.RecipientID != recipientID {
		return nil, repositories.ErrNotificationNotFound
	}

	wasUnread := !notification.IsRead

	updated, err := s.notificationRepo.MarkAsRead(notificationID)
	if err != nil {
		return nil, err
	}
	if wasUnread {
		metrics.MarkedRead.WithLabelValues("single").Inc()
	}
	return buildNotificationResponse(updated), nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, recipientID string) (int64, error) {
	changed, err := s.notificationRepo.MarkAllAsRead(recipientID)
	if err != nil {
		return 0, err
	}
	if changed > 0 {
		metrics.MarkedRead.WithLabelValues("all").Add(float64(changed))
	}
	return changed, nil
}

// ---------------- Producer helpers ----------------

func (s *notificationService) notifyAdmins(ctx context.Context, typ, content, relatedID string, actor *Actor) error {
	_, err := s.Notify(ctx, Event{
		Audience:  AllAdmins(),
		Type:      typ,
		Content:   content,
		RelatedID: relatedID,
		Actor:     actor,
	})
	return err
}

// NotifyNewUser announces a registration. kind is the role the user
// registered as ("scholar", "volunteer", ...); it drives categorization.
func (s *notificationService) NotifyNewUser(ctx context.Context, name, kind, userID string, actor *Actor) error {
	content := fmt.Sprintf("New %s registered: %s", kind, name)
	return s.notifyAdmins(ctx, "new_user", content, userID, actor)
}

func (s *notificationService) NotifyEventJoined(ctx context.Context, participantName, eventTitle, eventID string, actor *Actor) error {
	content := fmt.Sprintf("%s has joined event: %q", participantName, eventTitle)
	return s.notifyAdmins(ctx, "event_participant", content, eventID, actor)
}

func (s *notificationService) NotifyEventLeft(ctx context.Context, participantName, eventTitle, eventID string, actor *Actor) error {
	content := fmt.Sprintf("%s has left event: %q", participantName, eventTitle)
	return s.notifyAdmins(ctx, "event_leave", content, eventID, actor)
}

func (s *notificationService) NotifyScholarDonation(ctx context.Context, donorName, scholarName string, amount float64, donationID string, actor *Actor) error {
	content := fmt.Sprintf("New scholar donation: ₱%.2f for %s from %s is waiting for verification.", amount, scholarName, donorName)
	return s.notifyAdmins(ctx, "scholar_donation", content, donationID, actor)
}

func (s *notificationService) NotifyDonationVerified(ctx context.Context, donorName string, amount float64, donationID string) error {
	content := fmt.Sprintf("Donation of ₱%.2f from %s has been verified", amount, donorName)
	return s.notifyAdmins(ctx, "donation_verified", content, donationID, nil)
}

func (s *notificationService) NotifyDonationRejected(ctx context.Context, donorName string, amount float64, donationID string) error {
	content := fmt.Sprintf("Donation of ₱%.2f from %s has been rejected", amount, donorName)
	return s.notifyAdmins(ctx, "donation_rejected", content, donationID, nil)
}

func (s *notificationService) NotifyReportCard(ctx context.Context, scholarName, reportCardID string, actor *Actor) error {
	content := fmt.Sprintf("A new report card was submitted for %s", scholarName)
	return s.notifyAdmins(ctx, "report_card", content, reportCardID, actor)
}

func (s *notificationService) NotifyDistribution(ctx context.Context, quantity int, itemName, scholarName, distributionID string) error {
	content := fmt.Sprintf("%d pcs of %s has been distributed to %s (scholar)", quantity, itemName, scholarName)
	return s.notifyAdmins(ctx, "distribution", content, distributionID, nil)
}

// ---------------- Helpers ----------------

func buildNotificationResponse(n *models.Notification) *dto.NotificationResponse {
	response := &dto.NotificationResponse{
		ID:          n.ID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Content:     n.Content,
		RelatedID:   n.RelatedID,
		Read:        n.IsRead,
		ReadAt:      n.ReadAt,
		CreatedAt:   n.CreatedAt,
	}

	if n.ActorID != nil {
		response.Actor = &dto.ActorResponse{
			ID:        *n.ActorID,
			Name:      n.ActorName,
			AvatarURL: n.ActorAvatar,
		}
	}

	if len(n.Data) > 0 {
		var data map[string]interface{}
		if err := json.Unmarshal(n.Data, &data); err == nil {
			response.Data = data
		}
	}
	return response
}
