package client

import (
	"context"
	"time"

	"charityops_backend/internal/config"
	"charityops_backend/internal/services"
	"charityops_backend/internal/services/dto"
)

// ServiceFetcher backs a Feed with the in-process notification service.
type ServiceFetcher struct {
	service services.NotificationService
}

func NewServiceFetcher(service services.NotificationService) *ServiceFetcher {
	return &ServiceFetcher{service: service}
}

// NewServiceFeed builds a Feed for one recipient that polls the in-process
// notification service at the configured interval.
func NewServiceFeed(service services.NotificationService, recipientID string) *Feed {
	interval := time.Duration(config.GetConfig().Notifications.PollIntervalSeconds) * time.Second
	return NewFeed(NewServiceFetcher(service), recipientID, interval)
}

func (f *ServiceFetcher) Notifications(ctx context.Context, recipientID string) ([]*dto.NotificationResponse, error) {
	list, err := f.service.GetRecipientNotifications(ctx, recipientID)
	if err != nil {
		return nil, err
	}
	return list.Notifications, nil
}

func (f *ServiceFetcher) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	_, err := f.service.MarkAsRead(ctx, recipientID, notificationID)
	return err
}

func (f *ServiceFetcher) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	return f.service.MarkAllAsRead(ctx, recipientID)
}
