// Package client implements the admin panel's view of the notification
// pipeline: a polled snapshot of one recipient's notifications with
// optimistic read-state and per-category unread counters.
package client

import (
	"context"
	"sync"
	"time"

	"charityops_backend/internal/algorithms"
	"charityops_backend/internal/logger"
	"charityops_backend/internal/services/dto"
)

// Fetcher is the server surface the feed polls and writes read-state
// through. In-process it is backed by the notification service; a remote
// panel would back it with HTTP calls.
type Fetcher interface {
	Notifications(ctx context.Context, recipientID string) ([]*dto.NotificationResponse, error)
	MarkRead(ctx context.Context, recipientID, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) (int64, error)
}

// Feed holds one recipient's local notification snapshot. Read-state
// updates are optimistic: the local view flips immediately and a failed
// server call is logged but never rolled back; the next poll cycle is the
// reconciliation mechanism. MarkRead and Dismiss still return the error so
// a caller may retry.
type Feed struct {
	fetcher     Fetcher
	recipientID string
	interval    time.Duration

	mu    sync.Mutex
	items []*dto.NotificationResponse
}

func NewFeed(fetcher Fetcher, recipientID string, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Feed{
		fetcher:     fetcher,
		recipientID: recipientID,
		interval:    interval,
	}
}

// Start polls until the context is cancelled (session teardown). A slow
// fetch is never cancelled mid-flight; it simply delays the next tick.
func (f *Feed) Start(ctx context.Context) {
	if err := f.Refresh(ctx); err != nil {
		f.logSyncError(ctx, "initial notification poll failed", err)
	}

	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.logSyncError(ctx, "notification poll failed", err)
			}
		}
	}
}

// Refresh replaces the local snapshot with the server's committed state,
// discarding any optimistic flags that did not stick.
func (f *Feed) Refresh(ctx context.Context) error {
	items, err := f.fetcher.Notifications(ctx, f.recipientID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.items = items
	f.mu.Unlock()
	return nil
}

// Notifications returns a copy of the current snapshot, most-recent-first.
func (f *Feed) Notifications() []*dto.NotificationResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*dto.NotificationResponse, len(f.items))
	copy(out, f.items)
	return out
}

// UnreadCount is the local unread total, including optimistic flips.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, n := range f.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// CategoryCounts returns per-category unread counters for the panel tabs.
// The "all" tab carries the total unread count, not a filtered count.
func (f *Feed) CategoryCounts() map[algorithms.Category]int {
	f.mu.Lock()
	defer f.mu.Unlock()

	counts := make(map[algorithms.Category]int)
	total := 0
	for _, n := range f.items {
		if n.Read {
			continue
		}
		total++
		category := algorithms.Classify(n.Type, n.Content)
		if category != algorithms.CategoryAll {
			counts[category]++
		}
	}
	counts[algorithms.CategoryAll] = total
	return counts
}

// MarkRead handles a single click on one notification. The local flag
// flips before the server call; on failure the flip stays and the error is
// both logged and returned.
func (f *Feed) MarkRead(ctx context.Context, notificationID string) error {
	f.mu.Lock()
	for _, n := range f.items {
		if n.ID == notificationID {
			n.Read = true
			break
		}
	}
	f.mu.Unlock()

	if err := f.fetcher.MarkRead(ctx, f.recipientID, notificationID); err != nil {
		f.logSyncError(ctx, "mark-read sync failed", err)
		return err
	}
	return nil
}

// Dismiss handles the panel closing, whether through the explicit
// "mark all as read" control or the panel losing focus. Every unread
// notification is committed to read by the dismissal itself, without a
// per-item click.
func (f *Feed) Dismiss(ctx context.Context) error {
	f.mu.Lock()
	for _, n := range f.items {
		n.Read = true
	}
	f.mu.Unlock()

	if _, err := f.fetcher.MarkAllRead(ctx, f.recipientID); err != nil {
		f.logSyncError(ctx, "mark-all-read sync failed", err)
		return err
	}
	return nil
}

// Sync failures are invisible to the end user; poll-cycle convergence is
// the recovery path.
func (f *Feed) logSyncError(ctx context.Context, msg string, err error) {
	logger.CtxWithError(ctx, msg, err, "recipient_id", f.recipientID)
}
