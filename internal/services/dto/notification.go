package dto

import "time"

// ---------------- Requests ----------------

type TestNotificationRequest struct {
	Content string `json:"content" validate:"omitempty,max=1000"`
}

// ---------------- Responses ----------------

type ActorResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type NotificationResponse struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipient_id"`
	Type        string                 `json:"type"`
	Content     string                 `json:"content"`
	RelatedID   *string                `json:"related_id,omitempty"`
	Actor       *ActorResponse         `json:"actor,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
	Read        bool                   `json:"read"`
	ReadAt      *time.Time             `json:"read_at,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []*NotificationResponse `json:"notifications"`
	Total         int                     `json:"total"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type MarkAllReadResponse struct {
	Marked int64 `json:"marked"`
}
