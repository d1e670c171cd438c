package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is one admin's copy of a domain event. Rows are created by
// the fan-out engine and, apart from the read flag, never mutated afterwards.
type Notification struct {
	BaseModel
	RecipientID string `gorm:"not null;index"`
	Type        string `gorm:"not null"` // "new_user", "donation_verified", "distribution", ...
	Content     string `gorm:"not null"`

	// RelatedID references the domain entity the event concerns (event id,
	// donation id, distribution id, user id); its meaning depends on Type.
	RelatedID *string

	// Actor: who triggered the event, shown with name/avatar in the panel.
	ActorID     *string
	ActorName   string
	ActorAvatar string

	Data datatypes.JSON `gorm:"type:jsonb"` // optional producer payload

	IsRead bool `gorm:"default:false;index"`
	ReadAt *time.Time
}
