package models

import "github.com/google/uuid"

// ResourceEvent describes a change to a cat or an achievement.
type ResourceEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Resource   string    `json:"resource"`
	ResourceID int64     `json:"resource_id"`
	Action     string    `json:"action"` // created, updated, deleted
	Actor      string    `json:"actor"`
	Timestamp  int64     `json:"timestamp"`
}
