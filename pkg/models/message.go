package models

import (
	"time"

	"github.com/google/uuid"
)

// Message is a direct message between two users in the context of a project.
type Message struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"projectId"`
	FromUserID uuid.UUID  `json:"fromUserId"`
	ToUserID   uuid.UUID  `json:"toUserId"`
	Text       string     `json:"text"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
