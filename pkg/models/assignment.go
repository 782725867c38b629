package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectAssignment is the join between a user, a project and the
// questionnaires that user must complete.
type ProjectAssignment struct {
	ID             uuid.UUID `json:"id"`
	ProjectID      uuid.UUID `json:"projectId"`
	UserID         uuid.UUID `json:"userId"`
	Role           string    `json:"role"`
	Questionnaires []string  `json:"questionnaires"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Assignment statuses.
const (
	AssignmentStatusAssigned   = "assigned"
	AssignmentStatusInProgress = "in_progress"
	AssignmentStatusSubmitted  = "submitted"
)
