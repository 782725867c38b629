package models

import (
	"time"

	"github.com/google/uuid"
)

// Response is one evaluator's answer set for one questionnaire on one project.
// It is unique per (project, user, questionnaire key).
type Response struct {
	ID                   uuid.UUID  `json:"id"`
	ProjectID            uuid.UUID  `json:"projectId"`
	UserID               uuid.UUID  `json:"userId"`
	Role                 string     `json:"role"`
	QuestionnaireKey     string     `json:"questionnaireKey"`
	QuestionnaireVersion int        `json:"questionnaireVersion"`
	AssignmentID         *uuid.UUID `json:"assignmentId,omitempty"`
	Status               string     `json:"status"`
	Answers              []Answer   `json:"answers"`
	SubmittedAt          *time.Time `json:"submittedAt,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// Response statuses. Only submitted responses feed the analytics.
const (
	ResponseStatusDraft     = "draft"
	ResponseStatusSubmitted = "submitted"
)

// Answer is one per-question answer. Score is resolved server-side from the
// chosen option and is nil for open-text answers.
type Answer struct {
	QuestionID   uuid.UUID `json:"questionId"`
	QuestionCode string    `json:"questionCode"`
	Choice       string    `json:"choice,omitempty"`
	Text         string    `json:"text,omitempty"`
	Score        *float64  `json:"score,omitempty"`
}
