package models

import (
	"time"

	"github.com/google/uuid"
)

// Tension is a recorded conflict between two principles within a project.
type Tension struct {
	ID          uuid.UUID         `json:"id"`
	ProjectID   uuid.UUID         `json:"projectId"`
	PrincipleA  Principle         `json:"principleA"`
	PrincipleB  Principle         `json:"principleB"`
	Description string            `json:"description"`
	Severity    string            `json:"severity"`
	Status      string            `json:"status"`
	CreatedBy   uuid.UUID         `json:"createdBy"`
	Votes       []TensionVote     `json:"votes"`
	Comments    []TensionComment  `json:"comments"`
	Evidences   []TensionEvidence `json:"evidences"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
}

// Tension severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Tension statuses.
const (
	TensionStatusOpen     = "open"
	TensionStatusResolved = "resolved"
)

// Vote values.
const (
	VoteAgree    = "agree"
	VoteDisagree = "disagree"
)

// IsValidSeverity checks if the given severity is valid.
func IsValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// TensionVote is one user's agree/disagree vote. A user holds at most one vote per tension.
type TensionVote struct {
	UserID  uuid.UUID `json:"userId"`
	Vote    string    `json:"vote"`
	VotedAt time.Time `json:"votedAt"`
}

// TensionComment is a discussion entry on a tension.
type TensionComment struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// TensionEvidence is a supporting reference attached to a tension.
type TensionEvidence struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Title       string    `json:"title"`
	Type        string    `json:"type,omitempty"` // e.g. "article", "dataset", "regulation"
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// VoteCounts tallies agree and disagree votes.
func (t *Tension) VoteCounts() (agree, disagree int) {
	for _, v := range t.Votes {
		switch v.Vote {
		case VoteAgree:
			agree++
		case VoteDisagree:
			disagree++
		}
	}
	return agree, disagree
}
