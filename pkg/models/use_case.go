package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// UseCase is a submission describing an AI system under review.
type UseCase struct {
	ID               uuid.UUID    `json:"id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	AISystemCategory string       `json:"aiSystemCategory"`
	Status           string       `json:"status"`
	OwnerID          uuid.UUID    `json:"ownerId"`
	AssignedExperts  LegacyRefs   `json:"assignedExperts"`
	Attachments      []Attachment `json:"attachments"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Use case statuses.
const (
	UseCaseStatusPending   = "pending"
	UseCaseStatusAssigned  = "assigned"
	UseCaseStatusInReview  = "in-review"
	UseCaseStatusCompleted = "completed"
)

// IsValidUseCaseStatus checks if the given status is valid.
func IsValidUseCaseStatus(s string) bool {
	switch s {
	case UseCaseStatusPending, UseCaseStatusAssigned, UseCaseStatusInReview, UseCaseStatusCompleted:
		return true
	}
	return false
}

// Attachment is metadata for a supporting file. The file itself is stored
// elsewhere; only the reference is persisted.
type Attachment struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UploadedAt  time.Time `json:"uploadedAt"`
}

// LegacyRefs is an embedded array of user references as persisted over the
// schema's history: bare ID strings, {"_id": ...} objects and {"id": ...}
// objects may all appear. Elements are kept raw; pkg/idnorm interprets them.
type LegacyRefs []json.RawMessage

// RefsFromIDs builds a LegacyRefs array holding plain ID strings.
func RefsFromIDs(ids ...uuid.UUID) LegacyRefs {
	refs := make(LegacyRefs, 0, len(ids))
	for _, id := range ids {
		raw, _ := json.Marshal(id.String())
		refs = append(refs, raw)
	}
	return refs
}
