// Package models contains domain types for zi-engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Project is a named evaluation effort, optionally linked to one use case.
type Project struct {
	ID               uuid.UUID  `json:"id"`
	Title            string     `json:"title"`
	ShortDescription string     `json:"shortDescription"`
	FullDescription  string     `json:"fullDescription"`
	Status           string     `json:"status"`
	Stage            string     `json:"stage"`
	UseCase          string     `json:"useCase,omitempty"`
	AssignedUsers    LegacyRefs `json:"assignedUsers"`
	CreatedBy        *uuid.UUID `json:"createdBy,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Project statuses.
const (
	ProjectStatusOngoing   = "ongoing"
	ProjectStatusProven    = "proven"
	ProjectStatusDisproven = "disproven"
)

// Project stages of the Z-Inspection process.
const (
	StageSetUp   = "set-up"
	StageAssess  = "assess"
	StageResolve = "resolve"
)

// IsValidProjectStatus checks if the given status is valid.
func IsValidProjectStatus(s string) bool {
	return s == ProjectStatusOngoing || s == ProjectStatusProven || s == ProjectStatusDisproven
}

// IsValidStage checks if the given stage is valid.
func IsValidStage(s string) bool {
	return s == StageSetUp || s == StageAssess || s == StageResolve
}
