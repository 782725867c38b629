package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is an evaluation report drafted from a project's analytics.
type Report struct {
	ID          uuid.UUID      `json:"id"`
	ProjectID   uuid.UUID      `json:"projectId"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Status      string         `json:"status"`
	Model       string         `json:"model,omitempty"`
	GeneratedBy *uuid.UUID     `json:"generatedBy,omitempty"`
	Metadata    ReportMetadata `json:"metadata"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Report statuses.
const (
	ReportStatusDraft    = "draft"
	ReportStatusFinal    = "final"
	ReportStatusArchived = "archived"
)

// IsValidReportStatus checks if the given status is valid.
func IsValidReportStatus(s string) bool {
	return s == ReportStatusDraft || s == ReportStatusFinal || s == ReportStatusArchived
}

// ReportMetadata records what a generated report was built from.
type ReportMetadata struct {
	Principles     []PrincipleScore `json:"principles,omitempty"`
	HotspotCount   int              `json:"hotspotCount"`
	TensionCount   int              `json:"tensionCount"`
	ResponseCount  int              `json:"responseCount"`
	CompletionRate float64          `json:"completionRate"`
	LatencyMs      int64            `json:"latencyMs,omitempty"`
	Truncated      bool             `json:"truncated,omitempty"`
}
