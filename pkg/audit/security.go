// Package audit provides security audit logging for SIEM consumption.
// Access denials and privileged changes to evaluation data are logged as
// structured JSON under the "security_audit" logger.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/zinspection/zi-engine/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventAccessDenied is logged when a caller is refused access to a project.
	EventAccessDenied SecurityEventType = "access_denied"
	// EventRoleChanged is logged when a user's profile role is changed.
	EventRoleChanged SecurityEventType = "role_changed"
	// EventUserDeleted is logged when a user account is removed.
	EventUserDeleted SecurityEventType = "user_deleted"
	// EventProjectDeleted is logged when a project row is removed.
	EventProjectDeleted SecurityEventType = "project_deleted"
	// EventReportFinalized is logged when a draft report becomes final.
	EventReportFinalized SecurityEventType = "report_finalized"
	// EventReportDeleted is logged when a report is removed.
	EventReportDeleted SecurityEventType = "report_deleted"
)

// SecurityEvent represents an auditable security event with all relevant context
// for SIEM ingestion and analysis.
type SecurityEvent struct {
	Timestamp  time.Time         `json:"timestamp"`
	EventType  SecurityEventType `json:"event_type"`
	ProjectID  uuid.UUID         `json:"project_id,omitempty"`
	ResourceID uuid.UUID         `json:"resource_id,omitempty"`
	UserID     string            `json:"user_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
	Severity   string            `json:"severity"` // info, warning
}

// SecurityAuditor logs security events. A nil *SecurityAuditor discards
// everything, so callers never need to check.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates a new security auditor with a dedicated logger namespace.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogAccessDenied records a caller being refused access to a project.
// Logged at WARN level: repeated denials for one user are worth alerting on.
func (a *SecurityAuditor) LogAccessDenied(ctx context.Context, projectID uuid.UUID, reason string) {
	if a == nil {
		return
	}
	a.log(zap.WarnLevel, "Project access denied", SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventAccessDenied,
		ProjectID: projectID,
		UserID:    auth.GetUserIDFromContext(ctx),
		Details:   map[string]string{"reason": reason},
		Severity:  "warning",
	})
}

// LogPrivilegedAction records an admin change to users, projects or reports.
// projectID may be uuid.Nil when the resource is not project-scoped.
func (a *SecurityAuditor) LogPrivilegedAction(
	ctx context.Context,
	eventType SecurityEventType,
	projectID, resourceID uuid.UUID,
	details map[string]string,
) {
	if a == nil {
		return
	}
	a.log(zap.InfoLevel, "Privileged action", SecurityEvent{
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		ProjectID:  projectID,
		ResourceID: resourceID,
		UserID:     auth.GetUserIDFromContext(ctx),
		Details:    details,
		Severity:   "info",
	})
}

func (a *SecurityAuditor) log(level zapcore.Level, msg string, event SecurityEvent) {
	// Marshaling a struct of strings, times and UUIDs cannot fail.
	eventJSON, _ := json.Marshal(event)

	fields := []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("user_id", event.UserID),
		zap.String("severity", event.Severity),
	}
	if event.ProjectID != uuid.Nil {
		fields = append(fields, zap.String("project_id", event.ProjectID.String()))
	}
	if event.ResourceID != uuid.Nil {
		fields = append(fields, zap.String("resource_id", event.ResourceID.String()))
	}

	if ce := a.logger.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}
