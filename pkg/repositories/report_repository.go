package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// ReportRepository defines data access for evaluation reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error)
	UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type reportRepository struct{}

// NewReportRepository creates a new report repository.
func NewReportRepository() ReportRepository {
	return &reportRepository{}
}

var _ ReportRepository = (*reportRepository)(nil)

const reportColumns = `id, project_id, title, content, status, model, generated_by, metadata, created_at, updated_at`

func scanReport(row rowScanner) (*models.Report, error) {
	var rep models.Report
	var metadataJSON []byte
	err := row.Scan(
		&rep.ID,
		&rep.ProjectID,
		&rep.Title,
		&rep.Content,
		&rep.Status,
		&rep.Model,
		&rep.GeneratedBy,
		&metadataJSON,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSONB(metadataJSON, &rep.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode report metadata: %w", err)
	}
	return &rep, nil
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}
	if report.Status == "" {
		report.Status = models.ReportStatusDraft
	}
	now := time.Now()
	report.CreatedAt = now
	report.UpdatedAt = now

	metadataJSON, err := json.Marshal(report.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode report metadata: %w", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO zi_reports (id, project_id, title, content, status, model, generated_by, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		report.ID, report.ProjectID, report.Title, report.Content, report.Status,
		report.Model, report.GeneratedBy, metadataJSON, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	report, err := scanReport(scope.Conn.QueryRow(ctx,
		`SELECT `+reportColumns+` FROM zi_reports WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get report")
	}
	return report, nil
}

func (r *reportRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Report, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT `+reportColumns+`
		FROM zi_reports
		WHERE project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	reports := []*models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

func (r *reportRepository) UpdateContent(ctx context.Context, id uuid.UUID, title, content string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_reports SET title = $2, content = $3, updated_at = now()
		WHERE id = $1`, id, title, content)
	if err != nil {
		return fmt.Errorf("failed to update report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE zi_reports SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update report status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *reportRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM zi_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete report: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
