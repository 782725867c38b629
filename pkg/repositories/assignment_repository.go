package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// AssignmentRepository defines data access for project assignments.
type AssignmentRepository interface {
	// Upsert inserts or replaces the questionnaire list of the
	// (project, user, role) assignment. ID, Status and CreatedAt are filled in.
	Upsert(ctx context.Context, a *models.ProjectAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectAssignment, error)
	// GetByIDs returns the assignments that exist among ids, oldest first.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ProjectAssignment, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error)
	// ListByProjects returns the assignments of all given projects, oldest first.
	ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.ProjectAssignment, error)
	ListForUser(ctx context.Context, projectID, userID uuid.UUID) ([]*models.ProjectAssignment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type assignmentRepository struct{}

// NewAssignmentRepository creates a new assignment repository.
func NewAssignmentRepository() AssignmentRepository {
	return &assignmentRepository{}
}

var _ AssignmentRepository = (*assignmentRepository)(nil)

const assignmentColumns = `id, project_id, user_id, role, questionnaires, status, created_at, updated_at`

func scanAssignment(row rowScanner) (*models.ProjectAssignment, error) {
	var a models.ProjectAssignment
	err := row.Scan(
		&a.ID,
		&a.ProjectID,
		&a.UserID,
		&a.Role,
		&a.Questionnaires,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if a.Questionnaires == nil {
		a.Questionnaires = []string{}
	}
	return &a, nil
}

func (r *assignmentRepository) Upsert(ctx context.Context, a *models.ProjectAssignment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if a.Questionnaires == nil {
		a.Questionnaires = []string{}
	}
	now := time.Now()

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO zi_project_assignments (project_id, user_id, role, questionnaires, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (project_id, user_id, role) DO UPDATE
		SET questionnaires = EXCLUDED.questionnaires,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, status, created_at, updated_at`,
		a.ProjectID, a.UserID, a.Role, a.Questionnaires, models.AssignmentStatusAssigned, now,
	).Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert assignment: %w", err)
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ProjectAssignment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	a, err := scanAssignment(scope.Conn.QueryRow(ctx,
		`SELECT `+assignmentColumns+` FROM zi_project_assignments WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get assignment")
	}
	return a, nil
}

func (r *assignmentRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.ProjectAssignment, error) {
	if len(ids) == 0 {
		return []*models.ProjectAssignment{}, nil
	}
	return r.query(ctx, "get assignments", `
		SELECT `+assignmentColumns+`
		FROM zi_project_assignments
		WHERE id = ANY($1)
		ORDER BY created_at, id`, ids)
}

func (r *assignmentRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error) {
	return r.query(ctx, "list assignments", `
		SELECT `+assignmentColumns+`
		FROM zi_project_assignments
		WHERE project_id = $1
		ORDER BY created_at, id`, projectID)
}

func (r *assignmentRepository) ListByProjects(ctx context.Context, projectIDs []uuid.UUID) ([]*models.ProjectAssignment, error) {
	if len(projectIDs) == 0 {
		return []*models.ProjectAssignment{}, nil
	}
	return r.query(ctx, "list assignments for projects", `
		SELECT `+assignmentColumns+`
		FROM zi_project_assignments
		WHERE project_id = ANY($1)
		ORDER BY created_at, id`, projectIDs)
}

func (r *assignmentRepository) ListForUser(ctx context.Context, projectID, userID uuid.UUID) ([]*models.ProjectAssignment, error) {
	return r.query(ctx, "list user assignments", `
		SELECT `+assignmentColumns+`
		FROM zi_project_assignments
		WHERE project_id = $1 AND user_id = $2
		ORDER BY created_at, id`, projectID, userID)
}

func (r *assignmentRepository) query(ctx context.Context, action, sql string, args ...any) ([]*models.ProjectAssignment, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	defer rows.Close()

	assignments := []*models.ProjectAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func (r *assignmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE zi_project_assignments SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update assignment status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *assignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM zi_project_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete assignment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
