package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// ProjectRepository defines the interface for project data access.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error)
	List(ctx context.Context) ([]*models.Project, error)
	// ListForUser returns projects the user holds an assignment on or is
	// listed in through the legacy assigned_users array.
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error)
	// ListByUseCase returns projects whose use case reference matches
	// useCaseID, ignoring case and surrounding whitespace.
	ListByUseCase(ctx context.Context, useCaseID string) ([]*models.Project, error)
	Update(ctx context.Context, project *models.Project) error
	AppendAssignedUsers(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error
	// Delete removes the project row only. Assignments, responses and
	// tensions referencing it are left in place.
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepository struct{}

// NewProjectRepository creates a new project repository.
func NewProjectRepository() ProjectRepository {
	return &projectRepository{}
}

var _ ProjectRepository = (*projectRepository)(nil)

const projectColumns = `p.id, p.title, p.short_description, p.full_description, p.status, p.stage,
	p.use_case, p.assigned_users, p.created_by, p.created_at, p.updated_at`

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var useCase *string
	var usersJSON []byte
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.ShortDescription,
		&p.FullDescription,
		&p.Status,
		&p.Stage,
		&useCase,
		&usersJSON,
		&p.CreatedBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if useCase != nil {
		p.UseCase = *useCase
	}
	p.AssignedUsers = models.LegacyRefs{}
	if err := fromJSONB(usersJSON, &p.AssignedUsers); err != nil {
		return nil, fmt.Errorf("failed to decode assigned_users: %w", err)
	}
	return &p, nil
}

func (r *projectRepository) Create(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.Status == "" {
		project.Status = models.ProjectStatusOngoing
	}
	if project.Stage == "" {
		project.Stage = models.StageSetUp
	}
	now := time.Now()
	project.CreatedAt = now
	project.UpdatedAt = now

	usersJSON, err := toJSONB(project.AssignedUsers)
	if err != nil {
		return fmt.Errorf("failed to encode assigned_users: %w", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO zi_projects (id, title, short_description, full_description, status, stage,
			use_case, assigned_users, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		project.ID,
		project.Title,
		project.ShortDescription,
		project.FullDescription,
		project.Status,
		project.Stage,
		nullString(project.UseCase),
		usersJSON,
		project.CreatedBy,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	project, err := scanProject(scope.Conn.QueryRow(ctx,
		`SELECT `+projectColumns+` FROM zi_projects p WHERE p.id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get project")
	}
	return project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]*models.Project, error) {
	return r.query(ctx, "list projects",
		`SELECT `+projectColumns+` FROM zi_projects p ORDER BY p.created_at DESC`)
}

func (r *projectRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*models.Project, error) {
	return r.query(ctx, "list projects for user", `
		SELECT `+projectColumns+`
		FROM zi_projects p
		WHERE EXISTS (
				SELECT 1 FROM zi_project_assignments a
				WHERE a.project_id = p.id AND a.user_id = $1
			)
		   OR EXISTS (
				SELECT 1 FROM jsonb_array_elements(p.assigned_users) AS e
				WHERE lower(trim(COALESCE(e->>'_id', e->>'id', e #>> '{}'))) = $2
			)
		ORDER BY p.created_at DESC`,
		userID, userID.String(),
	)
}

func (r *projectRepository) ListByUseCase(ctx context.Context, useCaseID string) ([]*models.Project, error) {
	return r.query(ctx, "list projects by use case", `
		SELECT `+projectColumns+`
		FROM zi_projects p
		WHERE lower(trim(p.use_case)) = $1
		ORDER BY p.created_at`,
		strings.ToLower(strings.TrimSpace(useCaseID)),
	)
}

func (r *projectRepository) query(ctx context.Context, action, sql string, args ...any) ([]*models.Project, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", action, err)
	}
	defer rows.Close()

	projects := []*models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func (r *projectRepository) Update(ctx context.Context, project *models.Project) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	project.UpdatedAt = time.Now()
	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_projects
		SET title = $2, short_description = $3, full_description = $4, status = $5,
			stage = $6, use_case = $7, updated_at = $8
		WHERE id = $1`,
		project.ID,
		project.Title,
		project.ShortDescription,
		project.FullDescription,
		project.Status,
		project.Stage,
		nullString(project.UseCase),
		project.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) AppendAssignedUsers(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	refsJSON, err := toJSONB(refs)
	if err != nil {
		return fmt.Errorf("failed to encode assigned_users: %w", err)
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_projects p
		SET assigned_users = p.assigned_users || COALESCE((
				SELECT jsonb_agg(e)
				FROM jsonb_array_elements($2::jsonb) AS e
				WHERE NOT p.assigned_users @> jsonb_build_array(e)
			), '[]'::jsonb),
			updated_at = now()
		WHERE p.id = $1`,
		id, refsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append assigned users: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *projectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM zi_projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// nullString stores empty strings as NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
