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

// VoteMutator receives the current votes and returns the replacement list.
type VoteMutator func(votes []models.TensionVote) []models.TensionVote

// TensionRepository defines data access for tensions.
type TensionRepository interface {
	Create(ctx context.Context, t *models.Tension) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Tension, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tension, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// UpdateVotes locks the tension row, applies mutate to its votes and
	// stores the result in one transaction, returning the updated tension.
	UpdateVotes(ctx context.Context, id uuid.UUID, mutate VoteMutator) (*models.Tension, error)
	AddComment(ctx context.Context, id uuid.UUID, comment models.TensionComment) error
	AddEvidence(ctx context.Context, id uuid.UUID, evidence models.TensionEvidence) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type tensionRepository struct{}

// NewTensionRepository creates a new tension repository.
func NewTensionRepository() TensionRepository {
	return &tensionRepository{}
}

var _ TensionRepository = (*tensionRepository)(nil)

const tensionColumns = `id, project_id, principle_a, principle_b, description, severity, status,
	created_by, votes, comments, evidences, created_at, updated_at`

func scanTension(row rowScanner) (*models.Tension, error) {
	var t models.Tension
	var principleA, principleB string
	var votesJSON, commentsJSON, evidencesJSON []byte
	err := row.Scan(
		&t.ID,
		&t.ProjectID,
		&principleA,
		&principleB,
		&t.Description,
		&t.Severity,
		&t.Status,
		&t.CreatedBy,
		&votesJSON,
		&commentsJSON,
		&evidencesJSON,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.PrincipleA = models.Principle(principleA)
	t.PrincipleB = models.Principle(principleB)

	t.Votes = []models.TensionVote{}
	t.Comments = []models.TensionComment{}
	t.Evidences = []models.TensionEvidence{}
	if err := fromJSONB(votesJSON, &t.Votes); err != nil {
		return nil, fmt.Errorf("failed to decode votes: %w", err)
	}
	if err := fromJSONB(commentsJSON, &t.Comments); err != nil {
		return nil, fmt.Errorf("failed to decode comments: %w", err)
	}
	if err := fromJSONB(evidencesJSON, &t.Evidences); err != nil {
		return nil, fmt.Errorf("failed to decode evidences: %w", err)
	}
	return &t, nil
}

func (r *tensionRepository) Create(ctx context.Context, t *models.Tension) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = models.TensionStatusOpen
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Votes == nil {
		t.Votes = []models.TensionVote{}
	}
	if t.Comments == nil {
		t.Comments = []models.TensionComment{}
	}
	if t.Evidences == nil {
		t.Evidences = []models.TensionEvidence{}
	}

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO zi_tensions (id, project_id, principle_a, principle_b, description, severity,
			status, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)`,
		t.ID, t.ProjectID, string(t.PrincipleA), string(t.PrincipleB), t.Description, t.Severity,
		t.Status, t.CreatedBy, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create tension: %w", err)
	}
	return nil
}

func (r *tensionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Tension, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	t, err := scanTension(scope.Conn.QueryRow(ctx,
		`SELECT `+tensionColumns+` FROM zi_tensions WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get tension")
	}
	return t, nil
}

func (r *tensionRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tension, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT `+tensionColumns+`
		FROM zi_tensions
		WHERE project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tensions: %w", err)
	}
	defer rows.Close()

	tensions := []*models.Tension{}
	for rows.Next() {
		t, err := scanTension(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tension: %w", err)
		}
		tensions = append(tensions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tensions: %w", err)
	}
	return tensions, nil
}

func (r *tensionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE zi_tensions SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update tension status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tensionRepository) UpdateVotes(ctx context.Context, id uuid.UUID, mutate VoteMutator) (*models.Tension, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	tx, err := scope.Conn.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	t, err := scanTension(tx.QueryRow(ctx,
		`SELECT `+tensionColumns+` FROM zi_tensions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFoundOr(err, "lock tension")
	}

	t.Votes = mutate(t.Votes)
	votesJSON, err := toJSONB(t.Votes)
	if err != nil {
		return nil, fmt.Errorf("failed to encode votes: %w", err)
	}

	t.UpdatedAt = time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE zi_tensions SET votes = $2, updated_at = $3 WHERE id = $1`,
		id, votesJSON, t.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to update votes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return t, nil
}

func (r *tensionRepository) AddComment(ctx context.Context, id uuid.UUID, comment models.TensionComment) error {
	return r.appendElement(ctx, id, "comments", comment)
}

func (r *tensionRepository) AddEvidence(ctx context.Context, id uuid.UUID, evidence models.TensionEvidence) error {
	return r.appendElement(ctx, id, "evidences", evidence)
}

// appendElement appends v to one of the tension's JSONB arrays. column is
// never user input.
func (r *tensionRepository) appendElement(ctx context.Context, id uuid.UUID, column string, v any) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry: %w", column, err)
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_tensions
		SET `+column+` = `+column+` || jsonb_build_array($2::jsonb), updated_at = now()
		WHERE id = $1`, id, data)
	if err != nil {
		return fmt.Errorf("failed to append to %s: %w", column, err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *tensionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM zi_tensions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete tension: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
