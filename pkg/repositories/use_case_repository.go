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

// UseCaseFilter narrows List. Zero values match everything.
type UseCaseFilter struct {
	OwnerID *uuid.UUID
	Status  string
}

// UseCaseRepository defines the interface for use case data access.
type UseCaseRepository interface {
	Create(ctx context.Context, uc *models.UseCase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.UseCase, error)
	List(ctx context.Context, filter UseCaseFilter) ([]*models.UseCase, error)
	Update(ctx context.Context, uc *models.UseCase) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// AppendAssignedExperts appends references to the legacy assigned_experts
	// array, skipping any that are already present verbatim.
	AppendAssignedExperts(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error
	AddAttachment(ctx context.Context, id uuid.UUID, attachment models.Attachment) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type useCaseRepository struct{}

// NewUseCaseRepository creates a new use case repository.
func NewUseCaseRepository() UseCaseRepository {
	return &useCaseRepository{}
}

var _ UseCaseRepository = (*useCaseRepository)(nil)

const useCaseColumns = `id, title, description, ai_system_category, status, owner_id,
	assigned_experts, attachments, created_at, updated_at`

func scanUseCase(row rowScanner) (*models.UseCase, error) {
	var uc models.UseCase
	var expertsJSON, attachmentsJSON []byte
	err := row.Scan(
		&uc.ID,
		&uc.Title,
		&uc.Description,
		&uc.AISystemCategory,
		&uc.Status,
		&uc.OwnerID,
		&expertsJSON,
		&attachmentsJSON,
		&uc.CreatedAt,
		&uc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	uc.AssignedExperts = models.LegacyRefs{}
	if err := fromJSONB(expertsJSON, &uc.AssignedExperts); err != nil {
		return nil, fmt.Errorf("failed to decode assigned_experts: %w", err)
	}
	uc.Attachments = []models.Attachment{}
	if err := fromJSONB(attachmentsJSON, &uc.Attachments); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	return &uc, nil
}

func (r *useCaseRepository) Create(ctx context.Context, uc *models.UseCase) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if uc.ID == uuid.Nil {
		uc.ID = uuid.New()
	}
	if uc.Status == "" {
		uc.Status = models.UseCaseStatusPending
	}
	now := time.Now()
	uc.CreatedAt = now
	uc.UpdatedAt = now

	expertsJSON, err := toJSONB(uc.AssignedExperts)
	if err != nil {
		return fmt.Errorf("failed to encode assigned_experts: %w", err)
	}
	attachmentsJSON, err := toJSONB(uc.Attachments)
	if err != nil {
		return fmt.Errorf("failed to encode attachments: %w", err)
	}

	_, err = scope.Conn.Exec(ctx, `
		INSERT INTO zi_use_cases (id, title, description, ai_system_category, status, owner_id,
			assigned_experts, attachments, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uc.ID, uc.Title, uc.Description, uc.AISystemCategory, uc.Status, uc.OwnerID,
		expertsJSON, attachmentsJSON, uc.CreatedAt, uc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create use case: %w", err)
	}
	return nil
}

func (r *useCaseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.UseCase, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	uc, err := scanUseCase(scope.Conn.QueryRow(ctx,
		`SELECT `+useCaseColumns+` FROM zi_use_cases WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundOr(err, "get use case")
	}
	return uc, nil
}

func (r *useCaseRepository) List(ctx context.Context, filter UseCaseFilter) ([]*models.UseCase, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT `+useCaseColumns+`
		FROM zi_use_cases
		WHERE ($1::uuid IS NULL OR owner_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`,
		filter.OwnerID, filter.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list use cases: %w", err)
	}
	defer rows.Close()

	useCases := []*models.UseCase{}
	for rows.Next() {
		uc, err := scanUseCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan use case: %w", err)
		}
		useCases = append(useCases, uc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating use cases: %w", err)
	}
	return useCases, nil
}

func (r *useCaseRepository) Update(ctx context.Context, uc *models.UseCase) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	uc.UpdatedAt = time.Now()
	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_use_cases
		SET title = $2, description = $3, ai_system_category = $4, updated_at = $5
		WHERE id = $1`,
		uc.ID, uc.Title, uc.Description, uc.AISystemCategory, uc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update use case: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *useCaseRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx,
		`UPDATE zi_use_cases SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("failed to update use case status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *useCaseRepository) AppendAssignedExperts(ctx context.Context, id uuid.UUID, refs models.LegacyRefs) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	refsJSON, err := toJSONB(refs)
	if err != nil {
		return fmt.Errorf("failed to encode assigned_experts: %w", err)
	}

	// jsonb_array_elements over the incoming refs keeps only elements not
	// already contained in the stored array.
	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_use_cases uc
		SET assigned_experts = uc.assigned_experts || COALESCE((
				SELECT jsonb_agg(e)
				FROM jsonb_array_elements($2::jsonb) AS e
				WHERE NOT uc.assigned_experts @> jsonb_build_array(e)
			), '[]'::jsonb),
			updated_at = now()
		WHERE uc.id = $1`,
		id, refsJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to append assigned experts: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *useCaseRepository) AddAttachment(ctx context.Context, id uuid.UUID, attachment models.Attachment) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	attachmentJSON, err := json.Marshal(attachment)
	if err != nil {
		return fmt.Errorf("failed to encode attachment: %w", err)
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_use_cases
		SET attachments = attachments || jsonb_build_array($2::jsonb), updated_at = now()
		WHERE id = $1`,
		id, attachmentJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to add attachment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *useCaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `DELETE FROM zi_use_cases WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete use case: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
