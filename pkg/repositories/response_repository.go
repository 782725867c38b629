package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// ResponseRepository defines data access for questionnaire responses.
type ResponseRepository interface {
	// Upsert writes the response keyed by (project, user, questionnaire key).
	// The last write wins; ID and CreatedAt are filled in from the stored row.
	Upsert(ctx context.Context, resp *models.Response) error
	Get(ctx context.Context, projectID, userID uuid.UUID, questionnaireKey string) (*models.Response, error)
	// ListByProject returns a project's responses, optionally filtered by status.
	ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*models.Response, error)
	// AssignmentIDsForProjects returns the distinct non-null assignment IDs
	// referenced by responses of the given projects.
	AssignmentIDsForProjects(ctx context.Context, projectIDs []uuid.UUID) ([]uuid.UUID, error)
	// ScoredAnswers flattens every answer of the project's submitted responses
	// and joins it to its question. questionnaireKey filters when non-empty.
	ScoredAnswers(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.ScoredAnswer, error)
	// Statuses returns (user, questionnaire key, status) for every response of a project.
	Statuses(ctx context.Context, projectID uuid.UUID) ([]models.CompletionResponse, error)
}

type responseRepository struct{}

// NewResponseRepository creates a new response repository.
func NewResponseRepository() ResponseRepository {
	return &responseRepository{}
}

var _ ResponseRepository = (*responseRepository)(nil)

const responseColumns = `id, project_id, user_id, role, questionnaire_key, questionnaire_version,
	assignment_id, status, answers, submitted_at, created_at, updated_at`

func scanResponse(row rowScanner) (*models.Response, error) {
	var resp models.Response
	var answersJSON []byte
	err := row.Scan(
		&resp.ID,
		&resp.ProjectID,
		&resp.UserID,
		&resp.Role,
		&resp.QuestionnaireKey,
		&resp.QuestionnaireVersion,
		&resp.AssignmentID,
		&resp.Status,
		&answersJSON,
		&resp.SubmittedAt,
		&resp.CreatedAt,
		&resp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	resp.Answers = []models.Answer{}
	if err := fromJSONB(answersJSON, &resp.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers: %w", err)
	}
	return &resp, nil
}

func (r *responseRepository) Upsert(ctx context.Context, resp *models.Response) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	answersJSON, err := toJSONB(resp.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	resp.UpdatedAt = time.Now()

	err = scope.Conn.QueryRow(ctx, `
		INSERT INTO zi_responses (project_id, user_id, role, questionnaire_key, questionnaire_version,
			assignment_id, status, answers, submitted_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		ON CONFLICT (project_id, user_id, questionnaire_key) DO UPDATE
		SET role = EXCLUDED.role,
		    questionnaire_version = EXCLUDED.questionnaire_version,
		    assignment_id = COALESCE(EXCLUDED.assignment_id, zi_responses.assignment_id),
		    status = EXCLUDED.status,
		    answers = EXCLUDED.answers,
		    submitted_at = EXCLUDED.submitted_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		resp.ProjectID,
		resp.UserID,
		resp.Role,
		resp.QuestionnaireKey,
		resp.QuestionnaireVersion,
		resp.AssignmentID,
		resp.Status,
		answersJSON,
		resp.SubmittedAt,
		resp.UpdatedAt,
	).Scan(&resp.ID, &resp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert response: %w", err)
	}
	return nil
}

func (r *responseRepository) Get(ctx context.Context, projectID, userID uuid.UUID, questionnaireKey string) (*models.Response, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	resp, err := scanResponse(scope.Conn.QueryRow(ctx, `
		SELECT `+responseColumns+`
		FROM zi_responses
		WHERE project_id = $1 AND user_id = $2 AND questionnaire_key = $3`,
		projectID, userID, questionnaireKey))
	if err != nil {
		return nil, notFoundOr(err, "get response")
	}
	return resp, nil
}

func (r *responseRepository) ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*models.Response, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT `+responseColumns+`
		FROM zi_responses
		WHERE project_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY updated_at DESC`, projectID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	defer rows.Close()

	responses := []*models.Response{}
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		responses = append(responses, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating responses: %w", err)
	}
	return responses, nil
}

func (r *responseRepository) AssignmentIDsForProjects(ctx context.Context, projectIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(projectIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT DISTINCT assignment_id
		FROM zi_responses
		WHERE project_id = ANY($1) AND assignment_id IS NOT NULL`, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list response assignments: %w", err)
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan assignment id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignment ids: %w", err)
	}
	return ids, nil
}

func (r *responseRepository) ScoredAnswers(ctx context.Context, projectID uuid.UUID, questionnaireKey string) ([]models.ScoredAnswer, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	// Non-numeric scores come back NULL and are skipped by the aggregation.
	rows, err := scope.Conn.Query(ctx, `
		SELECT r.id, r.user_id, r.role, r.questionnaire_key, q.code, q.principle,
		       CASE WHEN jsonb_typeof(a->'score') = 'number' THEN (a->>'score')::float8 END
		FROM zi_responses r
		CROSS JOIN LATERAL jsonb_array_elements(r.answers) AS a
		JOIN zi_questions q
		  ON q.questionnaire_key = r.questionnaire_key
		 AND (q.id::text = a->>'questionId' OR q.code = a->>'questionCode')
		WHERE r.project_id = $1
		  AND r.status = 'submitted'
		  AND ($2 = '' OR r.questionnaire_key = $2)`,
		projectID, questionnaireKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query scored answers: %w", err)
	}
	defer rows.Close()

	answers := []models.ScoredAnswer{}
	for rows.Next() {
		var a models.ScoredAnswer
		var principle string
		if err := rows.Scan(&a.ResponseID, &a.UserID, &a.Role, &a.QuestionnaireKey, &a.QuestionCode, &principle, &a.Score); err != nil {
			return nil, fmt.Errorf("failed to scan scored answer: %w", err)
		}
		a.Principle = models.Principle(principle)
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scored answers: %w", err)
	}
	return answers, nil
}

func (r *responseRepository) Statuses(ctx context.Context, projectID uuid.UUID) ([]models.CompletionResponse, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT user_id, questionnaire_key, status
		FROM zi_responses
		WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list response statuses: %w", err)
	}
	defer rows.Close()

	statuses := []models.CompletionResponse{}
	for rows.Next() {
		var s models.CompletionResponse
		if err := rows.Scan(&s.UserID, &s.QuestionnaireKey, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan response status: %w", err)
		}
		statuses = append(statuses, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating response statuses: %w", err)
	}
	return statuses, nil
}
