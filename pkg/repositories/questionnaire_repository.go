package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// QuestionnaireRepository defines data access for questionnaires and their questions.
type QuestionnaireRepository interface {
	Create(ctx context.Context, q *models.Questionnaire) error
	Get(ctx context.Context, key string) (*models.Questionnaire, error)
	List(ctx context.Context) ([]*models.Questionnaire, error)
	// UpsertQuestion inserts or replaces the question identified by
	// (questionnaire key, code). ID and CreatedAt are filled in.
	UpsertQuestion(ctx context.Context, q *models.Question) error
	// ListQuestions returns the questions of a questionnaire in display order.
	ListQuestions(ctx context.Context, key string) ([]*models.Question, error)
}

type questionnaireRepository struct{}

// NewQuestionnaireRepository creates a new questionnaire repository.
func NewQuestionnaireRepository() QuestionnaireRepository {
	return &questionnaireRepository{}
}

var _ QuestionnaireRepository = (*questionnaireRepository)(nil)

func (r *questionnaireRepository) Create(ctx context.Context, q *models.Questionnaire) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if q.Roles == nil {
		q.Roles = []string{}
	}
	if q.Version == 0 {
		q.Version = 1
	}
	if q.Language == "" {
		q.Language = "en"
	}
	q.CreatedAt = time.Now()

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO zi_questionnaires (key, title, language, version, roles, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		q.Key, q.Title, q.Language, q.Version, q.Roles, q.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrConflict
		}
		return fmt.Errorf("failed to create questionnaire: %w", err)
	}
	return nil
}

func (r *questionnaireRepository) Get(ctx context.Context, key string) (*models.Questionnaire, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	var q models.Questionnaire
	err := scope.Conn.QueryRow(ctx, `
		SELECT key, title, language, version, roles, created_at
		FROM zi_questionnaires WHERE key = $1`, key,
	).Scan(&q.Key, &q.Title, &q.Language, &q.Version, &q.Roles, &q.CreatedAt)
	if err != nil {
		return nil, notFoundOr(err, "get questionnaire")
	}
	return &q, nil
}

func (r *questionnaireRepository) List(ctx context.Context) ([]*models.Questionnaire, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT key, title, language, version, roles, created_at
		FROM zi_questionnaires ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questionnaires: %w", err)
	}
	defer rows.Close()

	questionnaires := []*models.Questionnaire{}
	for rows.Next() {
		var q models.Questionnaire
		if err := rows.Scan(&q.Key, &q.Title, &q.Language, &q.Version, &q.Roles, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan questionnaire: %w", err)
		}
		questionnaires = append(questionnaires, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questionnaires: %w", err)
	}
	return questionnaires, nil
}

func (r *questionnaireRepository) UpsertQuestion(ctx context.Context, q *models.Question) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	optionsJSON, err := toJSONB(q.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	err = scope.Conn.QueryRow(ctx, `
		INSERT INTO zi_questions (questionnaire_key, code, principle, text, answer_type, options, required, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (questionnaire_key, code) DO UPDATE
		SET principle = EXCLUDED.principle,
		    text = EXCLUDED.text,
		    answer_type = EXCLUDED.answer_type,
		    options = EXCLUDED.options,
		    required = EXCLUDED.required,
		    sort_order = EXCLUDED.sort_order
		RETURNING id, created_at`,
		q.QuestionnaireKey, q.Code, string(q.Principle), q.Text, q.AnswerType, optionsJSON, q.Required, q.Order,
	).Scan(&q.ID, &q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert question: %w", err)
	}
	return nil
}

func (r *questionnaireRepository) ListQuestions(ctx context.Context, key string) ([]*models.Question, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, questionnaire_key, code, principle, text, answer_type, options, required, sort_order, created_at
		FROM zi_questions
		WHERE questionnaire_key = $1
		ORDER BY sort_order, code`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []*models.Question{}
	for rows.Next() {
		var q models.Question
		var principle string
		var optionsJSON []byte
		err := rows.Scan(
			&q.ID,
			&q.QuestionnaireKey,
			&q.Code,
			&principle,
			&q.Text,
			&q.AnswerType,
			&optionsJSON,
			&q.Required,
			&q.Order,
			&q.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q.Principle = models.Principle(principle)
		q.Options = []models.QuestionOption{}
		if err := fromJSONB(optionsJSON, &q.Options); err != nil {
			return nil, fmt.Errorf("failed to decode options for %s: %w", q.Code, err)
		}
		questions = append(questions, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}
