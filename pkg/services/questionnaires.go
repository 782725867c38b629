package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/jsonutil"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// QuestionnaireRequest creates a questionnaire.
type QuestionnaireRequest struct {
	Key      string   `json:"key"`
	Title    string   `json:"title"`
	Language string   `json:"language"`
	Version  int      `json:"version"`
	Roles    []string `json:"roles"`
}

// QuestionRequest creates or replaces a question, identified by its code.
type QuestionRequest struct {
	Code       string        `json:"code"`
	Principle  string        `json:"principle"`
	Text       string        `json:"text"`
	AnswerType string        `json:"answerType"`
	Options    []OptionInput `json:"options"`
	Required   bool          `json:"required"`
	Order      int           `json:"order"`
}

// OptionInput is a single-choice option. Score may be a number or a numeric string.
type OptionInput struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Score json.RawMessage `json:"score"`
}

// QuestionnaireService manages questionnaires and their questions.
type QuestionnaireService interface {
	List(ctx context.Context) ([]*models.Questionnaire, error)
	Get(ctx context.Context, key string) (*models.Questionnaire, error)
	Questions(ctx context.Context, key string) ([]*models.Question, error)
	Create(ctx context.Context, req *QuestionnaireRequest) (*models.Questionnaire, error)
	UpsertQuestion(ctx context.Context, key string, req *QuestionRequest) (*models.Question, error)
}

type questionnaireService struct {
	repo   repositories.QuestionnaireRepository
	logger *zap.Logger
}

// NewQuestionnaireService creates a questionnaire service.
func NewQuestionnaireService(repo repositories.QuestionnaireRepository, logger *zap.Logger) QuestionnaireService {
	return &questionnaireService{
		repo:   repo,
		logger: logger.Named("questionnaires"),
	}
}

var _ QuestionnaireService = (*questionnaireService)(nil)

func (s *questionnaireService) List(ctx context.Context) ([]*models.Questionnaire, error) {
	return s.repo.List(ctx)
}

func (s *questionnaireService) Get(ctx context.Context, key string) (*models.Questionnaire, error) {
	return s.repo.Get(ctx, key)
}

func (s *questionnaireService) Questions(ctx context.Context, key string) ([]*models.Question, error) {
	if _, err := s.repo.Get(ctx, key); err != nil {
		return nil, err
	}
	return s.repo.ListQuestions(ctx, key)
}

func (s *questionnaireService) Create(ctx context.Context, req *QuestionnaireRequest) (*models.Questionnaire, error) {
	key := strings.TrimSpace(req.Key)
	if key == "" || strings.ContainsAny(key, " /") {
		return nil, fmt.Errorf("%w: key must be a non-empty slug", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	for _, r := range req.Roles {
		if !models.IsValidRole(r) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, r)
		}
	}

	q := &models.Questionnaire{
		Key:      key,
		Title:    strings.TrimSpace(req.Title),
		Language: req.Language,
		Version:  req.Version,
		Roles:    req.Roles,
	}
	if q.Language == "" {
		q.Language = "en"
	}
	if q.Version <= 0 {
		q.Version = 1
	}
	if q.Roles == nil {
		q.Roles = []string{}
	}

	if err := s.repo.Create(ctx, q); err != nil {
		return nil, err
	}
	s.logger.Info("Created questionnaire", zap.String("key", q.Key), zap.Int("version", q.Version))
	return q, nil
}

func (s *questionnaireService) UpsertQuestion(ctx context.Context, key string, req *QuestionRequest) (*models.Question, error) {
	if _, err := s.repo.Get(ctx, key); err != nil {
		return nil, err
	}

	q, err := buildQuestion(key, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpsertQuestion(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// buildQuestion validates req and converts it to a question of questionnaire key.
func buildQuestion(key string, req *QuestionRequest) (*models.Question, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, fmt.Errorf("%w: text is required", apperrors.ErrValidation)
	}

	principle, ok := models.ParsePrinciple(req.Principle)
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidPrinciple, req.Principle)
	}

	q := &models.Question{
		QuestionnaireKey: key,
		Code:             code,
		Principle:        principle,
		Text:             strings.TrimSpace(req.Text),
		AnswerType:       req.AnswerType,
		Options:          []models.QuestionOption{},
		Required:         req.Required,
		Order:            req.Order,
	}

	switch req.AnswerType {
	case models.AnswerTypeOpenText:
		return q, nil
	case models.AnswerTypeSingleChoice:
	default:
		return nil, fmt.Errorf("%w: answerType must be %s or %s", apperrors.ErrValidation,
			models.AnswerTypeSingleChoice, models.AnswerTypeOpenText)
	}

	if len(req.Options) == 0 {
		return nil, fmt.Errorf("%w: single-choice question %s needs options", apperrors.ErrValidation, code)
	}

	seen := make(map[string]struct{}, len(req.Options))
	for _, o := range req.Options {
		optKey := strings.TrimSpace(o.Key)
		if optKey == "" {
			return nil, fmt.Errorf("%w: option key is required", apperrors.ErrValidation)
		}
		if _, dup := seen[optKey]; dup {
			return nil, fmt.Errorf("%w: duplicate option %q", apperrors.ErrValidation, optKey)
		}
		seen[optKey] = struct{}{}

		score, ok := jsonutil.FlexibleFloatValue(o.Score)
		if !ok || score < models.MinScore || score > models.MaxScore {
			return nil, fmt.Errorf("%w: option %q score must be within %g-%g", apperrors.ErrValidation,
				optKey, models.MinScore, models.MaxScore)
		}

		q.Options = append(q.Options, models.QuestionOption{Key: optKey, Label: o.Label, Score: score})
	}
	return q, nil
}
