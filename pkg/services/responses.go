package services

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/jsonutil"
	"github.com/zinspection/zi-engine/pkg/metrics"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// SaveResponseRequest is one save of the caller's answers to a questionnaire.
type SaveResponseRequest struct {
	QuestionnaireKey string        `json:"questionnaireKey"`
	Status           string        `json:"status"`         // "draft" (default) or "submitted"
	Role             string        `json:"role,omitempty"` // Picks the assignment when the caller holds several
	Answers          []AnswerInput `json:"answers"`
}

// AnswerInput identifies a question by ID or code and carries either the
// chosen option key or free text.
type AnswerInput struct {
	QuestionID   string          `json:"questionId,omitempty"`
	QuestionCode string          `json:"questionCode,omitempty"`
	Choice       json.RawMessage `json:"choice,omitempty"` // Option key; numeric keys are accepted unquoted
	Text         string          `json:"text,omitempty"`
}

// ResponseService manages questionnaire responses.
type ResponseService interface {
	Save(ctx context.Context, projectID uuid.UUID, req *SaveResponseRequest) (*models.Response, error)
	GetMine(ctx context.Context, projectID uuid.UUID, questionnaireKey string) (*models.Response, error)
	ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*models.Response, error)
}

type responseService struct {
	projectRepo       repositories.ProjectRepository
	questionnaireRepo repositories.QuestionnaireRepository
	assignmentRepo    repositories.AssignmentRepository
	responseRepo      repositories.ResponseRepository
	analytics         AnalyticsService
	metrics           *metrics.Metrics
	logger            *zap.Logger
}

// NewResponseService creates a response service. analytics may be nil.
func NewResponseService(
	projectRepo repositories.ProjectRepository,
	questionnaireRepo repositories.QuestionnaireRepository,
	assignmentRepo repositories.AssignmentRepository,
	responseRepo repositories.ResponseRepository,
	analytics AnalyticsService,
	m *metrics.Metrics,
	logger *zap.Logger,
) ResponseService {
	return &responseService{
		projectRepo:       projectRepo,
		questionnaireRepo: questionnaireRepo,
		assignmentRepo:    assignmentRepo,
		responseRepo:      responseRepo,
		analytics:         analytics,
		metrics:           m,
		logger:            logger.Named("responses"),
	}
}

var _ ResponseService = (*responseService)(nil)

func (s *responseService) Save(ctx context.Context, projectID uuid.UUID, req *SaveResponseRequest) (*models.Response, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.ResponseStatusDraft
	}
	if status != models.ResponseStatusDraft && status != models.ResponseStatusSubmitted {
		return nil, fmt.Errorf("%w: status must be draft or submitted", apperrors.ErrValidation)
	}
	if strings.TrimSpace(req.QuestionnaireKey) == "" {
		return nil, fmt.Errorf("%w: questionnaireKey is required", apperrors.ErrValidation)
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	questionnaire, err := s.questionnaireRepo.Get(ctx, req.QuestionnaireKey)
	if err != nil {
		return nil, err
	}

	assignment, err := s.findAssignment(ctx, projectID, userID, req.QuestionnaireKey, req.Role)
	if err != nil {
		return nil, err
	}

	questions, err := s.questionnaireRepo.ListQuestions(ctx, questionnaire.Key)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}

	answers, err := scoreAnswers(questions, req.Answers, status == models.ResponseStatusSubmitted)
	if err != nil {
		return nil, err
	}

	resp := &models.Response{
		ProjectID:            projectID,
		UserID:               userID,
		Role:                 assignment.Role,
		QuestionnaireKey:     questionnaire.Key,
		QuestionnaireVersion: questionnaire.Version,
		AssignmentID:         &assignment.ID,
		Status:               status,
		Answers:              answers,
	}
	if status == models.ResponseStatusSubmitted {
		now := time.Now()
		resp.SubmittedAt = &now
	}

	if err := s.responseRepo.Upsert(ctx, resp); err != nil {
		return nil, err
	}

	if err := s.refreshAssignmentStatus(ctx, assignment); err != nil {
		return nil, err
	}

	if s.analytics != nil {
		s.analytics.InvalidateProject(projectID)
	}
	s.metrics.RecordResponseSaved(status)

	s.logger.Info("Saved response",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", userID.String()),
		zap.String("questionnaire", questionnaire.Key),
		zap.String("status", status),
		zap.Int("answers", len(answers)))

	return resp, nil
}

// findAssignment picks the caller's assignment that covers questionnaireKey,
// narrowed to role when given.
func (s *responseService) findAssignment(ctx context.Context, projectID, userID uuid.UUID, questionnaireKey, role string) (*models.ProjectAssignment, error) {
	assignments, err := s.assignmentRepo.ListForUser(ctx, projectID, userID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}

	for _, a := range assignments {
		if role != "" && a.Role != role {
			continue
		}
		if slices.Contains(a.Questionnaires, questionnaireKey) {
			return a, nil
		}
	}
	return nil, apperrors.ErrNotAssigned
}

// refreshAssignmentStatus marks the assignment submitted once every assigned
// questionnaire has a submitted response, and in progress otherwise.
func (s *responseService) refreshAssignmentStatus(ctx context.Context, assignment *models.ProjectAssignment) error {
	statuses, err := s.responseRepo.Statuses(ctx, assignment.ProjectID)
	if err != nil {
		return fmt.Errorf("list response statuses: %w", err)
	}

	submitted := make(map[string]bool)
	for _, st := range statuses {
		if st.UserID == assignment.UserID && st.Status == models.ResponseStatusSubmitted {
			submitted[st.QuestionnaireKey] = true
		}
	}

	next := models.AssignmentStatusSubmitted
	for _, key := range assignment.Questionnaires {
		if !submitted[key] {
			next = models.AssignmentStatusInProgress
			break
		}
	}

	if next == assignment.Status {
		return nil
	}
	if err := s.assignmentRepo.UpdateStatus(ctx, assignment.ID, next); err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	assignment.Status = next
	return nil
}

// scoreAnswers matches inputs to questions and resolves scores from the
// chosen options. When submitting, every required question must be answered.
func scoreAnswers(questions []*models.Question, inputs []AnswerInput, submitting bool) ([]models.Answer, error) {
	byID := make(map[string]*models.Question, len(questions))
	byCode := make(map[string]*models.Question, len(questions))
	for _, q := range questions {
		byID[q.ID.String()] = q
		byCode[q.Code] = q
	}

	seen := make(map[uuid.UUID]bool, len(inputs))
	answered := make(map[uuid.UUID]bool, len(inputs))
	answers := make([]models.Answer, 0, len(inputs))

	for _, in := range inputs {
		q := byID[strings.ToLower(strings.TrimSpace(in.QuestionID))]
		if q == nil {
			q = byCode[strings.TrimSpace(in.QuestionCode)]
		}
		if q == nil {
			return nil, fmt.Errorf("%w: unknown question %q", apperrors.ErrValidation, firstNonEmpty(in.QuestionID, in.QuestionCode))
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%w: question %s answered more than once", apperrors.ErrValidation, q.Code)
		}
		seen[q.ID] = true

		answer := models.Answer{QuestionID: q.ID, QuestionCode: q.Code}

		switch q.AnswerType {
		case models.AnswerTypeSingleChoice:
			choice := strings.TrimSpace(jsonutil.FlexibleStringValue(in.Choice))
			if choice == "" {
				// No choice made yet.
				if submitting && q.Required {
					return nil, fmt.Errorf("%w: question %s requires a choice", apperrors.ErrValidation, q.Code)
				}
				answer.Text = in.Text
				answers = append(answers, answer)
				continue
			}
			score, ok := q.ScoreFor(choice)
			if !ok {
				return nil, fmt.Errorf("%w: %q is not an option of question %s", apperrors.ErrValidation, choice, q.Code)
			}
			answer.Choice = choice
			answer.Score = &score
			answer.Text = in.Text
			answered[q.ID] = true
		default:
			answer.Text = in.Text
			if strings.TrimSpace(in.Text) != "" {
				answered[q.ID] = true
			}
		}

		answers = append(answers, answer)
	}

	if submitting {
		var missing []string
		for _, q := range questions {
			if q.Required && !answered[q.ID] {
				missing = append(missing, q.Code)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("%w: required questions unanswered: %s", apperrors.ErrValidation, strings.Join(missing, ", "))
		}
	}

	return answers, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *responseService) GetMine(ctx context.Context, projectID uuid.UUID, questionnaireKey string) (*models.Response, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	return s.responseRepo.Get(ctx, projectID, userID, questionnaireKey)
}

func (s *responseService) ListByProject(ctx context.Context, projectID uuid.UUID, status string) ([]*models.Response, error) {
	if status != "" && status != models.ResponseStatusDraft && status != models.ResponseStatusSubmitted {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	return s.responseRepo.ListByProject(ctx, projectID, status)
}
