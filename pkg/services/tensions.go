package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// CreateTensionRequest describes a conflict between two principles.
type CreateTensionRequest struct {
	PrincipleA  string `json:"principleA"`
	PrincipleB  string `json:"principleB"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// EvidenceRequest is a supporting reference for a tension.
type EvidenceRequest struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// TensionService manages tensions, their votes, comments and evidence.
type TensionService interface {
	Create(ctx context.Context, projectID uuid.UUID, req *CreateTensionRequest) (*models.Tension, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Tension, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tension, error)
	// Vote records the caller's vote. Repeating the same vote withdraws it;
	// the opposite vote replaces it.
	Vote(ctx context.Context, id uuid.UUID, vote string) (*models.Tension, error)
	AddComment(ctx context.Context, id uuid.UUID, text string) (*models.TensionComment, error)
	AddEvidence(ctx context.Context, id uuid.UUID, req *EvidenceRequest) (*models.TensionEvidence, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// Delete is allowed for the tension's creator and admins.
	Delete(ctx context.Context, id uuid.UUID) error
}

type tensionService struct {
	projectRepo repositories.ProjectRepository
	tensionRepo repositories.TensionRepository
	logger      *zap.Logger
}

// NewTensionService creates a tension service.
func NewTensionService(projectRepo repositories.ProjectRepository, tensionRepo repositories.TensionRepository, logger *zap.Logger) TensionService {
	return &tensionService{
		projectRepo: projectRepo,
		tensionRepo: tensionRepo,
		logger:      logger.Named("tensions"),
	}
}

var _ TensionService = (*tensionService)(nil)

func (s *tensionService) Create(ctx context.Context, projectID uuid.UUID, req *CreateTensionRequest) (*models.Tension, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	a, okA := models.ParsePrinciple(req.PrincipleA)
	b, okB := models.ParsePrinciple(req.PrincipleB)
	if !okA || !okB {
		return nil, fmt.Errorf("%w: %q / %q", apperrors.ErrInvalidPrinciple, req.PrincipleA, req.PrincipleB)
	}
	if a == b {
		return nil, fmt.Errorf("%w: a tension needs two different principles", apperrors.ErrValidation)
	}

	severity := req.Severity
	if severity == "" {
		severity = models.SeverityMedium
	}
	if !models.IsValidSeverity(severity) {
		return nil, fmt.Errorf("%w: severity must be low, medium or high", apperrors.ErrValidation)
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	t := &models.Tension{
		ProjectID:   projectID,
		PrincipleA:  a,
		PrincipleB:  b,
		Description: strings.TrimSpace(req.Description),
		Severity:    severity,
		CreatedBy:   userID,
	}
	if err := s.tensionRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info("Created tension",
		zap.String("tension_id", t.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("principles", string(a)+"/"+string(b)))
	return t, nil
}

func (s *tensionService) Get(ctx context.Context, id uuid.UUID) (*models.Tension, error) {
	return s.tensionRepo.GetByID(ctx, id)
}

func (s *tensionService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Tension, error) {
	return s.tensionRepo.ListByProject(ctx, projectID)
}

func (s *tensionService) Vote(ctx context.Context, id uuid.UUID, vote string) (*models.Tension, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if vote != models.VoteAgree && vote != models.VoteDisagree {
		return nil, fmt.Errorf("%w: vote must be agree or disagree", apperrors.ErrValidation)
	}

	now := time.Now()
	return s.tensionRepo.UpdateVotes(ctx, id, func(votes []models.TensionVote) []models.TensionVote {
		return applyVote(votes, userID, vote, now)
	})
}

// applyVote toggles or switches userID's vote.
func applyVote(votes []models.TensionVote, userID uuid.UUID, vote string, at time.Time) []models.TensionVote {
	out := make([]models.TensionVote, 0, len(votes)+1)
	found := false
	for _, v := range votes {
		if v.UserID != userID {
			out = append(out, v)
			continue
		}
		found = true
		if v.Vote == vote {
			continue
		}
		out = append(out, models.TensionVote{UserID: userID, Vote: vote, VotedAt: at})
	}
	if !found {
		out = append(out, models.TensionVote{UserID: userID, Vote: vote, VotedAt: at})
	}
	return out
}

func (s *tensionService) AddComment(ctx context.Context, id uuid.UUID, text string) (*models.TensionComment, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", apperrors.ErrValidation)
	}

	comment := models.TensionComment{
		ID:        uuid.New(),
		UserID:    userID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.tensionRepo.AddComment(ctx, id, comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (s *tensionService) AddEvidence(ctx context.Context, id uuid.UUID, req *EvidenceRequest) (*models.TensionEvidence, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: evidence title is required", apperrors.ErrValidation)
	}

	evidence := models.TensionEvidence{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(req.Title),
		Type:        req.Type,
		Description: req.Description,
		URL:         req.URL,
		CreatedAt:   time.Now(),
	}
	if err := s.tensionRepo.AddEvidence(ctx, id, evidence); err != nil {
		return nil, err
	}
	return &evidence, nil
}

func (s *tensionService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if status != models.TensionStatusOpen && status != models.TensionStatusResolved {
		return fmt.Errorf("%w: status must be open or resolved", apperrors.ErrValidation)
	}
	return s.tensionRepo.UpdateStatus(ctx, id, status)
}

func (s *tensionService) Delete(ctx context.Context, id uuid.UUID) error {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}

	t, err := s.tensionRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.CreatedBy != userID && !auth.IsAdmin(ctx) {
		return apperrors.ErrForbidden
	}

	return s.tensionRepo.Delete(ctx, id)
}
