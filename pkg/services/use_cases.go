package services

import (
	"context"
	"errors"
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

// CreateUseCaseRequest submits an AI system for review.
type CreateUseCaseRequest struct {
	Title            string              `json:"title"`
	Description      string              `json:"description"`
	AISystemCategory string              `json:"aiSystemCategory"`
	Attachments      []models.Attachment `json:"attachments"`
}

// UseCaseService manages use case submissions.
type UseCaseService interface {
	Create(ctx context.Context, req *CreateUseCaseRequest) (*models.UseCase, error)
	// Get is allowed for admins, the owner and the use case's assigned experts.
	Get(ctx context.Context, id uuid.UUID) (*models.UseCase, error)
	// List returns every use case to admins and the caller's own to others.
	List(ctx context.Context, status string) ([]*models.UseCase, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	// AssignExperts records experts on the use case itself.
	AssignExperts(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) (*models.UseCase, error)
	AddAttachment(ctx context.Context, id uuid.UUID, attachment models.Attachment) error
	// AssignedExperts resolves the use case's experts for callers who may
	// read the use case. Unknown or malformed IDs yield the empty result;
	// ErrForbidden is returned to callers without access.
	AssignedExperts(ctx context.Context, id string) (*models.AssignedExperts, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type useCaseService struct {
	useCaseRepo repositories.UseCaseRepository
	userRepo    repositories.UserRepository
	resolver    AssignedExpertsService
	logger      *zap.Logger
}

// NewUseCaseService creates a use case service.
func NewUseCaseService(
	useCaseRepo repositories.UseCaseRepository,
	userRepo repositories.UserRepository,
	resolver AssignedExpertsService,
	logger *zap.Logger,
) UseCaseService {
	return &useCaseService{
		useCaseRepo: useCaseRepo,
		userRepo:    userRepo,
		resolver:    resolver,
		logger:      logger.Named("use-cases"),
	}
}

var _ UseCaseService = (*useCaseService)(nil)

func (s *useCaseService) Create(ctx context.Context, req *CreateUseCaseRequest) (*models.UseCase, error) {
	ownerID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}

	attachments := make([]models.Attachment, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		if err := validateAttachment(&a); err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}

	uc := &models.UseCase{
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		AISystemCategory: req.AISystemCategory,
		OwnerID:          ownerID,
		AssignedExperts:  models.LegacyRefs{},
		Attachments:      attachments,
	}
	if err := s.useCaseRepo.Create(ctx, uc); err != nil {
		return nil, err
	}

	s.logger.Info("Created use case",
		zap.String("use_case_id", uc.ID.String()),
		zap.String("owner_id", ownerID.String()))
	return uc, nil
}

func validateAttachment(a *models.Attachment) error {
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.URL) == "" {
		return fmt.Errorf("%w: attachment name and url are required", apperrors.ErrValidation)
	}
	if a.UploadedAt.IsZero() {
		a.UploadedAt = time.Now()
	}
	return nil
}

func (s *useCaseService) Get(ctx context.Context, id uuid.UUID) (*models.UseCase, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	uc, err := s.useCaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if auth.IsAdmin(ctx) || uc.OwnerID == userID {
		return uc, nil
	}

	experts, err := s.resolver.Resolve(ctx, id.String())
	if err != nil {
		return nil, err
	}
	for _, expertID := range experts.AssignedUserIDs {
		if expertID == userID.String() {
			return uc, nil
		}
	}
	return nil, apperrors.ErrForbidden
}

func (s *useCaseService) List(ctx context.Context, status string) ([]*models.UseCase, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !models.IsValidUseCaseStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}

	filter := repositories.UseCaseFilter{Status: status}
	if !auth.IsAdmin(ctx) {
		filter.OwnerID = &userID
	}
	return s.useCaseRepo.List(ctx, filter)
}

func (s *useCaseService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	if !models.IsValidUseCaseStatus(status) {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, status)
	}
	return s.useCaseRepo.UpdateStatus(ctx, id, status)
}

func (s *useCaseService) AssignExperts(ctx context.Context, id uuid.UUID, userIDs []uuid.UUID) (*models.UseCase, error) {
	if len(userIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one user is required", apperrors.ErrValidation)
	}

	uc, err := s.useCaseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	found := make(map[uuid.UUID]*models.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	for _, uid := range userIDs {
		u, ok := found[uid]
		if !ok {
			return nil, fmt.Errorf("user %s: %w", uid, apperrors.ErrNotFound)
		}
		if u.IsAdmin() {
			return nil, fmt.Errorf("%w: admins cannot be assigned as experts", apperrors.ErrInvalidRole)
		}
	}

	if err := s.useCaseRepo.AppendAssignedExperts(ctx, id, models.RefsFromIDs(userIDs...)); err != nil {
		return nil, err
	}
	if uc.Status == models.UseCaseStatusPending {
		if err := s.useCaseRepo.UpdateStatus(ctx, id, models.UseCaseStatusAssigned); err != nil {
			return nil, err
		}
	}

	s.logger.Info("Assigned experts to use case",
		zap.String("use_case_id", id.String()),
		zap.Int("experts", len(userIDs)))
	return s.useCaseRepo.GetByID(ctx, id)
}

func (s *useCaseService) AddAttachment(ctx context.Context, id uuid.UUID, attachment models.Attachment) error {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return err
	}
	if err := validateAttachment(&attachment); err != nil {
		return err
	}

	uc, err := s.useCaseRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if uc.OwnerID != userID && !auth.IsAdmin(ctx) {
		return apperrors.ErrForbidden
	}
	return s.useCaseRepo.AddAttachment(ctx, id, attachment)
}

func (s *useCaseService) AssignedExperts(ctx context.Context, id string) (*models.AssignedExperts, error) {
	if !auth.IsAdmin(ctx) {
		useCaseID, err := uuid.Parse(strings.TrimSpace(id))
		if err != nil {
			return models.EmptyAssignedExperts(), nil
		}
		if _, err := s.Get(ctx, useCaseID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return models.EmptyAssignedExperts(), nil
			}
			return nil, err
		}
	}
	return s.resolver.GetAssignedExpertsForUseCase(ctx, id), nil
}

func (s *useCaseService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.useCaseRepo.Delete(ctx, id)
}
