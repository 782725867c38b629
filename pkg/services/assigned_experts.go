package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/idnorm"
	"github.com/zinspection/zi-engine/pkg/logging"
	"github.com/zinspection/zi-engine/pkg/metrics"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// AssignedExpertsService resolves who is assigned to evaluate a use case.
//
// Assignment has been recorded four different ways over time: the use case's
// own assigned_experts array, the assigned_users array of every project
// linked to it, project assignment rows, and (for older data) responses that
// point back at an assignment. The resolver unions all of them.
type AssignedExpertsService interface {
	// Resolve runs the resolution and reports failures. A missing use case
	// is not a failure; it yields the empty result.
	Resolve(ctx context.Context, useCaseID string) (*models.AssignedExperts, error)

	// GetAssignedExpertsForUseCase is Resolve for callers that must never
	// block on resolution: failures are logged, counted and returned as the
	// empty result.
	GetAssignedExpertsForUseCase(ctx context.Context, useCaseID string) *models.AssignedExperts
}

type assignedExpertsService struct {
	useCaseRepo    repositories.UseCaseRepository
	projectRepo    repositories.ProjectRepository
	assignmentRepo repositories.AssignmentRepository
	responseRepo   repositories.ResponseRepository
	userRepo       repositories.UserRepository
	metrics        *metrics.Metrics
	logger         *zap.Logger
}

// NewAssignedExpertsService creates the resolver. assignmentRepo and
// responseRepo may be nil, in which case the assignment and response
// sources are skipped.
func NewAssignedExpertsService(
	useCaseRepo repositories.UseCaseRepository,
	projectRepo repositories.ProjectRepository,
	assignmentRepo repositories.AssignmentRepository,
	responseRepo repositories.ResponseRepository,
	userRepo repositories.UserRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) AssignedExpertsService {
	return &assignedExpertsService{
		useCaseRepo:    useCaseRepo,
		projectRepo:    projectRepo,
		assignmentRepo: assignmentRepo,
		responseRepo:   responseRepo,
		userRepo:       userRepo,
		metrics:        m,
		logger:         logger.Named("assigned-experts"),
	}
}

var _ AssignedExpertsService = (*assignedExpertsService)(nil)

func (s *assignedExpertsService) GetAssignedExpertsForUseCase(ctx context.Context, useCaseID string) *models.AssignedExperts {
	result, err := s.Resolve(ctx, useCaseID)
	if err != nil {
		s.logger.Error("Failed to resolve assigned experts",
			zap.String("use_case_id", useCaseID),
			zap.String("error", logging.SanitizeError(err)))
		s.metrics.RecordResolverOutcome(metrics.ResolverFailed)
		return models.EmptyAssignedExperts()
	}

	if result.AssignedExpertsCount == 0 {
		s.metrics.RecordResolverOutcome(metrics.ResolverEmpty)
	} else {
		s.metrics.RecordResolverOutcome(metrics.ResolverResolved)
	}
	return result
}

func (s *assignedExpertsService) Resolve(ctx context.Context, useCaseID string) (*models.AssignedExperts, error) {
	canonical, ok := idnorm.Normalize(useCaseID)
	if !ok {
		s.logger.Debug("Use case id is not a valid identifier", zap.String("use_case_id", useCaseID))
		return models.EmptyAssignedExperts(), nil
	}

	useCase, err := s.useCaseRepo.GetByID(ctx, uuid.MustParse(canonical))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return models.EmptyAssignedExperts(), nil
		}
		return nil, fmt.Errorf("load use case: %w", err)
	}

	ids := idnorm.NewSet()
	// First role seen per canonical user ID, from assignment rows.
	assignmentRoles := make(map[string]string)

	for _, ref := range useCase.AssignedExperts {
		ids.Add(ref)
	}

	projects, err := s.projectRepo.ListByUseCase(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("list linked projects: %w", err)
	}

	projectIDs := make([]uuid.UUID, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
		for _, ref := range p.AssignedUsers {
			ids.Add(ref)
		}
	}

	if len(projectIDs) > 0 && s.assignmentRepo != nil {
		assignments, err := s.assignmentRepo.ListByProjects(ctx, projectIDs)
		if err != nil {
			return nil, fmt.Errorf("list project assignments: %w", err)
		}

		if len(assignments) == 0 && s.responseRepo != nil {
			assignments, err = s.assignmentsFromResponses(ctx, projectIDs)
			if err != nil {
				return nil, err
			}
		}

		for _, a := range assignments {
			ids.Add(a.UserID)
			key := a.UserID.String()
			if _, seen := assignmentRoles[key]; !seen && a.Role != "" {
				assignmentRoles[key] = a.Role
			}
		}
	}

	return s.resolveUsers(ctx, ids, assignmentRoles)
}

// assignmentsFromResponses follows responses' assignment references back to
// their assignment rows. Only used when the projects have no assignment rows.
func (s *assignedExpertsService) assignmentsFromResponses(ctx context.Context, projectIDs []uuid.UUID) ([]*models.ProjectAssignment, error) {
	assignmentIDs, err := s.responseRepo.AssignmentIDsForProjects(ctx, projectIDs)
	if err != nil {
		return nil, fmt.Errorf("list response assignment ids: %w", err)
	}
	if len(assignmentIDs) == 0 {
		return nil, nil
	}

	assignments, err := s.assignmentRepo.GetByIDs(ctx, assignmentIDs)
	if err != nil {
		return nil, fmt.Errorf("load response assignments: %w", err)
	}

	s.logger.Debug("Resolved experts through response fallback",
		zap.Int("assignment_ids", len(assignmentIDs)),
		zap.Int("assignments", len(assignments)))
	return assignments, nil
}

// resolveUsers loads the collected IDs, drops admins and unknown users and
// builds the result in collection order.
func (s *assignedExpertsService) resolveUsers(ctx context.Context, ids *idnorm.Set, assignmentRoles map[string]string) (*models.AssignedExperts, error) {
	result := models.EmptyAssignedExperts()
	if ids.Len() == 0 {
		return result, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, ids.UUIDs())
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	byID := make(map[string]*models.User, len(users))
	for _, u := range users {
		byID[u.ID.String()] = u
	}

	for _, id := range ids.IDs() {
		user, found := byID[id]
		if !found || user.IsAdmin() {
			continue
		}

		role := assignmentRoles[id]
		if role == "" {
			role = user.Role
		}

		result.AssignedUserIDs = append(result.AssignedUserIDs, id)
		result.AssignedExperts = append(result.AssignedExperts, models.AssignedExpert{
			UserID:         id,
			Name:           user.Name,
			Role:           user.Role,
			Email:          user.Email,
			AssignmentRole: role,
		})
	}
	result.AssignedExpertsCount = len(result.AssignedExperts)

	return result, nil
}
