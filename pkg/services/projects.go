package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/audit"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/idnorm"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// CreateProjectRequest creates an evaluation project.
type CreateProjectRequest struct {
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	FullDescription  string `json:"fullDescription"`
	UseCase          string `json:"useCase"` // Optional use case ID
	Stage            string `json:"stage"`
}

// UpdateProjectRequest patches a project; nil fields are left unchanged.
type UpdateProjectRequest struct {
	Title            *string `json:"title"`
	ShortDescription *string `json:"shortDescription"`
	FullDescription  *string `json:"fullDescription"`
	Status           *string `json:"status"`
	Stage            *string `json:"stage"`
}

// AssignRequest assigns a user to a project in a role with questionnaires.
type AssignRequest struct {
	UserID         uuid.UUID `json:"userId"`
	Role           string    `json:"role"`
	Questionnaires []string  `json:"questionnaires"`
}

// ProjectService manages projects and their assignments.
type ProjectService interface {
	Create(ctx context.Context, req *CreateProjectRequest) (*models.Project, error)
	// Get is allowed for admins and project members.
	Get(ctx context.Context, id uuid.UUID) (*models.Project, error)
	// List returns all projects to admins and the caller's projects to others.
	List(ctx context.Context) ([]*models.Project, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*models.Project, error)
	// Delete removes the project only; its responses and tensions stay.
	Delete(ctx context.Context, id uuid.UUID) error
	Assign(ctx context.Context, projectID uuid.UUID, req *AssignRequest) (*models.ProjectAssignment, error)
	ListAssignments(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error)
	RemoveAssignment(ctx context.Context, projectID, assignmentID uuid.UUID) error
}

type projectService struct {
	projectRepo       repositories.ProjectRepository
	useCaseRepo       repositories.UseCaseRepository
	userRepo          repositories.UserRepository
	assignmentRepo    repositories.AssignmentRepository
	questionnaireRepo repositories.QuestionnaireRepository
	auditor           *audit.SecurityAuditor
	logger            *zap.Logger
}

// NewProjectService creates a new project service with dependencies.
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	useCaseRepo repositories.UseCaseRepository,
	userRepo repositories.UserRepository,
	assignmentRepo repositories.AssignmentRepository,
	questionnaireRepo repositories.QuestionnaireRepository,
	auditor *audit.SecurityAuditor,
	logger *zap.Logger,
) ProjectService {
	return &projectService{
		projectRepo:       projectRepo,
		useCaseRepo:       useCaseRepo,
		userRepo:          userRepo,
		assignmentRepo:    assignmentRepo,
		questionnaireRepo: questionnaireRepo,
		auditor:           auditor,
		logger:            logger.Named("projects"),
	}
}

var _ ProjectService = (*projectService)(nil)

func (s *projectService) Create(ctx context.Context, req *CreateProjectRequest) (*models.Project, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", apperrors.ErrValidation)
	}
	if req.Stage != "" && !models.IsValidStage(req.Stage) {
		return nil, fmt.Errorf("%w: unknown stage %q", apperrors.ErrValidation, req.Stage)
	}

	var useCase string
	if strings.TrimSpace(req.UseCase) != "" {
		canonical, ok := idnorm.Normalize(req.UseCase)
		if !ok {
			return nil, fmt.Errorf("%w: useCase is not a valid id", apperrors.ErrValidation)
		}
		if _, err := s.useCaseRepo.GetByID(ctx, uuid.MustParse(canonical)); err != nil {
			return nil, fmt.Errorf("use case %s: %w", canonical, err)
		}
		useCase = canonical
	}

	project := &models.Project{
		Title:            strings.TrimSpace(req.Title),
		ShortDescription: req.ShortDescription,
		FullDescription:  req.FullDescription,
		Stage:            req.Stage,
		UseCase:          useCase,
		AssignedUsers:    models.LegacyRefs{},
		CreatedBy:        &userID,
	}
	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, err
	}

	s.logger.Info("Created project",
		zap.String("project_id", project.ID.String()),
		zap.String("use_case", useCase))
	return project, nil
}

func (s *projectService) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if auth.IsAdmin(ctx) {
		return project, nil
	}

	member, err := s.isMember(ctx, project, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		s.auditor.LogAccessDenied(ctx, id, "not a project member")
		return nil, apperrors.ErrForbidden
	}
	return project, nil
}

// isMember reports whether userID holds an assignment on the project or is
// listed in its legacy assigned users.
func (s *projectService) isMember(ctx context.Context, project *models.Project, userID uuid.UUID) (bool, error) {
	legacy := idnorm.NewSet()
	for _, ref := range project.AssignedUsers {
		legacy.Add(ref)
	}
	if legacy.Contains(userID) {
		return true, nil
	}

	assignments, err := s.assignmentRepo.ListForUser(ctx, project.ID, userID)
	if err != nil {
		return false, fmt.Errorf("list assignments: %w", err)
	}
	return len(assignments) > 0, nil
}

func (s *projectService) List(ctx context.Context) ([]*models.Project, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if auth.IsAdmin(ctx) {
		return s.projectRepo.List(ctx)
	}
	return s.projectRepo.ListForUser(ctx, userID)
}

func (s *projectService) Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*models.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", apperrors.ErrValidation)
		}
		project.Title = title
	}
	if req.ShortDescription != nil {
		project.ShortDescription = *req.ShortDescription
	}
	if req.FullDescription != nil {
		project.FullDescription = *req.FullDescription
	}
	if req.Status != nil {
		if !models.IsValidProjectStatus(*req.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, *req.Status)
		}
		project.Status = *req.Status
	}
	if req.Stage != nil {
		if !models.IsValidStage(*req.Stage) {
			return nil, fmt.Errorf("%w: unknown stage %q", apperrors.ErrValidation, *req.Stage)
		}
		project.Stage = *req.Stage
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Deleted project", zap.String("project_id", id.String()))
	s.auditor.LogPrivilegedAction(ctx, audit.EventProjectDeleted, id, id, nil)
	return nil
}

func (s *projectService) Assign(ctx context.Context, projectID uuid.UUID, req *AssignRequest) (*models.ProjectAssignment, error) {
	if req.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: userId is required", apperrors.ErrValidation)
	}
	if !models.IsValidRole(req.Role) || req.Role == models.RoleAdmin {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, req.Role)
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("user %s: %w", req.UserID, err)
		}
		return nil, err
	}
	if user.IsAdmin() {
		return nil, fmt.Errorf("%w: admins cannot be assigned to projects", apperrors.ErrInvalidRole)
	}

	questionnaires := make([]string, 0, len(req.Questionnaires))
	seen := make(map[string]struct{}, len(req.Questionnaires))
	for _, key := range req.Questionnaires {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		if _, err := s.questionnaireRepo.Get(ctx, key); err != nil {
			return nil, fmt.Errorf("questionnaire %s: %w", key, err)
		}
		seen[key] = struct{}{}
		questionnaires = append(questionnaires, key)
	}

	assignment := &models.ProjectAssignment{
		ProjectID:      projectID,
		UserID:         req.UserID,
		Role:           req.Role,
		Questionnaires: questionnaires,
	}
	if err := s.assignmentRepo.Upsert(ctx, assignment); err != nil {
		return nil, err
	}

	// Keep the legacy array in step for readers that still use it.
	if err := s.projectRepo.AppendAssignedUsers(ctx, projectID, models.RefsFromIDs(req.UserID)); err != nil {
		return nil, err
	}

	s.logger.Info("Assigned user to project",
		zap.String("project_id", projectID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("role", req.Role),
		zap.Strings("questionnaires", questionnaires))
	return assignment, nil
}

func (s *projectService) ListAssignments(ctx context.Context, projectID uuid.UUID) ([]*models.ProjectAssignment, error) {
	return s.assignmentRepo.ListByProject(ctx, projectID)
}

func (s *projectService) RemoveAssignment(ctx context.Context, projectID, assignmentID uuid.UUID) error {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.ProjectID != projectID {
		return apperrors.ErrNotFound
	}
	return s.assignmentRepo.Delete(ctx, assignmentID)
}
