package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/audit"
	"github.com/zinspection/zi-engine/pkg/logging"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// UserRequest carries the editable fields of a user.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// UserService defines the interface for user operations.
type UserService interface {
	Create(ctx context.Context, req *UserRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, role string) ([]*models.User, error)
	Update(ctx context.Context, id uuid.UUID, req *UserRequest) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	userRepo repositories.UserRepository
	auditor  *audit.SecurityAuditor
	logger   *zap.Logger
}

// NewUserService creates a new user service with dependencies.
func NewUserService(userRepo repositories.UserRepository, auditor *audit.SecurityAuditor, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		auditor:  auditor,
		logger:   logger.Named("users"),
	}
}

var _ UserService = (*userService)(nil)

// validate normalizes req in place.
func (req *UserRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" {
		return fmt.Errorf("%w: name is required", apperrors.ErrValidation)
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	if !models.IsValidRole(req.Role) {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, req.Role)
	}
	return nil
}

func (s *userService) Create(ctx context.Context, req *UserRequest) (*models.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Created user",
		zap.String("user_id", user.ID.String()),
		zap.String("email", logging.MaskEmail(user.Email)),
		zap.String("role", user.Role))
	return user, nil
}

func (s *userService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *userService) List(ctx context.Context, role string) ([]*models.User, error) {
	if role != "" && !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrInvalidRole, role)
	}
	return s.userRepo.List(ctx, role)
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, req *UserRequest) (*models.User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousRole := user.Role
	user.Name = req.Name
	user.Email = req.Email
	user.Role = req.Role

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	if previousRole != user.Role {
		s.auditor.LogPrivilegedAction(ctx, audit.EventRoleChanged, uuid.Nil, user.ID,
			map[string]string{"from": previousRole, "to": user.Role})
	}
	return user, nil
}

func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.auditor.LogPrivilegedAction(ctx, audit.EventUserDeleted, uuid.Nil, id, nil)
	return nil
}
