package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zinspection/zi-engine/pkg/apperrors"
	"github.com/zinspection/zi-engine/pkg/auth"
	"github.com/zinspection/zi-engine/pkg/models"
	"github.com/zinspection/zi-engine/pkg/repositories"
)

// Conversation page sizes.
const (
	DefaultConversationLimit = 100
	MaxConversationLimit     = 500
)

// MessageService handles project-scoped direct messages.
type MessageService interface {
	Send(ctx context.Context, projectID, toUserID uuid.UUID, text string) (*models.Message, error)
	// Conversation returns messages between the caller and otherUserID,
	// oldest first. limit <= 0 selects the default.
	Conversation(ctx context.Context, projectID, otherUserID uuid.UUID, limit int) ([]*models.Message, error)
	// MarkRead marks otherUserID's messages to the caller as read.
	MarkRead(ctx context.Context, projectID, otherUserID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context) (int, error)
}

type messageService struct {
	projectRepo repositories.ProjectRepository
	userRepo    repositories.UserRepository
	messageRepo repositories.MessageRepository
	logger      *zap.Logger
}

// NewMessageService creates a message service.
func NewMessageService(
	projectRepo repositories.ProjectRepository,
	userRepo repositories.UserRepository,
	messageRepo repositories.MessageRepository,
	logger *zap.Logger,
) MessageService {
	return &messageService{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		messageRepo: messageRepo,
		logger:      logger.Named("messages"),
	}
}

var _ MessageService = (*messageService)(nil)

func (s *messageService) Send(ctx context.Context, projectID, toUserID uuid.UUID, text string) (*models.Message, error) {
	fromUserID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", apperrors.ErrValidation)
	}
	if toUserID == fromUserID {
		return nil, fmt.Errorf("%w: cannot message yourself", apperrors.ErrValidation)
	}

	if _, err := s.projectRepo.GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, toUserID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ProjectID:  projectID,
		FromUserID: fromUserID,
		ToUserID:   toUserID,
		Text:       text,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Debug("Message sent",
		zap.String("project_id", projectID.String()),
		zap.String("message_id", msg.ID.String()))
	return msg, nil
}

func (s *messageService) Conversation(ctx context.Context, projectID, otherUserID uuid.UUID, limit int) ([]*models.Message, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultConversationLimit
	}
	if limit > MaxConversationLimit {
		limit = MaxConversationLimit
	}

	return s.messageRepo.Conversation(ctx, projectID, userID, otherUserID, limit)
}

func (s *messageService) MarkRead(ctx context.Context, projectID, otherUserID uuid.UUID) (int64, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return s.messageRepo.MarkRead(ctx, projectID, otherUserID, userID)
}

func (s *messageService) UnreadCount(ctx context.Context) (int, error) {
	userID, err := auth.RequireUserUUIDFromContext(ctx)
	if err != nil {
		return 0, err
	}
	return s.messageRepo.UnreadCount(ctx, userID)
}
