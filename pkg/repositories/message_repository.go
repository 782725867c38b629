package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zinspection/zi-engine/pkg/database"
	"github.com/zinspection/zi-engine/pkg/models"
)

// MessageRepository defines data access for project messages.
type MessageRepository interface {
	Create(ctx context.Context, m *models.Message) error
	// Conversation returns up to limit messages exchanged between userA and
	// userB on a project, oldest first.
	Conversation(ctx context.Context, projectID, userA, userB uuid.UUID, limit int) ([]*models.Message, error)
	// MarkRead marks every unread message from sender to recipient on a
	// project as read and returns how many were updated.
	MarkRead(ctx context.Context, projectID, senderID, recipientID uuid.UUID) (int64, error)
	UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error)
}

type messageRepository struct{}

// NewMessageRepository creates a new message repository.
func NewMessageRepository() MessageRepository {
	return &messageRepository{}
}

var _ MessageRepository = (*messageRepository)(nil)

func (r *messageRepository) Create(ctx context.Context, m *models.Message) error {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return errNoScope
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()

	_, err := scope.Conn.Exec(ctx, `
		INSERT INTO zi_messages (id, project_id, from_user_id, to_user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ProjectID, m.FromUserID, m.ToUserID, m.Text, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *messageRepository) Conversation(ctx context.Context, projectID, userA, userB uuid.UUID, limit int) ([]*models.Message, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return nil, errNoScope
	}

	// Newest `limit` messages, returned in chronological order.
	rows, err := scope.Conn.Query(ctx, `
		SELECT id, project_id, from_user_id, to_user_id, text, read_at, created_at
		FROM (
			SELECT id, project_id, from_user_id, to_user_id, text, read_at, created_at
			FROM zi_messages
			WHERE project_id = $1
			  AND ((from_user_id = $2 AND to_user_id = $3) OR (from_user_id = $3 AND to_user_id = $2))
			ORDER BY created_at DESC
			LIMIT $4
		) recent
		ORDER BY created_at`,
		projectID, userA, userB, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.FromUserID, &m.ToUserID, &m.Text, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, projectID, senderID, recipientID uuid.UUID) (int64, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, errNoScope
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE zi_messages
		SET read_at = now()
		WHERE project_id = $1 AND from_user_id = $2 AND to_user_id = $3 AND read_at IS NULL`,
		projectID, senderID, recipientID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *messageRepository) UnreadCount(ctx context.Context, recipientID uuid.UUID) (int, error) {
	scope, ok := database.GetScope(ctx)
	if !ok {
		return 0, errNoScope
	}

	var count int
	err := scope.Conn.QueryRow(ctx,
		`SELECT COUNT(*) FROM zi_messages WHERE to_user_id = $1 AND read_at IS NULL`, recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return count, nil
}
