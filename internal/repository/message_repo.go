package repository

import (
	"context"

	"github.com/Kumampet/itanavi-chat/internal/models"
)

type MessageRepository struct {
	db DBTX
}

func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(
	ctx context.Context,
	groupID int64,
	senderID int64,
	content string,
	isAnnouncement bool,
) (*models.GroupMessage, error) {
	query := `
		INSERT INTO group_messages (group_id, sender_id, content, is_announcement)
		VALUES ($1, $2, $3, $4)
		RETURNING id, group_id, sender_id, content, is_announcement, created_at
	`

	var message models.GroupMessage
	err := r.db.QueryRow(ctx, query, groupID, senderID, content, isAnnouncement).Scan(
		&message.ID,
		&message.GroupID,
		&message.SenderID,
		&message.Content,
		&message.IsAnnouncement,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

func (r *MessageRepository) GetByID(
	ctx context.Context,
	groupID int64,
	messageID int64,
) (*models.GroupMessage, error) {
	query := `
		SELECT id, group_id, sender_id, content, is_announcement, created_at
		FROM group_messages
		WHERE id = $1 AND group_id = $2
	`

	var message models.GroupMessage
	err := r.db.QueryRow(ctx, query, messageID, groupID).Scan(
		&message.ID,
		&message.GroupID,
		&message.SenderID,
		&message.Content,
		&message.IsAnnouncement,
		&message.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &message, nil
}

// ListByGroup returns the full message history for a group, oldest first.
// The client treats each fetch as a complete snapshot, so there is no
// pagination here.
func (r *MessageRepository) ListByGroup(
	ctx context.Context,
	groupID int64,
) ([]models.GroupMessage, error) {
	query := `
		SELECT m.id, m.group_id, m.sender_id,
		       COALESCE(gm.display_name, u.account_name),
		       m.content, m.is_announcement, m.created_at
		FROM group_messages m
		JOIN users u ON u.id = m.sender_id
		LEFT JOIN group_members gm ON gm.group_id = m.group_id AND gm.user_id = m.sender_id
		WHERE m.group_id = $1
		ORDER BY m.created_at ASC, m.id ASC
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]models.GroupMessage, 0)
	for rows.Next() {
		var message models.GroupMessage
		if err := rows.Scan(
			&message.ID,
			&message.GroupID,
			&message.SenderID,
			&message.SenderName,
			&message.Content,
			&message.IsAnnouncement,
			&message.CreatedAt,
		); err != nil {
			return nil, err
		}

		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}
