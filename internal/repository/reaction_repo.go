package repository

import (
	"context"

	"github.com/Kumampet/itanavi-chat/internal/models"
)

type ReactionRepository struct {
	db DBTX
}

func NewReactionRepository(db DBTX) *ReactionRepository {
	return &ReactionRepository{db: db}
}

// Toggle adds the user's reaction if it is absent and removes it if present.
// The unique (message_id, user_id, emoji) constraint makes the insert side
// idempotent. Returns true when the reaction was added.
func (r *ReactionRepository) Toggle(
	ctx context.Context,
	messageID int64,
	userID int64,
	emoji string,
) (bool, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO message_reactions (message_id, user_id, emoji)
		VALUES ($1, $2, $3)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING
	`, messageID, userID, emoji)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() > 0 {
		return true, nil
	}

	_, err = r.db.Exec(ctx, `
		DELETE FROM message_reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3
	`, messageID, userID, emoji)
	return false, err
}

// SummariesByGroup returns the per-emoji reaction summary for every message
// in the group, keyed by message id.
func (r *ReactionRepository) SummariesByGroup(
	ctx context.Context,
	groupID int64,
) (map[int64][]models.ReactionGroup, error) {
	query := `
		SELECT mr.message_id, mr.emoji, ARRAY_AGG(mr.user_id ORDER BY mr.created_at ASC)
		FROM message_reactions mr
		JOIN group_messages m ON m.id = mr.message_id
		WHERE m.group_id = $1
		GROUP BY mr.message_id, mr.emoji
		ORDER BY mr.message_id ASC, MIN(mr.created_at) ASC
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	summaries := make(map[int64][]models.ReactionGroup)
	for rows.Next() {
		var messageID int64
		var group models.ReactionGroup
		if err := rows.Scan(&messageID, &group.Emoji, &group.UserIDs); err != nil {
			return nil, err
		}
		group.Count = len(group.UserIDs)
		summaries[messageID] = append(summaries[messageID], group)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}
