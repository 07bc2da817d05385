package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/Kumampet/itanavi-chat/internal/models"
)

type ReadMarkerRepository struct {
	db DBTX
}

func NewReadMarkerRepository(db DBTX) *ReadMarkerRepository {
	return &ReadMarkerRepository{db: db}
}

// MarkRead advances the user's watermark for the group to messageID. The
// GREATEST guard keeps the watermark monotonic, so a stale or duplicate mark
// request is a no-op.
func (r *ReadMarkerRepository) MarkRead(
	ctx context.Context,
	groupID int64,
	userID int64,
	messageID int64,
) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO read_markers (group_id, user_id, last_read_message_id, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (group_id, user_id)
		DO UPDATE SET
			last_read_message_id = GREATEST(read_markers.last_read_message_id, EXCLUDED.last_read_message_id),
			updated_at = NOW()
	`, groupID, userID, messageID)
	return err
}

// Get returns the user's watermark for the group. A user who has never
// marked anything read gets a zero-valued marker, not an error.
func (r *ReadMarkerRepository) Get(
	ctx context.Context,
	groupID int64,
	userID int64,
) (*models.ReadMarker, error) {
	marker := models.ReadMarker{GroupID: groupID, UserID: userID}
	err := r.db.QueryRow(ctx, `
		SELECT last_read_message_id, updated_at
		FROM read_markers
		WHERE group_id = $1 AND user_id = $2
	`, groupID, userID).Scan(&marker.LastReadMessageID, &marker.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &marker, nil
		}
		return nil, err
	}
	return &marker, nil
}

// UnreadMap reports, for every group the user belongs to, whether the group
// holds a message from someone else that is newer than the user's watermark.
func (r *ReadMarkerRepository) UnreadMap(
	ctx context.Context,
	userID int64,
) (map[int64]bool, error) {
	query := `
		SELECT gm.group_id,
		       EXISTS (
		           SELECT 1
		           FROM group_messages m
		           WHERE m.group_id = gm.group_id
		             AND m.sender_id <> $1
		             AND m.id > COALESCE(rm.last_read_message_id, 0)
		       )
		FROM group_members gm
		LEFT JOIN read_markers rm ON rm.group_id = gm.group_id AND rm.user_id = gm.user_id
		WHERE gm.user_id = $1
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unread := make(map[int64]bool)
	for rows.Next() {
		var groupID int64
		var hasUnread bool
		if err := rows.Scan(&groupID, &hasUnread); err != nil {
			return nil, err
		}
		unread[groupID] = hasUnread
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return unread, nil
}
