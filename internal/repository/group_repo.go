package repository

import (
	"context"

	"github.com/Kumampet/itanavi-chat/internal/models"
)

type GroupRepository struct {
	db DBTX
}

func NewGroupRepository(db DBTX) *GroupRepository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, groupID int64) (*models.Group, error) {
	query := `
		SELECT id, event_id, name, leader_id, created_at, updated_at
		FROM groups
		WHERE id = $1
	`

	var group models.Group
	err := r.db.QueryRow(ctx, query, groupID).Scan(
		&group.ID,
		&group.EventID,
		&group.Name,
		&group.LeaderID,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *GroupRepository) GetByIDForMember(
	ctx context.Context,
	groupID int64,
	memberID int64,
) (*models.Group, error) {
	query := `
		SELECT g.id, g.event_id, g.name, g.leader_id, g.created_at, g.updated_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE g.id = $1 AND gm.user_id = $2
	`

	var group models.Group
	err := r.db.QueryRow(ctx, query, groupID, memberID).Scan(
		&group.ID,
		&group.EventID,
		&group.Name,
		&group.LeaderID,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &group, nil
}

func (r *GroupRepository) ListMembers(
	ctx context.Context,
	groupID int64,
) ([]models.GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.display_name, u.account_name,
		       (g.leader_id = gm.user_id), gm.joined_at
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC, gm.user_id ASC
	`

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.GroupMember, 0)
	for rows.Next() {
		var member models.GroupMember
		if err := rows.Scan(
			&member.GroupID,
			&member.UserID,
			&member.DisplayName,
			&member.AccountName,
			&member.IsLeader,
			&member.JoinedAt,
		); err != nil {
			return nil, err
		}

		members = append(members, member)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

// GetMember returns the user's membership row for the group, or pgx.ErrNoRows
// when the user does not belong to it.
func (r *GroupRepository) GetMember(
	ctx context.Context,
	groupID int64,
	userID int64,
) (*models.GroupMember, error) {
	query := `
		SELECT gm.group_id, gm.user_id, gm.display_name, u.account_name,
		       (g.leader_id = gm.user_id), gm.joined_at
		FROM group_members gm
		JOIN groups g ON g.id = gm.group_id
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1 AND gm.user_id = $2
	`

	var member models.GroupMember
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(
		&member.GroupID,
		&member.UserID,
		&member.DisplayName,
		&member.AccountName,
		&member.IsLeader,
		&member.JoinedAt,
	)
	if err != nil {
		return nil, err
	}

	return &member, nil
}

func (r *GroupRepository) Touch(ctx context.Context, groupID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE groups
		SET updated_at = NOW()
		WHERE id = $1
	`, groupID)
	return err
}
