package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// ConnectionRegistry persists which websocket connections are attached to
// which group, as a Redis hash per group (field = connection id, value =
// user id). The rows exist so presence survives a server process restart;
// in-memory fan-out is handled by the hub.
type ConnectionRegistry struct {
	client *redis.Client
}

func NewConnectionRegistry(client *redis.Client) *ConnectionRegistry {
	return &ConnectionRegistry{client: client}
}

func connectionsKey(groupID int64) string {
	return fmt.Sprintf("group:%d:connections", groupID)
}

func (r *ConnectionRegistry) Join(
	ctx context.Context,
	groupID int64,
	connectionID string,
	userID int64,
) error {
	return r.client.HSet(ctx, connectionsKey(groupID), connectionID, userID).Err()
}

func (r *ConnectionRegistry) Leave(
	ctx context.Context,
	groupID int64,
	connectionID string,
) error {
	return r.client.HDel(ctx, connectionsKey(groupID), connectionID).Err()
}

// Members returns the user ids currently connected to the group's channel.
func (r *ConnectionRegistry) Members(
	ctx context.Context,
	groupID int64,
) ([]int64, error) {
	values, err := r.client.HVals(ctx, connectionsKey(groupID)).Result()
	if err != nil {
		return nil, err
	}

	userIDs := make([]int64, 0, len(values))
	for _, value := range values {
		userID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, nil
}
