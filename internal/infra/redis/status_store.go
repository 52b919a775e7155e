package redis

import (
	"context"
	"fmt"

	"english-practice-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// StatusStore keeps sparse status maps as one hash per user and kind:
// HSET status:{kind}:{userID} {entityID} {status}
type StatusStore struct {
	client *redis.Client
}

func NewStatusStore(client *redis.Client) *StatusStore {
	return &StatusStore{client: client}
}

func (s *StatusStore) GetStatuses(ctx context.Context, userID string, kind domain.ProgressKind) (map[string]string, error) {
	statuses, err := s.client.HGetAll(ctx, s.key(userID, kind)).Result()
	if err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}
	return statuses, nil
}

func (s *StatusStore) SetStatus(ctx context.Context, userID string, kind domain.ProgressKind, entityID, status string) error {
	key := s.key(userID, kind)
	var err error
	if status == "" {
		err = s.client.HDel(ctx, key, entityID).Err()
	} else {
		err = s.client.HSet(ctx, key, entityID, status).Err()
	}
	if err != nil {
		return fmt.Errorf("store status: %w", err)
	}
	return nil
}

func (s *StatusStore) key(userID string, kind domain.ProgressKind) string {
	return "status:" + string(kind) + ":" + userID
}
