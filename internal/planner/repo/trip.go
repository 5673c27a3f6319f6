package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/redis/go-redis/v9"

	errx "github.com/tripsmith/server/internal/core/error"
	"github.com/tripsmith/server/internal/planner/model"
	logx "github.com/tripsmith/server/pkg/logger"
)

// RedisTripRepository stores the trip record as a JSON string key and the
// conversation history as a JSON list, both under the thread id with a TTL
// that is extended on every touch.
type RedisTripRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisTripRepository(rdb redis.Cmdable, ttl time.Duration) *RedisTripRepository {
	return &RedisTripRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisTripRepository) tripKey(threadID string) string {
	return fmt.Sprintf("trip:%s:state", threadID)
}

func (r *RedisTripRepository) messagesKey(threadID string) string {
	return fmt.Sprintf("trip:%s:messages", threadID)
}

func (r *RedisTripRepository) GetTrip(ctx context.Context, threadID string) (*model.TripState, error) {
	raw, err := r.rdb.Get(ctx, r.tripKey(threadID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to load trip state from redis")
		return nil, errx.WrapRedis(err)
	}

	var trip model.TripState
	if err := json.Unmarshal([]byte(raw), &trip); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to unmarshal trip state")
		return nil, fmt.Errorf("unmarshal trip state: %w", err)
	}
	return &trip, nil
}

func (r *RedisTripRepository) SaveTrip(ctx context.Context, trip *model.TripState) error {
	b, err := json.Marshal(trip)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", trip.ThreadID).Msg("failed to marshal trip state")
		return fmt.Errorf("marshal trip state: %w", err)
	}

	key := r.tripKey(trip.ThreadID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store trip state in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisTripRepository) AddMessage(ctx context.Context, threadID string, message *schema.Message) error {
	b, err := json.Marshal(message)
	if err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to marshal message")
		return fmt.Errorf("marshal message: %w", err)
	}
	key := r.messagesKey(threadID)

	// append message
	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push message to redis")
		return errx.WrapRedis(err)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		if ok, err := r.rdb.Expire(ctx, key, r.ttl).Result(); err != nil {
			logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
			return errx.WrapRedis(err)
		} else if !ok {
			logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on messages key")
		}
	}
	return nil
}

func (r *RedisTripRepository) LoadHistory(ctx context.Context, threadID string) (*model.ConversationHistory, error) {
	key := r.messagesKey(threadID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.ConversationHistory{ThreadID: threadID, Messages: []*schema.Message{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	msgs := make([]*schema.Message, 0, len(rows))
	for i, s := range rows {
		var m schema.Message
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			logx.Error().Err(err).Str("thread_id", threadID).Int("index", i).Msg("failed to unmarshal message")
			return nil, fmt.Errorf("unmarshal message at index %d: %w", i, err)
		}
		msgs = append(msgs, &m)
	}
	return &model.ConversationHistory{ThreadID: threadID, Messages: msgs}, nil
}

func (r *RedisTripRepository) GetMessageCount(ctx context.Context, threadID string) (int, error) {
	n, err := r.rdb.LLen(ctx, r.messagesKey(threadID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to get message count from redis")
		return 0, errx.WrapRedis(err)
	}
	return int(n), nil
}

func (r *RedisTripRepository) ClearThread(ctx context.Context, threadID string) error {
	if err := r.rdb.Del(ctx, r.tripKey(threadID), r.messagesKey(threadID)).Err(); err != nil {
		logx.Error().Err(err).Str("thread_id", threadID).Msg("failed to delete thread from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.TripRepository = (*RedisTripRepository)(nil)
