package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore persists sessions as JSON blobs with a server-side TTL, so
// expiry needs no sweeping. Mutations run inside WATCH transactions to
// keep read-modify-write cycles from clobbering each other across
// instances.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func sessionKey(sessionID string) string {
	return "copilot:session:" + sessionID
}

func (s *redisStore) Messages(ctx context.Context, sessionID string) ([]string, error) {
	data, err := s.get(ctx, sessionID)
	if err != nil || data == nil {
		return nil, err
	}
	return data.Messages, nil
}

func (s *redisStore) Append(ctx context.Context, sessionID, message string) error {
	if message == "" {
		return nil
	}
	return s.mutate(ctx, sessionID, func(data *Data) {
		data.Messages = append(data.Messages, message)
		if len(data.Messages) > MaxMessages {
			data.Messages = data.Messages[len(data.Messages)-MaxMessages:]
		}
	})
}

func (s *redisStore) LastContext(ctx context.Context, sessionID string) (string, error) {
	data, err := s.get(ctx, sessionID)
	if err != nil || data == nil {
		return "", err
	}
	return data.LastContext, nil
}

func (s *redisStore) SetLastContext(ctx context.Context, sessionID, text string) error {
	if text == "" {
		return nil
	}
	return s.mutate(ctx, sessionID, func(data *Data) {
		data.LastContext = text
	})
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) get(ctx context.Context, sessionID string) (*Data, error) {
	val, err := s.client.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var data Data
	if err := json.Unmarshal([]byte(val), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (s *redisStore) mutate(ctx context.Context, sessionID string, apply func(*Data)) error {
	key := sessionKey(sessionID)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data := &Data{}
		val, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			if err := json.Unmarshal([]byte(val), data); err != nil {
				return err
			}
		}

		apply(data)
		data.UpdatedAt = time.Now().UTC()

		encoded, err := json.Marshal(data)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		return err
	}, key)
}
