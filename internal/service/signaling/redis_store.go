package signaling

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medrelay/telemed-api/internal/model"
)

// redisStore backs the mailbox with Redis lists so multiple server
// processes can share signaling state. Each mailbox is one list with a
// native TTL, which makes the in-process sweep a no-op here.
type redisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(url string, ttl time.Duration) (MailboxStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisStore{client: client, ttl: ttl}, nil
}

func mailboxRedisKey(sessionID, recipient string) string {
	return "signaling:" + sessionID + ":" + recipient
}

func (s *redisStore) Append(ctx context.Context, sessionID, recipient string, msg *model.SignalingMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode signaling message: %w", err)
	}

	key := mailboxRedisKey(sessionID, recipient)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, payload)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to enqueue signaling message: %w", err)
	}
	return nil
}

func (s *redisStore) Drain(ctx context.Context, sessionID, recipient, lastSeenID string) ([]*model.SignalingMessage, error) {
	key := mailboxRedisKey(sessionID, recipient)

	pipe := s.client.TxPipeline()
	lrange := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to drain signaling mailbox: %w", err)
	}

	raw := lrange.Val()
	msgs := make([]*model.SignalingMessage, 0, len(raw))
	for _, item := range raw {
		var msg model.SignalingMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msgs = append(msgs, &msg)
	}

	start := 0
	if lastSeenID != "" {
		for i, msg := range msgs {
			if msg.ID == lastSeenID {
				start = i + 1
				break
			}
		}
	}
	return msgs[start:], nil
}

// Sweep is a no-op: Redis expires mailboxes natively via the key TTL.
func (s *redisStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

// Mailboxes is not tracked for the Redis backend; counting keys across a
// shared instance is not worth a SCAN per scrape.
func (s *redisStore) Mailboxes() int {
	return 0
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
