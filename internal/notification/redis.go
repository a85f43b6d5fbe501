package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoRecipients = errors.New("notification has no recipients")

// RedisNotifier appends requests to a Redis stream consumed by the delivery workers
type RedisNotifier struct {
	client *redis.Client
	stream string
}

func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func NewRedisNotifier(client *redis.Client, stream string) *RedisNotifier {
	return &RedisNotifier{client: client, stream: stream}
}

// Ping checks the connection with a 5s timeout
func (n *RedisNotifier) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return n.client.Ping(ctx).Err()
}

func (n *RedisNotifier) Notify(ctx context.Context, req Request) error {
	values, err := streamValues(req)
	if err != nil {
		return err
	}
	err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", n.stream, err)
	}
	return nil
}

func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

func streamValues(req Request) (map[string]any, error) {
	if len(req.LeadIDs) == 0 {
		return nil, ErrNoRecipients
	}
	ids, err := json.Marshal(req.LeadIDs)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"channel":      req.Channel,
		"lead_ids":     string(ids),
		"requested_by": req.RequestedBy,
		"requested_at": req.RequestedAt.UTC().Format(time.RFC3339),
	}, nil
}
