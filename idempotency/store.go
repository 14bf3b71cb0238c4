// Package idempotency remembers responses to requests carrying an
// Idempotency-Key so a retried request is answered without being re-executed.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInProgress is returned by Begin when the key is reserved by a request that
// has not finished yet.
var ErrInProgress = errors.New("a request with this idempotency key is in progress")

// Response is a recorded HTTP response.
type Response struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Store records responses by key.
type Store interface {
	// Begin reserves key. It returns the recorded response when the key has
	// already completed, ErrInProgress while another request holds it, and
	// (nil, nil) when the caller now owns the key.
	Begin(ctx context.Context, key string) (*Response, error)
	// Complete records the response of the request that owns key.
	Complete(ctx context.Context, key string, resp Response) error
	// Release drops a reservation so the request may be retried.
	Release(ctx context.Context, key string) error
}

type entry struct {
	Done     bool      `json:"done"`
	Response *Response `json:"response,omitempty"`
}

// RedisStore keeps entries in redis with a TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisStore{client: client, ttl: ttl, prefix: "idem:"}
}

// Connect opens a redis client and checks it responds.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (s *RedisStore) Begin(ctx context.Context, key string) (*Response, error) {
	pending, err := json.Marshal(entry{})
	if err != nil {
		return nil, err
	}
	ok, err := s.client.SetNX(ctx, s.prefix+key, pending, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		ok, err = s.client.SetNX(ctx, s.prefix+key, pending, s.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return nil, nil
		}
		return nil, ErrInProgress
	}
	if err != nil {
		return nil, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, err
	}
	if !e.Done || e.Response == nil {
		return nil, ErrInProgress
	}
	return e.Response, nil
}

func (s *RedisStore) Complete(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(entry{Done: true, Response: &resp})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}
