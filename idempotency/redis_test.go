package idempotency

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, time.Minute), mr, client
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newRedisStore(t)

	resp, err := s.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.True(t, mr.Exists("idem:k"))

	_, err = s.Begin(ctx, "k")
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, s.Complete(ctx, "k", Response{Status: 201, ContentType: "application/json", Body: []byte(`{"ok":true}`)}))

	resp, err = s.Begin(ctx, "k")
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 201, resp.Status)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
}

func TestRedisStoreReleaseAndExpiry(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newRedisStore(t)

	_, err := s.Begin(ctx, "k")
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "k"))
	assert.False(t, mr.Exists("idem:k"))

	resp, err := s.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, resp)
	require.NoError(t, s.Complete(ctx, "k", Response{Status: 200}))
	assert.Equal(t, time.Minute, mr.TTL("idem:k"))

	mr.FastForward(2 * time.Minute)
	resp, err = s.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, resp, "expired entry must not replay")
}

// expireBeforeGet deletes the key right before the first GET, as if its TTL
// ran out between SETNX and GET.
type expireBeforeGet struct {
	mr   *miniredis.Miniredis
	key  string
	done bool
}

func (h *expireBeforeGet) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		return next(ctx, network, addr)
	}
}

func (h *expireBeforeGet) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		if cmd.Name() == "get" && !h.done {
			h.done = true
			h.mr.Del(h.key)
		}
		return next(ctx, cmd)
	}
}

func (h *expireBeforeGet) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return next
}

func TestRedisStoreKeyExpiringBetweenSetAndGet(t *testing.T) {
	ctx := context.Background()
	s, mr, client := newRedisStore(t)

	_, err := s.Begin(ctx, "k")
	require.NoError(t, err)

	client.AddHook(&expireBeforeGet{mr: mr, key: "idem:k"})

	resp, err := s.Begin(ctx, "k")
	require.NoError(t, err)
	assert.Nil(t, resp, "the retried SETNX takes ownership")
	assert.True(t, mr.Exists("idem:k"))

	_, err = s.Begin(ctx, "k")
	assert.ErrorIs(t, err, ErrInProgress)
}

func TestRedisStoreUnavailable(t *testing.T) {
	ctx := context.Background()
	s, mr, _ := newRedisStore(t)
	addr := mr.Addr()
	mr.Close()

	_, err := s.Begin(ctx, "k")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInProgress)

	_, err = Connect(ctx, addr, "", 0)
	assert.Error(t, err)
}
