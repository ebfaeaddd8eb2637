package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMini(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = c.Close() })
	return mr, c
}

func TestFixedWindowLimiter_CountsAndBlocks(t *testing.T) {
	mr, c := newMini(t)
	l := NewFixedWindowLimiter(c)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d, err := l.AllowFixedWindow(ctx, "rl:login:ip:1.2.3.4:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed, "hit %d", i)
		assert.Equal(t, 3-i, d.Remaining)
	}

	d, err := l.AllowFixedWindow(ctx, "rl:login:ip:1.2.3.4:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	ttl := mr.TTL("rl:login:ip:1.2.3.4:1")
	assert.Greater(t, ttl, time.Duration(0), "first hit must set an expiry")

	// another identity has its own counter
	d, err = l.AllowFixedWindow(ctx, "rl:login:ip:5.6.7.8:1", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestFixedWindowLimiter_WindowExpiryResets(t *testing.T) {
	mr, c := newMini(t)
	l := NewFixedWindowLimiter(c)
	ctx := context.Background()

	_, err := l.AllowFixedWindow(ctx, "k", 1, time.Second)
	require.NoError(t, err)
	d, err := l.AllowFixedWindow(ctx, "k", 1, time.Second)
	require.NoError(t, err)
	assert.False(t, d.Allowed)

	mr.FastForward(2 * time.Second)

	d, err = l.AllowFixedWindow(ctx, "k", 1, time.Second)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestFixedWindowLimiter_RedisDown_ReturnsError(t *testing.T) {
	mr, c := newMini(t)
	l := NewFixedWindowLimiter(c)
	mr.Close()

	_, err := l.AllowFixedWindow(context.Background(), "k", 1, time.Minute)
	assert.Error(t, err)
}

func TestFixedWindowLimiter_NilClient_Allows(t *testing.T) {
	l := NewFixedWindowLimiter(nil)

	d, err := l.AllowFixedWindow(context.Background(), "k", 10, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, 10, d.Remaining)
}

func TestFixedWindowLimiter_LimitZero_Allows(t *testing.T) {
	_, c := newMini(t)
	l := NewFixedWindowLimiter(c)

	d, err := l.AllowFixedWindow(context.Background(), "k", 0, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestClient_Ping(t *testing.T) {
	_, c := newMini(t)
	require.NoError(t, c.Ping(context.Background()))

	dead := New("127.0.0.1:1", "", 0)
	t.Cleanup(func() { _ = dead.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.Error(t, dead.Ping(ctx))
}
