package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phoenix/internal/session"
)

func newTestKV(t *testing.T, ttl time.Duration) (*KV, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewKV(client, nil, ttl), mr
}

func TestKV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestKV(t, 0)

	_, err := kv.Get(ctx, "visitor")
	assert.ErrorIs(t, err, session.ErrNotFound)

	h := session.New(kv, session.WithKey("visitor"))
	require.NoError(t, h.Save(ctx, session.Snapshot{EXP: 40, Level: 3, TotalCorrect: 12}))
	assert.True(t, mr.Exists("phoenix:session:visitor"))

	snap, ok := h.Load(ctx)
	require.True(t, ok)
	assert.Equal(t, session.Snapshot{EXP: 40, Level: 3, TotalCorrect: 12}, snap)

	require.NoError(t, h.Reset(ctx))
	assert.False(t, mr.Exists("phoenix:session:visitor"))
}

func TestKV_TTL(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestKV(t, time.Hour)

	require.NoError(t, kv.Put(ctx, "visitor", []byte(`{}`)))
	assert.Equal(t, time.Hour, mr.TTL("phoenix:session:visitor"))

	mr.FastForward(2 * time.Hour)
	_, err := kv.Get(ctx, "visitor")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestKV_Unreachable(t *testing.T) {
	ctx := context.Background()
	kv, mr := newTestKV(t, 0)
	mr.Close()

	_, err := kv.Get(ctx, "visitor")
	require.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)

	h := session.New(kv)
	_, ok := h.Load(ctx)
	assert.False(t, ok)
}

func TestDial(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Dial(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	client.Close()

	mr.Close()
	_, err = Dial(context.Background(), mr.Addr(), "", 0)
	assert.Error(t, err)
}
