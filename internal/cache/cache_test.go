package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestMembershipCacheAddRemove(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "CS101", "b@x.com"))
	require.NoError(t, c.Add(ctx, "CS101", "a@x.com"))
	require.NoError(t, c.Add(ctx, "CS101", "a@x.com"))

	members, ok, err := c.Members(ctx, "CS101")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, members)

	member, err := c.IsMember(ctx, "CS101", "a@x.com")
	require.NoError(t, err)
	assert.True(t, member)

	require.NoError(t, c.Remove(ctx, "CS101", "a@x.com"))
	member, err = c.IsMember(ctx, "CS101", "a@x.com")
	require.NoError(t, err)
	assert.False(t, member)
}

func TestMembershipCacheAddIfCached(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")
	ctx := context.Background()

	added, err := c.AddIfCached(ctx, "CS101", "a@x.com")
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, mr.Exists("test:course:CS101:members"))

	require.NoError(t, c.Replace(ctx, "CS101", []string{"b@x.com"}))
	added, err = c.AddIfCached(ctx, "CS101", "a@x.com")
	require.NoError(t, err)
	assert.True(t, added)

	members, ok, err := c.Members(ctx, "CS101")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, members)
}

func TestMembershipCacheMembersMiss(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")

	members, ok, err := c.Members(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, members)
}

func TestMembershipCacheReplaceAndCodes(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "CS101", "stale@x.com"))
	require.NoError(t, c.Add(ctx, "MATH2+A", "m@x.com"))
	require.NoError(t, c.Replace(ctx, "CS101", []string{"a@x.com", "b@x.com"}))

	members, _, err := c.Members(ctx, "CS101")
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, members)
	assert.True(t, mr.Exists("test:course:CS101:members"))

	codes, err := c.Codes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"CS101", "MATH2+A"}, codes)

	require.NoError(t, c.Replace(ctx, "CS101", nil))
	assert.False(t, mr.Exists("test:course:CS101:members"))
}

func TestMembershipCacheRemoveEverywhere(t *testing.T) {
	_, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "CS101", "a@x.com"))
	require.NoError(t, c.Add(ctx, "CS202", "a@x.com"))
	require.NoError(t, c.Add(ctx, "CS202", "b@x.com"))

	require.NoError(t, c.RemoveEverywhere(ctx, "a@x.com"))

	for _, code := range []string{"CS101", "CS202"} {
		member, err := c.IsMember(ctx, code, "a@x.com")
		require.NoError(t, err)
		assert.False(t, member, code)
	}
	member, err := c.IsMember(ctx, "CS202", "b@x.com")
	require.NoError(t, err)
	assert.True(t, member)
}

func TestMembershipCacheUnavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	c := NewMembershipCache(client, "test:")
	mr.Close()

	err := c.Add(context.Background(), "CS101", "a@x.com")
	assert.Error(t, err)
}

func TestRefreshLedgerMarkRotated(t *testing.T) {
	mr, client := newTestRedis(t)
	l := NewRefreshLedger(client, "test:")
	ctx := context.Background()

	first, err := l.MarkRotated(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, first)

	again, err := l.MarkRotated(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.False(t, again)

	other, err := l.MarkRotated(ctx, "jti-2", time.Hour)
	require.NoError(t, err)
	assert.True(t, other)

	mr.FastForward(2 * time.Hour)
	expired, err := l.MarkRotated(ctx, "jti-1", time.Hour)
	require.NoError(t, err)
	assert.True(t, expired)
}
