package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saave-bot/internal/intake"
	"saave-bot/internal/quote"
)

func newTestStorage(t *testing.T) (*Storage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s := New(mr.Addr(), "", 0, time.Hour)
	t.Cleanup(s.Close)
	return s, mr
}

func TestSessionRoundTrip(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	got, err := s.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	session := &intake.Session{
		Step:            intake.StepRoomBath,
		Room:            1,
		AdditionalRooms: 1,
		Responses: quote.Responses{
			Lot:          "si",
			PrincipalBed: "king",
			Rooms:        []quote.RoomAnswer{{Bed: "doble"}},
		},
	}
	require.NoError(t, s.SaveSession(ctx, 42, session))
	assert.Equal(t, time.Hour, mr.TTL("session:42"))

	got, err = s.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, session, got)

	require.NoError(t, s.DropSession(ctx, 42))
	got, err = s.GetSession(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionExpires(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveSession(ctx, 7, intake.NewSession()))
	mr.FastForward(2 * time.Hour)

	got, err := s.GetSession(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetSessionCorrupt(t *testing.T) {
	s, mr := newTestStorage(t)
	require.NoError(t, mr.Set("session:9", "{not json"))

	_, err := s.GetSession(context.Background(), 9)
	assert.ErrorContains(t, err, "unmarshal session")
}

func TestAllowQuote(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := s.AllowQuote(ctx, 5, 2, time.Hour)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := s.AllowQuote(ctx, 5, 2, time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, time.Hour, mr.TTL("quota:5"))

	// other chats have their own counter
	ok, err = s.AllowQuote(ctx, 6, 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(time.Hour + time.Second)
	ok, err = s.AllowQuote(ctx, 5, 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.AllowQuote(ctx, 5, 0, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAllowQuoteRearmsMissingTTL(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	// counter left behind without an expiry
	require.NoError(t, mr.Set("quota:7", "1"))
	require.Zero(t, mr.TTL("quota:7"))

	ok, err := s.AllowQuote(ctx, 7, 2, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 24*time.Hour, mr.TTL("quota:7"))

	ok, err = s.AllowQuote(ctx, 7, 2, 24*time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(48 * time.Hour)
	ok, err = s.AllowQuote(ctx, 7, 2, 24*time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReleaseQuote(t *testing.T) {
	s, mr := newTestStorage(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := s.AllowQuote(ctx, 8, 2, time.Hour)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, s.ReleaseQuote(ctx, 8))

	ok, err := s.AllowQuote(ctx, 8, 2, time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.ReleaseQuote(ctx, 8))
	require.NoError(t, s.ReleaseQuote(ctx, 8))
	assert.False(t, mr.Exists("quota:8"))

	// releasing a slot that was never taken leaves no negative counter
	require.NoError(t, s.ReleaseQuote(ctx, 9))
	assert.False(t, mr.Exists("quota:9"))
}

func TestRedisUnavailable(t *testing.T) {
	s, mr := newTestStorage(t)
	mr.Close()

	_, err := s.GetSession(context.Background(), 1)
	assert.ErrorContains(t, err, "get session")
}
