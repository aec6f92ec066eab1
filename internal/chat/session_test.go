package chat

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionStore_CreateAndAppend(t *testing.T) {
	s := NewSessionStore(time.Hour, clockwork.NewFakeClock())

	id := s.Create()
	require.NotEmpty(t, id)
	require.NoError(t, s.Append(id, Message{Role: RoleUser, Content: "hi"}, Message{Role: RoleAssistant, Content: "hello"}))

	history, err := s.History(id)
	require.NoError(t, err)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}, {Role: RoleAssistant, Content: "hello"}}, history)

	history[0].Content = "mutated"
	again, err := s.History(id)
	require.NoError(t, err)
	assert.Equal(t, "hi", again[0].Content)
}

func TestSessionStore_GetOrCreate(t *testing.T) {
	s := NewSessionStore(time.Hour, clockwork.NewFakeClock())

	fresh, history := s.GetOrCreate("")
	assert.NotEmpty(t, fresh)
	assert.Empty(t, history)

	require.NoError(t, s.Append(fresh, Message{Role: RoleUser, Content: "hi"}))
	same, history := s.GetOrCreate(fresh)
	assert.Equal(t, fresh, same)
	assert.Equal(t, []Message{{Role: RoleUser, Content: "hi"}}, history)

	history[0].Content = "mutated"
	stored, err := s.History(fresh)
	require.NoError(t, err)
	assert.Equal(t, "hi", stored[0].Content)

	named, history := s.GetOrCreate("telegram-42")
	assert.Equal(t, "telegram-42", named)
	assert.Empty(t, history)
	assert.Equal(t, 2, s.Len())
}

func TestSessionStore_UnknownSession(t *testing.T) {
	s := NewSessionStore(time.Hour, nil)

	_, err := s.History("missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
	require.ErrorIs(t, s.Append("missing", Message{}), ErrSessionNotFound)
	require.ErrorIs(t, s.Clear("missing"), ErrSessionNotFound)
	assert.False(t, s.Evict("missing"))
}

func TestSessionStore_ClearKeepsSession(t *testing.T) {
	s := NewSessionStore(time.Hour, nil)
	id := s.Create()
	require.NoError(t, s.Append(id, Message{Role: RoleUser, Content: "hi"}))

	require.NoError(t, s.Clear(id))
	history, err := s.History(id)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_HistoryCap(t *testing.T) {
	s := NewSessionStore(time.Hour, nil)
	id := s.Create()
	for i := 0; i < maxHistory+6; i++ {
		require.NoError(t, s.Append(id, Message{Role: RoleUser, Content: string(rune('a' + i%26))}))
	}

	history, err := s.History(id)
	require.NoError(t, err)
	assert.Len(t, history, maxHistory)
	assert.Equal(t, string(rune('a'+6)), history[0].Content)
}

func TestSessionStore_EvictIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSessionStore(30*time.Minute, clock)

	stale := s.Create()
	clock.Advance(20 * time.Minute)
	active := s.Create()
	clock.Advance(15 * time.Minute)
	require.NoError(t, s.Append(active, Message{Role: RoleUser, Content: "still here"}))

	assert.Equal(t, 1, s.EvictIdle())
	_, err := s.History(stale)
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = s.History(active)
	require.NoError(t, err)
}

func TestSessionStore_EvictIdleDisabled(t *testing.T) {
	clock := clockwork.NewFakeClock()
	s := NewSessionStore(0, clock)
	s.Create()
	clock.Advance(24 * time.Hour)

	assert.Zero(t, s.EvictIdle())
	assert.Equal(t, 1, s.Len())
}

func TestSessionStore_Evict(t *testing.T) {
	s := NewSessionStore(time.Hour, nil)
	id := s.Create()

	assert.True(t, s.Evict(id))
	assert.Zero(t, s.Len())
}
