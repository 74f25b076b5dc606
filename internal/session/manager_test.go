package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSession(id, userID string) *Session {
	return New(id, userID, Options{})
}

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager(10)

	s := testSession("s1", "u1")
	require.NoError(t, m.Register(s))

	got, ok := m.Get("s1")
	require.True(t, ok)
	require.Equal(t, "u1", got.UserID)
	require.Equal(t, 1, m.Count())
}

func TestManagerRejectsDuplicateID(t *testing.T) {
	m := NewManager(10)

	require.NoError(t, m.Register(testSession("s1", "u1")))
	require.Error(t, m.Register(testSession("s1", "u2")))
}

func TestManagerEnforcesMaxSessions(t *testing.T) {
	m := NewManager(2)

	require.NoError(t, m.Register(testSession("s1", "u1")))
	require.NoError(t, m.Register(testSession("s2", "u2")))

	err := m.Register(testSession("s3", "u3"))
	require.ErrorIs(t, err, ErrMaxSessionsReached)
}

func TestManagerUserIndex(t *testing.T) {
	m := NewManager(10)

	require.NoError(t, m.Register(testSession("s1", "u1")))
	require.NoError(t, m.Register(testSession("s2", "u1")))
	require.NoError(t, m.Register(testSession("s3", "u2")))

	require.ElementsMatch(t, []string{"s1", "s2"}, m.GetByUser("u1"))
	require.ElementsMatch(t, []string{"s3"}, m.GetByUser("u2"))

	require.NoError(t, m.Unregister("s2"))
	require.ElementsMatch(t, []string{"s1"}, m.GetByUser("u1"))

	require.NoError(t, m.Unregister("s1"))
	require.Empty(t, m.GetByUser("u1"))
}

func TestManagerUnregisterUnknown(t *testing.T) {
	m := NewManager(10)
	require.Error(t, m.Unregister("missing"))
}

func TestManagerStats(t *testing.T) {
	m := NewManager(50)

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("s%d", i)
		require.NoError(t, m.Register(testSession(id, "u1")))
	}

	stats := m.Stats()
	require.Equal(t, 5, stats.TotalSessions)
	require.Equal(t, 1, stats.UniqueUsers)
	require.Equal(t, 50, stats.MaxSessions)
}
