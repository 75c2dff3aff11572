package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/session"
)

func TestNew(t *testing.T) {
	t.Parallel()

	expires := time.Now().Add(time.Hour)
	sess := session.New("sess-1", "tok-1", expires)

	assert.Equal(t, "sess-1", sess.ID)
	assert.Equal(t, "tok-1", sess.Token)
	assert.Equal(t, expires, sess.ExpiresAt)
	assert.WithinDuration(t, time.Now(), sess.CreatedAt, time.Second)
	assert.Equal(t, sess.CreatedAt, sess.LastActiveAt)

	assert.True(t, sess.IsNew())
	assert.True(t, sess.IsDirty(), "a fresh session must be persisted")
	assert.False(t, sess.IsAuthenticated())
	assert.False(t, sess.IsExpired())
	assert.NotNil(t, sess.Values)
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	sess := session.New("sess-1", "tok-1", time.Now().Add(time.Hour))
	sess.ClearDirty()

	sess.Authenticate("user-42")
	assert.True(t, sess.IsAuthenticated())
	require.NotNil(t, sess.UserID)
	assert.Equal(t, "user-42", *sess.UserID)
	assert.True(t, sess.IsDirty(), "login must reach the store")

	t.Run("empty user id does not count as logged in", func(t *testing.T) {
		t.Parallel()

		anon := session.New("sess-2", "tok-2", time.Now().Add(time.Hour))
		anon.Authenticate("")
		assert.False(t, anon.IsAuthenticated())
	})
}

func TestValues(t *testing.T) {
	t.Parallel()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		sess := session.New("s", "t", time.Now().Add(time.Hour))
		sess.SetValue("theme", "dark")

		got, ok := sess.GetValue("theme")
		require.True(t, ok)
		assert.Equal(t, "dark", got)

		_, ok = sess.GetValue("missing")
		assert.False(t, ok)
	})

	t.Run("works on a zero-value session", func(t *testing.T) {
		t.Parallel()

		var sess session.Session
		_, ok := sess.GetValue("anything")
		assert.False(t, ok)

		sess.SetValue("k", 1)
		got, ok := sess.GetValue("k")
		require.True(t, ok)
		assert.Equal(t, 1, got)

		var empty session.Session
		empty.DeleteValue("anything")
	})

	t.Run("delete marks dirty only when the key existed", func(t *testing.T) {
		t.Parallel()

		sess := session.New("s", "t", time.Now().Add(time.Hour))
		sess.SetValue("theme", "dark")
		sess.ClearDirty()

		sess.DeleteValue("missing")
		assert.False(t, sess.IsDirty())

		sess.DeleteValue("theme")
		assert.True(t, sess.IsDirty())
		_, ok := sess.GetValue("theme")
		assert.False(t, ok)
	})
}

func TestLifecycleFlags(t *testing.T) {
	t.Parallel()

	sess := session.New("s", "t", time.Now().Add(time.Hour))

	sess.ClearNew()
	assert.False(t, sess.IsNew())

	sess.ClearDirty()
	assert.False(t, sess.IsDirty())

	sess.MarkDirty()
	assert.True(t, sess.IsDirty())
}

func TestIsExpired(t *testing.T) {
	t.Parallel()

	assert.True(t, session.New("s", "t", time.Now().Add(-time.Minute)).IsExpired())
	assert.False(t, session.New("s", "t", time.Now().Add(time.Minute)).IsExpired())
}

func TestValue(t *testing.T) {
	t.Parallel()

	sess := session.New("s", "t", time.Now().Add(time.Hour))
	sess.SetValue("theme", "dark")
	sess.SetValue("visits", 3.0)

	t.Run("typed read", func(t *testing.T) {
		t.Parallel()

		theme, err := session.Value[string](sess, "theme")
		require.NoError(t, err)
		assert.Equal(t, "dark", theme)

		visits, err := session.Value[float64](sess, "visits")
		require.NoError(t, err)
		assert.Equal(t, 3.0, visits)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		_, err := session.Value[string](sess, "missing")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("wrong type names the key", func(t *testing.T) {
		t.Parallel()

		_, err := session.Value[int](sess, "theme")
		assert.ErrorIs(t, err, session.ErrWrongType)
		assert.ErrorContains(t, err, `"theme"`)
	})

	t.Run("nil session", func(t *testing.T) {
		t.Parallel()

		_, err := session.Value[string](nil, "theme")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}

func TestValueOr(t *testing.T) {
	t.Parallel()

	sess := session.New("s", "t", time.Now().Add(time.Hour))
	sess.SetValue("theme", "dark")

	assert.Equal(t, "dark", session.ValueOr(sess, "theme", "light"))
	assert.Equal(t, "light", session.ValueOr(sess, "missing", "light"))
	assert.Equal(t, 7, session.ValueOr(sess, "theme", 7), "type mismatch falls back")
}
