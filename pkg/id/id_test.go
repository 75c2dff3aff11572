package id_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/id"
)

const crockford = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

// decode32 reverses the Crockford encoding of a timestamp prefix.
func decode32(t *testing.T, s string) uint64 {
	t.Helper()
	var v uint64
	for _, c := range s {
		i := strings.IndexRune(crockford, c)
		require.GreaterOrEqual(t, i, 0, "character %q is outside the alphabet", c)
		v = v<<5 | uint64(i)
	}
	return v
}

func TestNewULID(t *testing.T) {
	t.Parallel()

	t.Run("shape", func(t *testing.T) {
		t.Parallel()

		u := id.NewULID()
		assert.Len(t, u, 26)
		for _, c := range u {
			assert.Contains(t, crockford, string(c))
		}
	})

	t.Run("prefix encodes the wall clock", func(t *testing.T) {
		t.Parallel()

		before := uint64(time.Now().UnixMilli())
		u := id.NewULID()
		after := uint64(time.Now().UnixMilli())

		ms := decode32(t, u[:10])
		assert.GreaterOrEqual(t, ms, before)
		assert.LessOrEqual(t, ms, after)
	})

	t.Run("later IDs sort later", func(t *testing.T) {
		t.Parallel()

		first := id.NewULID()
		time.Sleep(2 * time.Millisecond)
		second := id.NewULID()
		assert.Less(t, first, second)
	})

	t.Run("unique within one millisecond", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			u := id.NewULID()
			_, dup := seen[u]
			require.False(t, dup, "duplicate %s", u)
			seen[u] = struct{}{}
		}
	})
}

func TestNewShortID(t *testing.T) {
	t.Parallel()

	t.Run("shape", func(t *testing.T) {
		t.Parallel()

		s := id.NewShortID()
		assert.Len(t, s, 16)
		for _, c := range s {
			assert.Contains(t, crockford, string(c))
		}
	})

	t.Run("prefix encodes the truncated clock", func(t *testing.T) {
		t.Parallel()

		const mask = 1<<30 - 1
		before := uint64(time.Now().UnixMilli()) & mask
		s := id.NewShortID()
		after := uint64(time.Now().UnixMilli()) & mask

		ts := decode32(t, s[:6])
		assert.GreaterOrEqual(t, ts, before)
		assert.LessOrEqual(t, ts, after)
	})

	t.Run("later IDs sort later", func(t *testing.T) {
		t.Parallel()

		first := id.NewShortID()
		time.Sleep(2 * time.Millisecond)
		second := id.NewShortID()
		assert.Less(t, first, second)
	})

	t.Run("unique within one millisecond", func(t *testing.T) {
		t.Parallel()

		seen := make(map[string]struct{}, 1000)
		for range 1000 {
			s := id.NewShortID()
			_, dup := seen[s]
			require.False(t, dup, "duplicate %s", s)
			seen[s] = struct{}{}
		}
	})
}

func TestNewUUID(t *testing.T) {
	t.Parallel()

	parsed, err := uuid.Parse(id.NewUUID())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
}

func TestNewUUIDv7(t *testing.T) {
	t.Parallel()

	parsed, err := uuid.Parse(id.NewUUIDv7())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	first := id.NewUUIDv7()
	time.Sleep(2 * time.Millisecond)
	assert.Less(t, first, id.NewUUIDv7())
}

func TestConcurrentGeneration(t *testing.T) {
	t.Parallel()

	const workers, perWorker = 8, 250

	out := make(chan string, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Go(func() {
			for range perWorker {
				out <- id.NewULID()
			}
		})
	}
	wg.Wait()
	close(out)

	seen := make(map[string]struct{}, workers*perWorker)
	for u := range out {
		_, dup := seen[u]
		require.False(t, dup, "duplicate %s", u)
		seen[u] = struct{}{}
	}
	assert.Len(t, seen, workers*perWorker)
}

func BenchmarkNewULID(b *testing.B) {
	for b.Loop() {
		_ = id.NewULID()
	}
}

func BenchmarkNewShortID(b *testing.B) {
	for b.Loop() {
		_ = id.NewShortID()
	}
}
