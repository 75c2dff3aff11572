//go:build integration

package storage_test

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/storage"
)

// Runs against MinIO from docker-compose. Override the endpoint with
// S3_ENDPOINT when the bucket lives elsewhere.
func newTestStore(t *testing.T) *storage.S3 {
	t.Helper()

	endpoint := os.Getenv("S3_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:9000"
	}

	s, err := storage.New(storage.Config{
		Bucket:    "loom-test",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Endpoint:  endpoint,
		PathStyle: true,
	})
	require.NoError(t, err, "failed to build storage client")
	return s
}

func TestS3Roundtrip(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	payload := []byte("roundtrip payload")

	obj, err := s.Put(ctx, bytes.NewReader(payload), int64(len(payload)),
		storage.WithPrefix("roundtrip"),
	)
	require.NoError(t, err)
	require.NotEmpty(t, obj.Key)
	t.Cleanup(func() { _ = s.Delete(ctx, obj.Key) })

	assert.Equal(t, int64(len(payload)), obj.Size)
	assert.Equal(t, storage.Private, obj.Visibility)

	rc, err := s.Get(ctx, obj.Key)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, payload, got)

	stat, err := s.Stat(ctx, obj.Key)
	require.NoError(t, err)
	assert.Equal(t, obj.Size, stat.Size)

	require.NoError(t, s.Delete(ctx, obj.Key))
	_, err = s.Get(ctx, obj.Key)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestS3SignedURL(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	payload := []byte("signed url payload")

	obj, err := s.Put(ctx, bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Delete(ctx, obj.Key) })

	url, err := s.URL(ctx, obj.Key, storage.SignedFor(time.Minute))
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, got)
}

func TestS3RuleRejection(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	payload := []byte("plain text, not an image")

	_, err := s.Put(ctx, bytes.NewReader(payload), int64(len(payload)),
		storage.WithRules(storage.Images()),
	)
	assert.ErrorIs(t, err, storage.ErrTypeNotAllowed, "sniffed text must not pass an image rule")
}
