package storage

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	t.Parallel()

	t.Run("fills region and visibility", func(t *testing.T) {
		t.Parallel()

		cfg := Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}.withDefaults()
		assert.Equal(t, "us-east-1", cfg.Region)
		assert.Equal(t, Private, cfg.DefaultVisibility)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()

		cfg := Config{
			Bucket:            "b",
			AccessKey:         "a",
			SecretKey:         "s",
			Region:            "eu-central-1",
			DefaultVisibility: Public,
		}.withDefaults()
		assert.Equal(t, "eu-central-1", cfg.Region)
		assert.Equal(t, Public, cfg.DefaultVisibility)
	})

	t.Run("rejects missing required fields", func(t *testing.T) {
		t.Parallel()

		for _, cfg := range []Config{
			{AccessKey: "a", SecretKey: "s"},
			{Bucket: "b", SecretKey: "s"},
			{Bucket: "b", AccessKey: "a"},
		} {
			assert.ErrorIs(t, cfg.check(), ErrInvalidConfig)
		}
		assert.NoError(t, Config{Bucket: "b", AccessKey: "a", SecretKey: "s"}.check())
	})
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	t.Run("prefix and extension", func(t *testing.T) {
		t.Parallel()

		key := generateKey("avatars", "image/png")
		assert.True(t, strings.HasPrefix(key, "avatars/"), "key %q should sit under the prefix", key)
		assert.True(t, strings.HasSuffix(key, ".png"), "key %q should carry the png extension", key)
	})

	t.Run("no prefix", func(t *testing.T) {
		t.Parallel()

		key := generateKey("", "application/pdf")
		assert.NotContains(t, key, "/")
		assert.True(t, strings.HasSuffix(key, ".pdf"))
	})

	t.Run("unknown type falls back to bin", func(t *testing.T) {
		t.Parallel()

		key := generateKey("", "application/x-mystery")
		assert.True(t, strings.HasSuffix(key, ".bin"))
	})

	t.Run("keys are unique", func(t *testing.T) {
		t.Parallel()

		a := generateKey("p", "image/png")
		b := generateKey("p", "image/png")
		assert.NotEqual(t, a, b)
	})
}

func TestCleanSegment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"avatars", "avatars"},
		{"  avatars/ ", "avatars"},
		{"../../etc", "__etc"},
		{"user uploads", "user_uploads"},
		{"mixed-OK_1.2", "mixed-OK_1.2"},
		{"", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, cleanSegment(tc.in), "cleanSegment(%q)", tc.in)
	}
}

func TestPublicURL(t *testing.T) {
	t.Parallel()

	base := Config{Bucket: "media", AccessKey: "a", SecretKey: "s"}

	t.Run("cdn base wins", func(t *testing.T) {
		t.Parallel()

		cfg := base
		cfg.PublicBaseURL = "https://cdn.example.com/"
		s := &S3{cfg: cfg.withDefaults()}
		assert.Equal(t, "https://cdn.example.com/a/b.png", s.publicURL("a/b.png"))
	})

	t.Run("path style endpoint", func(t *testing.T) {
		t.Parallel()

		cfg := base
		cfg.Endpoint = "http://localhost:9000"
		cfg.PathStyle = true
		s := &S3{cfg: cfg.withDefaults()}
		assert.Equal(t, "http://localhost:9000/media/a.png", s.publicURL("a.png"))
	})

	t.Run("virtual host endpoint", func(t *testing.T) {
		t.Parallel()

		cfg := base
		cfg.Endpoint = "https://media.fra1.digitaloceanspaces.com"
		s := &S3{cfg: cfg.withDefaults()}
		assert.Equal(t, "https://media.fra1.digitaloceanspaces.com/a.png", s.publicURL("a.png"))
	})

	t.Run("aws default", func(t *testing.T) {
		t.Parallel()

		s := &S3{cfg: base.withDefaults()}
		assert.Equal(t, "https://media.s3.us-east-1.amazonaws.com/a.png", s.publicURL("a.png"))
	})
}

// pngHeader is enough of a PNG for http.DetectContentType.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}

func TestSniff(t *testing.T) {
	t.Parallel()

	t.Run("seekable reader rewinds", func(t *testing.T) {
		t.Parallel()

		r := bytes.NewReader(pngHeader)
		ct, body, err := sniff(r)
		require.NoError(t, err)
		assert.Equal(t, "image/png", ct)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data, "sniffing must not consume the body")
	})

	t.Run("plain reader gets buffered", func(t *testing.T) {
		t.Parallel()

		r := io.MultiReader(bytes.NewReader(pngHeader)) // hides Seek
		ct, body, err := sniff(r)
		require.NoError(t, err)
		assert.Equal(t, "image/png", ct)

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, data)
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		ct, _, err := sniff(bytes.NewReader(nil))
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", ct)
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		ct, _, err := sniff(strings.NewReader("hello, world"))
		require.NoError(t, err)
		assert.Contains(t, ct, "text/plain")
	})
}

func TestBaseType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "text/html", baseType("text/html; charset=utf-8"))
	assert.Equal(t, "image/png", baseType("IMAGE/PNG"))
	assert.Equal(t, "text/plain", baseType("  text/plain  "))
}

func TestMatchType(t *testing.T) {
	t.Parallel()

	assert.True(t, matchType("image/png", []string{"image/*"}))
	assert.True(t, matchType("image/png; charset=binary", []string{"image/png"}))
	assert.True(t, matchType("IMAGE/PNG", []string{"image/png"}))
	assert.False(t, matchType("imagefake/png", []string{"image/*"}))
	assert.False(t, matchType("application/pdf", []string{"image/*", "text/plain"}))
	assert.False(t, matchType("image/png", nil))
}

func TestExtensionFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".txt", extensionFor("text/plain; charset=utf-8"))
	assert.Equal(t, ".bin", extensionFor("application/x-mystery"))
	assert.Equal(t, ".bin", extensionFor(""))
}
