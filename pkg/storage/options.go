package storage

import "time"

// Option adjusts one Put call.
type Option func(*putConfig)

type putConfig struct {
	key         string
	prefix      string
	contentType string
	visibility  Visibility
	rules       []Rule
}

// WithKey stores the object at an exact key instead of a generated
// one, overwriting whatever the key held before.
func WithKey(key string) Option {
	return func(c *putConfig) {
		c.key = key
	}
}

// WithPrefix puts the generated key under a path prefix, such as
// "avatars". Ignored when WithKey names the full key.
func WithPrefix(prefix string) Option {
	return func(c *putConfig) {
		c.prefix = prefix
	}
}

// WithContentType declares the type outright and skips sniffing.
func WithContentType(contentType string) Option {
	return func(c *putConfig) {
		c.contentType = contentType
	}
}

// WithVisibility overrides the store's default visibility for this
// upload.
func WithVisibility(v Visibility) Option {
	return func(c *putConfig) {
		c.visibility = v
	}
}

// WithRules gates the upload: if any rule rejects it, nothing is
// stored.
func WithRules(rules ...Rule) Option {
	return func(c *putConfig) {
		c.rules = append(c.rules, rules...)
	}
}

// DefaultURLExpiry is how long presigned URLs stay valid unless
// SignedFor says otherwise.
const DefaultURLExpiry = 15 * time.Minute

// URLOption adjusts one URL call.
type URLOption func(*urlConfig)

type urlConfig struct {
	expiry     time.Duration
	downloadAs string
	public     bool
}

// SignedFor sets how long the presigned URL stays valid.
func SignedFor(d time.Duration) URLOption {
	return func(c *urlConfig) {
		if d > 0 {
			c.expiry = d
		}
	}
}

// AsDownload makes the browser save the object under the given
// filename instead of displaying it inline.
func AsDownload(filename string) URLOption {
	return func(c *urlConfig) {
		c.downloadAs = filename
	}
}

// ForcePublic returns the public address even for a private object.
// The fetch only succeeds if the bucket grants access anyway.
func ForcePublic() URLOption {
	return func(c *urlConfig) {
		c.public = true
	}
}
