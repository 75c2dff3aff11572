package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
)

// Storage stores uploaded files in an object store and hands out URLs
// for reading them back.
type Storage interface {
	// Put streams r into the store. Size is sent as the content
	// length, so it must match what r yields. Options pick the key,
	// visibility, content type, and upload rules.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*Object, error)

	// Get opens a stored object for reading. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes an object. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error

	// URL returns an address a browser can fetch the object from: a
	// presigned URL by default, the public address with ForcePublic.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// Object describes one stored file.
type Object struct {
	// Key is the object's path within the bucket.
	Key string

	// ContentType is the sniffed or declared MIME type.
	ContentType string

	// Size is the length in bytes.
	Size int64

	// Visibility records how the object was stored.
	Visibility Visibility
}

// Visibility is the access level of a stored object.
type Visibility string

const (
	// Private objects are reachable only through presigned URLs.
	Private Visibility = "private"

	// Public objects are readable by anyone holding the URL.
	Public Visibility = "public-read"
)

// Config connects an S3 compatible bucket.
type Config struct {
	// Bucket names the target bucket. Required.
	Bucket string

	// AccessKey and SecretKey are static credentials. Required.
	AccessKey string
	SecretKey string

	// Region defaults to us-east-1.
	Region string

	// Endpoint points at a non-AWS implementation such as MinIO.
	// Empty means AWS itself.
	Endpoint string

	// PathStyle addresses the bucket as a path segment instead of a
	// subdomain. MinIO needs this.
	PathStyle bool

	// PublicBaseURL fronts public objects with a CDN or custom
	// domain. Empty means public URLs point at the bucket directly.
	PublicBaseURL string

	// DefaultVisibility applies when an upload names none. Defaults
	// to Private.
	DefaultVisibility Visibility
}

func (c Config) withDefaults() Config {
	if c.Region == "" {
		c.Region = "us-east-1"
	}
	if c.DefaultVisibility == "" {
		c.DefaultVisibility = Private
	}
	return c
}

func (c Config) check() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return ErrInvalidConfig
	}
	return nil
}

// PutFile uploads one file from a parsed multipart form. The content
// type comes from the file's leading bytes, never from the client's
// filename.
func PutFile(ctx context.Context, s Storage, fh *multipart.FileHeader, opts ...Option) (*Object, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrEmptyFile
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("storage: open upload %q: %w", fh.Filename, err)
	}
	defer f.Close()
	return s.Put(ctx, f, fh.Size, opts...)
}
