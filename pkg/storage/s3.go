package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrymomot/loom/pkg/id"
)

// S3 is a Storage backed by an S3 compatible bucket.
type S3 struct {
	client *s3.Client
	signer *s3.PresignClient
	cfg    Config
}

var _ Storage = (*S3)(nil)

// New connects to the bucket described by cfg.
func New(cfg Config) (*S3, error) {
	cfg = cfg.withDefaults()
	if err := cfg.check(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})

	return &S3{
		client: client,
		signer: s3.NewPresignClient(client),
		cfg:    cfg,
	}, nil
}

// Put implements Storage.
func (s *S3) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*Object, error) {
	if size <= 0 {
		return nil, ErrEmptyFile
	}

	pc := putConfig{visibility: s.cfg.DefaultVisibility}
	for _, opt := range opts {
		opt(&pc)
	}

	var (
		contentType = pc.contentType
		body        io.ReadSeeker
		err         error
	)
	if contentType != "" {
		body, err = seekable(r)
	} else {
		contentType, body, err = sniff(r)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: read upload: %w", err)
	}

	if err := runRules(pc.rules, size, contentType); err != nil {
		return nil, err
	}

	key := pc.key
	if key == "" {
		key = generateKey(pc.prefix, contentType)
	}

	acl := types.ObjectCannedACLPrivate
	if pc.visibility == Public {
		acl = types.ObjectCannedACLPublicRead
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
		ACL:           acl,
	})
	if err != nil {
		return nil, normalizeS3(err, ErrPutFailed)
	}

	return &Object{
		Key:         key,
		ContentType: contentType,
		Size:        size,
		Visibility:  pc.visibility,
	}, nil
}

// Get implements Storage.
func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, normalizeS3(err, ErrNotFound)
	}
	return out.Body, nil
}

// Delete implements Storage.
func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return normalizeS3(err, ErrDeleteFailed)
	}
	return nil
}

// URL implements Storage.
func (s *S3) URL(ctx context.Context, key string, opts ...URLOption) (string, error) {
	uc := urlConfig{expiry: DefaultURLExpiry}
	for _, opt := range opts {
		opt(&uc)
	}

	if uc.public {
		return s.publicURL(key), nil
	}

	input := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if uc.downloadAs != "" {
		input.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", uc.downloadAs))
	}

	signed, err := s.signer.PresignGetObject(ctx, input, func(po *s3.PresignOptions) {
		po.Expires = uc.expiry
	})
	if err != nil {
		return "", normalizeS3(err, ErrSignFailed)
	}
	return signed.URL, nil
}

// Stat returns an object's metadata without downloading its body.
func (s *S3) Stat(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, normalizeS3(err, ErrNotFound)
	}

	obj := &Object{Key: key, Visibility: s.cfg.DefaultVisibility}
	if out.ContentType != nil {
		obj.ContentType = *out.ContentType
	}
	if out.ContentLength != nil {
		obj.Size = *out.ContentLength
	}
	return obj, nil
}

// Copy duplicates an object under a new key within the bucket.
func (s *S3) Copy(ctx context.Context, srcKey, dstKey string) error {
	_, err := s.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(s.cfg.Bucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(s.cfg.Bucket + "/" + srcKey),
	})
	if err != nil {
		return normalizeS3(err, ErrPutFailed)
	}
	return nil
}

// publicURL builds the unsigned address of an object.
func (s *S3) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimSuffix(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	if s.cfg.Endpoint != "" {
		endpoint := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.PathStyle {
			return endpoint + "/" + s.cfg.Bucket + "/" + key
		}
		return endpoint + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

// generateKey builds "{prefix}/{ulid}{ext}" for uploads that name no
// explicit key.
func generateKey(prefix, contentType string) string {
	name := id.NewULID() + extensionFor(contentType)
	if prefix = cleanSegment(prefix); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

// cleanSegment strips characters that could escape the intended key
// space.
func cleanSegment(segment string) string {
	segment = strings.Trim(segment, " /\\")
	segment = strings.ReplaceAll(segment, "..", "")
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, segment)
}
