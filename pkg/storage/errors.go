package storage

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrInvalidConfig = errors.New("storage: invalid configuration")

	// ErrNotConfigured is returned when file operations are used on an
	// app that never registered a backend.
	ErrNotConfigured = errors.New("storage: not configured")

	ErrEmptyFile = errors.New("storage: file is empty")

	// Rule failures.
	ErrFileTooLarge   = errors.New("storage: file exceeds size limit")
	ErrFileTooSmall   = errors.New("storage: file below minimum size")
	ErrTypeNotAllowed = errors.New("storage: file type not allowed")

	// Backend failures.
	ErrNotFound     = errors.New("storage: object not found")
	ErrAccessDenied = errors.New("storage: access denied")
	ErrPutFailed    = errors.New("storage: put failed")
	ErrDeleteFailed = errors.New("storage: delete failed")
	ErrSignFailed   = errors.New("storage: sign failed")
)

// normalizeS3 maps AWS errors onto the package sentinels so callers can
// branch with errors.Is without importing SDK types. The original error
// is folded in with %v, not %w, to keep the SDK out of the error chain.
func normalizeS3(err error, fallback error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrAccessDenied, err)
		}
	}

	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return fmt.Errorf("%w: %v", fallback, err)
}
