package binder

import "errors"

var (
	ErrParseForm        = errors.New("binder: failed to parse form body")
	ErrDecodeJSON       = errors.New("binder: failed to decode json body")
	ErrTargetNotPointer = errors.New("binder: target must be a non-nil pointer")
	ErrTargetNotStruct  = errors.New("binder: target must point to a struct")
	ErrUnsupportedType  = errors.New("binder: unsupported field type")
)
