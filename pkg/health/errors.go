package health

import "errors"

// ErrCheckPanicked reports a check that panicked instead of returning.
// The panic value is attached to the error message.
var ErrCheckPanicked = errors.New("health: check panicked")
