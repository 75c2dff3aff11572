package internal

import (
	"context"
	"errors"
	"io"
	"iter"
)

// Template engine errors.
var (
	// ErrNoTemplateEngine is returned when a template directive is used
	// but no engine was configured via WithTemplates.
	ErrNoTemplateEngine = errors.New("loom: no template engine configured, use WithTemplates")
)

// TemplateEngine is the rendering collaborator consumed by content
// negotiation. The framework never renders markup itself; it delegates
// to whatever engine the application wires in (pkg/htmlview ships a
// html/template-backed implementation).
type TemplateEngine interface {
	// Render renders the named template in full.
	Render(name string, data any) (string, error)

	// RenderBlock renders a single named block. The block must be
	// defined or overridden by that specific template; blocks merely
	// inherited from a parent layout are not visible to this call.
	RenderBlock(name, block string, data any) (string, error)

	// RenderStream renders the named template as a lazy sequence of
	// markup chunks. The sequence must support early termination
	// without leaking resources: when the consumer stops pulling,
	// producer-side cleanup runs.
	RenderStream(name string, data any) iter.Seq2[string, error]

	// Blocks lists the block names the named template defines itself.
	Blocks(name string) ([]string, error)
}

// FilterRegistrar is implemented by engines that accept custom filter
// functions. App.Filter registrations are handed to the engine at
// freeze time.
type FilterRegistrar interface {
	RegisterFilter(name string, fn any) error
}

// GlobalRegistrar is implemented by engines that accept global values
// visible to every template. App.Global registrations are handed to
// the engine at freeze time.
type GlobalRegistrar interface {
	RegisterGlobal(name string, value any) error
}

// Component is a self-rendering view fragment. Values returned from a
// handler that satisfy this interface are rendered directly, which
// makes templ components usable without a directive:
//
//	func show(c loom.Context) (any, error) {
//		return views.ProfileCard(user), nil
//	}
type Component interface {
	Render(ctx context.Context, w io.Writer) error
}
