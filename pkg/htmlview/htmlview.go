// Package htmlview implements a template engine over html/template
// with layout composition, named blocks, streaming render, and debug
// hot-reload.
//
// Templates follow a directory convention inside the provided fs.FS:
//
//	layouts/   shared page shells ({{block "content" .}} placeholders)
//	pages/     one file per page, overriding layout blocks via {{define}}
//	partials/  shared includes available to every page
//
// Pages are addressed by their path under pages/ without extension, so
// pages/contacts/index.html renders as "contacts/index". Each page is
// parsed into its own template set together with the layout and all
// partials, which keeps block names page-scoped: two pages can both
// define "results" without colliding.
//
// Block rendering is strict about ownership. RenderBlock only serves
// blocks the page file itself defines; blocks merely inherited from the
// layout are invisible, so a fragment request cannot accidentally
// render a layout placeholder.
package htmlview

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"iter"
	"reflect"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Template engine errors.
var (
	ErrTemplateNotFound = errors.New("htmlview: template not found")
	ErrBlockNotFound    = errors.New("htmlview: no such block")
	ErrNotAFunction     = errors.New("htmlview: filter must be a function")
)

// streamChunkSize bounds how much rendered markup is buffered before a
// chunk is handed to the stream consumer.
const streamChunkSize = 8 << 10

// Engine renders html/template files with layout composition.
type Engine struct {
	fsys      fs.FS
	reloadDir string
	ext       string
	layout    string

	funcs   template.FuncMap
	globals map[string]any

	mu        sync.Mutex
	templates atomic.Pointer[templateSet]
	stale     atomic.Bool

	watchOnce sync.Once
	watcher   *fsnotify.Watcher
	watchErr  error
}

// templateSet is the immutable product of one parse pass. A rebuild
// constructs a fresh set and swaps the pointer, so in-flight renders
// keep the set they started with.
type templateSet struct {
	pages     map[string]*template.Template
	ownBlocks map[string][]string
	root      string // execution entry: layout name, or the page itself when empty
}

// Option configures the engine.
type Option func(*Engine)

// WithLayout sets the layout file path inside the fs, relative to the
// root (for example "layouts/base.html"). An empty layout renders each
// page standalone.
// Default: layouts/base.html
func WithLayout(path string) Option {
	return func(e *Engine) {
		e.layout = path
	}
}

// WithExtension sets the template file extension.
// Default: .html
func WithExtension(ext string) Option {
	return func(e *Engine) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		e.ext = ext
	}
}

// WithReload watches the given on-disk directory and reparses templates
// when files change. Meant for development; the directory must mirror
// the fs.FS layout. Production builds serving from embed.FS should not
// set it.
func WithReload(dir string) Option {
	return func(e *Engine) {
		e.reloadDir = dir
	}
}

// WithFilter registers a template function at construction time.
// Equivalent to calling RegisterFilter before first render.
func WithFilter(name string, fn any) Option {
	return func(e *Engine) {
		e.funcs[name] = fn
	}
}

// WithGlobal registers a value visible to every template through the
// {{global "name"}} function.
func WithGlobal(name string, value any) Option {
	return func(e *Engine) {
		e.globals[name] = value
	}
}

// New creates an engine reading templates from fsys. Parsing is lazy:
// the first render triggers it, and configuration errors surface there.
func New(fsys fs.FS, opts ...Option) *Engine {
	e := &Engine{
		fsys:    fsys,
		ext:     ".html",
		layout:  "layouts/base.html",
		globals: make(map[string]any),
	}
	e.funcs = builtinFilters()
	e.funcs["global"] = func(name string) any { return e.globals[name] }

	for _, opt := range opts {
		opt(e)
	}
	e.stale.Store(true)
	return e
}

// RegisterFilter adds a template function under the given name. Filters
// registered after a parse trigger a reparse on the next render.
func (e *Engine) RegisterFilter(name string, fn any) error {
	if fn == nil || reflect.TypeOf(fn).Kind() != reflect.Func {
		return fmt.Errorf("%w: %q is %T", ErrNotAFunction, name, fn)
	}
	e.mu.Lock()
	e.funcs[name] = fn
	e.mu.Unlock()
	e.stale.Store(true)
	return nil
}

// RegisterGlobal adds a value accessible in templates as
// {{global "name"}}.
func (e *Engine) RegisterGlobal(name string, value any) error {
	e.mu.Lock()
	e.globals[name] = value
	e.mu.Unlock()
	return nil
}

// Render renders the named page in full, wrapped in the layout when one
// is configured.
func (e *Engine) Render(name string, data any) (string, error) {
	set, err := e.load()
	if err != nil {
		return "", err
	}
	tpl, ok := set.pages[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}

	root := set.root
	if root == "" {
		root = name
	}

	var sb strings.Builder
	if err := tpl.ExecuteTemplate(&sb, root, data); err != nil {
		return "", fmt.Errorf("htmlview: render %q: %w", name, err)
	}
	return sb.String(), nil
}

// RenderBlock renders one block of the named page. The block must be
// defined in the page file itself; layout blocks the page never
// overrides are not addressable here.
func (e *Engine) RenderBlock(name, block string, data any) (string, error) {
	set, err := e.load()
	if err != nil {
		return "", err
	}
	tpl, ok := set.pages[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	if !definesBlock(set.ownBlocks[name], block) {
		return "", fmt.Errorf("%w: template %q does not define %q", ErrBlockNotFound, name, block)
	}

	var sb strings.Builder
	if err := tpl.ExecuteTemplate(&sb, block, data); err != nil {
		return "", fmt.Errorf("htmlview: render block %q of %q: %w", block, name, err)
	}
	return sb.String(), nil
}

// RenderStream renders the named page as a lazy sequence of markup
// chunks. Execution runs concurrently and is aborted when the consumer
// stops early, so a disconnecting client cancels the render instead of
// buffering the rest.
func (e *Engine) RenderStream(name string, data any) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		set, err := e.load()
		if err != nil {
			yield("", err)
			return
		}
		tpl, ok := set.pages[name]
		if !ok {
			yield("", fmt.Errorf("%w: %q", ErrTemplateNotFound, name))
			return
		}

		root := set.root
		if root == "" {
			root = name
		}

		pr, pw := io.Pipe()
		done := make(chan struct{})
		go func() {
			defer close(done)
			err := tpl.ExecuteTemplate(pw, root, data)
			pw.CloseWithError(err)
		}()
		defer func() {
			// Stops the executing goroutine if the consumer bailed out;
			// its next write fails with ErrClosedPipe.
			pr.Close()
			<-done
		}()

		buf := make([]byte, streamChunkSize)
		for {
			n, err := pr.Read(buf)
			if n > 0 {
				if !yield(string(buf[:n]), nil) {
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					yield("", fmt.Errorf("htmlview: stream %q: %w", name, err))
				}
				return
			}
		}
	}
}

// Blocks lists the block names the named page defines itself, sorted.
func (e *Engine) Blocks(name string) ([]string, error) {
	set, err := e.load()
	if err != nil {
		return nil, err
	}
	blocks, ok := set.ownBlocks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	out := make([]string, len(blocks))
	copy(out, blocks)
	return out, nil
}

// Pages lists every page name the engine can render, sorted.
func (e *Engine) Pages() ([]string, error) {
	set, err := e.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(set.pages))
	for name := range set.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// load returns the current template set, parsing on first use and after
// invalidation. The stale flag is checked before taking the lock so the
// steady state stays contention-free.
func (e *Engine) load() (*templateSet, error) {
	if e.reloadDir != "" {
		e.watchOnce.Do(e.startWatcher)
		if e.watchErr != nil {
			return nil, e.watchErr
		}
	}

	if set := e.templates.Load(); set != nil && !e.stale.Load() {
		return set, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if set := e.templates.Load(); set != nil && !e.stale.Load() {
		return set, nil
	}

	set, err := e.parseAll()
	if err != nil {
		return nil, err
	}
	e.templates.Store(set)
	e.stale.Store(false)
	return set, nil
}

func definesBlock(blocks []string, block string) bool {
	for _, b := range blocks {
		if b == block {
			return true
		}
	}
	return false
}
