// Package check statically validates the hypermedia surface of a
// project: it scans HTML templates for htmx attributes and reports
// requests that no route would serve, malformed target selectors,
// unknown swap strategies, and out-of-band swaps that cannot work.
//
// The scan is purely textual. It never loads the target application,
// so it is safe to run against any tree, and findings are best-effort:
// URLs built from template expressions are skipped rather than guessed.
package check

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Severity classifies how actionable a finding is.
type Severity int

const (
	// SeverityInfo marks observations that need no action.
	SeverityInfo Severity = iota
	// SeverityWarning marks likely mistakes that still render.
	SeverityWarning
	// SeverityError marks requests that will fail at runtime.
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// Finding categories.
const (
	CategoryRoute  = "route"  // hx-get etc. pointing nowhere
	CategoryTarget = "target" // malformed hx-target selectors
	CategorySwap   = "swap"   // unknown hx-swap strategies
	CategoryOOB    = "oob"    // out-of-band swaps without an id
	CategoryID     = "id"     // duplicate element ids
)

// Finding is one issue located in a template.
type Finding struct {
	Template string
	Route    string
	Category string
	Message  string
	Line     int
	Severity Severity
}

func (f Finding) String() string {
	loc := f.Template
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d", f.Template, f.Line)
	}
	return fmt.Sprintf("%s: %s: [%s] %s", loc, f.Severity, f.Category, f.Message)
}

// Route describes one registered route for cross-referencing template
// requests.
type Route struct {
	Method  string
	Pattern string
}

// Report collects the findings of one scan.
type Report struct {
	Findings []Finding
}

// HasErrors reports whether any finding has error severity, which is
// what decides the CLI exit code.
func (r *Report) HasErrors() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (r *Report) add(f Finding) {
	r.Findings = append(r.Findings, f)
}

// Option configures a scan.
type Option func(*scanner)

// WithRoutes supplies the route table. When present, every static
// hx-get/hx-post/... URL is matched against it and misses become
// error findings. Without routes only template-local checks run.
func WithRoutes(routes []Route) Option {
	return func(s *scanner) {
		s.routes = routes
	}
}

// WithExtension sets which files count as templates.
// Default: .html
func WithExtension(ext string) Option {
	return func(s *scanner) {
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.ext = ext
	}
}

// Scan walks fsys and validates every template file. Findings are
// ordered by file, then line.
func Scan(fsys fs.FS, opts ...Option) (*Report, error) {
	s := &scanner{ext: ".html", report: &Report{}}
	for _, opt := range opts {
		opt(s)
	}

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, s.ext) {
			return nil
		}
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("check: read %s: %w", path, err)
		}
		s.scanFile(path, src)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("check: walk templates: %w", err)
	}

	sort.SliceStable(s.report.Findings, func(i, j int) bool {
		a, b := s.report.Findings[i], s.report.Findings[j]
		if a.Template != b.Template {
			return a.Template < b.Template
		}
		return a.Line < b.Line
	})
	return s.report, nil
}
