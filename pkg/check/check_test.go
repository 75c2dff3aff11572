package check_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/loom/pkg/check"
)

func scanOne(t *testing.T, src string, opts ...check.Option) *check.Report {
	t.Helper()
	report, err := check.Scan(fstest.MapFS{
		"pages/p.html": {Data: []byte(src)},
	}, opts...)
	require.NoError(t, err)
	return report
}

func routes() check.Option {
	return check.WithRoutes([]check.Route{
		{Method: "GET", Pattern: "/"},
		{Method: "GET", Pattern: "/search"},
		{Method: "POST", Pattern: "/contacts"},
		{Method: "GET", Pattern: "/posts/{id:int}"},
		{Method: "GET", Pattern: "/files/{rest:path}"},
	})
}

func TestScanRoutes(t *testing.T) {
	t.Parallel()

	t.Run("matching requests are clean", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<div>
<a hx-get="/">home</a>
<form hx-post="/contacts"></form>
<a hx-get="/posts/42">post</a>
<a hx-get="/files/a/b/c.txt">file</a>
<input hx-get="/search?q=initial">
</div>`, routes())
		assert.Empty(t, report.Findings)
	})

	t.Run("unmatched request", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<p>
<button hx-get="/missing">x</button>
</p>`, routes())
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, check.SeverityError, f.Severity)
		assert.Equal(t, check.CategoryRoute, f.Category)
		assert.Equal(t, 2, f.Line)
		assert.Contains(t, f.Message, `hx-get="/missing" matches no registered route`)
	})

	t.Run("method mismatch names the route", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<form hx-get="/contacts"></form>`, routes())
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, check.SeverityError, f.Severity)
		assert.Equal(t, "/contacts", f.Route)
		assert.Contains(t, f.Message, "matches /contacts but not with method GET")
	})

	t.Run("typed params constrain matching", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<a hx-get="/posts/not-a-number">x</a>`, routes())
		require.Len(t, report.Findings, 1)
		assert.Contains(t, report.Findings[0].Message, "matches no registered route")
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<button hx-post="">x</button>`, routes())
		require.Len(t, report.Findings, 1)
		assert.Contains(t, report.Findings[0].Message, "hx-post has an empty URL")
	})

	t.Run("dynamic and external urls are skipped", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<div>
<a hx-get="/contacts/{{.ID}}">x</a>
<a hx-get="https://example.com/feed">x</a>
<a hx-get="//cdn.example.com/x">x</a>
</div>`, routes())
		assert.Empty(t, report.Findings)
	})

	t.Run("without a route table only local checks run", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<a hx-get="/anything/at/all">x</a>`)
		assert.Empty(t, report.Findings)
	})
}

func TestScanTargets(t *testing.T) {
	t.Parallel()

	t.Run("selectors and keywords pass", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<div>
<a hx-target="#list">a</a>
<a hx-target=".rows">b</a>
<a hx-target="[data-x]">c</a>
<a hx-target="this">d</a>
<a hx-target="closest tr">e</a>
<a hx-target="find .cell">f</a>
<a hx-target="next">g</a>
<a hx-target="body">h</a>
<a hx-target="{{.Target}}">i</a>
</div>`)
		assert.Empty(t, report.Findings)
	})

	t.Run("junk is a warning", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<a hx-target="Contact List">x</a>`)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, check.SeverityWarning, f.Severity)
		assert.Equal(t, check.CategoryTarget, f.Category)
		assert.Contains(t, f.Message, "not a selector or htmx keyword")
	})
}

func TestScanSwap(t *testing.T) {
	t.Parallel()

	t.Run("strategies with modifiers pass", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<div>
<a hx-swap="innerHTML">a</a>
<a hx-swap="outerHTML swap:1s">b</a>
<a hx-swap="afterbegin">c</a>
<a hx-swap="delete">d</a>
</div>`)
		assert.Empty(t, report.Findings)
	})

	t.Run("unknown strategy is a warning", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<a hx-swap="sideways">x</a>`)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, check.SeverityWarning, f.Severity)
		assert.Equal(t, check.CategorySwap, f.Category)
		assert.Contains(t, f.Message, `hx-swap="sideways" is not a known swap strategy`)
	})
}

func TestScanOOB(t *testing.T) {
	t.Parallel()

	t.Run("id-matched swaps need an id", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<span hx-swap-oob="true">3</span>`)
		require.Len(t, report.Findings, 1)
		f := report.Findings[0]
		assert.Equal(t, check.SeverityError, f.Severity)
		assert.Equal(t, check.CategoryOOB, f.Category)
		assert.Contains(t, f.Message, "has no id")
	})

	t.Run("id or explicit selector passes", func(t *testing.T) {
		t.Parallel()

		report := scanOne(t, `<div>
<span id="count" hx-swap-oob="true">3</span>
<li hx-swap-oob="beforeend:#feed">new</li>
</div>`)
		assert.Empty(t, report.Findings)
	})
}

func TestScanDuplicateIDs(t *testing.T) {
	t.Parallel()

	report := scanOne(t, `<div id="list"></div>
<span id="list"></span>`)
	require.Len(t, report.Findings, 1)
	f := report.Findings[0]
	assert.Equal(t, check.SeverityWarning, f.Severity)
	assert.Equal(t, check.CategoryID, f.Category)
	assert.Equal(t, 2, f.Line)
	assert.Contains(t, f.Message, `duplicate id "list" (first seen at line 1)`)
}

func TestScanOrdering(t *testing.T) {
	t.Parallel()

	report, err := check.Scan(fstest.MapFS{
		"b.html": {Data: []byte("<a hx-swap=\"bogus\">x</a>\n<a hx-swap=\"worse\">y</a>")},
		"a.html": {Data: []byte(`<a hx-swap="bad">x</a>`)},
	})
	require.NoError(t, err)
	require.Len(t, report.Findings, 3)
	assert.Equal(t, "a.html", report.Findings[0].Template)
	assert.Equal(t, "b.html", report.Findings[1].Template)
	assert.Equal(t, 1, report.Findings[1].Line)
	assert.Equal(t, "b.html", report.Findings[2].Template)
	assert.Equal(t, 2, report.Findings[2].Line)
}

func TestScanExtension(t *testing.T) {
	t.Parallel()

	report, err := check.Scan(fstest.MapFS{
		"p.tmpl": {Data: []byte(`<a hx-swap="bogus">x</a>`)},
		"p.html": {Data: []byte(`<a hx-swap="alsobogus">x</a>`)},
	}, check.WithExtension("tmpl"))
	require.NoError(t, err)
	require.Len(t, report.Findings, 1)
	assert.Equal(t, "p.tmpl", report.Findings[0].Template)
}

func TestReportHasErrors(t *testing.T) {
	t.Parallel()

	warning := scanOne(t, `<a hx-swap="bogus">x</a>`)
	assert.NotEmpty(t, warning.Findings)
	assert.False(t, warning.HasErrors())

	failing := scanOne(t, `<button hx-get="">x</button>`)
	assert.True(t, failing.HasErrors())
}

func TestFindingString(t *testing.T) {
	t.Parallel()

	f := check.Finding{
		Template: "pages/p.html",
		Line:     3,
		Severity: check.SeverityError,
		Category: check.CategoryRoute,
		Message:  "boom",
	}
	assert.Equal(t, "pages/p.html:3: error: [route] boom", f.String())

	f.Line = 0
	f.Severity = check.SeverityWarning
	assert.Equal(t, "pages/p.html: warning: [route] boom", f.String())
}
