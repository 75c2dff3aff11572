// Package views embeds the example's templates and builds the engine
// they render through. Custom filters registered here are available in
// every template alongside the built-ins.
package views

import (
	"embed"
	"io/fs"
	"strings"
	"unicode"

	"github.com/dmitrymomot/loom/pkg/htmlview"
)

//go:embed all:templates
var files embed.FS

// New builds the template engine over the embedded template tree.
func New() *htmlview.Engine {
	fsys, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return htmlview.New(fsys,
		htmlview.WithFilter("initials", initials),
		htmlview.WithGlobal("AppName", "Loom Contacts"),
	)
}

// initials derives up to two uppercase initials from a name, for the
// avatar badge next to each contact.
func initials(name string) string {
	var b strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
		count++
		if count == 2 {
			break
		}
	}
	return b.String()
}
