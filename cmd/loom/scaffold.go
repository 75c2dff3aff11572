package main

import "fmt"

// scaffoldFiles returns the relative path and content of every file
// `loom new` generates, keyed by path. loom.yaml is written separately
// so it goes through the same marshaling as the rest of the tool.
func scaffoldFiles(name string, minimal bool) map[string]string {
	files := map[string]string{
		"go.mod":                 fmt.Sprintf(scaffoldGoMod, name),
		"views/pages/index.html": scaffoldIndex,
	}
	if minimal {
		files["main.go"] = fmt.Sprintf(scaffoldMainMinimal, name, name)
		files["views/layouts/base.html"] = fmt.Sprintf(scaffoldLayout, "")
		return files
	}
	files["main.go"] = fmt.Sprintf(scaffoldMain, name, name)
	files["views/layouts/base.html"] = fmt.Sprintf(scaffoldLayout, scaffoldCSSLink)
	files["static/app.css"] = scaffoldCSS
	return files
}

const scaffoldGoMod = `module %s

go 1.25
`

const scaffoldMain = `package main

import (
	"log"
	"os"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/pkg/htmlview"
)

func main() {
	views := htmlview.New(os.DirFS("views"), htmlview.WithReload("views"))

	app := loom.New(
		loom.WithTemplates(views),
		loom.WithDebug(true),
		loom.WithLogger("%s"),
	)
	app.Static("/static", os.DirFS("."), "static")

	app.GET("/", func(c loom.Context) (any, error) {
		return loom.Page("index", loom.M{"Title": "%s"}), nil
	})

	log.Fatal(app.Run(":8080"))
}
`

const scaffoldMainMinimal = `package main

import (
	"log"
	"os"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/pkg/htmlview"
)

func main() {
	views := htmlview.New(os.DirFS("views"), htmlview.WithReload("views"))

	app := loom.New(
		loom.WithTemplates(views),
		loom.WithDebug(true),
		loom.WithLogger("%s"),
	)

	app.GET("/", func(c loom.Context) (any, error) {
		return loom.Page("index", loom.M{"Title": "%s"}), nil
	})

	log.Fatal(app.Run(":8080"))
}
`

const scaffoldCSSLink = "\n  <link rel=\"stylesheet\" href=\"/static/app.css\">"

const scaffoldLayout = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{block "title" .}}{{.Title}}{{end}}</title>
  <script src="https://unpkg.com/htmx.org@2.0.4"></script>%s
</head>
<body>
  <main>
    {{block "content" .}}{{end}}
  </main>
</body>
</html>
`

const scaffoldIndex = `{{define "content"}}
<h1>{{.Title}}</h1>
<p>Edit <code>views/pages/index.html</code> and reload.</p>
{{end}}
`

const scaffoldCSS = `body {
  font-family: system-ui, sans-serif;
  max-width: 42rem;
  margin: 3rem auto;
  padding: 0 1rem;
  line-height: 1.6;
}

code {
  background: #f2f2f2;
  padding: 0.1rem 0.3rem;
  border-radius: 3px;
}
`
