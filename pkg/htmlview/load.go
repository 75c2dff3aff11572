package htmlview

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"sort"
	"strings"
)

// Template directories inside the engine's fs.
const (
	pagesDir    = "pages"
	layoutsDir  = "layouts"
	partialsDir = "partials"
)

// parseAll builds a fresh template set: every page parsed against the
// layout and all partials, plus the page's own block inventory.
func (e *Engine) parseAll() (*templateSet, error) {
	fsys := e.fsys
	if e.reloadDir != "" {
		fsys = os.DirFS(e.reloadDir)
	}

	layoutName, layoutSrc, err := e.readLayout(fsys)
	if err != nil {
		return nil, err
	}

	partials, err := e.readDir(fsys, partialsDir)
	if err != nil {
		return nil, err
	}

	pages, err := e.readDir(fsys, pagesDir)
	if err != nil {
		return nil, err
	}

	set := &templateSet{
		pages:     make(map[string]*template.Template, len(pages)),
		ownBlocks: make(map[string][]string, len(pages)),
		root:      layoutName,
	}

	for _, page := range pages {
		name := strings.TrimPrefix(page.name, pagesDir+"/")

		var tpl *template.Template
		if layoutName != "" {
			// Layout first so page defines override its blocks.
			tpl, err = template.New(layoutName).Funcs(e.funcs).Parse(layoutSrc)
			if err != nil {
				return nil, fmt.Errorf("htmlview: parse %s: %w", e.layout, err)
			}
		} else {
			tpl = template.New(name).Funcs(e.funcs)
		}

		for _, partial := range partials {
			if _, err := tpl.New(partial.name).Parse(partial.src); err != nil {
				return nil, fmt.Errorf("htmlview: parse %s: %w", partial.name, err)
			}
		}

		if _, err := tpl.New(name).Parse(page.src); err != nil {
			return nil, fmt.Errorf("htmlview: parse %s: %w", page.name, err)
		}

		blocks, err := e.ownDefines(name, page.src)
		if err != nil {
			return nil, err
		}

		set.pages[name] = tpl
		set.ownBlocks[name] = blocks
	}

	return set, nil
}

type templateFile struct {
	name string // path relative to root, extension stripped
	src  string
}

// readLayout loads the configured layout file. A missing layout is only
// an error when one was explicitly configured away from the default.
func (e *Engine) readLayout(fsys fs.FS) (string, string, error) {
	if e.layout == "" {
		return "", "", nil
	}
	src, err := fs.ReadFile(fsys, e.layout)
	if err != nil {
		if os.IsNotExist(err) && e.layout == "layouts/base.html" {
			// Default layout absent: render pages standalone.
			return "", "", nil
		}
		return "", "", fmt.Errorf("htmlview: read layout %s: %w", e.layout, err)
	}
	return strings.TrimSuffix(e.layout, e.ext), string(src), nil
}

// readDir collects the template files under dir, named by their path
// relative to the engine root without extension. A missing directory
// yields an empty list.
func (e *Engine) readDir(fsys fs.FS, dir string) ([]templateFile, error) {
	if _, err := fs.Stat(fsys, dir); err != nil {
		return nil, nil
	}

	var files []templateFile
	err := fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, e.ext) {
			return nil
		}
		src, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		files = append(files, templateFile{
			name: strings.TrimSuffix(path, e.ext),
			src:  string(src),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("htmlview: walk %s: %w", dir, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	return files, nil
}

// ownDefines parses the page source in isolation and lists the template
// names it defines, which is exactly the set of blocks RenderBlock may
// serve for that page.
func (e *Engine) ownDefines(name, src string) ([]string, error) {
	probe, err := template.New(name).Funcs(e.funcs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("htmlview: parse %s: %w", name, err)
	}

	var blocks []string
	for _, t := range probe.Templates() {
		if t.Name() != name {
			blocks = append(blocks, t.Name())
		}
	}
	sort.Strings(blocks)
	return blocks, nil
}
