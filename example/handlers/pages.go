// Package handlers wires the example's routes. Each handler is a small
// struct with injected dependencies and a Routes method.
package handlers

import (
	"strings"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/example/repository"
)

const aboutBody = `
This demo is a small contact book. It shows full page renders, htmx
fragment swaps, out-of-band updates, validation re-renders, a streamed
export, and a live activity feed over **Server-Sent Events**.

Things to try:

- Add a contact with a one-letter name and watch the form re-render.
- Open two tabs and create a contact in one; the other's feed updates.
- Visit a few contacts, then check the list on the home page.
`

// Pages serves the static-ish pages: home and about.
type Pages struct {
	repo *repository.Contacts
}

// NewPages creates the pages handler.
func NewPages(repo *repository.Contacts) *Pages {
	return &Pages{repo: repo}
}

// Routes registers the page routes.
func (h *Pages) Routes(r loom.Router) {
	r.GET("/", h.home).Named("home")
	r.GET("/about", h.about).Named("about")
}

func (h *Pages) home(c loom.Context) (any, error) {
	return loom.Page("index", loom.M{
		"Title":  "Home",
		"Count":  h.repo.Count(),
		"Recent": h.recentlyViewed(c),
	}), nil
}

func (h *Pages) about(c loom.Context) (any, error) {
	return loom.Page("about", loom.M{
		"Title": "About",
		"Body":  aboutBody,
	}), nil
}

// recentlyViewed resolves the session's recently viewed contact ids to
// live contacts, skipping any that were deleted since.
func (h *Pages) recentlyViewed(c loom.Context) []repository.Contact {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return nil
	}

	joined := loom.SessionValueOr(sess, recentKey, "")
	if joined == "" {
		return nil
	}

	var out []repository.Contact
	for _, id := range strings.Split(joined, ",") {
		if contact, ok := h.repo.Get(id); ok {
			out = append(out, contact)
		}
	}
	return out
}
