package handlers

import (
	"strings"
	"time"

	"github.com/dmitrymomot/loom"
	"github.com/dmitrymomot/loom/example/repository"
	"github.com/dmitrymomot/loom/example/requests"
	"github.com/dmitrymomot/loom/pkg/pubsub"
)

// activityChannel carries contact mutations to every open activity
// feed, across all server instances sharing the Redis.
const activityChannel = "contacts:activity"

// recentKey is the session key for the recently viewed contact ids,
// stored as a comma-joined string so the value survives the session
// store's JSON round trip.
const recentKey = "recent_contacts"

// maxRecent caps how many recently viewed contacts a session remembers.
const maxRecent = 5

// activity is one entry on the live feed.
type activity struct {
	Verb string `json:"verb"`
	Name string `json:"name"`
	At   string `json:"at"`
}

// Contacts serves the contact book: list, search, create, detail,
// delete, and a streamed export.
type Contacts struct {
	repo   *repository.Contacts
	broker *pubsub.Broker
}

// NewContacts creates the contacts handler.
func NewContacts(repo *repository.Contacts, broker *pubsub.Broker) *Contacts {
	return &Contacts{repo: repo, broker: broker}
}

// Routes registers the contact routes.
func (h *Contacts) Routes(r loom.Router) {
	r.GET("/contacts", h.index).Named("contacts.index")
	r.GET("/contacts/search", h.search)
	r.GET("/contacts/export", h.export)
	r.POST("/contacts", h.create)
	r.GET("/contacts/{id}", h.detail).Named("contacts.show")
	r.DELETE("/contacts/{id}", h.remove)
}

// index serves the contact list. Direct navigation gets the full page,
// htmx gets just the list block.
func (h *Contacts) index(c loom.Context) (any, error) {
	return loom.Auto("contacts/index", "list", loom.M{
		"Title":    "Contacts",
		"Contacts": h.repo.List(),
		"Count":    h.repo.Count(),
		"Query":    "",
		"Values":   requests.CreateContact{},
	}), nil
}

// search filters the list as the user types.
func (h *Contacts) search(c loom.Context) (any, error) {
	var req requests.SearchContacts
	if _, err := c.BindQuery(&req); err != nil {
		return nil, err
	}

	return loom.Fragment("contacts/index", "list", loom.M{
		"Contacts": h.repo.Search(req.Query),
	}), nil
}

// create adds a contact. Validation failures re-render the form's error
// block at 422; success resets the form and pushes the new list and
// count out of band.
func (h *Contacts) create(c loom.Context) (any, error) {
	var req requests.CreateContact
	verrs, err := c.Bind(&req)
	if err != nil {
		return nil, err
	}
	if verrs != nil {
		return loom.Invalid("contacts/index", "form-errors", loom.M{
			"Errors": verrs,
		}), nil
	}

	contact := h.repo.Create(req.Name, req.Email, req.Notes)
	h.announce(c, "added", contact.Name)

	return loom.Multi(
		loom.Fragment("contacts/index", "contact-form", loom.M{
			"Values": requests.CreateContact{},
		}),
		loom.OOB("contacts/index", "list", "contact-list", loom.M{
			"Contacts": h.repo.List(),
		}),
		loom.OOB("contacts/index", "contact-count", "contact-count", loom.M{
			"Count": h.repo.Count(),
		}),
	), nil
}

// detail shows one contact and records the visit in the session.
func (h *Contacts) detail(c loom.Context) (any, error) {
	id := loom.Param[string](c, "id")
	contact, ok := h.repo.Get(id)
	if !ok {
		return nil, loom.ErrNotFound("contact not found")
	}

	h.rememberVisit(c, id)

	return loom.Page("contacts/detail", loom.M{
		"Title":   contact.Name,
		"Contact": contact,
	}), nil
}

// remove deletes a contact and refreshes the list and count.
func (h *Contacts) remove(c loom.Context) (any, error) {
	id := loom.Param[string](c, "id")
	contact, ok := h.repo.Delete(id)
	if !ok {
		return nil, loom.ErrNotFound("contact not found")
	}

	h.announce(c, "removed", contact.Name)

	return loom.Multi(
		loom.Fragment("contacts/index", "list", loom.M{
			"Contacts": h.repo.List(),
		}),
		loom.OOB("contacts/index", "contact-count", "contact-count", loom.M{
			"Count": h.repo.Count(),
		}),
	), nil
}

// export streams every contact as one big page, rendered chunk by
// chunk instead of buffered.
func (h *Contacts) export(c loom.Context) (any, error) {
	return loom.Stream("contacts/export", loom.M{
		"Title":    "Export",
		"Contacts": h.repo.List(),
		"Now":      time.Now(),
	}), nil
}

// announce publishes a feed entry. Failures are logged and swallowed;
// the mutation already happened and the feed is best effort.
func (h *Contacts) announce(c loom.Context, verb, name string) {
	entry := activity{Verb: verb, Name: name, At: time.Now().Format("15:04:05")}
	if err := h.broker.Publish(c, activityChannel, entry); err != nil {
		c.LogWarn("publish activity", "error", err)
	}
}

// rememberVisit pushes the contact id to the front of the session's
// recently viewed list, deduplicated and capped at maxRecent. Visitors
// without a session get one here.
func (h *Contacts) rememberVisit(c loom.Context, id string) {
	sess, err := c.Session()
	if err != nil {
		c.LogWarn("load session", "error", err)
		return
	}
	if sess == nil {
		if err := c.InitSession(); err != nil {
			c.LogWarn("init session", "error", err)
			return
		}
		sess, _ = c.Session()
	}

	ids := []string{id}
	for _, seen := range strings.Split(loom.SessionValueOr(sess, recentKey, ""), ",") {
		if seen == "" || seen == id || len(ids) == maxRecent {
			continue
		}
		ids = append(ids, seen)
	}

	if err := c.SetSessionValue(recentKey, strings.Join(ids, ",")); err != nil {
		c.LogWarn("save session", "error", err)
	}
}
