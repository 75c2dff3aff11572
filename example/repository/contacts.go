// Package repository holds the example's contact storage. It keeps
// everything in memory so the demo only needs Redis to run; a real
// application would swap this for pkg/db and SQL queries.
package repository

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Contact is a single address book entry.
type Contact struct {
	ID        string
	Name      string
	Email     string
	Notes     string
	CreatedAt time.Time
}

// Contacts is a concurrency-safe in-memory contact store.
type Contacts struct {
	mu    sync.RWMutex
	items map[string]Contact
}

// NewContacts returns an empty store.
func NewContacts() *Contacts {
	return &Contacts{items: make(map[string]Contact)}
}

// Seed inserts a few demo contacts so the UI has something to show.
func (r *Contacts) Seed() {
	r.Create("Ada Lovelace", "ada@example.com", "Wrote the first program.")
	r.Create("Grace Hopper", "grace@example.com", "Coined the term debugging.")
	r.Create("Alan Turing", "alan@example.com", "")
}

// Create stores a new contact and returns it.
func (r *Contacts) Create(name, email, notes string) Contact {
	c := Contact{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Notes:     notes,
		CreatedAt: time.Now(),
	}

	r.mu.Lock()
	r.items[c.ID] = c
	r.mu.Unlock()

	return c
}

// Get returns the contact with the given id.
func (r *Contacts) Get(id string) (Contact, bool) {
	r.mu.RLock()
	c, ok := r.items[id]
	r.mu.RUnlock()
	return c, ok
}

// Delete removes a contact and returns the removed record.
func (r *Contacts) Delete(id string) (Contact, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return c, ok
}

// List returns all contacts, newest first.
func (r *Contacts) List() []Contact {
	r.mu.RLock()
	out := make([]Contact, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c)
	}
	r.mu.RUnlock()

	slices.SortFunc(out, func(a, b Contact) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Search returns contacts whose name or email contains the query,
// case-insensitively. An empty query returns the full list.
func (r *Contacts) Search(query string) []Contact {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return r.List()
	}

	all := r.List()
	out := make([]Contact, 0, len(all))
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Name), query) ||
			strings.Contains(strings.ToLower(c.Email), query) {
			out = append(out, c)
		}
	}
	return out
}

// Count returns the number of stored contacts.
func (r *Contacts) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}
