// Package requests holds the form and query bindings for the example's
// handlers. Tags drive the whole pipeline: form maps the field,
// sanitize cleans it, validate checks it.
package requests

// CreateContact is the form data for creating a contact.
type CreateContact struct {
	Name  string `form:"name"  sanitize:"trim,name"        validate:"required;min:2;max:100"`
	Email string `form:"email" sanitize:"trim,lower,email" validate:"required;email"`
	Notes string `form:"notes" sanitize:"trim,xss"         validate:"max:500"`
}

// SearchContacts is the query string for filtering the contact list.
type SearchContacts struct {
	Query string `query:"q" sanitize:"trim" validate:"max:100"`
}
