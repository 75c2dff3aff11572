// Package session defines the session model and the Store interface
// its backends implement.
//
// A session starts anonymous and survives login: authenticating
// binds the existing session to a user and rotates its cookie token,
// so values carried before login (a cart, a theme) stay attached.
// The ID/Token split keeps the server-side name of a session stable
// while the credential in the cookie changes.
//
// Applications normally reach sessions through the framework rather
// than this package:
//
//	app := loom.New(loom.WithSession(postgres.New(pool)))
//
//	func (h *Handlers) Theme(c loom.Context) (any, error) {
//	    sess, err := c.Session()
//	    if err != nil {
//	        return nil, err
//	    }
//	    sess.SetValue("theme", c.Query("theme"))
//	    return loom.Redirect("/settings"), nil
//	}
//
// Dirty tracking makes the write-back automatic: mutations mark the
// session and the framework persists it once, right before the
// response commits.
//
// The memory, redis and postgres subpackages provide the stores. For
// stores that serialize Values as JSON, reads follow JSON's type
// system; the typed accessors Value and ValueOr are the convenient
// way to get data out:
//
//	visits := session.ValueOr(sess, "visits", 0.0)
package session
