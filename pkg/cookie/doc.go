// Package cookie manages HTTP cookies in three protection levels:
// plain, signed (tamper-evident, client-readable), and encrypted
// (opaque to the client), plus one-shot flash values built on the
// encrypted level.
//
// A Manager carries the attribute defaults every cookie it writes
// shares. Signed and encrypted operations need a secret of at least
// 32 bytes:
//
//	m := cookie.New(
//	    cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//	    cookie.WithSecure(true),
//	)
//
//	m.Set(w, "theme", "dark", 3600)
//	err := m.SetSigned(w, "uid", "42", 3600)
//	err = m.SetEncrypted(w, "prefs", payload, 0)
//
// Both protected forms bind the cookie's name into the cryptography,
// so a value minted for one cookie fails verification under another.
//
// Flash values survive exactly one read, which suits redirect-then-
// render flows:
//
//	_ = m.SetFlash(w, "notice", "Profile saved")
//
//	var notice string
//	if err := m.Flash(w, r, "notice", &notice); err == nil {
//	    // show notice once
//	}
//
// Inside a loom app the manager is configured at construction and used
// through the context helpers:
//
//	app := loom.New(loom.WithCookieOptions(
//	    cookie.WithSecret(os.Getenv("COOKIE_SECRET")),
//	))
//
//	func show(c loom.Context) (any, error) {
//	    uid, err := c.CookieSigned("uid")
//	    ...
//	}
package cookie
