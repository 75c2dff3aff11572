package cookie

import "errors"

var (
	// ErrNotFound reports a cookie missing from the request.
	ErrNotFound = errors.New("cookie: not found")

	// ErrNoSecret reports a signed or encrypted operation on a
	// manager configured without a secret.
	ErrNoSecret = errors.New("cookie: secret required")

	// ErrBadSecret reports a configured secret shorter than 32 bytes.
	ErrBadSecret = errors.New("cookie: secret must be at least 32 bytes")

	// ErrBadSig reports a signed cookie that does not verify, either
	// tampered with or signed under another name or key.
	ErrBadSig = errors.New("cookie: invalid signature")

	// ErrDecrypt reports an encrypted cookie that would not open,
	// either tampered with or sealed under another name or key.
	ErrDecrypt = errors.New("cookie: decryption failed")
)
