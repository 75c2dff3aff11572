package cookie

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

var encoding = base64.RawURLEncoding

// GetSigned verifies and returns a signed cookie value. The signature
// covers the cookie name, so a value signed for one cookie cannot be
// replayed under another.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if err := m.sealed(); err != nil {
		return "", err
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	// Wire format: base64(value).base64(hmac)
	encodedValue, encodedSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := encoding.DecodeString(encodedValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := encoding.DecodeString(encodedSig)
	if err != nil {
		return "", ErrBadSig
	}

	if !hmac.Equal(sig, m.sign(name, value)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

// SetSigned stages a cookie whose value is authenticated but still
// readable by the client.
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, maxAge int) error {
	if err := m.sealed(); err != nil {
		return err
	}

	sig := m.sign(name, []byte(value))
	encoded := encoding.EncodeToString([]byte(value)) + "." + encoding.EncodeToString(sig)
	http.SetCookie(w, m.build(name, encoded, maxAge))
	return nil
}

// GetEncrypted opens and returns an encrypted cookie value. The name
// rides along as AEAD associated data, so ciphertext moved to another
// cookie does not open.
func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	if err := m.sealed(); err != nil {
		return "", err
	}

	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	box, err := encoding.DecodeString(raw)
	if err != nil {
		return "", ErrDecrypt
	}
	if len(box) < m.aead.NonceSize() {
		return "", ErrDecrypt
	}

	nonce, ciphertext := box[:m.aead.NonceSize()], box[m.aead.NonceSize():]
	plain, err := m.aead.Open(nil, nonce, ciphertext, []byte(name))
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plain), nil
}

// SetEncrypted stages a cookie whose value is opaque to the client.
func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, maxAge int) error {
	if err := m.sealed(); err != nil {
		return err
	}

	nonce := make([]byte, m.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return err
	}
	box := m.aead.Seal(nonce, nonce, []byte(value), []byte(name))
	http.SetCookie(w, m.build(name, encoding.EncodeToString(box), maxAge))
	return nil
}

const flashPrefix = "flash_"

// SetFlash stages a one-shot encrypted value for the next request,
// JSON-encoded so any serializable type fits.
func (m *Manager) SetFlash(w http.ResponseWriter, key string, value any) error {
	if err := m.sealed(); err != nil {
		return err
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.SetEncrypted(w, flashPrefix+key, string(data), 0)
}

// Flash reads a flash value into dest and deletes its cookie, so the
// value shows exactly once.
func (m *Manager) Flash(w http.ResponseWriter, r *http.Request, key string, dest any) error {
	if err := m.sealed(); err != nil {
		return err
	}
	raw, err := m.GetEncrypted(r, flashPrefix+key)
	if err != nil {
		return err
	}
	m.Delete(w, flashPrefix+key)
	return json.Unmarshal([]byte(raw), dest)
}

// sign computes the HMAC for value as stored under name.
func (m *Manager) sign(name string, value []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write([]byte(name))
	mac.Write([]byte{0})
	mac.Write(value)
	return mac.Sum(nil)
}
