package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const BrowserCookieName = "courspresso_bid"

var ErrBadCookie = errors.New("browser cookie is invalid")

// BrowserCookies issues and reads the sealed browser id cookie.
type BrowserCookies struct {
	key    [32]byte
	secure bool
	maxAge time.Duration
}

func NewBrowserCookies(secret string, secure bool, maxAge time.Duration) (*BrowserCookies, error) {
	c := &BrowserCookies{secure: secure, maxAge: maxAge}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("courspresso browser id"))
	if _, err := io.ReadFull(kdf, c.key[:]); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *BrowserCookies) Seal(browserID string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	out := secretbox.Seal(nonce[:], []byte(browserID), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (c *BrowserCookies) Open(value string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < 24+secretbox.Overhead {
		return "", ErrBadCookie
	}
	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, &c.key)
	if !ok {
		return "", ErrBadCookie
	}
	id, err := uuid.ParseBytes(plain)
	if err != nil {
		return "", ErrBadCookie
	}
	return id.String(), nil
}

// BrowserID returns the id from the request cookie, or mints a new one and
// sets the cookie on w.
func (c *BrowserCookies) BrowserID(w http.ResponseWriter, r *http.Request) (string, error) {
	if ck, err := r.Cookie(BrowserCookieName); err == nil {
		if id, err := c.Open(ck.Value); err == nil {
			return id, nil
		}
	}
	id := uuid.NewString()
	v, err := c.Seal(id)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     BrowserCookieName,
		Value:    v,
		Path:     "/",
		MaxAge:   int(c.maxAge.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}
