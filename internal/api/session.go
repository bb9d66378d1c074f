package api

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"regexp"
	"time"
)

// sessionCookie isolates one browser's jobs and files from all others.
// The value is the partition key for on-disk client directories.
const sessionCookie = "client_id"

// newClientID mints an opaque 128-bit session token.
func newClientID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// clientIDPattern matches exactly the tokens newClientID mints. The id
// names a directory under the download root, so anything else (cookie
// values may contain "/" and ".") is treated as absent.
var clientIDPattern = regexp.MustCompile(`^[0-9a-f]{32}$`)

func clientIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookie)
	if err != nil || !clientIDPattern.MatchString(c.Value) {
		return ""
	}
	return c.Value
}

func setSessionCookie(w http.ResponseWriter, clientID string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    clientID,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
