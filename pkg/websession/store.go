// Package websession binds a browser to its most recent exploration
// session with a signed cookie, so a page reload can resume the builder
// state instead of starting over.
package websession

import (
	"crypto/sha256"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
)

// Store is the global cookie store. Nil until InitStore is called;
// handlers treat a nil store as "continuity disabled".
var Store *sessions.CookieStore

// CookieName is the name of the continuity cookie.
const CookieName = "explorer-session"

// Session value keys.
const (
	KeySessionID = "session_id"
	KeyProjectID = "project_id"
)

// InitStore initializes the cookie store.
//
// The secret signs session cookies. It can be any passphrase; it is
// SHA-256 hashed to derive a 32-byte key. The secret must be consistent
// across server restarts and multiple servers behind a load balancer.
//
// The cookie TTL should match the server-side session TTL; a cookie
// that outlives its session just produces one failed resume.
func InitStore(secret string, ttl time.Duration, secure bool) {
	key := sha256.Sum256([]byte(secret))

	Store = sessions.NewCookieStore(key[:])
	Store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// Remember records the session and project IDs in the browser cookie.
func Remember(w http.ResponseWriter, r *http.Request, sessionID, projectID string) error {
	if Store == nil {
		return nil
	}
	// Get never fails for cookie stores; a bad cookie yields a fresh session.
	sess, _ := Store.Get(r, CookieName)
	sess.Values[KeySessionID] = sessionID
	sess.Values[KeyProjectID] = projectID
	return sess.Save(r, w)
}

// Current returns the remembered session ID, or "" when the browser has
// none.
func Current(r *http.Request) string {
	if Store == nil {
		return ""
	}
	sess, _ := Store.Get(r, CookieName)
	id, _ := sess.Values[KeySessionID].(string)
	return id
}

// Forget clears the continuity cookie.
func Forget(w http.ResponseWriter, r *http.Request) error {
	if Store == nil {
		return nil
	}
	sess, _ := Store.Get(r, CookieName)
	sess.Options.MaxAge = -1
	delete(sess.Values, KeySessionID)
	delete(sess.Values, KeyProjectID)
	return sess.Save(r, w)
}
