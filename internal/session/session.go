// Package session holds the per-browser-session identity. The SPA this
// gateway replaces read a userId out of ambient sessionStorage from every
// component; here the identity has a single writer (the login/logout
// handlers) and an explicit logged-out zero value that handlers check
// before touching the network.
package session

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CookieName carries the gateway session id.
const CookieName = "giftbloom_session"

const contextKey = "session_identity"

// Identity is who a session belongs to. The zero value means logged out.
type Identity struct {
	SessionID string
	UserID    string
}

// LoggedIn reports whether the identity carries a user.
func (id Identity) LoggedIn() bool {
	return id.UserID != ""
}

// Store is an in-memory session table. Sessions live for the process
// lifetime, mirroring the tab-scoped sessionStorage of the original app.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]Identity
}

// NewStore creates an empty session table.
func NewStore() *Store {
	return &Store{sessions: make(map[string]Identity)}
}

// Login records a user id under a fresh session and returns it.
func (s *Store) Login(userID string) Identity {
	id := Identity{SessionID: uuid.New().String(), UserID: userID}
	s.mu.Lock()
	s.sessions[id.SessionID] = id
	s.mu.Unlock()
	return id
}

// Logout drops the session entirely.
func (s *Store) Logout(sessionID string) {
	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()
}

// Get looks up the identity for a session id. Unknown ids come back logged
// out rather than as an error.
func (s *Store) Get(sessionID string) Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessions[sessionID]
}

// Middleware resolves the session cookie into an Identity on the gin
// context. It never rejects; handlers decide what a missing login means.
func (s *Store) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(CookieName); err == nil {
			c.Set(contextKey, s.Get(cookie))
		} else {
			c.Set(contextKey, Identity{})
		}
		c.Next()
	}
}

// FromContext returns the identity the middleware resolved.
func FromContext(c *gin.Context) Identity {
	if v, ok := c.Get(contextKey); ok {
		if id, ok := v.(Identity); ok {
			return id
		}
	}
	return Identity{}
}

// RequireLogin aborts with a "please login" body when the session has no
// user, before any network call is made.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !FromContext(c).LoggedIn() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Please login to continue",
			})
			return
		}
		c.Next()
	}
}
