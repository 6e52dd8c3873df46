package session

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLogoutLifecycle(t *testing.T) {
	store := NewStore()

	id := store.Login("u1")
	require.True(t, id.LoggedIn())
	require.NotEmpty(t, id.SessionID)

	assert.Equal(t, "u1", store.Get(id.SessionID).UserID)

	store.Logout(id.SessionID)
	assert.False(t, store.Get(id.SessionID).LoggedIn())
}

func TestUnknownSessionIsLoggedOut(t *testing.T) {
	store := NewStore()
	assert.False(t, store.Get("nope").LoggedIn())
}

func TestRequireLoginBlocksWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore()

	called := false
	router := gin.New()
	router.Use(store.Middleware(), RequireLogin())
	router.GET("/cart", func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Please login")
	assert.False(t, called, "handler must not run for logged-out sessions")
}

func TestMiddlewareResolvesCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := NewStore()
	id := store.Login("u7")

	router := gin.New()
	router.Use(store.Middleware(), RequireLogin())
	router.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, FromContext(c).UserID)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: id.SessionID})
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u7", w.Body.String())
}
