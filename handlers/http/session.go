package httpHandler

import (
	"net/http"
	"net/url"
	"time"

	"articles-server/entities"
	"articles-server/usecases"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityKey = "identity"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Sessions resolves the session cookie into an identity for each request.
type Sessions struct {
	auth   *usecases.AuthUseCase
	cookie CookieConfig
	log    *zap.Logger
}

func NewSessions(auth *usecases.AuthUseCase, cookie CookieConfig, log *zap.Logger) *Sessions {
	return &Sessions{auth: auth, cookie: cookie, log: log}
}

// LoadIdentity stores the current user, if any, in the gin context.
func (s *Sessions) LoadIdentity(c *gin.Context) {
	token, err := c.Cookie(s.cookie.Name)
	if err != nil || token == "" {
		c.Next()
		return
	}

	user, err := s.auth.CurrentIdentity(c.Request.Context(), token)
	if err != nil {
		s.log.Error("resolve session", zap.Error(err))
		renderServerError(c)
		c.Abort()
		return
	}
	if user == nil {
		// stale or revoked cookie
		s.clear(c)
	} else {
		c.Set(identityKey, user)
	}
	c.Next()
}

// Identity returns the authenticated user for this request, or nil.
func Identity(c *gin.Context) *entities.User {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	user, _ := v.(*entities.User)
	return user
}

// RequireLogin redirects anonymous visitors to the login page, keeping
// the requested URI in ?next= for the post-login redirect.
func RequireLogin(c *gin.Context) {
	if Identity(c) != nil {
		c.Next()
		return
	}
	addFlash(c, "info", "Please log in to access this page.")
	c.Redirect(http.StatusFound, "/login?next="+url.QueryEscape(c.Request.URL.RequestURI()))
	c.Abort()
}

// RequireAPILogin answers 401 for anonymous JSON and websocket requests.
func RequireAPILogin(c *gin.Context) {
	if Identity(c) != nil {
		c.Next()
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
}

// RedirectIfAuthenticated keeps logged-in users away from login and register.
func RedirectIfAuthenticated(c *gin.Context) {
	if Identity(c) != nil {
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}
	c.Next()
}

func (s *Sessions) token(c *gin.Context) string {
	token, err := c.Cookie(s.cookie.Name)
	if err != nil {
		return ""
	}
	return token
}

// set writes the session cookie. Without remember-me the cookie lives
// until the browser closes; the server-side expiry still applies.
func (s *Sessions) set(c *gin.Context, grant *usecases.SessionGrant) {
	maxAge := 0
	if grant.Remember {
		maxAge = int(time.Until(grant.ExpiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie.Name, grant.Token, maxAge, "/", "", s.cookie.Secure, true)
}

func (s *Sessions) clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookie.Name, "", -1, "/", "", s.cookie.Secure, true)
}
