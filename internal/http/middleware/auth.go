package middleware

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

const sessionKey = "session"

// SessionResolver maps a session cookie to a live session.
type SessionResolver interface {
	Resolve(ctx context.Context, cookie string) (domain.Session, error)
}

// LoadSession attaches the caller's session to the context when the cookie
// resolves. Requests without a session pass through.
func LoadSession(r SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(auth.CookieName); err == nil && cookie != "" {
			if sess, err := r.Resolve(c.Request.Context(), cookie); err == nil {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

// CurrentSession returns the session LoadSession attached, if any.
func CurrentSession(c *gin.Context) (domain.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return domain.Session{}, false
	}
	s, ok := v.(domain.Session)
	return s, ok
}

// Authorization is the header to send upstream: the browser's own, else the
// session bearer, else empty.
func Authorization(c *gin.Context) string {
	if h := strings.TrimSpace(c.GetHeader("Authorization")); h != "" {
		return h
	}
	if s, ok := CurrentSession(c); ok && s.Bearer() != "" {
		return "Bearer " + s.Bearer()
	}
	return ""
}

var protectedPages = []*regexp.Regexp{
	regexp.MustCompile(`^/create-recipe(/.*)?$`),
	regexp.MustCompile(`^/edit-recipe(/.*)?$`),
	regexp.MustCompile(`^/my-recipe$`),
	regexp.MustCompile(`^/my-profile$`),
	regexp.MustCompile(`^/my-favorite$`),
}

// IsProtectedPage reports whether path needs a signed-in session.
func IsProtectedPage(path string) bool {
	for _, re := range protectedPages {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}

// PageGuard sends anonymous visitors of protected pages to sign-in, keeping
// the page as callbackUrl. Run after LoadSession.
func PageGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsProtectedPage(c.Request.URL.Path) {
			c.Next()
			return
		}
		if _, ok := CurrentSession(c); ok {
			c.Next()
			return
		}
		cb := c.Request.URL.Path
		if c.Request.URL.RawQuery != "" {
			cb += "?" + c.Request.URL.RawQuery
		}
		c.Redirect(http.StatusFound, "/auth/signin?callbackUrl="+url.QueryEscape(cb))
		c.Abort()
	}
}
