package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/middleware"
)

// SignIn starts the code flow; callbackUrl is where the browser lands after.
func (h *Handler) SignIn(c *gin.Context) {
	loginURL, err := h.Sessions.BeginSignIn(c.Request.Context(), c.Query("callbackUrl"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Redirect(http.StatusFound, loginURL)
}

func (h *Handler) Callback(c *gin.Context) {
	if e := c.Query("error"); e != "" {
		RespondError(c, http.StatusUnauthorized, "sign-in was cancelled", nil)
		return
	}
	res, err := h.Sessions.SignIn(c.Request.Context(), c.Query("code"), c.Query("state"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	h.setCookie(c, res.Cookie, int(res.Expires.Sub(res.Session.CreatedAt).Seconds()))
	c.Redirect(http.StatusFound, res.Redirect)
}

// Session mirrors the session endpoint the browser polls: {} when signed out.
func (h *Handler) Session(c *gin.Context) {
	sess, ok := middleware.CurrentSession(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, h.Sessions.Profile(c.Request.Context(), sess))
}

func (h *Handler) Logout(c *gin.Context) {
	if strings.TrimSpace(h.Keycloak.Issuer) == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "KEYCLOAK_ISSUER not configured"})
		return
	}
	cookie, _ := c.Cookie(cookieName)
	redirect := auth.NormalizePostLogoutRedirect(h.Keycloak.PostLogoutRedirectURI, requestOrigin(c))

	logoutURL, err := h.Sessions.SignOut(c.Request.Context(), cookie, redirect)
	h.clearCookie(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.Redirect(http.StatusFound, logoutURL)
}

func (h *Handler) SignedOut(c *gin.Context) {
	h.clearCookie(c)
	c.JSON(http.StatusOK, gin.H{"signedOut": true})
}

func (h *Handler) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, value, maxAge, "/", "", h.Cookie.Secure, true)
}

func (h *Handler) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(cookieName, "", -1, "/", "", h.Cookie.Secure, true)
}

// requestOrigin is scheme://host as the browser sees it.
func requestOrigin(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := c.GetHeader("X-Forwarded-Proto"); p != "" {
		scheme = strings.TrimSpace(strings.Split(p, ",")[0])
	}
	return scheme + "://" + c.Request.Host
}
