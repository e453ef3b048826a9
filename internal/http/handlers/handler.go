package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/apiclient"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/proxy"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/services"
)

// Forwarder relays one request to the recipe backend.
type Forwarder interface {
	Forward(ctx context.Context, in proxy.Request) (proxy.Response, error)
}

// Sessions is what the auth endpoints need from the session service.
type Sessions interface {
	BeginSignIn(ctx context.Context, callbackURL string) (string, error)
	SignIn(ctx context.Context, code, state string) (services.SignInResult, error)
	SignOut(ctx context.Context, cookie, postLogoutRedirect string) (string, error)
	Profile(ctx context.Context, sess domain.Session) services.SessionView
}

// Handler carries the gateway's dependencies into the route handlers.
type Handler struct {
	Forwarder Forwarder
	Sessions  Sessions
	Bus       *events.Bus
	Recipes   *apiclient.Client
	Export    services.ExportService
	Keycloak  KeycloakSettings
	Cookie    CookieSettings
	Checks    map[string]Check
	Log       *zap.Logger

	engine *gin.Engine
}

type KeycloakSettings struct {
	Issuer                string
	PostLogoutRedirectURI string
}

type CookieSettings struct {
	Secure bool
}

func (h *Handler) log() *zap.Logger {
	if h.Log != nil {
		return h.Log
	}
	return zap.NewNop()
}

// cookieName is shared with the session middleware.
const cookieName = auth.CookieName
