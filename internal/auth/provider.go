package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// OAuth2Config is the part of *oauth2.Config the provider calls.
type OAuth2Config interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// IDToken is a verified token whose claims can be decoded.
type IDToken interface {
	Claims(v any) error
}

// TokenVerifier checks a raw id token.
type TokenVerifier interface {
	Verify(ctx context.Context, rawIDToken string) (IDToken, error)
}

type oidcVerifier struct{ v *oidc.IDTokenVerifier }

func (o oidcVerifier) Verify(ctx context.Context, raw string) (IDToken, error) {
	tok, err := o.v.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return tok, nil
}

// Credential is what the identity provider hands back after the code exchange.
type Credential struct {
	AccessToken  string
	IDToken      string
	RefreshToken string
	Expiry       time.Time
}

// Bearer picks the token the recipe backend verifies: id token first.
func (c Credential) Bearer() string {
	if c.IDToken != "" {
		return c.IDToken
	}
	return c.AccessToken
}

// Claims are the id token claims the gateway reads.
type Claims struct {
	Subject    string `json:"sub"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Email      string `json:"email"`
	Name       string `json:"name"`
}

// DisplayName joins given and family name, falling back to name then email.
func (c Claims) DisplayName() string {
	n := strings.TrimSpace(strings.TrimSpace(c.GivenName) + " " + strings.TrimSpace(c.FamilyName))
	if n != "" {
		return n
	}
	if c.Name != "" {
		return c.Name
	}
	return c.Email
}

// LogoutQuery carries the optional end-session parameters.
type LogoutQuery struct {
	IDTokenHint           string
	PostLogoutRedirectURI string
	ClientID              string
}

// Provider wraps the Keycloak realm: login URL, code exchange, id token
// verification and the end-session URL.
type Provider struct {
	Keycloak config.Keycloak
	OAuth2   OAuth2Config
	Verifier TokenVerifier
}

// NewProvider runs OIDC discovery against the realm. Issuer and audience
// checks are skipped: the browser and the gateway reach Keycloak under
// different host names.
func NewProvider(ctx context.Context, kc config.Keycloak) (*Provider, error) {
	issuer := kc.Issuer()
	if issuer == "" {
		return nil, errors.New("keycloak realm is not configured")
	}

	ctx = oidc.InsecureIssuerURLContext(ctx, browserURL(issuer))
	p, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, errors.Wrap(err, "oidc discovery")
	}

	oc := &oauth2.Config{
		ClientID:     kc.ClientID,
		ClientSecret: kc.ClientSecret,
		RedirectURL:  kc.RedirectURL,
		Endpoint:     p.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	v := p.Verifier(&oidc.Config{SkipClientIDCheck: true, SkipIssuerCheck: true})

	return &Provider{Keycloak: kc, OAuth2: oc, Verifier: oidcVerifier{v}}, nil
}

// GenerateState returns a random URL-safe login state.
func GenerateState() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "generate state")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// AuthCodeURL is the browser-facing login URL.
func (p *Provider) AuthCodeURL(state string) string {
	return browserURL(p.OAuth2.AuthCodeURL(state))
}

func (p *Provider) Exchange(ctx context.Context, code string) (Credential, error) {
	tok, err := p.OAuth2.Exchange(ctx, code)
	if err != nil {
		return Credential{}, errors.Wrap(err, "exchange token")
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		return Credential{}, errors.New("id token is missing")
	}
	return Credential{
		AccessToken:  tok.AccessToken,
		IDToken:      idToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.Expiry,
	}, nil
}

// Verify checks the id token and decodes its claims.
func (p *Provider) Verify(ctx context.Context, rawIDToken string) (Claims, error) {
	tok, err := p.Verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Claims{}, errors.Wrap(err, "verify token")
	}
	var c Claims
	if err := tok.Claims(&c); err != nil {
		return Claims{}, errors.Wrap(err, "decode claims")
	}
	if c.Subject == "" {
		return Claims{}, errors.New("id token has no subject")
	}
	return c, nil
}

// LogoutURL builds the realm end-session URL with only the non-empty params.
func (p *Provider) LogoutURL(q LogoutQuery) (string, error) {
	issuer := p.Keycloak.Issuer()
	if issuer == "" {
		return "", errors.New("keycloak realm is not configured")
	}
	u, err := url.Parse(browserURL(issuer) + "/protocol/openid-connect/logout")
	if err != nil {
		return "", errors.Wrap(err, "parse logout url")
	}
	v := u.Query()
	if q.IDTokenHint != "" {
		v.Set("id_token_hint", q.IDTokenHint)
	}
	if q.PostLogoutRedirectURI != "" {
		v.Set("post_logout_redirect_uri", q.PostLogoutRedirectURI)
	}
	if q.ClientID != "" {
		v.Set("client_id", q.ClientID)
	}
	u.RawQuery = v.Encode()
	return u.String(), nil
}

// NormalizePostLogoutRedirect sends empty, unparsable or bare-origin
// redirects to the signed-out page of origin.
func NormalizePostLogoutRedirect(raw, origin string) string {
	fallback := strings.TrimRight(origin, "/") + "/auth/signed-out"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fallback
	}
	if u.Path == "" || u.Path == "/" {
		return fmt.Sprintf("%s://%s/auth/signed-out", u.Scheme, u.Host)
	}
	return raw
}

// browserURL swaps the docker-internal host for one the browser can reach.
func browserURL(s string) string {
	return strings.Replace(s, "host.docker.internal", "localhost", 1)
}
