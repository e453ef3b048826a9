package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeOAuth2 struct {
	token *oauth2.Token
	err   error
}

func (f fakeOAuth2) AuthCodeURL(state string, _ ...oauth2.AuthCodeOption) string {
	return "http://host.docker.internal:8081/realms/wongnok/protocol/openid-connect/auth?state=" + state
}

func (f fakeOAuth2) Exchange(context.Context, string, ...oauth2.AuthCodeOption) (*oauth2.Token, error) {
	return f.token, f.err
}

type jsonToken map[string]any

func (j jsonToken) Claims(v any) error {
	b, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

type fakeVerifier struct {
	tok IDToken
	err error
}

func (f fakeVerifier) Verify(context.Context, string) (IDToken, error) { return f.tok, f.err }

func testProvider(oc OAuth2Config, v TokenVerifier) *Provider {
	return &Provider{
		Keycloak: config.Keycloak{URL: "http://host.docker.internal:8081", Realm: "wongnok", ClientID: "web"},
		OAuth2:   oc,
		Verifier: v,
	}
}

func TestAuthCodeURLRewritesDockerHost(t *testing.T) {
	p := testProvider(fakeOAuth2{}, nil)
	got := p.AuthCodeURL("abc")
	assert.Equal(t, "http://localhost:8081/realms/wongnok/protocol/openid-connect/auth?state=abc", got)
}

func TestExchange(t *testing.T) {
	tok := (&oauth2.Token{AccessToken: "at", RefreshToken: "rt"}).WithExtra(map[string]any{"id_token": "idt"})
	p := testProvider(fakeOAuth2{token: tok}, nil)

	cred, err := p.Exchange(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "at", cred.AccessToken)
	assert.Equal(t, "idt", cred.IDToken)
	assert.Equal(t, "idt", cred.Bearer())

	p = testProvider(fakeOAuth2{token: &oauth2.Token{AccessToken: "at"}}, nil)
	_, err = p.Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "id token is missing")

	p = testProvider(fakeOAuth2{err: errors.New("bad code")}, nil)
	_, err = p.Exchange(context.Background(), "code")
	assert.ErrorContains(t, err, "exchange token: bad code")
}

func TestVerifyReadsClaims(t *testing.T) {
	p := testProvider(nil, fakeVerifier{tok: jsonToken{
		"sub": "u-1", "given_name": "Somchai", "family_name": "Jaidee", "email": "s@example.com",
	}})
	c, err := p.Verify(context.Background(), "raw")
	require.NoError(t, err)
	assert.Equal(t, "u-1", c.Subject)
	assert.Equal(t, "Somchai Jaidee", c.DisplayName())

	p = testProvider(nil, fakeVerifier{tok: jsonToken{"email": "x@example.com"}})
	_, err = p.Verify(context.Background(), "raw")
	assert.Error(t, err)

	p = testProvider(nil, fakeVerifier{err: errors.New("expired")})
	_, err = p.Verify(context.Background(), "raw")
	assert.ErrorContains(t, err, "verify token")
}

func TestLogoutURL(t *testing.T) {
	p := testProvider(nil, nil)
	got, err := p.LogoutURL(LogoutQuery{IDTokenHint: "idt", PostLogoutRedirectURI: "http://localhost:3000/auth/signed-out"})
	require.NoError(t, err)

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "localhost:8081", u.Host)
	assert.Equal(t, "/realms/wongnok/protocol/openid-connect/logout", u.Path)
	assert.Equal(t, "idt", u.Query().Get("id_token_hint"))
	assert.False(t, u.Query().Has("client_id"))

	p.Keycloak.Realm = ""
	_, err = p.LogoutURL(LogoutQuery{})
	assert.Error(t, err)
}

func TestNormalizePostLogoutRedirect(t *testing.T) {
	origin := "http://localhost:3000"
	assert.Equal(t, "http://localhost:3000/auth/signed-out", NormalizePostLogoutRedirect("", origin))
	assert.Equal(t, "http://localhost:3000/auth/signed-out", NormalizePostLogoutRedirect("::nope", origin))
	assert.Equal(t, "https://wongnok.example/auth/signed-out", NormalizePostLogoutRedirect("https://wongnok.example/", origin))
	assert.Equal(t, "https://wongnok.example/bye", NormalizePostLogoutRedirect("https://wongnok.example/bye", origin))
}

func TestGenerateStateIsRandom(t *testing.T) {
	a, err := GenerateState()
	require.NoError(t, err)
	b, err := GenerateState()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.Len(t, a, 43)
}
