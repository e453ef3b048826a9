package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

type fakeIdentity struct {
	cred      auth.Credential
	claims    auth.Claims
	verifyErr error
	logoutQ   auth.LogoutQuery
}

func (f *fakeIdentity) AuthCodeURL(state string) string {
	return "http://localhost:8081/auth?state=" + state
}

func (f *fakeIdentity) Exchange(context.Context, string) (auth.Credential, error) {
	return f.cred, nil
}

func (f *fakeIdentity) Verify(context.Context, string) (auth.Claims, error) {
	return f.claims, f.verifyErr
}

func (f *fakeIdentity) LogoutURL(q auth.LogoutQuery) (string, error) {
	f.logoutQ = q
	return "http://localhost:8081/logout", nil
}

type memSessions struct {
	rows map[string]domain.Session
}

func (m *memSessions) Create(_ context.Context, s domain.Session) error {
	m.rows[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(_ context.Context, id string, now time.Time) (domain.Session, error) {
	s, ok := m.rows[id]
	if !ok || s.Expired(now) {
		return domain.Session{}, domain.NotFoundError{Resource: "session"}
	}
	return s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	delete(m.rows, id)
	return nil
}

type memStates map[string]string

func (m memStates) Save(_ context.Context, state, cb string) error {
	m[state] = cb
	return nil
}

func (m memStates) Consume(_ context.Context, state string) (string, error) {
	cb, ok := m[state]
	if !ok {
		return "", auth.ErrUnknownState
	}
	delete(m, state)
	return cb, nil
}

type fakeUsers struct {
	bearers   []string
	upsertErr error
	me        domain.User
	meErr     error
}

func (f *fakeUsers) UpsertMe(context.Context) error { return f.upsertErr }

func (f *fakeUsers) GetMe(context.Context) (domain.User, error) { return f.me, f.meErr }

type sessionFixture struct {
	svc      SessionService
	identity *fakeIdentity
	sessions *memSessions
	states   memStates
	users    *fakeUsers
}

func newSessionFixture() *sessionFixture {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	f := &sessionFixture{
		identity: &fakeIdentity{
			cred:   auth.Credential{AccessToken: "at", IDToken: "idt"},
			claims: auth.Claims{Subject: "u-1", GivenName: "Somchai", Email: "s@example.com"},
		},
		sessions: &memSessions{rows: map[string]domain.Session{}},
		states:   memStates{},
		users:    &fakeUsers{},
	}
	signer := auth.NewSessionSigner("secret", time.Hour)
	signer.Now = func() time.Time { return now }
	f.svc = SessionService{
		Identity: f.identity,
		Sessions: f.sessions,
		States:   f.states,
		Signer:   signer,
		Users: func(bearer string) UserAPI {
			f.users.bearers = append(f.users.bearers, bearer)
			return f.users
		},
		ClientID: "web",
		Now:      func() time.Time { return now },
	}
	return f
}

func TestSignInFlow(t *testing.T) {
	f := newSessionFixture()
	ctx := context.Background()

	loginURL, err := f.svc.BeginSignIn(ctx, "/my-favorite?page=2")
	require.NoError(t, err)
	require.Len(t, f.states, 1)
	var state string
	for k, v := range f.states {
		state = k
		assert.Equal(t, "/my-favorite?page=2", v)
	}
	assert.Contains(t, loginURL, "state="+state)

	res, err := f.svc.SignIn(ctx, "code", state)
	require.NoError(t, err)
	assert.Equal(t, "/my-favorite?page=2", res.Redirect)
	assert.Equal(t, "u-1", res.Session.UserID)
	assert.Equal(t, []string{"idt"}, f.users.bearers)

	sess, err := f.svc.Resolve(ctx, res.Cookie)
	require.NoError(t, err)
	assert.Equal(t, res.Session.ID, sess.ID)

	_, err = f.svc.SignIn(ctx, "code", state)
	assert.True(t, domain.IsUnauthorized(err), "state must be single use")
}

func TestSignInRejectsForeignCallbackAndSurvivesUpsertFailure(t *testing.T) {
	f := newSessionFixture()
	f.users.upsertErr = errors.New("backend down")
	f.states["st"] = "https://evil.example/steal"

	res, err := f.svc.SignIn(context.Background(), "code", "st")
	require.NoError(t, err)
	assert.Equal(t, "/", res.Redirect)
}

func TestSignInVerifyFailure(t *testing.T) {
	f := newSessionFixture()
	f.identity.verifyErr = errors.New("bad signature")
	f.states["st"] = "/"

	_, err := f.svc.SignIn(context.Background(), "code", "st")
	assert.True(t, domain.IsUnauthorized(err))
	assert.Empty(t, f.sessions.rows)
}

func TestResolveRejectsMissingAndUnknown(t *testing.T) {
	f := newSessionFixture()
	_, err := f.svc.Resolve(context.Background(), "")
	assert.True(t, domain.IsUnauthorized(err))

	cookie, _, err := f.svc.Signer.Sign("nope", "u-1")
	require.NoError(t, err)
	_, err = f.svc.Resolve(context.Background(), cookie)
	assert.True(t, domain.IsUnauthorized(err))
}

func TestSignOutDeletesSessionAndHintsToken(t *testing.T) {
	f := newSessionFixture()
	f.states["st"] = "/"
	res, err := f.svc.SignIn(context.Background(), "code", "st")
	require.NoError(t, err)

	u, err := f.svc.SignOut(context.Background(), res.Cookie, "http://localhost:3000/auth/signed-out")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8081/logout", u)
	assert.Empty(t, f.sessions.rows)
	assert.Equal(t, auth.LogoutQuery{
		IDTokenHint:           "idt",
		PostLogoutRedirectURI: "http://localhost:3000/auth/signed-out",
		ClientID:              "web",
	}, f.identity.logoutQ)
}

func TestProfileEnrichment(t *testing.T) {
	f := newSessionFixture()
	sess := domain.Session{UserID: "u-1", Name: "Somchai", AccessToken: "at", IDToken: "idt"}

	f.users.me = domain.User{NickName: "chef", ImageURL: "https://img.example/a.png"}
	view := f.svc.Profile(context.Background(), sess)
	assert.Equal(t, "chef", view.User.NickName)
	assert.Equal(t, "https://img.example/a.png", view.User.ImageURL)
	assert.Equal(t, "Somchai", view.User.Name)

	f.users.meErr = errors.New("timeout")
	view = f.svc.Profile(context.Background(), sess)
	assert.Empty(t, view.User.NickName)
	assert.Equal(t, "idt", view.IDToken)
}
