package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/utils"
)

// Identity is the OIDC side of sign-in.
type Identity interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (auth.Credential, error)
	Verify(ctx context.Context, rawIDToken string) (auth.Claims, error)
	LogoutURL(q auth.LogoutQuery) (string, error)
}

type SessionStore interface {
	Create(ctx context.Context, s domain.Session) error
	GetByID(ctx context.Context, id string, now time.Time) (domain.Session, error)
	Delete(ctx context.Context, id string) error
}

type LoginStates interface {
	Save(ctx context.Context, state, callbackURL string) error
	Consume(ctx context.Context, state string) (string, error)
}

// UserAPI is the user part of the recipe API, bound to one bearer token.
type UserAPI interface {
	UpsertMe(ctx context.Context) error
	GetMe(ctx context.Context) (domain.User, error)
}

// SessionService owns the gateway session: sign-in, cookie resolution,
// sign-out and the session view the browser reads.
type SessionService struct {
	Identity  Identity
	Sessions  SessionStore
	States    LoginStates
	Signer    auth.SessionSigner
	Users     func(bearer string) UserAPI
	ClientID  string
	Log       *zap.Logger
	RequestID string
	Now       func() time.Time
}

func (s SessionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s SessionService) log() *zap.Logger {
	if s.Log != nil {
		return s.Log
	}
	return zap.NewNop()
}

// BeginSignIn stores the callback URL under a fresh state and returns the
// identity provider login URL.
func (s SessionService) BeginSignIn(ctx context.Context, callbackURL string) (string, error) {
	state, err := auth.GenerateState()
	if err != nil {
		return "", domain.InternalError{Msg: "generate state", Err: err}
	}
	if err := s.States.Save(ctx, state, utils.SameOriginPath(callbackURL, "/")); err != nil {
		return "", domain.InternalError{Msg: "save login state", Err: err}
	}
	return s.Identity.AuthCodeURL(state), nil
}

type SignInResult struct {
	Session  domain.Session
	Cookie   string
	Expires  time.Time
	Redirect string
}

// SignIn completes the code flow: exchange, verify, persist, upsert the user
// in the recipe backend and sign the cookie.
func (s SessionService) SignIn(ctx context.Context, code, state string) (SignInResult, error) {
	callback, err := s.States.Consume(ctx, state)
	if err != nil {
		return SignInResult{}, domain.UnauthorizedError{Msg: "invalid login state", Err: err}
	}
	if code == "" {
		return SignInResult{}, domain.ValidationError{Field: "code", Msg: "missing authorization code"}
	}

	cred, err := s.Identity.Exchange(ctx, code)
	if err != nil {
		return SignInResult{}, domain.UnauthorizedError{Msg: "token exchange failed", Err: err}
	}
	claims, err := s.Identity.Verify(ctx, cred.IDToken)
	if err != nil {
		return SignInResult{}, domain.UnauthorizedError{Msg: "id token rejected", Err: err}
	}

	now := s.now()
	sess := domain.Session{
		ID:           uuid.NewString(),
		UserID:       claims.Subject,
		Name:         claims.DisplayName(),
		Email:        claims.Email,
		AccessToken:  cred.AccessToken,
		IDToken:      cred.IDToken,
		RefreshToken: cred.RefreshToken,
		CreatedAt:    now,
	}
	cookie, exp, err := s.Signer.Sign(sess.ID, sess.UserID)
	if err != nil {
		return SignInResult{}, domain.InternalError{Msg: "sign session", Err: err}
	}
	sess.ExpiresAt = exp
	if err := s.Sessions.Create(ctx, sess); err != nil {
		return SignInResult{}, errors.Wrap(err, "persist session")
	}

	if s.Users != nil {
		if err := s.Users(sess.Bearer()).UpsertMe(ctx); err != nil {
			s.log().Error("create user after sign-in", zap.String("user_id", sess.UserID), zap.Error(err))
		}
	}
	utils.LogEvent(s.log(), s.RequestID, "auth", "sign_in", "session created", zap.String("user_id", sess.UserID))

	return SignInResult{
		Session:  sess,
		Cookie:   cookie,
		Expires:  exp,
		Redirect: utils.SameOriginPath(callback, "/"),
	}, nil
}

// Resolve maps a cookie value to a live session.
func (s SessionService) Resolve(ctx context.Context, cookie string) (domain.Session, error) {
	if cookie == "" {
		return domain.Session{}, domain.UnauthorizedError{Msg: "no session"}
	}
	claims, err := s.Signer.Parse(cookie)
	if err != nil {
		return domain.Session{}, domain.UnauthorizedError{Msg: "invalid session", Err: err}
	}
	sess, err := s.Sessions.GetByID(ctx, claims.SessionID, s.now())
	if domain.IsNotFound(err) {
		return domain.Session{}, domain.UnauthorizedError{Msg: "session expired", Err: err}
	}
	if err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

// SignOut drops the session behind cookie (if any) and returns the identity
// provider end-session URL.
func (s SessionService) SignOut(ctx context.Context, cookie, postLogoutRedirect string) (string, error) {
	q := auth.LogoutQuery{PostLogoutRedirectURI: postLogoutRedirect, ClientID: s.ClientID}
	if sess, err := s.Resolve(ctx, cookie); err == nil {
		q.IDTokenHint = sess.IDToken
		if err := s.Sessions.Delete(ctx, sess.ID); err != nil {
			s.log().Warn("delete session on sign-out", zap.String("session_id", sess.ID), zap.Error(err))
		}
		utils.LogEvent(s.log(), s.RequestID, "auth", "sign_out", "session deleted", zap.String("user_id", sess.UserID))
	}
	return s.Identity.LogoutURL(q)
}

type SessionUser struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	NickName string `json:"nickName,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// SessionView is what GET /api/auth/session returns.
type SessionView struct {
	UserID      string      `json:"userId"`
	AccessToken string      `json:"accessToken"`
	IDToken     string      `json:"idToken,omitempty"`
	Expires     time.Time   `json:"expires"`
	User        SessionUser `json:"user"`
}

// Profile builds the session view, enriched with the backend profile when
// the backend answers.
func (s SessionService) Profile(ctx context.Context, sess domain.Session) SessionView {
	view := SessionView{
		UserID:      sess.UserID,
		AccessToken: sess.AccessToken,
		IDToken:     sess.IDToken,
		Expires:     sess.ExpiresAt,
		User:        SessionUser{Name: sess.Name, Email: sess.Email},
	}
	if s.Users == nil {
		return view
	}
	me, err := s.Users(sess.Bearer()).GetMe(ctx)
	if err != nil {
		s.log().Warn("unable to enrich session with user profile", zap.String("user_id", sess.UserID), zap.Error(err))
		return view
	}
	view.User.NickName = me.NickName
	view.User.ImageURL = me.ImageURL
	return view
}
