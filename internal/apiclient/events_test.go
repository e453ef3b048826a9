package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
)

func TestStreamFavoriteEventsDecodesFavoriteFrames(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events", r.URL.Path)
		cookie, err := r.Cookie(auth.CookieName)
		if assert.NoError(t, err) {
			assert.Equal(t, "sess-jwt", cookie.Value)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "event:ready\ndata:{\"userId\":\"u-1\"}\n\n")
		_, _ = io.WriteString(w, "event:ping\ndata:1700000000\n\n")
		_, _ = io.WriteString(w, "event:favorite\ndata:{\"id\":\"7\",\"userId\":\"u-1\",\"action\":\"deleted\"}\n\n")
		_, _ = io.WriteString(w, "event: favorite\ndata: {\"id\":\"8\",\"userId\":\"u-1\",\"action\":\"created\"}\n\n")
	}))
	defer srv.Close()

	var got []events.FavoriteChanged
	err := New(srv.URL, nil, nil).StreamFavoriteEvents(context.Background(), "sess-jwt", func(ev events.FavoriteChanged) {
		got = append(got, ev)
	})
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []events.FavoriteChanged{
		{ID: "7", UserID: "u-1", Action: events.ActionDeleted, Remote: true},
		{ID: "8", UserID: "u-1", Action: events.ActionCreated, Remote: true},
	}, got)
}

func TestStreamFavoriteEventsRejectedSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"sign in to subscribe"}`)
	}))
	defer srv.Close()

	err := New(srv.URL, nil, nil).StreamFavoriteEvents(context.Background(), "stale", func(events.FavoriteChanged) {
		t.Fatal("no events expected")
	})
	assert.True(t, domain.IsUnauthorized(err))
}

func TestTokenSubject(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "kc-user-1"}).SignedString([]byte("k"))
	require.NoError(t, err)

	assert.Equal(t, "kc-user-1", TokenSubject(tok))
	assert.Empty(t, TokenSubject("opaque-access-token"))
}
