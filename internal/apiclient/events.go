package apiclient

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
)

const eventsPath = "/api/v1/events"

// StreamFavoriteEvents follows the gateway event stream as the holder of the
// session cookie and hands every favorite event to fn, marked Remote. It
// returns when ctx ends or the stream breaks.
func (c *Client) StreamFavoriteEvents(ctx context.Context, session string, fn func(events.FavoriteChanged)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+eventsPath, nil)
	if err != nil {
		return fmt.Errorf("build GET %s: %w", eventsPath, err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: session})

	// the stream is long-lived; the per-call timeout does not apply
	hc := *c.HTTP
	hc.Timeout = 0

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", eventsPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		up := domain.UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
		if resp.StatusCode == http.StatusUnauthorized {
			return domain.UnauthorizedError{Msg: "gateway rejected the session", Err: up}
		}
		return up
	}

	var name string
	var data strings.Builder
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == "":
			if name == "favorite" && data.Len() > 0 {
				var ev events.FavoriteChanged
				if err := json.Unmarshal([]byte(data.String()), &ev); err != nil {
					c.Log.Warn("bad favorite event", zap.String("data", data.String()), zap.Error(err))
				} else {
					ev.Remote = true
					fn(ev)
				}
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read %s: %w", eventsPath, err)
	}
	return io.EOF
}
