package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultMaxBody = 10 << 20

// ErrBodyTooLarge means the backend answered with more than MaxBody bytes.
var ErrBodyTooLarge = errors.New("upstream body too large")

// Request is one browser call to relay to the recipe backend.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Body          []byte
	Authorization string
	RequestID     string
}

// Response is the backend answer, copied verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// OK reports a 2xx status.
func (r Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Forwarder relays requests to Base. It does not retry.
type Forwarder struct {
	Base   string
	Client *http.Client
	Log    *zap.Logger
	// MaxBody caps the buffered response; zero means 10 MiB.
	MaxBody int64
}

func NewForwarder(base string, log *zap.Logger) *Forwarder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Forwarder{
		Base:    strings.TrimRight(base, "/"),
		Client:  &http.Client{Timeout: 20 * time.Second},
		Log:     log,
		MaxBody: defaultMaxBody,
	}
}

func (f *Forwarder) Forward(ctx context.Context, in Request) (Response, error) {
	target := f.Base + in.Path
	if in.RawQuery != "" {
		target += "?" + in.RawQuery
	}

	var body io.Reader
	if in.Body != nil {
		body = bytes.NewReader(in.Body)
	}
	req, err := http.NewRequestWithContext(ctx, in.Method, target, body)
	if err != nil {
		return Response{}, fmt.Errorf("build %s %s: %w", in.Method, in.Path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if in.Authorization != "" {
		req.Header.Set("Authorization", in.Authorization)
	}
	if in.RequestID != "" {
		req.Header.Set("X-Request-ID", in.RequestID)
	}

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("%s %s: %w", in.Method, in.Path, err)
	}
	defer resp.Body.Close()

	limit := f.MaxBody
	if limit <= 0 {
		limit = defaultMaxBody
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Response{}, fmt.Errorf("read %s %s: %w", in.Method, in.Path, err)
	}
	if int64(len(b)) > limit {
		return Response{}, fmt.Errorf("read %s %s: %w (limit %d bytes)", in.Method, in.Path, ErrBodyTooLarge, limit)
	}

	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/json"
	}
	f.Log.Debug("upstream",
		zap.String("method", in.Method),
		zap.String("path", in.Path),
		zap.Int("status", resp.StatusCode),
		zap.Int64("latency_ms", time.Since(start).Milliseconds()),
	)
	return Response{Status: resp.StatusCode, ContentType: ct, Body: b}, nil
}
