package favorites

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
)

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, f: f}
	c.timers = append(c.timers, t)
	return t
}

// FireAll runs every timer that is neither stopped nor already fired.
func (c *fakeClock) FireAll() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()
	for _, f := range due {
		f()
	}
}

type listResult struct {
	res domain.ListResult
	err error
}

type listCall struct {
	q     domain.PageQuery
	reply chan listResult
}

// fakeAPI answers immediately through respond, or parks calls until the
// test releases them when respond is nil.
type fakeAPI struct {
	mu         sync.Mutex
	respond    func(q domain.PageQuery) (domain.ListResult, error)
	lists      []domain.PageQuery
	parked     chan *listCall
	deleteErr  error
	deleted    []domain.ID
	deleteHold chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{parked: make(chan *listCall, 16)}
}

func (f *fakeAPI) ListFavorites(ctx context.Context, q domain.PageQuery) (domain.ListResult, error) {
	f.mu.Lock()
	f.lists = append(f.lists, q)
	respond := f.respond
	f.mu.Unlock()

	if respond != nil {
		return respond(q)
	}
	call := &listCall{q: q, reply: make(chan listResult, 1)}
	f.parked <- call
	select {
	case r := <-call.reply:
		return r.res, r.err
	case <-ctx.Done():
		return domain.ListResult{}, ctx.Err()
	}
}

func (f *fakeAPI) DeleteFavorite(ctx context.Context, id domain.ID) error {
	f.mu.Lock()
	hold := f.deleteHold
	f.mu.Unlock()
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAPI) listCalls() []domain.PageQuery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.PageQuery(nil), f.lists...)
}

func recipes(ids ...int) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.RecipeSummary{
			ID:       domain.ID(fmt.Sprint(id)),
			Name:     fmt.Sprintf("recipe %d", id),
			Favorite: domain.Favorite{ID: id},
		})
	}
	return out
}

// pagedBackend serves total favorites in pages, honoring page and limit.
func pagedBackend(total int) func(q domain.PageQuery) (domain.ListResult, error) {
	return func(q domain.PageQuery) (domain.ListResult, error) {
		start := (q.Page - 1) * q.Limit
		var ids []int
		for i := start; i < total && i < start+q.Limit; i++ {
			ids = append(ids, i+1)
		}
		return domain.ListResult{Items: recipes(ids...), Total: total}, nil
	}
}

var errBackend = errors.New("backend down")
