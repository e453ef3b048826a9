package favorites

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"go.uber.org/zap"
)

var (
	ErrRemoveInFlight = errors.New("a removal is already in progress")
	ErrClosed         = errors.New("favorites controller is closed")
)

// API is the slice of the recipe API the favorites view needs.
type API interface {
	ListFavorites(ctx context.Context, q domain.PageQuery) (domain.ListResult, error)
	DeleteFavorite(ctx context.Context, id domain.ID) error
}

// State is what the view renders. Snapshots are independent copies.
type State struct {
	Items  []domain.RecipeSummary
	Total  int
	Page   int
	Limit  int
	Search string
	Input  string
	URL    string

	IsLoading  bool
	IsError    bool
	IsRemoving bool
	FetchErr   error
	RemoveErr  error

	// Version grows with every transition; a higher version is newer.
	Version uint64
}

// TotalPages is ceil(Total/Limit).
func (s State) TotalPages() int {
	return domain.TotalPages(s.Total, s.Limit)
}

func (s State) clone() State {
	items := make([]domain.RecipeSummary, len(s.Items))
	copy(items, s.Items)
	s.Items = items
	return s
}

type Options struct {
	Limit     int
	Path      string
	Navigator Navigator
	Bus       *events.Bus
	UserID    string
	Settle    time.Duration
	AfterFunc AfterFunc
	Log       *zap.Logger
}

// Controller drives the paginated "my favorites" list: URL sync, debounced
// search, last-request-wins fetching and confirmed removal.
type Controller struct {
	api  API
	opts Options
	sync *Synchronizer
	deb  *Debouncer
	log  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.Mutex
	st        State
	seq       uint64
	version   uint64
	closed    bool
	nextObs   int
	observers map[int]func(State)

	deliverMu sync.Mutex
	delivered uint64
}

// New builds a controller positioned at initial (usually from ParseQuery).
func New(api API, initial domain.PageQuery, opts Options) *Controller {
	if opts.Limit < 1 {
		opts.Limit = domain.DefaultPageLimit
	}
	if opts.Path == "" {
		opts.Path = "/my-favorite"
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	initial.Limit = opts.Limit
	initial = initial.Normalize()

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		api:    api,
		opts:   opts,
		sync:   NewSynchronizer(opts.Path, opts.Navigator),
		deb:    NewDebouncer(opts.Settle, opts.AfterFunc),
		log:    log.Named("favorites"),
		ctx:    ctx,
		cancel: cancel,
		st: State{
			Items:  []domain.RecipeSummary{},
			Page:   initial.Page,
			Limit:  initial.Limit,
			Search: initial.Search,
			Input:  initial.Search,
		},
		observers: map[int]func(State){},
	}
}

// Start syncs the URL and loads the current page.
func (c *Controller) Start() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.syncLocked()
	c.fetchLocked()
	c.unlockAndNotify()
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.clone()
}

// OnChange registers fn to receive a snapshot after every transition.
func (c *Controller) OnChange(fn func(State)) func() {
	c.mu.Lock()
	id := c.nextObs
	c.nextObs++
	c.observers[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// OnSearchInput shows text right away and sends the search once input settles.
func (c *Controller) OnSearchInput(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.st.Input = text
	c.unlockAndNotify()

	c.deb.Trigger(func() { c.settleSearch(text) })
}

func (c *Controller) settleSearch(text string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	// a new search invalidates the old pagination position
	c.st.Page = 1
	c.st.Search = text
	c.syncLocked()
	c.fetchLocked()
	c.unlockAndNotify()
}

// NextPage moves forward unless already on the last page.
func (c *Controller) NextPage() {
	c.mu.Lock()
	if c.closed || c.st.Page >= c.st.TotalPages() {
		c.mu.Unlock()
		return
	}
	c.st.Page++
	c.syncLocked()
	c.fetchLocked()
	c.unlockAndNotify()
}

// PrevPage moves back unless already on page 1.
func (c *Controller) PrevPage() {
	c.mu.Lock()
	if c.closed || c.st.Page <= 1 {
		c.mu.Unlock()
		return
	}
	c.st.Page--
	c.syncLocked()
	c.fetchLocked()
	c.unlockAndNotify()
}

// Refresh reloads the current page, for when another view changed a
// favorite shown here.
func (c *Controller) Refresh() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.fetchLocked()
	c.unlockAndNotify()
}

// Remove deletes the favorite and updates the list once the server confirms.
// Nothing changes locally when the delete fails; the error is kept in
// RemoveErr so the view can offer a retry. Only one removal runs at a time.
func (c *Controller) Remove(id domain.ID) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.st.IsRemoving {
		c.mu.Unlock()
		return ErrRemoveInFlight
	}
	startPage := c.st.Page
	wasLastOnPage := len(c.st.Items) == 1 && startPage > 1
	c.st.IsRemoving = true
	c.st.RemoveErr = nil
	c.unlockAndNotify()

	err := c.api.DeleteFavorite(c.ctx, id)

	c.mu.Lock()
	c.st.IsRemoving = false
	if c.closed {
		c.mu.Unlock()
		return err
	}
	if err != nil {
		c.st.RemoveErr = err
		c.log.Error("remove favorite failed", zap.String("id", id.String()), zap.Error(err))
		c.unlockAndNotify()
		return err
	}

	kept := c.st.Items[:0:0]
	for _, it := range c.st.Items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	if len(kept) < len(c.st.Items) && c.st.Total > 0 {
		c.st.Total--
	}
	c.st.Items = kept

	// the user may have paged while the delete was in flight; only step back
	// from the page the item was removed on
	if wasLastOnPage && c.st.Page == startPage {
		c.st.Page = startPage - 1
		c.syncLocked()
	}
	// total is only advisory until the server count comes back
	c.fetchLocked()
	c.unlockAndNotify()

	if c.opts.Bus != nil {
		c.opts.Bus.FavoriteChanged.Publish(events.FavoriteChanged{
			ID:     id.String(),
			UserID: c.opts.UserID,
			Action: events.ActionDeleted,
		})
	}
	return nil
}

// Close cancels the pending search and stops applying results.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.deb.Stop()
	c.cancel()
}

// Wait blocks until every in-flight request has returned.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) query() domain.PageQuery {
	return domain.PageQuery{Page: c.st.Page, Limit: c.st.Limit, Search: c.st.Search}
}

func (c *Controller) syncLocked() {
	c.st.URL = c.sync.Sync(c.query())
}

// fetchLocked issues a request tagged with a fresh sequence number. Only the
// response to the latest tag is ever applied.
func (c *Controller) fetchLocked() {
	c.seq++
	seq := c.seq
	q := c.query()
	c.st.IsLoading = true

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		res, err := c.api.ListFavorites(c.ctx, q)
		c.applyFetch(seq, q, res, err)
	}()
}

func (c *Controller) applyFetch(seq uint64, q domain.PageQuery, res domain.ListResult, err error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if seq != c.seq {
		c.log.Debug("discarding stale favorites response",
			zap.Uint64("seq", seq), zap.Uint64("latest", c.seq), zap.String("search", q.Search))
		c.mu.Unlock()
		return
	}

	c.st.IsLoading = false
	if err != nil {
		c.st.IsError = true
		c.st.FetchErr = err
		c.log.Error("favorites: fetch failed", zap.Int("page", q.Page), zap.String("search", q.Search), zap.Error(err))
		c.unlockAndNotify()
		return
	}

	items := res.Items
	if len(items) > q.Limit {
		c.log.Warn("backend returned more items than requested", zap.Int("limit", q.Limit), zap.Int("got", len(items)))
		items = items[:q.Limit]
	}
	c.st.Items = append([]domain.RecipeSummary{}, items...)
	c.st.Total = res.Total
	c.st.IsError = false
	c.st.FetchErr = nil

	// the set shrank under us; go back to the first page rather than guess
	if c.st.Page > 1 && c.st.Page > domain.TotalPages(res.Total, q.Limit) {
		c.st.Page = 1
		c.syncLocked()
		c.fetchLocked()
	}
	c.unlockAndNotify()
}

// unlockAndNotify stamps a new version, releases c.mu and then hands the
// snapshot to every observer.
func (c *Controller) unlockAndNotify() {
	c.version++
	c.st.Version = c.version
	snap := c.st.clone()
	fns := make([]func(State), 0, len(c.observers))
	for _, fn := range c.observers {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	c.deliver(snap, fns)
}

// deliver runs observers one snapshot at a time, in version order. A
// snapshot that lost the race to a newer one is dropped: the newer one
// already carries the whole state. Observers run without c.mu, so they may
// read State, but they must not call back into a mutating method.
func (c *Controller) deliver(snap State, fns []func(State)) {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	if snap.Version <= c.delivered {
		return
	}
	c.delivered = snap.Version
	for _, fn := range fns {
		fn(snap)
	}
}
