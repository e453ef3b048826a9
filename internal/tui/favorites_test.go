package tui

import (
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/favorites"
)

type fakeController struct {
	mu       sync.Mutex
	st       favorites.State
	obs      func(favorites.State)
	inputs   []string
	next     int
	prev     int
	refresh  int
	removed  []domain.ID
	removeFn func(domain.ID) error
	started  bool
	closed   bool
}

func (f *fakeController) Start()                 { f.started = true }
func (f *fakeController) State() favorites.State { return f.st }
func (f *fakeController) OnChange(fn func(favorites.State)) func() {
	f.obs = fn
	return func() { f.obs = nil }
}
func (f *fakeController) OnSearchInput(text string) { f.inputs = append(f.inputs, text) }
func (f *fakeController) NextPage()                 { f.next++ }
func (f *fakeController) PrevPage()                 { f.prev++ }
func (f *fakeController) Refresh()                  { f.refresh++ }
func (f *fakeController) Close()                    { f.closed = true }
func (f *fakeController) Remove(id domain.ID) error {
	f.mu.Lock()
	f.removed = append(f.removed, id)
	f.mu.Unlock()
	if f.removeFn != nil {
		return f.removeFn(id)
	}
	return nil
}

func recipes(ids ...domain.ID) []domain.RecipeSummary {
	out := make([]domain.RecipeSummary, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.RecipeSummary{ID: id, Name: "recipe", Favorite: domain.Favorite{ID: 1}})
	}
	return out
}

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestObserverKeepsOnlyNewestSnapshot(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)
	require.NotNil(t, ctrl.obs)

	// never blocks even though nobody is reading
	for page := 1; page <= 3; page++ {
		ctrl.obs(favorites.State{Page: page, Limit: 5})
	}

	msg := m.waitForState()()
	assert.Equal(t, 3, favorites.State(msg.(stateMsg)).Page)
}

func TestStateMsgUpdatesViewAndClampsCursor(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)

	m.Update(stateMsg(favorites.State{Items: recipes("1", "2", "3"), Total: 3, Page: 1, Limit: 5, URL: "/my-favorite?page=1"}))
	m.Update(key("down"))
	m.Update(key("down"))
	assert.Equal(t, 2, m.cursor)

	m.Update(stateMsg(favorites.State{Items: recipes("1"), Total: 1, Page: 1, Limit: 5}))
	assert.Equal(t, 0, m.cursor)
}

func TestOlderStateMsgIsIgnored(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)

	m.Update(stateMsg(favorites.State{Items: recipes("1", "2"), Total: 2, Page: 1, Limit: 5, Version: 4}))
	m.Update(stateMsg(favorites.State{IsLoading: true, Page: 1, Limit: 5, Version: 3}))

	assert.False(t, m.st.IsLoading)
	assert.Len(t, m.st.Items, 2)
	assert.Equal(t, uint64(4), m.st.Version)
}

func TestEmptyStateText(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5, Items: []domain.RecipeSummary{}}}
	m := NewFavoritesModel(ctrl)
	assert.Contains(t, m.View(), emptyText)
}

func TestPagingKeysReachController(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)

	m.Update(key("right"))
	m.Update(key("right"))
	m.Update(key("left"))
	assert.Equal(t, 2, ctrl.next)
	assert.Equal(t, 1, ctrl.prev)
}

func TestSearchForwardsEachEdit(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)

	m.Update(key("/"))
	require.True(t, m.searchActive)
	m.Update(key("t"))
	m.Update(key("o"))
	m.Update(key("enter"))

	assert.Equal(t, []string{"t", "to"}, ctrl.inputs)
	assert.False(t, m.searchActive)

	// paging keys are not swallowed by the search box once it loses focus
	m.Update(key("right"))
	assert.Equal(t, 1, ctrl.next)
}

func TestRemoveRunsAsCommand(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5, Items: recipes("7", "8")}}
	m := NewFavoritesModel(ctrl)
	m.Update(key("down"))

	_, cmd := m.Update(key("d"))
	require.NotNil(t, cmd)
	assert.Empty(t, ctrl.removed)

	msg := cmd()
	assert.Equal(t, []domain.ID{"8"}, ctrl.removed)

	m.Update(msg)
	assert.Empty(t, m.notice)
}

func TestRemoveFailureShowsNotice(t *testing.T) {
	ctrl := &fakeController{
		st:       favorites.State{Page: 1, Limit: 5, Items: recipes("7")},
		removeFn: func(domain.ID) error { return errors.New("boom") },
	}
	m := NewFavoritesModel(ctrl)

	_, cmd := m.Update(key("d"))
	m.Update(cmd())
	assert.Contains(t, m.View(), "boom")
}

func TestFollowRefreshesOnRemoteChangesOnly(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)
	bus := events.NewBus(nil)
	m.Follow(bus, "u-1")

	bus.FavoriteChanged.Publish(events.FavoriteChanged{ID: "7", UserID: "u-1", Action: events.ActionDeleted})
	bus.FavoriteChanged.Publish(events.FavoriteChanged{ID: "7", UserID: "u-2", Action: events.ActionDeleted, Remote: true})
	assert.Zero(t, ctrl.refresh)

	bus.FavoriteChanged.Publish(events.FavoriteChanged{ID: "7", UserID: "u-1", Action: events.ActionDeleted, Remote: true})
	assert.Equal(t, 1, ctrl.refresh)

	m.Update(key("q"))
	assert.Zero(t, bus.FavoriteChanged.Len())
}

func TestQuitClosesController(t *testing.T) {
	ctrl := &fakeController{st: favorites.State{Page: 1, Limit: 5}}
	m := NewFavoritesModel(ctrl)

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, ctrl.closed)
	assert.Nil(t, ctrl.obs)
}
