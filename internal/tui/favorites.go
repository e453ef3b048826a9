package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/domain"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/favorites"
)

const emptyText = "ยังไม่มีรายการสูตรอาหารสุดโปรด"

// Controller is the favorites list controller as the view drives it.
type Controller interface {
	Start()
	State() favorites.State
	OnChange(fn func(favorites.State)) func()
	OnSearchInput(text string)
	NextPage()
	PrevPage()
	Refresh()
	Remove(id domain.ID) error
	Close()
}

type stateMsg favorites.State

type removedMsg struct{ err error }

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E030F6"))
	cardStyle     = lipgloss.NewStyle().PaddingLeft(2)
	selectedStyle = lipgloss.NewStyle().PaddingLeft(1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("#E030F6"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// FavoritesModel renders the favorites list and forwards keys to the
// controller. Controller changes arrive as stateMsg.
type FavoritesModel struct {
	ctrl     Controller
	updates  chan favorites.State
	unsub    func()
	unfollow func()

	search       textinput.Model
	searchActive bool

	st     favorites.State
	cursor int
	notice string
	width  int
}

// NewFavoritesModel subscribes to ctrl. The observer never blocks the
// controller: when the view lags, only the newest snapshot is kept.
func NewFavoritesModel(ctrl Controller) *FavoritesModel {
	in := textinput.New()
	in.Placeholder = "ค้นหาสูตรอาหาร..."
	in.CharLimit = 100
	in.Width = 40

	st := ctrl.State()
	in.SetValue(st.Input)

	m := &FavoritesModel{
		ctrl:    ctrl,
		updates: make(chan favorites.State, 1),
		search:  in,
		st:      st,
	}
	m.unsub = ctrl.OnChange(m.push)
	return m
}

// Follow reloads the list when another view (a browser tab, another
// terminal) changes one of userID's favorites. Local changes are already
// reflected by the controller and are ignored.
func (m *FavoritesModel) Follow(bus *events.Bus, userID string) {
	if bus == nil {
		return
	}
	if m.unfollow != nil {
		m.unfollow()
	}
	ctrl := m.ctrl
	m.unfollow = bus.FavoriteChanged.Subscribe(func(ev events.FavoriteChanged) {
		if !ev.Remote || (userID != "" && ev.UserID != userID) {
			return
		}
		ctrl.Refresh()
	})
}

func (m *FavoritesModel) push(s favorites.State) {
	for {
		select {
		case m.updates <- s:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

func (m *FavoritesModel) waitForState() tea.Cmd {
	ch := m.updates
	return func() tea.Msg {
		return stateMsg(<-ch)
	}
}

func (m *FavoritesModel) Init() tea.Cmd {
	m.ctrl.Start()
	return tea.Batch(m.waitForState(), textinput.Blink)
}

func (m *FavoritesModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stateMsg:
		if msg.Version < m.st.Version {
			return m, m.waitForState()
		}
		m.st = favorites.State(msg)
		if m.cursor >= len(m.st.Items) {
			m.cursor = max(0, len(m.st.Items)-1)
		}
		return m, m.waitForState()

	case removedMsg:
		switch {
		case errors.Is(msg.err, favorites.ErrRemoveInFlight):
			m.notice = "กำลังลบรายการก่อนหน้า"
		case msg.err != nil:
			m.notice = "ลบไม่สำเร็จ: " + msg.err.Error()
		default:
			m.notice = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *FavoritesModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, m.quit()
	case "/":
		if !m.searchActive {
			m.searchActive = true
			return m, m.search.Focus()
		}
	case "esc", "enter":
		if m.searchActive {
			m.searchActive = false
			m.search.Blur()
			return m, nil
		}
		if msg.String() == "esc" {
			return m, m.quit()
		}
	}

	if m.searchActive {
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if v := m.search.Value(); v != before {
			m.ctrl.OnSearchInput(v)
		}
		return m, cmd
	}

	switch msg.String() {
	case "q":
		return m, m.quit()
	case "left", "h":
		m.ctrl.PrevPage()
	case "right", "l":
		m.ctrl.NextPage()
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.st.Items)-1 {
			m.cursor++
		}
	case "d", "delete":
		if m.cursor < len(m.st.Items) {
			id := m.st.Items[m.cursor].ID
			ctrl := m.ctrl
			return m, func() tea.Msg { return removedMsg{err: ctrl.Remove(id)} }
		}
	}
	return m, nil
}

func (m *FavoritesModel) quit() tea.Cmd {
	if m.unsub != nil {
		m.unsub()
		m.unsub = nil
	}
	if m.unfollow != nil {
		m.unfollow()
		m.unfollow = nil
	}
	m.ctrl.Close()
	return tea.Quit
}

func (m *FavoritesModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("สูตรอาหารสุดโปรด"))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n\n")

	switch {
	case m.st.IsLoading && len(m.st.Items) == 0:
		b.WriteString(mutedStyle.Render("กำลังโหลด..."))
		b.WriteString("\n")
	case m.st.IsError:
		b.WriteString(errorStyle.Render("โหลดรายการไม่สำเร็จ"))
		b.WriteString("\n")
	case len(m.st.Items) == 0:
		b.WriteString(emptyText)
		b.WriteString("\n")
	default:
		for i, it := range m.st.Items {
			style := cardStyle
			if i == m.cursor && !m.searchActive {
				style = selectedStyle
			}
			b.WriteString(style.Render(renderCard(it)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.statusLine())
	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("/ ค้นหา • ←/→ เปลี่ยนหน้า • ↑/↓ เลือก • d ลบ • q ออก"))
	return b.String()
}

func (m *FavoritesModel) statusLine() string {
	pages := m.st.TotalPages()
	if pages == 0 {
		pages = 1
	}
	parts := []string{fmt.Sprintf("หน้า %d/%d", m.st.Page, pages), fmt.Sprintf("%d รายการ", m.st.Total)}
	if m.st.IsLoading {
		parts = append(parts, "กำลังโหลด")
	}
	if m.st.IsRemoving {
		parts = append(parts, "กำลังลบ")
	}
	if m.st.RemoveErr != nil {
		parts = append(parts, errorStyle.Render("ลบไม่สำเร็จ"))
	}
	parts = append(parts, m.st.URL)
	return mutedStyle.Render(strings.Join(parts, " • "))
}

func renderCard(r domain.RecipeSummary) string {
	marker := "♡"
	if r.IsFavorite() {
		marker = "♥"
	}
	rating := "-"
	if r.AverageRating != nil {
		rating = fmt.Sprintf("%.1f", *r.AverageRating)
	}
	return fmt.Sprintf("%s %s\n  %s • %s • ★ %s",
		marker, r.Name, fallback(r.Difficulty.Name), fallback(r.CookingDuration.Name), rating)
}

func fallback(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
