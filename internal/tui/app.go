// Package tui implements the terminal dashboard: a tab bar over one page per
// dataset plus the accuracy page.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/agent-monitor/internal/datasets"
	"github.com/Sternrassler/agent-monitor/pkg/logging"
	"github.com/Sternrassler/agent-monitor/pkg/prefs"
)

// prefsSavedMsg reports the outcome of persisting the active tab.
type prefsSavedMsg struct {
	Tab string
	Err error
}

// App is the top-level Bubble Tea model that routes between tab pages.
type App struct {
	ctx    context.Context
	pages  map[string]Page
	order  []string
	active string
	store  prefs.Store
	keys   KeyMap
	logger zerolog.Logger

	width  int
	height int
}

// NewApp creates an App showing initial, or the first page when initial is
// unknown. Tab switches are saved to store.
func NewApp(ctx context.Context, store prefs.Store, initial string, keys KeyMap, pages ...Page) *App {
	if store == nil {
		store = prefs.NopStore{}
	}

	a := &App{
		ctx:    ctx,
		pages:  make(map[string]Page, len(pages)),
		store:  store,
		keys:   keys,
		logger: logging.NewLogger("tui"),
	}
	for _, p := range pages {
		a.pages[p.ID()] = p
		a.order = append(a.order, p.ID())
	}

	a.active = initial
	if _, ok := a.pages[initial]; !ok && len(a.order) > 0 {
		a.active = a.order[0]
	}
	return a
}

// Active returns the active tab.
func (a *App) Active() string { return a.active }

// Init activates the initial page.
func (a *App) Init() tea.Cmd {
	if p, ok := a.pages[a.active]; ok {
		return p.Activate()
	}
	return nil
}

// Update routes messages. Key presses go to the active page; everything else
// reaches every page so results of a tab that was left are still applied.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		inner := tea.WindowSizeMsg{Width: msg.Width, Height: a.pageHeight()}
		return a, a.broadcast(inner)

	case prefsSavedMsg:
		if msg.Err != nil {
			a.logger.Warn().Err(msg.Err).Str("tab", msg.Tab).Msg("Failed to save active tab")
		}
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)
	}

	return a, a.broadcast(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, a.keys.ForceQuit) {
		return tea.Quit
	}

	page, ok := a.pages[a.active]
	if ok && page.Capturing() {
		return page.Update(msg)
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		return tea.Quit
	case key.Matches(msg, a.keys.NextTab):
		return a.SwitchTo(a.neighbour(1))
	case key.Matches(msg, a.keys.PrevTab):
		return a.SwitchTo(a.neighbour(-1))
	case key.Matches(msg, a.keys.JumpTab):
		i := int(msg.String()[0] - '1')
		if i >= 0 && i < len(a.order) {
			return a.SwitchTo(a.order[i])
		}
		return nil
	case key.Matches(msg, a.keys.Reload):
		if ok {
			return page.Activate()
		}
		return nil
	}

	if ok {
		return page.Update(msg)
	}
	return nil
}

// SwitchTo makes tab active, saves it and reloads the page. Selecting the
// active tab again does nothing.
func (a *App) SwitchTo(tab string) tea.Cmd {
	page, ok := a.pages[tab]
	if !ok || tab == a.active {
		return nil
	}

	a.logger.Debug().Str("from", a.active).Str("tab", tab).Msg("Switching tab")
	a.active = tab

	return tea.Batch(a.save(tab), page.Activate())
}

func (a *App) save(tab string) tea.Cmd {
	store := a.store
	ctx := a.ctx
	return func() tea.Msg {
		return prefsSavedMsg{Tab: tab, Err: store.SetActiveTab(ctx, tab)}
	}
}

func (a *App) neighbour(step int) string {
	if len(a.order) == 0 {
		return a.active
	}
	i := 0
	for j, id := range a.order {
		if id == a.active {
			i = j
			break
		}
	}
	n := len(a.order)
	return a.order[((i+step)%n+n)%n]
}

func (a *App) broadcast(msg tea.Msg) tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(a.order))
	for _, id := range a.order {
		cmds = append(cmds, a.pages[id].Update(msg))
	}
	return tea.Batch(cmds...)
}

// pageHeight is the height left for a page below the tab bar and above the
// help line.
func (a *App) pageHeight() int {
	return max(a.height-4, 1)
}

// View renders the tab bar, the active page and the key help.
func (a *App) View() string {
	page, ok := a.pages[a.active]
	if !ok {
		return "No active page"
	}

	tabs := make([]string, len(a.order))
	for i, id := range a.order {
		label := datasets.Label(id)
		if i < 9 {
			label = string(rune('1'+i)) + " " + label
		}
		if id == a.active {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	bar := tabBarStyle.Width(max(a.width, 1)).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...))

	help := []string{"tab/shift+tab switch", "r reload"}
	if h := page.Help(); h != "" {
		help = append(help, h)
	}
	help = append(help, "q quit")

	return lipgloss.JoinVertical(lipgloss.Left,
		bar,
		lipgloss.NewStyle().Height(a.pageHeight()).MaxHeight(a.pageHeight()).Render(page.View(a.width, a.pageHeight())),
		helpStyle.Render(strings.Join(help, " • ")),
	)
}
