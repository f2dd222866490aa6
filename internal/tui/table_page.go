package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	btable "github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/Sternrassler/agent-monitor/pkg/logging"
	"github.com/Sternrassler/agent-monitor/pkg/table"
)

// sentinelRows is how close the cursor must get to the last row before the
// next page is requested.
const sentinelRows = 2

// maxCellRunes caps the text kept per cell; no column is wider than a screen.
const maxCellRunes = 512

// pageResultMsg carries a page result back to the table that requested it.
type pageResultMsg[T table.Row] struct {
	Table  string
	Result table.Result[T]
}

// TablePage shows one dataset with infinite scroll: the next page is loaded
// when the cursor reaches the bottom of the loaded rows or when every loaded
// row fits on screen.
type TablePage[R any, T table.Row] struct {
	ctx    context.Context
	cfg    table.Config[R, T]
	ctrl   *table.Controller[R, T]
	keys   KeyMap
	logger zerolog.Logger

	tbl     btable.Model
	spinner spinner.Model
	width   int
	height  int
}

// NewTablePage creates a page for cfg. ctx bounds every fetch.
func NewTablePage[R any, T table.Row](ctx context.Context, cfg table.Config[R, T], keys KeyMap) *TablePage[R, T] {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorGreen)

	styles := btable.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorDimGreen).
		BorderBottom(true).
		Foreground(ColorGreen).
		Bold(true)
	styles.Cell = styles.Cell.Foreground(ColorGreen)
	styles.Selected = styles.Selected.
		Foreground(ColorBlack).
		Background(ColorGreen).
		Bold(false)

	tbl := btable.New(
		btable.WithColumns(tableColumns(cfg.Columns, 0)),
		btable.WithFocused(true),
		btable.WithStyles(styles),
	)

	return &TablePage[R, T]{
		ctx:     ctx,
		cfg:     cfg,
		ctrl:    table.NewController[R, T](),
		keys:    keys,
		logger:  logging.NewLogger("tui").With().Str("table", cfg.Name).Logger(),
		tbl:     tbl,
		spinner: s,
	}
}

// ID implements Page.
func (p *TablePage[R, T]) ID() string { return p.cfg.Name }

// Controller returns the page's table controller.
func (p *TablePage[R, T]) Controller() *table.Controller[R, T] { return p.ctrl }

// Capturing implements Page.
func (p *TablePage[R, T]) Capturing() bool { return false }

// Help implements Page.
func (p *TablePage[R, T]) Help() string {
	return "↑/↓ scroll • " + p.keys.DismissError.Help().Key + " " + p.keys.DismissError.Help().Desc
}

// Activate reconfigures the table: rows are cleared and page 1 is requested.
func (p *TablePage[R, T]) Activate() tea.Cmd {
	req := p.ctrl.Configure(p.cfg)
	p.syncRows()
	p.tbl.GotoTop()
	return tea.Batch(p.fetch(req), p.spinner.Tick)
}

func (p *TablePage[R, T]) fetch(req table.Request[R, T]) tea.Cmd {
	name := p.cfg.Name
	ctrl := p.ctrl
	ctx := p.ctx
	return func() tea.Msg {
		return pageResultMsg[T]{Table: name, Result: ctrl.Execute(ctx, req)}
	}
}

// Update implements Page.
func (p *TablePage[R, T]) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case pageResultMsg[T]:
		if msg.Table != p.cfg.Name {
			return nil
		}
		if !p.ctrl.Apply(msg.Result) {
			return nil
		}
		p.syncRows()
		// A failed page waits for the user to scroll again.
		if p.ctrl.State().Err != "" {
			return nil
		}
		return p.checkSentinel()

	case spinner.TickMsg:
		if msg.ID != p.spinner.ID() {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		if !p.ctrl.State().Loading {
			return nil
		}
		return cmd

	case tea.WindowSizeMsg:
		p.resize(msg.Width, msg.Height)
		return p.checkSentinel()

	case tea.KeyMsg:
		if key.Matches(msg, p.keys.DismissError) {
			p.ctrl.DismissError()
			return nil
		}
		var cmd tea.Cmd
		p.tbl, cmd = p.tbl.Update(msg)
		return tea.Batch(cmd, p.checkSentinel())
	}
	return nil
}

// checkSentinel requests the next page when the bottom of the table is in view.
func (p *TablePage[R, T]) checkSentinel() tea.Cmd {
	if !p.sentinelVisible() {
		return nil
	}
	req, ok := p.ctrl.LoadMore()
	if !ok {
		return nil
	}
	p.logger.Debug().Int("page", req.Page).Msg("Sentinel visible, loading next page")
	return tea.Batch(p.fetch(req), p.spinner.Tick)
}

func (p *TablePage[R, T]) sentinelVisible() bool {
	rows := len(p.tbl.Rows())
	if rows == 0 {
		return true
	}
	if p.tbl.Height() > 0 && rows <= p.tbl.Height() {
		return true
	}
	return p.tbl.Cursor() >= rows-1-sentinelRows
}

func (p *TablePage[R, T]) syncRows() {
	state := p.ctrl.State()
	cols := p.ctrl.Columns()
	if len(cols) == 0 {
		cols = p.cfg.Columns
	}

	rows := make([]btable.Row, len(state.Rows))
	for i, r := range state.Rows {
		values := table.RowValues(cols, r)
		for j := range values {
			values[j] = table.Truncate(oneLine(values[j]), maxCellRunes)
		}
		rows[i] = values
	}
	p.tbl.SetRows(rows)
}

func (p *TablePage[R, T]) resize(width, height int) {
	p.width, p.height = width, height
	p.tbl.SetColumns(tableColumns(p.cfg.Columns, width))
	// Status and error lines.
	p.tbl.SetHeight(max(height-3, 3))
}

// View implements Page.
func (p *TablePage[R, T]) View(width, height int) string {
	if width != p.width || height != p.height {
		p.resize(width, height)
	}
	state := p.ctrl.State()

	var b strings.Builder
	if state.Err != "" {
		b.WriteString(errorStyle.Render("Error: "+state.Err) + mutedStyle.Render("  (x to dismiss)"))
	}
	b.WriteString("\n")

	if len(state.Rows) == 0 && !state.Loading {
		b.WriteString(lipgloss.Place(width, max(height-3, 3), lipgloss.Center, lipgloss.Center,
			emptyStyle.Render("No data found")))
	} else {
		b.WriteString(p.tbl.View())
	}
	b.WriteString("\n")

	switch {
	case state.Loading:
		b.WriteString(p.spinner.View() + " Loading...")
	case state.HasMore:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d rows loaded • scroll down for more", len(state.Rows))))
	default:
		b.WriteString(mutedStyle.Render(fmt.Sprintf("%d rows • end of %s", len(state.Rows), p.cfg.Name)))
	}

	return b.String()
}

// tableColumns sizes the columns to width. Zero width keeps the hints.
func tableColumns[T any](cols []table.Column[T], width int) []btable.Column {
	out := make([]btable.Column, len(cols))
	hints := 0
	for i, c := range cols {
		w := c.Width
		if w <= 0 {
			w = max(len(c.Header), 10)
		}
		out[i] = btable.Column{Title: c.Header, Width: w}
		hints += w
	}
	if width <= 0 || hints == 0 {
		return out
	}

	// Each cell has one column of padding on both sides.
	avail := width - 2*len(cols)
	if avail <= len(cols) {
		return out
	}
	used := 0
	for i := range out {
		w := max(out[i].Width*avail/hints, 3)
		out[i].Width = w
		used += w
	}
	// Give rounding leftovers to the last column.
	if rest := avail - used; rest > 0 {
		out[len(out)-1].Width += rest
	}
	return out
}

// oneLine collapses newlines and runs of whitespace.
func oneLine(s string) string {
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
