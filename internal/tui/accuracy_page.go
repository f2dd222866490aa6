package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/agent-monitor/internal/datasets"
	"github.com/Sternrassler/agent-monitor/pkg/accuracy"
)

type accuracyOutcomeMsg struct {
	Outcome accuracy.Outcome
}

type accuracyRetryMsg struct {
	Next accuracy.Attempt
}

// AccuracyPage shows the prediction accuracy summary for a date range.
type AccuracyPage struct {
	ctx     context.Context
	loader  *accuracy.Loader
	keys    KeyMap
	spinner spinner.Model

	inputs  []textinput.Model
	focus   int
	editing bool
	formErr string
}

// NewAccuracyPage creates the accuracy page.
func NewAccuracyPage(ctx context.Context, loader *accuracy.Loader, keys KeyMap) *AccuracyPage {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorGreen)

	inputs := make([]textinput.Model, 2)
	for i, prompt := range []string{"From: ", "To: "} {
		ti := textinput.New()
		ti.Prompt = prompt
		ti.Placeholder = "YYYY-MM-DD HH:MM"
		ti.CharLimit = 19
		ti.Width = 19
		ti.PromptStyle = lipgloss.NewStyle().Foreground(ColorGreen)
		ti.TextStyle = lipgloss.NewStyle().Foreground(ColorGreen)
		inputs[i] = ti
	}

	return &AccuracyPage{
		ctx:     ctx,
		loader:  loader,
		keys:    keys,
		spinner: s,
		inputs:  inputs,
	}
}

// ID implements Page.
func (p *AccuracyPage) ID() string { return datasets.TabAccuracy }

// Capturing implements Page.
func (p *AccuracyPage) Capturing() bool { return p.editing }

// Help implements Page.
func (p *AccuracyPage) Help() string {
	if p.editing {
		return "tab next field • enter apply filters • esc cancel"
	}
	return p.keys.EditFilter.Help().Key + " " + p.keys.EditFilter.Help().Desc
}

// Loader returns the page's accuracy loader.
func (p *AccuracyPage) Loader() *accuracy.Loader { return p.loader }

// Activate submits the current filter.
func (p *AccuracyPage) Activate() tea.Cmd {
	return p.submit()
}

func (p *AccuracyPage) submit() tea.Cmd {
	rng, err := accuracy.ParseRange(p.inputs[0].Value(), p.inputs[1].Value())
	if err != nil {
		p.formErr = err.Error()
		return nil
	}
	p.formErr = ""

	a := p.loader.Start(rng)
	return tea.Batch(p.execute(a), p.spinner.Tick)
}

func (p *AccuracyPage) execute(a accuracy.Attempt) tea.Cmd {
	loader := p.loader
	ctx := p.ctx
	return func() tea.Msg {
		return accuracyOutcomeMsg{Outcome: loader.Execute(ctx, a)}
	}
}

// Update implements Page.
func (p *AccuracyPage) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case accuracyOutcomeMsg:
		tr, ok := p.loader.Resolve(msg.Outcome)
		if !ok || !tr.Retry {
			return nil
		}
		next := tr.Next
		return tea.Tick(tr.Delay, func(time.Time) tea.Msg {
			return accuracyRetryMsg{Next: next}
		})

	case accuracyRetryMsg:
		if !p.loader.Retry(msg.Next) {
			return nil
		}
		return tea.Batch(p.execute(msg.Next), p.spinner.Tick)

	case spinner.TickMsg:
		if msg.ID != p.spinner.ID() {
			return nil
		}
		var cmd tea.Cmd
		p.spinner, cmd = p.spinner.Update(msg)
		if s := p.loader.State().Status; s != accuracy.StatusLoading && s != accuracy.StatusRetrying {
			return nil
		}
		return cmd

	case tea.KeyMsg:
		if p.editing {
			return p.updateForm(msg)
		}
		if key.Matches(msg, p.keys.EditFilter) {
			p.editing = true
			p.focus = 0
			return p.inputs[0].Focus()
		}
	}
	return nil
}

func (p *AccuracyPage) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, p.keys.Submit):
		p.blur()
		return p.submit()
	case key.Matches(msg, p.keys.Cancel):
		p.blur()
		return nil
	case key.Matches(msg, p.keys.NextField):
		p.inputs[p.focus].Blur()
		p.focus = (p.focus + 1) % len(p.inputs)
		return p.inputs[p.focus].Focus()
	}

	var cmd tea.Cmd
	p.inputs[p.focus], cmd = p.inputs[p.focus].Update(msg)
	return cmd
}

func (p *AccuracyPage) blur() {
	p.editing = false
	for i := range p.inputs {
		p.inputs[i].Blur()
	}
}

// View implements Page.
func (p *AccuracyPage) View(width, height int) string {
	state := p.loader.State()

	var b strings.Builder
	b.WriteString(titleStyle.Render("Bitcoin Prediction Accuracy"))
	b.WriteString("\n\n")
	b.WriteString(p.inputs[0].View() + "   " + p.inputs[1].View())
	b.WriteString("\n")
	if p.formErr != "" {
		b.WriteString(errorStyle.Render(p.formErr))
	}
	b.WriteString("\n")

	switch state.Status {
	case accuracy.StatusIdle:
		b.WriteString(mutedStyle.Render("Press f to set a date range and enter to apply."))
	case accuracy.StatusLoading:
		if state.Err != "" {
			b.WriteString(errorStyle.Render(state.Err) + "\n")
		}
		b.WriteString(p.spinner.View() + " Loading...")
	case accuracy.StatusRetrying:
		b.WriteString(errorStyle.Render(state.Err) + "\n")
		b.WriteString(p.spinner.View() + " Waiting to retry...")
	case accuracy.StatusFailed:
		b.WriteString(errorStyle.Render(state.Err))
		b.WriteString(mutedStyle.Render("  (enter new filters or press r to try again)"))
	case accuracy.StatusSuccess:
		b.WriteString(renderSummary(state.Summary, width))
	}

	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}

// renderSummary renders the totals, the outcome cards and a proportional bar
// for the direction and price stats.
func renderSummary(s accuracy.Summary, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Total Predictions: %d", s.TotalItems)))
	if s.Tolerance != 0 {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("   price tolerance: %g", s.Tolerance)))
	}
	b.WriteString("\n\n")

	barWidth := max(width-4, 10)
	for _, section := range []struct {
		title string
		stats accuracy.Rightness
	}{
		{"Direction", s.DirectionRightnessStats},
		{"Price", s.PriceRightnessStats},
	} {
		shares := section.stats.Shares(s.TotalItems)
		b.WriteString(titleStyle.Render(section.title) + "\n")
		b.WriteString(renderCards(shares) + "\n")
		b.WriteString(renderBar(shares, barWidth) + "\n\n")
	}
	return b.String()
}

func renderCards(shares []accuracy.Share) string {
	cards := make([]string, len(shares))
	for i, sh := range shares {
		color := shareColors[sh.Label]
		cards[i] = lipgloss.NewStyle().
			Foreground(ColorBlack).
			Background(color).
			Padding(0, 2).
			MarginRight(1).
			Width(20).
			Render(fmt.Sprintf("%s\n%d\n%s%%", sh.Label, sh.Count, formatPercent(sh.Percent)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

// renderBar draws the shares side by side in proportion to their percentage.
func renderBar(shares []accuracy.Share, width int) string {
	percents := make([]float64, len(shares))
	for i, sh := range shares {
		percents[i] = sh.Percent
	}

	var b strings.Builder
	for i, w := range barWidths(percents, width) {
		if w == 0 {
			continue
		}
		b.WriteString(lipgloss.NewStyle().
			Foreground(shareColors[shares[i].Label]).
			Render(strings.Repeat("█", w)))
	}
	return b.String()
}

// barWidths splits width among percents. Cells lost to rounding go to the
// segments with the largest remainders when the percents cover the whole bar.
func barWidths(percents []float64, width int) []int {
	out := make([]int, len(percents))
	if width <= 0 {
		return out
	}

	var total float64
	used := 0
	rem := make([]float64, len(percents))
	for i, p := range percents {
		exact := p / 100 * float64(width)
		out[i] = int(math.Floor(exact))
		rem[i] = exact - float64(out[i])
		used += out[i]
		total += p
	}

	for used > width {
		widest := 0
		for i := range out {
			if out[i] > out[widest] {
				widest = i
			}
		}
		out[widest]--
		used--
	}

	if total < 99.5 {
		return out
	}
	for used < width {
		best := -1
		for i := range rem {
			if percents[i] > 0 && (best < 0 || rem[i] > rem[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		out[best]++
		rem[best] = -1
		used++
	}
	return out
}

func formatPercent(p float64) string {
	return fmt.Sprintf("%.1f", p)
}
