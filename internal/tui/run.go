package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Sternrassler/agent-monitor/internal/datasets"
	"github.com/Sternrassler/agent-monitor/pkg/accuracy"
	"github.com/Sternrassler/agent-monitor/pkg/client"
	"github.com/Sternrassler/agent-monitor/pkg/prefs"
)

// Options configures the dashboard.
type Options struct {
	API       *client.Client
	Store     prefs.Store
	PageLimit int
	Timeout   time.Duration
	RetryUnit time.Duration
}

// NewDashboard builds the App with every tab in display order, restoring the
// saved tab.
func NewDashboard(ctx context.Context, opts Options) *App {
	keys := DefaultKeyMap()
	loader := accuracy.NewLoader(accuracy.NewClient(opts.API), accuracy.Config{
		Unit:    opts.RetryUnit,
		Timeout: opts.Timeout,
	})

	pages := []Page{
		NewTablePage(ctx, datasets.Replies.Config(opts.API, opts.PageLimit, opts.Timeout), keys),
		NewTablePage(ctx, datasets.Logs.Config(opts.API, opts.PageLimit, opts.Timeout), keys),
		NewTablePage(ctx, datasets.BitcoinPredictions.Config(opts.API, opts.PageLimit, opts.Timeout), keys),
		NewAccuracyPage(ctx, loader, keys),
		NewTablePage(ctx, datasets.TwitterInteractions.Config(opts.API, opts.PageLimit, opts.Timeout), keys),
	}

	initial := prefs.Restore(ctx, opts.Store, datasets.Tabs, datasets.DefaultTab)
	return NewApp(ctx, opts.Store, initial, keys, pages...)
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	app := NewDashboard(ctx, opts)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		if strings.Contains(err.Error(), "TTY") || strings.Contains(err.Error(), "/dev/tty") {
			return fmt.Errorf("TUI requires a real terminal")
		}
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
