package prefs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

var tabs = []string{"replies", "logs", "bitcoin-predictions", "accuracy", "twitter-interactions"}

type failingStore struct{}

func (failingStore) ActiveTab(context.Context) (string, error) {
	return "", errors.New("backend down")
}

func (failingStore) SetActiveTab(context.Context, string) error {
	return errors.New("backend down")
}

func TestRestore(t *testing.T) {
	tests := []struct {
		name  string
		store Store
		saved string
		want  string
	}{
		{name: "saved valid tab", store: &MemoryStore{}, saved: "logs", want: "logs"},
		{name: "nothing saved", store: &MemoryStore{}, want: "replies"},
		{name: "unknown tab", store: &MemoryStore{}, saved: "settings", want: "replies"},
		{name: "store error", store: failingStore{}, want: "replies"},
		{name: "nop store", store: NopStore{}, saved: "logs", want: "replies"},
		{name: "nil store", want: "replies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.saved != "" && tt.store != nil {
				_ = tt.store.SetActiveTab(ctx, tt.saved)
			}
			if got := Restore(ctx, tt.store, tabs, "replies"); got != tt.want {
				t.Errorf("Restore() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.yml")
	store := NewFileStore(path)
	ctx := context.Background()

	tab, err := store.ActiveTab(ctx)
	if err != nil {
		t.Fatalf("ActiveTab() on missing file failed: %v", err)
	}
	if tab != "" {
		t.Errorf("ActiveTab() = %q, want empty", tab)
	}

	if err := store.SetActiveTab(ctx, "accuracy"); err != nil {
		t.Fatalf("SetActiveTab() failed: %v", err)
	}

	// A fresh store reads what the previous session wrote.
	tab, err = NewFileStore(path).ActiveTab(ctx)
	if err != nil {
		t.Fatalf("ActiveTab() failed: %v", err)
	}
	if tab != "accuracy" {
		t.Errorf("ActiveTab() = %q, want accuracy", tab)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yml")
	if err := os.WriteFile(path, []byte("active_tab: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewFileStore(path)
	ctx := context.Background()

	if _, err := store.ActiveTab(ctx); err == nil {
		t.Error("Expected error for corrupt file")
	}
	if got := Restore(ctx, store, tabs, "replies"); got != "replies" {
		t.Errorf("Restore() = %q, want fallback", got)
	}

	if err := store.SetActiveTab(ctx, "logs"); err != nil {
		t.Fatalf("SetActiveTab() over corrupt file failed: %v", err)
	}
	if got := Restore(ctx, store, tabs, "replies"); got != "logs" {
		t.Errorf("Restore() = %q, want logs", got)
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatalf("DefaultPath() failed: %v", err)
	}
	if want := filepath.Join("/tmp/xdg", "agent-monitor", "state.yml"); path != want {
		t.Errorf("DefaultPath() = %q, want %q", path, want)
	}
}

func TestRedisStore_Keys(t *testing.T) {
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)

	tests := []struct {
		profile string
		want    string
	}{
		{"", "agentmon:prefs:default:active_tab"},
		{"ops", "agentmon:prefs:ops:active_tab"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			store := NewRedisStore(nil, tt.profile, logger)
			if got := store.KeyActiveTab(); got != tt.want {
				t.Errorf("KeyActiveTab() = %q, want %q", got, tt.want)
			}
		})
	}
}
