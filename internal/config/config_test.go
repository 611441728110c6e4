package config_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/config"
	"github.com/picoreplayer/panelpi-go/internal/models"
)

// --- JSONStore tests ---

func newTempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "panelpi-config-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

func TestJSONStore_LoadMissingFile_ReturnsDefault(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if state == nil {
		t.Fatal("Load() returned nil state")
	}
	if len(state.Inputs) != models.NumInputChannels {
		t.Errorf("Load() inputs = %d, want %d", len(state.Inputs), models.NumInputChannels)
	}
	if state.Meters.Mode != models.MeterModeNormal {
		t.Errorf("Load() meter mode = %q", state.Meters.Mode)
	}
}

func TestJSONStore_SaveLoadRoundTrip(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	st := models.DefaultState()
	st.Inputs[0].Name = "Modified Input"
	st.Backlight.Level = 42

	if err := store.Save(&st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	// Flush to ensure the file is written
	if err := store.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Inputs[0].Name != "Modified Input" {
		t.Errorf("Inputs[0].Name = %q, want %q", loaded.Inputs[0].Name, "Modified Input")
	}
	if loaded.Backlight.Level != 42 {
		t.Errorf("Backlight.Level = %d, want 42", loaded.Backlight.Level)
	}
}

func TestJSONStore_CorruptJSON_ReturnsDefault(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	// Write corrupt JSON
	path := filepath.Join(dir, "panel.json")
	if err := os.WriteFile(path, []byte("{invalid json!!!"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if state == nil {
		t.Fatal("Load() returned nil state for corrupt JSON")
	}
	if len(state.Inputs) != models.NumInputChannels {
		t.Errorf("corrupt JSON: inputs = %d, want defaults", len(state.Inputs))
	}
}

func TestJSONStore_MigratesHandEditedConfig(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	// A trimmed hand-written config: one input with a typo'd action, an
	// out-of-range backlight level, and everything else missing.
	raw := map[string]any{
		"inputs": []map[string]any{
			{"channel": 3, "name": "Prev", "action": "previuos"},
		},
		"backlight": map[string]any{"level": 999, "mode": "manual"},
	}
	data, _ := json.Marshal(raw)
	if err := os.WriteFile(filepath.Join(dir, "panel.json"), data, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(state.Inputs) != models.NumInputChannels {
		t.Fatalf("inputs = %d, want %d", len(state.Inputs), models.NumInputChannels)
	}
	if state.Inputs[3].Name != "Prev" {
		t.Errorf("Inputs[3].Name = %q, want kept", state.Inputs[3].Name)
	}
	if state.Inputs[3].Action != models.ActionNone {
		t.Errorf("bad action migrated to %q, want %q", state.Inputs[3].Action, models.ActionNone)
	}
	if state.Inputs[0].Action != models.ActionPlayPause {
		t.Errorf("missing input 0 not filled from defaults: %+v", state.Inputs[0])
	}
	if state.Backlight.Level != 255 {
		t.Errorf("backlight level = %d, want clamped to 255", state.Backlight.Level)
	}
	if state.Config.DebounceMs != 50 {
		t.Errorf("debounce = %d, want default 50", state.Config.DebounceMs)
	}
}

func TestJSONStore_FlushWithoutSave_NoError(t *testing.T) {
	dir := newTempDir(t)
	store := config.NewJSONStore(dir)

	if err := store.Flush(); err != nil {
		t.Errorf("Flush() with nothing pending: %v", err)
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("Flush() with nothing pending created a file")
	}
}

// --- MemStore tests ---

func TestMemStore_LoadDefault(t *testing.T) {
	store := config.NewMemStore()
	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(state.Inputs) != models.NumInputChannels {
		t.Errorf("inputs = %d", len(state.Inputs))
	}
	if store.Path() != ":memory:" {
		t.Errorf("Path() = %q", store.Path())
	}
}

func TestMemStore_SaveIsolation(t *testing.T) {
	store := config.NewMemStore()
	st := models.DefaultState()
	st.Motor.Speed = 100
	if err := store.Save(&st); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	st.Motor.Speed = 7
	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Motor.Speed != 100 {
		t.Errorf("Motor.Speed = %d, want 100", loaded.Motor.Speed)
	}
}
