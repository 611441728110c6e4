package identity_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/picoreplayer/panelpi-go/internal/identity"
)

func TestGetVersion_Fallback(t *testing.T) {
	// Use a temp dir that contains no metadata.json
	dir := t.TempDir()
	got := identity.GetVersionFromDir(dir)
	if got != identity.DefaultVersion {
		t.Errorf("GetVersionFromDir(%q) = %q; want %q", dir, got, identity.DefaultVersion)
	}
}

func TestGetVersion_FromFile(t *testing.T) {
	dir := t.TempDir()
	want := "1.2.3"
	meta := map[string]interface{}{"version": want}
	data, _ := json.Marshal(meta)
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), data, 0644); err != nil {
		t.Fatal(err)
	}

	got := identity.GetVersionFromDir(dir)
	if got != want {
		t.Errorf("GetVersionFromDir(%q) = %q; want %q", dir, got, want)
	}
}

func TestGetVersion_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}
	got := identity.GetVersionFromDir(dir)
	if got != identity.DefaultVersion {
		t.Errorf("GetVersionFromDir with invalid JSON = %q; want %q", got, identity.DefaultVersion)
	}
}

func TestGetOnlineStatus_Missing(t *testing.T) {
	// The status file does not exist; function should return false.
	// Best-effort: if /tmp/panelpi-online happens to exist on the test
	// machine, skip rather than assert a wrong value.
	if _, err := os.Stat("/tmp/panelpi-online"); err == nil {
		t.Skip("status file exists on this machine; skipping offline test")
	}

	got := identity.GetOnlineStatus()
	if got {
		t.Error("GetOnlineStatus() = true; want false when no status file exists")
	}
}

func TestGetHostname(t *testing.T) {
	// Should not panic and should return a non-empty string
	h := identity.GetHostname()
	if h == "" {
		t.Error("GetHostname() returned empty string")
	}
}

func TestIsUpdateMode_NoFlag(t *testing.T) {
	// Ensure the flag file doesn't exist
	os.Remove("/tmp/panelpi-update.flag")
	// Can't easily test the exe-path check without renaming ourselves,
	// but we can verify the function doesn't panic.
	_ = identity.IsUpdateMode()
}

func TestIsUpdateMode_WithFlag(t *testing.T) {
	f := "/tmp/panelpi-update.flag"
	if err := os.WriteFile(f, []byte{}, 0644); err != nil {
		t.Skip("cannot write to /tmp: " + err.Error())
	}
	t.Cleanup(func() { os.Remove(f) })

	if !identity.IsUpdateMode() {
		t.Error("IsUpdateMode() = false; want true when flag file exists")
	}
}
