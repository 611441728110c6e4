// Package identity provides system identity information for PanelPi.
package identity

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

// DefaultVersion is the fallback version string when metadata.json is not found.
const DefaultVersion = "1.0.0"

// Info holds system identity information.
type Info struct {
	Hostname string
	Version  string // software version string e.g. "1.0.0"
	IsUpdate bool   // true if running from update staging area
	Offline  bool   // populated by maintenance package
}

// GetHostname returns the system hostname.
func GetHostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "panelpi"
	}
	return h
}

// GetVersion reads the version from ~/.config/panelpi/metadata.json.
// Falls back to DefaultVersion if the file is missing or unreadable.
func GetVersion() string {
	return GetVersionFromDir("")
}

// GetVersionFromDir reads the version from a specific config directory.
// If dir is empty, uses the default ~/.config/panelpi path.
// This variant is exported for testing.
func GetVersionFromDir(dir string) string {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return DefaultVersion
		}
		dir = filepath.Join(home, ".config", "panelpi")
	}

	data, err := os.ReadFile(filepath.Join(dir, "metadata.json"))
	if err != nil {
		return DefaultVersion
	}

	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return DefaultVersion
	}

	if v, ok := meta["version"].(string); ok && v != "" {
		return v
	}
	return DefaultVersion
}

// IsUpdateMode returns true if the process is running from an update staging area.
// This is detected by:
//   - The process executable path containing "panelpi-update"
//   - The presence of /tmp/panelpi-update.flag
func IsUpdateMode() bool {
	exe, err := os.Executable()
	if err == nil && strings.Contains(exe, "panelpi-update") {
		return true
	}
	if _, err := os.Stat("/tmp/panelpi-update.flag"); err == nil {
		return true
	}
	return false
}

// GetOnlineStatus returns true if the system is online, as reported by the
// maintenance goroutine's status file. Returns false if the file is missing.
func GetOnlineStatus() bool {
	if data, err := os.ReadFile("/tmp/panelpi-online"); err == nil {
		return strings.TrimSpace(string(data)) == "online"
	}
	return false
}
