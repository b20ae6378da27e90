package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// DefaultDataDir picks the data directory for the host platform:
// XDG_DATA_HOME when set, the conventional per-OS application data
// location otherwise, and ./data when no home directory is known.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "./data"
	}

	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "dispatchq")
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "DispatchQ")
	case "windows":
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			return filepath.Join(local, "DispatchQ")
		}
		return filepath.Join(home, "AppData", "Local", "DispatchQ")
	default:
		if isDir("/var/lib") {
			return "/var/lib/dispatchq"
		}
		return filepath.Join(home, ".dispatchq")
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
