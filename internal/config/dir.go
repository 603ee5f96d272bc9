package config

import (
	"os"
	"path/filepath"
)

// Dir resolves the configuration directory. KETTLE_CONFIG_DIR wins so
// tests and portable installs can redirect it; otherwise the platform
// user config directory is used, falling back to the home directory.
func Dir() string {
	if dir := os.Getenv("KETTLE_CONFIG_DIR"); dir != "" {
		return dir
	}
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "kettle")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "kettle"
	}
	return filepath.Join(home, ".kettle")
}

// HistoryPath is the default location of the request history database.
func HistoryPath() string {
	return filepath.Join(Dir(), "history.db")
}
