//go:build linux

package config

import (
	"os"
	"path/filepath"
)

// defaultDataDir uses $XDG_DATA_HOME/<appName> if set, otherwise
// ~/.local/share/<appName>.
func defaultDataDir(appName string) (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
