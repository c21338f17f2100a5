//go:build windows

package config

import (
	"os"
	"path/filepath"
)

// defaultDataDir prefers %LOCALAPPDATA% since model files are large and
// should not roam.
func defaultDataDir(appName string) (string, error) {
	if local := os.Getenv("LOCALAPPDATA"); local != "" {
		return filepath.Join(local, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "AppData", "Local", appName), nil
}
