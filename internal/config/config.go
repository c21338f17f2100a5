// Package config loads modelkeep settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tinoosan/modelkeep/internal/downloadcfg"
)

const appName = "modelkeep"

// Store backends for the downloaded flags.
const (
	StoreBadger   = "badger"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type Config struct {
	Addr     string
	APIToken string

	DataDir   string
	Catalog   string
	Store     string
	BadgerDir string

	HTTPTimeout      time.Duration
	RateLimitBPS     int
	ProbeConcurrency int
	CancelMode       downloadcfg.CancelMode

	LogLevel string
	LogFile  string
	LogMaxMB int
}

// ModelsDir is where model files are stored.
func (c Config) ModelsDir() string { return filepath.Join(c.DataDir, "models") }

// FromEnv reads MODELKEEP_* variables, falling back to defaults.
func FromEnv() (Config, error) {
	dataDir := getenv("MODELKEEP_DATA_DIR", "")
	if dataDir == "" {
		d, err := defaultDataDir(appName)
		if err != nil {
			return Config{}, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = d
	}
	c := Config{
		Addr:             getenv("MODELKEEP_ADDR", ":9090"),
		APIToken:         os.Getenv("MODELKEEP_API_TOKEN"),
		DataDir:          dataDir,
		Catalog:          getenv("MODELKEEP_CATALOG", filepath.Join(dataDir, "model_list.json")),
		Store:            strings.ToLower(getenv("MODELKEEP_STORE", StoreBadger)),
		BadgerDir:        getenv("MODELKEEP_BADGER_DIR", filepath.Join(dataDir, "flags")),
		HTTPTimeout:      time.Duration(getenvInt("MODELKEEP_HTTP_TIMEOUT_MS", 30000)) * time.Millisecond,
		RateLimitBPS:     getenvInt("MODELKEEP_RATE_LIMIT_BPS", 0),
		ProbeConcurrency: getenvInt("MODELKEEP_PROBE_CONCURRENCY", 4),
		CancelMode:       downloadcfg.ParseCancelMode(os.Getenv("MODELKEEP_CANCEL_MODE")),
		LogLevel:         getenv("MODELKEEP_LOG_LEVEL", "info"),
		LogFile:          os.Getenv("MODELKEEP_LOG_FILE"),
		LogMaxMB:         getenvInt("MODELKEEP_LOG_MAX_MB", 50),
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.Store {
	case StoreBadger, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q (want %s|%s|%s)", c.Store, StoreBadger, StorePostgres, StoreMemory)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive, got %s", c.HTTPTimeout)
	}
	if c.RateLimitBPS < 0 {
		return fmt.Errorf("rate limit must not be negative, got %d", c.RateLimitBPS)
	}
	if c.ProbeConcurrency <= 0 {
		return fmt.Errorf("probe concurrency must be positive, got %d", c.ProbeConcurrency)
	}
	return nil
}

// ErrNoAPIToken is returned by ValidateServe when MODELKEEP_API_TOKEN is unset.
var ErrNoAPIToken = errors.New("MODELKEEP_API_TOKEN is required to serve the API")

// ValidateServe adds the checks that only apply to the HTTP server.
func (c Config) ValidateServe() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIToken == "" {
		return ErrNoAPIToken
	}
	if c.Addr == "" {
		return errors.New("listen address is empty")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvInt falls back to def when k is unset or not an integer.
func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
