// Package cli implements the erlayout command-line interface.
//
// # Commands
//
// The main commands are:
//   - layout: lay out one or more ER documents and write the results
//   - render: draw a saved layout as dot, svg, png, pdf or html
//   - tier: print the size metrics of a document and the tier they select
//   - validate: check documents against the input contract
//   - serve: run the HTTP API
//   - cache: inspect or clear the layout cache
//
// # Configuration
//
// Settings are read from erlayout.toml in the working directory, or from the
// file named by --config. Flags override file values.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/erlayout/pkg/cache"
	"github.com/matzehuels/erlayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "erlayout"

	// layoutSuffix marks layout files written by the layout command.
	layoutSuffix = ".layout"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// configPath is the --config flag; empty means DefaultSettingsFile if present.
	configPath string
	settings   *pipeline.Settings
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger:   newLogger(w, level),
		settings: pipeline.DefaultSettings(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// loadSettings reads the settings file. An explicit --config must exist;
// the default file is optional.
func (c *CLI) loadSettings() error {
	var (
		s   *pipeline.Settings
		err error
	)
	if c.configPath != "" {
		s, err = pipeline.LoadSettings(c.configPath)
	} else {
		s, err = pipeline.LoadSettingsIfPresent(pipeline.DefaultSettingsFile)
	}
	if err != nil {
		return err
	}
	c.settings = s
	c.Logger.Debug("loaded settings", "provider", s.Provider, "cache", s.Cache.Backend, "tiers", len(s.Tiers))
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cc, c.keyer(), c.Logger), nil
}

func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	cc, err := c.settings.OpenCache(ctx)
	if err != nil {
		if c.settings.Cache.Backend == pipeline.CacheFile {
			c.Logger.Warn("cache unavailable, continuing without it", "error", err)
			return cache.NewNullCache(), nil
		}
		return nil, err
	}
	return cc, nil
}

// keyer scopes cache keys when the settings name a prefix.
func (c *CLI) keyer() cache.Keyer {
	if p := c.settings.Cache.Prefix; p != "" {
		return cache.NewScopedKeyer(nil, p)
	}
	return cache.NewDefaultKeyer()
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the file cache directory: the configured one, or
// erlayout under the user cache directory (which honours XDG_CACHE_HOME).
func (c *CLI) cacheDir() (string, error) {
	if c.settings.Cache.Dir != "" {
		return c.settings.Cache.Dir, nil
	}
	return cache.DefaultDir()
}

// =============================================================================
// Options Helpers
// =============================================================================

// newOptions returns pipeline options bound to the CLI's settings and logger.
func (c *CLI) newOptions() pipeline.Options {
	return pipeline.Options{
		Settings: c.settings,
		Logger:   c.Logger,
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s, def string) []string {
	if s == "" {
		return []string{def}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
