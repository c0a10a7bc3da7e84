// Package cli implements the vizhost command-line interface.
//
// The CLI wraps the instance registry in two ways: `serve` runs the HTTP
// host that lets remote clients drive visualizations, and `render` drives
// a throwaway registry for one-shot graph-to-image conversion. The
// remaining commands manage what the host leaves on disk: saved sessions
// and the frame cache.
//
// All commands support --verbose (-v) for debug-level logging and
// --config for a TOML settings file. Flag values override file values.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vizhost/vizhost/pkg/buildinfo"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "vizhost"

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

	// configPath is the --config flag value; empty means discover.
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "vizhost",
		Short:        "Vizhost hosts interactive graph visualizations",
		Long:         `Vizhost is a host for graph-visualization instances: it keeps named graphs with live view state, renders them through pluggable backends, and exposes the whole registry over an HTTP and WebSocket API.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to vizhost.toml (default: ./vizhost.toml, then XDG config dir)")

	// Register all subcommands
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the frame-cache directory using the XDG standard
// (~/.cache/vizhost/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// dataDir returns the directory for persistent data such as saved
// sessions, using the XDG standard (~/.local/share/vizhost/).
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return filepath.Join(dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", appName), nil
}
