// Package cli implements the canopy command-line interface.
//
// # Commands
//
//   - render: draw the demo mixer headlessly and write the last frame as PNG
//   - run: open the demo mixer in a window
//   - backends: list the registered backends
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// surfaces the engine's per-frame statistics. The charmbracelet logger is
// installed as the slog handler for canopy and gg.
package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/log"
	"github.com/gogpu/gg"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/phanxgames/canopy"

	// Backends register themselves.
	_ "github.com/phanxgames/canopy/backend/ebitenbackend"
	_ "github.com/phanxgames/canopy/backend/softbackend"
)

const appName = "canopy"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a CLI logging to w. JSON is used when w is not a terminal.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level, !isTerminal(w))}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Canopy renders retained-mode DAW interfaces",
		Long:         `Canopy is a compositing engine for audio workstation UIs: a node tree painted through a pluggable GPU backend, with frame skipping and offscreen caching of static panels.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c.installLogger()
			return nil
		},
	}
	root.PersistentFlags().StringP("config", "c", "", "config file (.toml, .yaml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.backendsCommand())
	return root
}

// installLogger routes engine logging through the CLI logger.
func (c *CLI) installLogger() {
	canopy.SetLogger(slog.New(c.Logger))
	gg.SetLogger(slog.New(c.Logger.WithPrefix("gg")))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
