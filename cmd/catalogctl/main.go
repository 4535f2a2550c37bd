// Command catalogctl edits the catalog offline: it opens the same state,
// source and page directories as the server and applies one change.
//
// With the file backend a running server picks changes up through its data
// directory watcher. The badger backend holds a directory lock, so stop the
// server first.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"quickref/internal/app"
	"quickref/internal/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd(openFromEnv, os.Stdout).Execute(); err != nil {
		log.Fatalf("catalogctl: %v", err)
	}
}

// opener builds the application for one command.
type opener func(ctx context.Context, verbose bool) (*app.App, error)

func openFromEnv(ctx context.Context, verbose bool) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger, closeLog, err := cfg.NewLogger("catalogctl", os.Stderr, level)
	if err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, logger, app.Options{})
	if err != nil {
		closeLog()
		return nil, err
	}
	a.OnClose(closeLog)
	return a, nil
}

// cli carries state shared by every subcommand.
type cli struct {
	open    opener
	out     io.Writer
	verbose bool
	app     *app.App
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	c := &cli{open: open, out: out}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Manage quick-reference documents, categories and checklists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.open(cmd.Context(), c.verbose)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}
	root.SetOut(out)
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		c.lsCmd(),
		c.addCmd(),
		c.rmCmd(),
		c.rmdirCmd(),
		c.renderCmd(),
		c.checklistCmd(),
	)
	return root
}
