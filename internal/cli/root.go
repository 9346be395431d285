// Package cli wires the smartdiff commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sprite-ai/smartdiff/internal/client"
	"github.com/sprite-ai/smartdiff/internal/config"
	"github.com/sprite-ai/smartdiff/internal/logging"
	"github.com/sprite-ai/smartdiff/internal/session"
)

// app is the state shared by every command once the root pre-run has loaded
// config and logging.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	closeLog func()
	analyzer session.Analyzer
	now      func() time.Time

	configPath string
	backendURL string
	logLevel   string
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd(&app{}).ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	if a.now == nil {
		a.now = time.Now
	}

	root := &cobra.Command{
		Use:   "smartdiff",
		Short: "AI code review for snippets, repositories and commits",
		Long: `smartdiff sends code to an analysis backend and presents the
per-file scores and suggestions next to the diff, either unified or
side by side, with Markdown export of the results.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.closeLog != nil {
				a.closeLog()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	root.PersistentFlags().StringVar(&a.backendURL, "backend", "", "analysis backend base URL")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")

	root.AddCommand(
		newSnippetCmd(a),
		newRepoCmd(a),
		newCommitCmd(a),
		newDiffViewCmd(a),
		newTUICmd(a),
		newServeCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads config, layers flags on top and validates the result.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if a.backendURL != "" {
		cfg.BackendURL = a.backendURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if cmd.Name() == "tui" && cfg.LogFile == "" {
		// console output would draw over the alt screen
		level = "disabled"
	}
	l, closer, err := logging.New(level, cfg.LogFile)
	if err != nil {
		return err
	}
	a.log = l
	a.closeLog = closer

	if a.analyzer == nil {
		a.analyzer = client.New(cfg.BackendURL,
			client.WithTimeout(cfg.RequestTimeout),
			client.WithLogger(logging.Component(l, "client")),
		)
	}
	a.log.Debug().Str("config", path).Str("backend", cfg.BackendURL).Msg("config loaded")
	return nil
}
