package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/smartdiff/internal/logging"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/tui"
)

func newTUICmd(a *app) *cobra.Command {
	var repo, commitURL string
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive review interface",
		Long: `Open the interactive terminal interface. Type a repository URL or paste
code, then start a snippet (ctrl+s), repository (ctrl+r) or commit (ctrl+d)
review. Starting a new review supersedes one that is still running.

Examples:
  smartdiff tui
  smartdiff tui --commit https://github.com/owner/project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if repo != "" && commitURL != "" {
				return errors.New("--repo and --commit are mutually exclusive")
			}

			opts := tui.Options{
				Analyzer:       a.analyzer,
				Mode:           a.cfg.Mode(),
				Include:        a.cfg.Include,
				ExportDir:      a.cfg.ExportDir,
				HighlightStyle: a.cfg.HighlightStyle,
				Logger:         logging.Component(a.log, "tui"),
				Now:            a.now,
			}
			switch {
			case repo != "":
				req := model.RepoRequest(repo)
				opts.Request = &req
			case commitURL != "":
				req := model.CommitDiffRequest(commitURL)
				opts.Request = &req
			}
			return tui.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&repo, "repo", "", "start a repository review on launch")
	cmd.Flags().StringVar(&commitURL, "commit", "", "start a commit review on launch")
	return cmd
}
