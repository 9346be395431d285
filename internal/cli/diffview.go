package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/smartdiff/internal/correlate"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
)

// diffViewer fetches a commit's before/after content without analysis.
type diffViewer interface {
	DiffView(ctx context.Context, url string) ([]model.DiffPair, error)
}

func newDiffViewCmd(a *app) *cobra.Command {
	var (
		include []string
		width   int
	)
	cmd := &cobra.Command{
		Use:   "diffview <url>",
		Short: "Show the latest commit side by side without reviewing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dv, ok := a.analyzer.(diffViewer)
			if !ok {
				return errors.New("backend does not support diff view")
			}
			pairs, err := dv.DiffView(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("diff view: %w", err)
			}
			if !cmd.Flags().Changed("include") {
				include = a.cfg.Include
			}

			m := correlate.Correlate(nil, pairs, nil)
			view, err := render.SideBySide{}.Render(m, render.Options{Include: include})
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), render.Text(view, width))
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&include, "include", nil, "only show files matching these globs")
	cmd.Flags().IntVarP(&width, "width", "w", 120, "text output width")
	return cmd
}
