package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/smartdiff/internal/logging"
	"github.com/sprite-ai/smartdiff/internal/model"
	"github.com/sprite-ai/smartdiff/internal/render"
	"github.com/sprite-ai/smartdiff/internal/report"
	"github.com/sprite-ai/smartdiff/internal/session"
)

// Output formats.
const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

// outputFlags are shared by snippet, repo and commit.
type outputFlags struct {
	format    string
	exportDir string
	width     int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.format, "format", "f", formatText, "output format: text, markdown, json")
	cmd.Flags().StringVarP(&o.exportDir, "export", "e", "", "also write the Markdown report into this directory")
	cmd.Flags().IntVarP(&o.width, "width", "w", 120, "text output width")
}

func (o *outputFlags) validate() error {
	switch o.format {
	case formatText, formatMarkdown, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text, markdown or json)", o.format)
	}
}

func newSnippetCmd(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "snippet [file|-]",
		Short: "Review a single block of code",
		Long: `Send a code snippet for review and print its scores and suggestions.
The code is read from the named file, or from stdin when the argument is
"-" or omitted.

Examples:
  smartdiff snippet main.py
  pbpaste | smartdiff snippet -
  smartdiff snippet main.py --format markdown --export ./reviews`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			code, err := readCode(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return a.review(cmd, model.SnippetRequest(code), out, nil)
		},
	}
	out.register(cmd)
	return cmd
}

func newRepoCmd(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "repo <url>",
		Short: "Review every source file of a repository",
		Long: `Ask the backend to review every source file of a public repository.
Files that could not be analysed are listed with their error; they do not
fail the command.

Examples:
  smartdiff repo https://github.com/owner/project
  smartdiff repo https://github.com/owner/project --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			return a.review(cmd, model.RepoRequest(args[0]), out, nil)
		},
	}
	out.register(cmd)
	return cmd
}

func newCommitCmd(a *app) *cobra.Command {
	var (
		out     outputFlags
		mode    string
		include []string
	)
	cmd := &cobra.Command{
		Use:   "commit <url>",
		Short: "Review the latest commit of a repository",
		Long: `Review the files changed by a repository's latest commit and print each
file's diff with its review attached.

Examples:
  smartdiff commit https://github.com/owner/project
  smartdiff commit https://github.com/owner/project --mode side-by-side
  smartdiff commit https://github.com/owner/project --include 'src/**/*.py'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := out.validate(); err != nil {
				return err
			}
			m := a.cfg.Mode()
			if cmd.Flags().Changed("mode") {
				parsed, err := render.ParseMode(mode)
				if err != nil {
					return err
				}
				m = parsed
			}
			if !cmd.Flags().Changed("include") {
				include = a.cfg.Include
			}
			return a.review(cmd, model.CommitDiffRequest(args[0]), out, &viewSpec{mode: m, opts: render.Options{Include: include}})
		},
	}
	out.register(cmd)
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "render mode: unified or side-by-side (default from config)")
	cmd.Flags().StringSliceVar(&include, "include", nil, "only show files matching these globs")
	return cmd
}

type viewSpec struct {
	mode render.Mode
	opts render.Options
}

// jsonOutput is the --format json document.
type jsonOutput struct {
	Kind       string           `json:"kind"`
	Target     string           `json:"target"`
	Generation uint64           `json:"generation"`
	Report     *report.Document `json:"report,omitempty"`
	View       *render.View     `json:"view,omitempty"`
}

// review runs one analysis to completion and prints it. A failed analysis is
// returned as an error so the process exits non-zero.
func (a *app) review(cmd *cobra.Command, req model.Request, out outputFlags, vs *viewSpec) error {
	log := logging.Component(a.log, "review")
	m := session.New(session.WithLogger(log), session.WithClock(a.now))

	log.Info().Str("kind", req.Kind.String()).Str("target", req.Target()).Msg("analysis started")
	s := m.Dispatch(cmd.Context(), a.analyzer, req)
	if s.Status == session.Failed {
		return fmt.Errorf("analysis failed: %s", s.Err)
	}
	log.Info().Int("files", len(s.Files)).Msg("analysis resolved")

	doc, exportErr := report.Export(s, a.now())
	if exportErr != nil && !errors.Is(exportErr, report.ErrNothingToExport) {
		return exportErr
	}
	hasDoc := exportErr == nil

	var view *render.View
	if vs != nil {
		v, err := render.For(vs.mode).Render(s.Correlated(), vs.opts)
		if err != nil {
			return err
		}
		view = &v
	}

	w := cmd.OutOrStdout()
	switch out.format {
	case formatJSON:
		jo := jsonOutput{Kind: req.Kind.String(), Target: req.Target(), Generation: s.Generation, View: view}
		if hasDoc {
			jo.Report = &doc
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(jo); err != nil {
			return err
		}
	case formatMarkdown:
		if !hasDoc {
			fmt.Fprintln(cmd.ErrOrStderr(), "No files were analysed.")
			break
		}
		fmt.Fprint(w, doc.Content)
	default:
		switch {
		case view != nil:
			fmt.Fprint(w, render.Text(*view, out.width))
		case hasDoc:
			rendered, err := report.Preview(doc, out.width)
			if err != nil {
				return err
			}
			fmt.Fprint(w, rendered)
		default:
			fmt.Fprintln(cmd.ErrOrStderr(), "No files were analysed.")
		}
	}

	if out.exportDir != "" {
		if !hasDoc {
			return exportErr
		}
		path, err := report.WriteFile(out.exportDir, doc)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	}
	return nil
}

func readCode(stdin io.Reader, args []string) (string, error) {
	var (
		data []byte
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", args[0], err)
		}
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", errors.New("no code to review")
	}
	return string(data), nil
}
