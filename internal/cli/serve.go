package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/smartdiff/internal/api"
	"github.com/sprite-ai/smartdiff/internal/logging"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start an HTTP server exposing the correlation, rendering and export engine.

Endpoints:
  GET  /health         Health check
  POST /api/correlate  Merge diff pairs and reviews into one file list
  POST /api/render     Render reviews and diffs in unified or side-by-side mode
  POST /api/export     Build the Markdown report for a set of reviews
  GET  /api/ws         WebSocket for interactive review sessions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			port, _ := cmd.Flags().GetInt("port")

			listen := fmt.Sprintf("%s:%d", addr, port)
			srv := api.New(listen, a.analyzer,
				api.WithLogger(logging.Component(a.log, "api")),
				api.WithClock(a.now),
			)
			return srv.ListenAndServe(cmd.Context())
		},
	}
	cmd.Flags().StringP("addr", "a", "127.0.0.1", "address to listen on")
	cmd.Flags().IntP("port", "p", 6142, "port to listen on")
	return cmd
}
