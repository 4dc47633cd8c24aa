package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/minplay/internal/config"
	"github.com/conneroisu/minplay/internal/monitoring"
	"github.com/conneroisu/minplay/internal/pipeline"
	"github.com/conneroisu/minplay/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the browser playground",
	Long: `Start the playground server. The page at / edits the source and the
options document; every change is minified after a quiet period and pushed
back over a websocket.

Endpoints:
  GET  /             playground page
  GET  /api/state    current panels as JSON
  POST /api/source   {"text": "..."} replace the source
  POST /api/options  {"text": "..."} replace the options document
  GET  /ws           live state updates
  GET  /metrics      Prometheus metrics
  GET  /healthz      health check

Examples:
  minplay serve
  minplay serve --port 3000 --debounce 250ms
  minplay serve --options minify.json --reevaluate`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntP("port", "p", config.DefaultPort, "Port to serve on")
	serveCmd.Flags().String("host", config.DefaultHost, "Host to bind to")
	addPipelineFlags(serveCmd)

	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := bindPipelineFlags(cmd); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	metrics := monitoring.NewPipelineMetrics(true)
	pg, err := newPlayground(cfg, pipeline.WithMetrics(metrics))
	if err != nil {
		return err
	}
	defer pg.close()

	srv := server.New(cfg, pg.ctrl, server.WithLogger(pg.logger), server.WithMetrics(metrics))

	addr, err := srv.Listen()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "minplay playground at http://%s\n", addr)

	if err := srv.Start(ctx); err != nil {
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
