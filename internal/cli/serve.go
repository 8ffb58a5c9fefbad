package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codefactory/guard/internal/server"
)

var flagServeAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the guard over HTTP",
	Long: `Serve exposes the evaluation pipeline as a JSON API.

  POST /v1/evaluate  - evaluate a request body shaped like guard.Request
  GET  /healthz      - liveness probe

The server shuts down gracefully on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		engine, cleanup, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		addr := cfg.Server.Addr
		if flagServeAddr != "" {
			addr = flagServeAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return server.New(engine, logger).ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "listen address (default from config server.addr)")

	rootCmd.AddCommand(serveCmd)
}
