package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"flightbook/config"
	"flightbook/devserver"
	"flightbook/logging"
)

func newServeDevCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-dev",
		Short: "Run an in-memory booking backend for local testing",
		Long: `Serves the public booking API from memory under ` + devserver.BasePath + `.
Point api.base_url at it to try the whole purchase flow offline.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			// The terminal is free here, so log to stderr unless a file is configured.
			logger, err := zap.NewDevelopment()
			if cfg.Log.File != "" {
				logger, err = logging.New(cfg.Log)
			}
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return devserver.New(devserver.WithLogger(logger)).ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}
