package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vango-dev/resume/pkg/devserver"
)

func serveCmd() *cobra.Command {
	var (
		dir  string
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the preview server",
		Long: `Run the preview server with the demo counter application.

Settings are read from resume.yaml in --config; flags override them.

Examples:
  resumectl serve
  resumectl serve --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(dir, "")
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Dev.Port = port
			}
			if host != "" {
				cfg.Dev.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			success(out, "serving on http://%s", cfg.DevAddress())
			info(out, "checkpoints on ws://%s/checkpoints (%s)", cfg.DevAddress(), cfg.Dev.CheckpointSchedule)
			return devserver.New(cfg).ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVarP(&dir, "config", "c", ".", "Directory containing resume.yaml")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from resume.yaml)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from resume.yaml)")

	return cmd
}
