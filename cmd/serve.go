package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/scrollsense/scrollsense/internal/ratelimit"
	"github.com/scrollsense/scrollsense/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the analysis API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		serverCfg := cfg.Server
		if servePort != 0 {
			serverCfg.Port = servePort
		}

		limiter := ratelimit.New(limiterOptions(cfg.RateLimit)...)
		srv := server.New(p, limiter, serverCfg)

		return srv.ListenAndServe(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
