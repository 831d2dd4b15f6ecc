package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/passagedb/passage/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the passage HTTP server",
	Long:  `Starts the HTTP API for uploading documents, querying them, and managing collections.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		reg, ingestor, querier, err := buildPipelines(cfg, true)
		if err != nil {
			return err
		}
		defer reg.CloseAll()

		port := cfg.Server.Port
		if servePort != 0 {
			port = servePort
		}

		srv := server.New(server.Config{
			Port:              port,
			AllowAll:          cfg.Server.AllowAll,
			DefaultCollection: cfg.DefaultCollection,
			MaxUploadBytes:    cfg.MaxUploadBytes,
			GenerationTarget:  fmt.Sprintf("%s/%s", cfg.GenerationProvider, cfg.GenerationModel),
		}, reg, ingestor, querier)

		// Graceful shutdown on SIGINT/SIGTERM.
		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return fmt.Errorf("server error: %w", err)
		case sig := <-sigCh:
			fmt.Fprintf(os.Stderr, "\nReceived %s, shutting down...\n", sig)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
