// Package main implements the news processing pipeline service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/andinanews/pipeline/config"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var configPath string

	rootCmd := &cobra.Command{
		Use:     "pipeline",
		Short:   "News article processing pipeline",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a pipeline.yaml config file")

	rootCmd.AddCommand(serveCmd(&configPath))
	rootCmd.AddCommand(healthcheckCmd(&configPath))

	return rootCmd.ExecuteContext(ctx)
}

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the pipeline HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if configPath != "" {
		os.Setenv("PIPELINE_CONFIG_FILE", configPath)
	}

	loader := config.NewLoader(logger)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	app, err := NewApp(cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	return app.Start(ctx)
}

func healthcheckCmd(configPath *string) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "healthcheck",
		Short: "Probe a running pipeline server's /health endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealthcheck(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "http://localhost:8080", "base URL of the running server")
	return cmd
}

func runHealthcheck(ctx context.Context, addr string) error {
	httpClient := &http.Client{Timeout: 5 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	fmt.Println("ok")
	return nil
}
