// Package serve implements the HTTP service subcommand.
package serve

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/plancheck/plancheck/internal/api"
	"github.com/plancheck/plancheck/internal/conf"
	"github.com/plancheck/plancheck/internal/convert"
	"github.com/plancheck/plancheck/internal/logging"
	"github.com/plancheck/plancheck/internal/observability"
)

// Command creates the serve command, which runs the drawing validation
// HTTP service until interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the drawing validation HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	cmd.Flags().StringVar(&settings.WebServer.Port, "port", settings.WebServer.Port, "Port to listen on")
	cmd.Flags().StringVar(&settings.WebServer.Host, "host", settings.WebServer.Host, "Host to bind to")

	return cmd
}

func runServer(settings *conf.Settings) error {
	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}

	converter, err := convert.NewClient(convert.Config{
		BaseURL:      settings.Conversion.BaseURL,
		APIKey:       settings.Conversion.APIKey,
		Timeout:      settings.Conversion.Timeout,
		PollInterval: settings.Conversion.PollInterval,
		CacheTTL:     settings.Conversion.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize conversion client: %w", err)
	}
	defer converter.Close()
	converter.SetMetrics(metrics.Conversion)

	server, err := api.New(settings,
		api.WithConverter(converter),
		api.WithMetrics(metrics),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	// Shut down cleanly on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		logging.Info("shutdown signal received", "signal", sig.String())
		if err := server.Shutdown(context.Background()); err != nil {
			return fmt.Errorf("error during shutdown: %w", err)
		}
		return <-errChan
	}
}
