// Command radarctl runs operator tasks against the radar database without
// going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"radar/internal/app"
	"radar/internal/platform/config"
	"radar/internal/platform/logger"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "radarctl",
		Short:         "Operator tasks for the radar CNPJ lookup service",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		migrateCmd(),
		repairCmd(),
		sweepRetentionCmd(),
		batchCmd(),
		seedAdminCmd(),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "radarctl:", err)
		os.Exit(1)
	}
}

// withApp loads configuration, builds the service graph and hands it to fn.
// Logs go to stderr so stdout stays machine readable.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.NewWithWriter(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	a, err := app.Build(ctx, cfg, log, nil)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
