package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"carbon-ledger/internal/app"
	"carbon-ledger/internal/interfaces/router"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "", "Listen port (overrides PORT)")
	serveCmd.Flags().Bool("migrate", false, "Run database migrations before starting")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Load the ledger from the database and serve the HTTP API until
interrupted. Without DATABASE_URL the ledger lives in memory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("port"); p != "" {
		cfg.Port = p
	}
	migrate, _ := cmd.Flags().GetBool("migrate")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, cfg, app.OpenOptions{Migrate: migrate})
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.Rdb != nil {
		if err := rt.Rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		log.Info().Msg("Redis connected")
	}

	fiberApp := router.CreateApp(rt)
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("Server running")
		errCh <- fiberApp.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return fiberApp.ShutdownWithContext(shutdownCtx)
}
