package bootstrap

import (
	"context"

	"carbon-ledger/internal/app"
	"carbon-ledger/internal/config"
	"carbon-ledger/internal/interfaces/router"
	"carbon-ledger/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Configure(cfg.LogLevel, !cfg.IsProduction())
	rt, err := app.Open(context.Background(), cfg, app.OpenOptions{})
	if err != nil {
		return nil, err
	}
	return router.CreateApp(rt), nil
}
