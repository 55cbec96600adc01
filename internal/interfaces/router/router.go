package router

import (
	"net/http"

	"carbon-ledger/internal/app"
	authsvc "carbon-ledger/internal/application/auth"
	creditsvc "carbon-ledger/internal/application/credits"
	eventsvc "carbon-ledger/internal/application/events"
	orgsvc "carbon-ledger/internal/application/orgs"
	authhandler "carbon-ledger/internal/interfaces/handlers/auth"
	credithandler "carbon-ledger/internal/interfaces/handlers/credits"
	eventhandler "carbon-ledger/internal/interfaces/handlers/events"
	healthhandler "carbon-ledger/internal/interfaces/handlers/health"
	orghandler "carbon-ledger/internal/interfaces/handlers/orgs"
	"carbon-ledger/internal/middleware"
	"carbon-ledger/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// CreateApp builds the Fiber app with all global middleware and routes over rt.
func CreateApp(rt *app.Runtime) *fiber.App {
	cfg := rt.Config
	fiberApp := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		Immutable:               true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	fiberApp.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))
	fiberApp.Use(middleware.Tracing())
	fiberApp.Use(middleware.Session(rt.Rdb, cfg.SessionSecret))
	fiberApp.Use(middleware.HealthMarker(rt.Rdb))
	fiberApp.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rt.Rdb,
		DB:             rt,
		Ledger:         rt.Ledger,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	fiberApp.Get("/reset", hh.Reset)
	fiberApp.Get("/health/json", hh.JSON)
	fiberApp.Get("/health/errors", hh.Errors)
	if cfg.MetricsEnabled {
		fiberApp.Get("/metrics", adaptor.HTTPHandler(observability.Handler()))
	}

	sessionCfg := middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.IsProduction(),
	}
	credentials := &authsvc.Service{DB: rt.DB}
	osvc := &orgsvc.Service{Ledger: rt.Ledger, Credentials: credentials}
	cs := &creditsvc.Service{Ledger: rt.Ledger}

	api := fiberApp.Group("/api/v1", middleware.SyncLedger(rt.Ledger))
	authed := []fiber.Handler{middleware.RequireAuth(), middleware.RequireRegistered(rt.Ledger)}

	ah := &authhandler.Handlers{Credentials: credentials, Ledger: rt.Ledger, Rdb: rt.Rdb, Config: sessionCfg}
	api.Post("/auth/login", ah.Login)
	api.Get("/auth/me", ah.Me)
	api.Delete("/auth/logout", ah.Logout)

	oh := &orghandler.Handlers{Service: osvc}
	api.Post("/orgs/register", oh.Register)
	api.Get("/orgs/:identity", oh.View)
	api.Post("/emissions/report", append(authed, oh.ReportEmissions)...)

	ch := &credithandler.Handlers{Service: cs}
	api.Get("/stats", ch.Stats)
	api.Post("/credits/issue", append(authed, ch.Issue)...)
	api.Post("/credits/transfer", append(authed, ch.Transfer)...)
	api.Post("/credits/retire", append(authed, ch.Retire)...)
	api.Get("/credits/owned", append(authed, ch.Owned)...)
	api.Get("/credits/:id", ch.View)

	eh := &eventhandler.Handlers{Service: &eventsvc.Service{Source: rt.Journal}}
	api.Get("/events", eh.List)

	return fiberApp
}

// Handler adapts the Fiber app to net/http.
func Handler(fiberApp *fiber.App) http.Handler {
	return adaptor.FiberApp(fiberApp)
}
