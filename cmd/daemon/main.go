package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/genricoloni/backdrop/internal/assets"
	"github.com/genricoloni/backdrop/internal/bounds"
	"github.com/genricoloni/backdrop/internal/config"
	"github.com/genricoloni/backdrop/internal/control"
	"github.com/genricoloni/backdrop/internal/decorator"
	"github.com/genricoloni/backdrop/internal/domain"
	"github.com/genricoloni/backdrop/internal/engine"
	"github.com/genricoloni/backdrop/internal/fetcher"
	"github.com/genricoloni/backdrop/internal/frame"
	"github.com/genricoloni/backdrop/internal/monitor"
	"github.com/genricoloni/backdrop/internal/processor"
	"github.com/genricoloni/backdrop/internal/resolver"
	"github.com/genricoloni/backdrop/internal/x11"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// AppOptions is the full application graph
var AppOptions = fx.Options(
	// Logger configuration
	fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
		return &fxevent.ZapLogger{Logger: log}
	}),

	// Provide dependencies
	fx.Provide(
		newLogger,
		config.NewAppConfig,
		fx.Annotate(
			config.NewLoadedStore,
			fx.As(fx.Self()),
			fx.As(new(domain.SettingsSource)),
			fx.As(new(control.Settings)),
		),
		fx.Annotate(fetcher.NewFileFetcher, fx.As(new(domain.Fetcher))),
		fx.Annotate(processor.NewDecoder, fx.As(new(domain.ImageDecoder))),
		fx.Annotate(assets.NewStore, fx.As(fx.Self()), fx.As(new(domain.AssetStore))),
		fx.Annotate(
			resolver.NewResolver,
			fx.As(new(engine.Resolver)),
			fx.As(new(decorator.ImageSource)),
		),
		monitor.NewDisplayLayout,
		bounds.NewTracker,
		decorator.NewManager,
		fx.Annotate(
			frame.NewLoop,
			fx.As(fx.Self()),
			fx.As(new(x11.Scheduler)),
			fx.As(new(control.Dispatcher)),
		),
		fx.Annotate(x11.NewHost, fx.As(fx.Self()), fx.As(new(domain.Host))),
		fx.Annotate(engine.NewEngine, fx.As(fx.Self()), fx.As(new(control.Engine))),
		control.NewService,
	),

	// Lifecycle hooks
	fx.Invoke(registerHooks),
)

func main() {
	app := fx.New(AppOptions)

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Start the application
	if err := app.Start(ctx); err != nil {
		panic(err)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	// Stop the application gracefully
	if err := app.Stop(context.Background()); err != nil {
		panic(err)
	}
}

// newLogger creates a new zap logger instance
func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// registerHooks sets up application lifecycle hooks.
// Stop hooks run in reverse: control surface, frame loop, engine, resources.
func registerHooks(
	lc fx.Lifecycle,
	logger *zap.Logger,
	cfg *config.AppConfig,
	store *config.Store,
	assetStore *assets.Store,
	host *x11.Host,
	eng *engine.Engine,
	loop *frame.Loop,
	svc *control.Service,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Backdrop Daemon Started",
				zap.String("settings", cfg.GetSettingsPath()),
				zap.String("assets", cfg.GetAssetDir()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Shutting down")
			return multierr.Combine(
				host.Close(),
				assetStore.Close(),
				store.Close(),
			)
		},
	})
	lc.Append(fx.Hook{OnStart: eng.Start, OnStop: eng.Stop})
	lc.Append(fx.Hook{OnStart: loop.Start, OnStop: loop.Stop})
	lc.Append(fx.Hook{OnStart: svc.Start, OnStop: svc.Stop})
}
