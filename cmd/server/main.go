package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"

	"github.com/recurpix/recurpix/internal/api"
	"github.com/recurpix/recurpix/internal/config"
	"github.com/recurpix/recurpix/internal/httpclient"
	"github.com/recurpix/recurpix/internal/integration/depix"
	"github.com/recurpix/recurpix/internal/integration/telegram"
	"github.com/recurpix/recurpix/internal/logger"
	"github.com/recurpix/recurpix/internal/scheduler"
	"github.com/recurpix/recurpix/internal/service"
	"github.com/recurpix/recurpix/internal/store"
)

func init() {
	// All billing day arithmetic is done in UTC.
	time.Local = time.UTC
}

func main() {
	// Local development reads credentials from a .env file; in production
	// they come from the environment directly.
	_ = godotenv.Load()

	app := fx.New(
		fx.Provide(
			// Config. Validation fails fast on a missing Telegram token
			// or gateway API key, before the event loop starts.
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// HTTP substrate for the gateway client
			provideHTTPClient,

			// Subscriber store
			store.NewFileStore,

			// Integrations
			depix.NewClient,
			fx.Annotate(telegram.NewClient, fx.As(new(service.ChatChannel))),

			// Retry scheduler
			scheduler.New,

			// Services
			service.NewConversationService,
			service.NewPresenter,
			service.NewChargeIssuer,
			service.NewPaymentVerifier,
			service.NewOrchestrator,

			// Ops API
			api.NewRouter,
		),
		fx.Invoke(startOpsServer),
		fx.Invoke(startOrchestrator),
	)

	app.Run()
}

func provideHTTPClient(cfg *config.Configuration) httpclient.Client {
	return httpclient.NewClientWithTimeout(cfg.Gateway.Timeout)
}

func startOpsServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	router *gin.Engine,
	log *logger.Logger,
) {
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Infow("ops server starting", "address", cfg.Server.Address)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Errorw("ops server failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}

func startOrchestrator(
	lc fx.Lifecycle,
	orchestrator *service.Orchestrator,
	log *logger.Logger,
) {
	loopCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := orchestrator.RegisterCommands(ctx); err != nil {
				// Command registration is cosmetic; the bot still answers.
				log.Warnw("failed to register commands", "error", err)
			}
			if err := orchestrator.StartSweep(); err != nil {
				return err
			}
			// Catch up subscribers whose billing day is today in case the
			// process was down when the sweep should have fired.
			go orchestrator.DailySweep(loopCtx)
			go orchestrator.Run(loopCtx)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			orchestrator.Stop()
			return nil
		},
	})
}
