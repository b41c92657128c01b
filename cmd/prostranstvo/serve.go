package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/terraincognita07/prostranstvo/internal/api"
	"github.com/terraincognita07/prostranstvo/internal/bot"
	"github.com/terraincognita07/prostranstvo/internal/cli"
	"github.com/terraincognita07/prostranstvo/internal/config"
	"github.com/terraincognita07/prostranstvo/internal/db"
	"github.com/terraincognita07/prostranstvo/internal/generator"
	"github.com/terraincognita07/prostranstvo/internal/i18n"
	"github.com/terraincognita07/prostranstvo/internal/observability"
	"github.com/terraincognita07/prostranstvo/internal/services"
	"github.com/terraincognita07/prostranstvo/internal/telegram"
	"go.uber.org/zap"
)

const metricsNamespace = "prostranstvo"

type botServer struct {
	cfg        config.Config
	app        *fiber.App
	handler    *api.Handler
	client     *telegram.Client
	dispatcher *telegram.Dispatcher
	notifier   *services.NotificationService
	store      io.Closer
	logger     *zap.Logger
}

func serve(ctx context.Context, cfg config.Config) error {
	zapLogger, err := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer zapLogger.Sync() //nolint:errcheck

	lifecycleCtx, cancelLifecycle := context.WithCancel(ctx)
	defer cancelLifecycle()

	server, err := buildServer(lifecycleCtx, cfg, zapLogger)
	if err != nil {
		return err
	}
	defer server.store.Close()

	if cfg.Notifications.Enabled {
		server.notifier.Start(lifecycleCtx)
	}

	go func() {
		<-lifecycleCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.app.ShutdownWithContext(shutdownCtx); err != nil {
			zapLogger.Warn("server shutdown failed", zap.Error(err))
		}
	}()

	listenErr := make(chan error, 1)
	go func() {
		zapLogger.Info("http listening",
			zap.String("port", cfg.HTTP.Port),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("tz", cfg.Location().String()),
		)
		listenErr <- server.app.Listen(":" + cfg.HTTP.Port)
	}()

	runErr := make(chan error, 1)
	go func() {
		if cfg.Bot.WebhookURL != "" {
			runErr <- server.runWebhook(lifecycleCtx)
			return
		}
		runErr <- server.runPolling(lifecycleCtx)
	}()

	var result error
	select {
	case err := <-listenErr:
		cancelLifecycle()
		if err != nil {
			result = fmt.Errorf("server exited: %w", err)
		}
		if err := <-runErr; err != nil && result == nil {
			result = err
		}
	case err := <-runErr:
		cancelLifecycle()
		result = err
		if err := <-listenErr; err != nil && result == nil {
			result = fmt.Errorf("server exited: %w", err)
		}
	}

	server.handler.Wait()
	zapLogger.Info("stopped")
	return result
}

func buildServer(ctx context.Context, cfg config.Config, zapLogger *zap.Logger) (*botServer, error) {
	location := cfg.Location()
	time.Local = location

	metrics := observability.NewCollector(metricsNamespace)

	store, closer, err := db.OpenStore(ctx, cli.StoreOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("storage init failed: %w", err)
	}
	repos := db.NewRepositories(store)

	texts, err := i18n.NewEmbeddedManager(cfg.Language)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("i18n init failed: %w", err)
	}

	completer := generator.NewAnthropicClient(generator.AnthropicConfig{
		APIKey:    cfg.Generator.APIKey,
		Model:     cfg.Generator.Model,
		Endpoint:  cfg.Generator.Endpoint,
		MaxTokens: cfg.Generator.MaxTokens,
		Timeout:   cfg.Generator.Timeout,
	})
	gatewayOptions := generator.DefaultGatewayOptions()
	gatewayOptions.Attempts = cfg.Generator.Attempts
	gatewayOptions.Logger = zapLogger.Named("generator")
	gatewayOptions.Metrics = metrics
	gateway := generator.NewGateway(completer, gatewayOptions)

	entitlements := services.NewEntitlementService(repos.Users, location, metrics)
	energy := services.NewDailyEnergyService(repos.DailyEnergy, gateway, entitlements, zapLogger.Named("daily_energy"), metrics)
	seed := uint64(time.Now().UnixNano())
	readings := services.NewReadingService(entitlements, gateway, rand.New(rand.NewPCG(seed, seed>>1|1)))
	diary := services.NewDiaryService(repos.Diary, entitlements, metrics)

	router := bot.NewRouter(bot.Dependencies{
		Entitlements: entitlements,
		DailyEnergy:  energy,
		Readings:     readings,
		Diary:        diary,
		Texts:        texts,
		Location:     location,
		Logger:       zapLogger.Named("bot"),
		Metrics:      metrics,
	})

	client := telegram.NewClient(cfg.Bot.Token, telegram.ClientOptions{BaseURL: cfg.Bot.APIBaseURL})
	dispatcher := telegram.NewDispatcher(client, router, zapLogger.Named("telegram"))

	notifier := services.NewNotificationService(entitlements, client, services.NotificationOptions{
		Hour:     cfg.Notifications.Hour,
		Interval: cfg.Notifications.Interval,
		Texts: services.NotificationTexts{
			DailyEnergy:   texts.Translate(cfg.Language, "notifications.push_daily"),
			DiaryReminder: texts.Translate(cfg.Language, "notifications.push_diary"),
		},
	}, zapLogger.Named("notifications"), metrics)

	handler, err := api.NewHandler(api.HandlerConfig{
		Updates:           dispatcher,
		Users:             entitlements,
		Diary:             diary,
		WebhookSecret:     cfg.Bot.WebhookSecret,
		SecretKey:         cfg.HTTP.SecretKey,
		AdminPasswordHash: cfg.HTTP.AdminPasswordHash,
		Logger:            zapLogger.Named("api"),
		Metrics:           metrics,
		Context:           ctx,
	})
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("handler init failed: %w", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               "prostranstvo",
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())
	api.RegisterRoutes(app, handler)

	return &botServer{
		cfg:        cfg,
		app:        app,
		handler:    handler,
		client:     client,
		dispatcher: dispatcher,
		notifier:   notifier,
		store:      closer,
		logger:     zapLogger,
	}, nil
}

func (server *botServer) runWebhook(ctx context.Context) error {
	registerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := server.client.SetWebhook(registerCtx, server.cfg.Bot.WebhookURL, server.cfg.Bot.WebhookSecret)
	cancel()
	if err != nil {
		return fmt.Errorf("register webhook: %w", err)
	}
	server.logger.Info("webhook registered", zap.String("url", server.cfg.Bot.WebhookURL))

	<-ctx.Done()
	return nil
}

func (server *botServer) runPolling(ctx context.Context) error {
	registerCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err := server.client.DeleteWebhook(registerCtx)
	cancel()
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("delete webhook: %w", err)
	}

	poller := telegram.NewPoller(server.client, server.dispatcher, telegram.PollerOptions{
		Timeout: server.cfg.Bot.PollTimeout,
		Workers: server.cfg.Bot.Workers,
	}, server.logger.Named("poller"))
	server.logger.Info("long polling started", zap.Int("workers", server.cfg.Bot.Workers))
	return poller.Run(ctx)
}
