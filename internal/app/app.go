package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"NewsRefinery/internal/config"
	"NewsRefinery/internal/fetcher"
	"NewsRefinery/internal/infrastructure/events"
	"NewsRefinery/internal/infrastructure/feed"
	"NewsRefinery/internal/infrastructure/llm"
	"NewsRefinery/internal/infrastructure/parser"
	"NewsRefinery/internal/infrastructure/scheduler"
	"NewsRefinery/internal/infrastructure/storage"
	"NewsRefinery/internal/infrastructure/telegram"
	"NewsRefinery/internal/logging"
	"NewsRefinery/internal/ports"
	"NewsRefinery/internal/server"
	"NewsRefinery/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	ingestor  *usecase.Ingestor
	processor *usecase.Processor
	server    *server.Server
	scheduler ports.Scheduler
	closers   []func() error
}

// New builds a runnable application instance against a live database.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	db, err := storage.Open(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := storage.EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	rawNews := storage.NewRawNewsRepository(db)
	articles := storage.NewArticleRepository(db)
	settings := storage.NewSettingsRepository(db)

	registry := fetcher.NewRegistry()
	registry.Register(feed.NewRSSFetcher(nil))
	registry.Register(parser.NewListFetcher(nil))

	source := fetcher.NewMultiSource(registry, cfg.Sources, baseLogger.With("component", "source"))

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Source:     source,
		Repository: rawNews,
		Logger:     baseLogger.With("component", "ingestor"),
	})

	timeout := cfg.Rewriter.Timeout.Std()
	rewriter := llm.NewChain(baseLogger.With("component", "rewriter"),
		llm.NewClient(cfg.Rewriter.Primary, timeout, settings),
		llm.NewClient(cfg.Rewriter.Fallback, timeout, settings),
	)

	app := &Application{cfg: cfg, logger: baseLogger, ingestor: ingestor}
	app.closers = append(app.closers, db.Close)

	var publisher ports.Publisher
	if cfg.Fanout.Kafka.Broker != "" {
		producer := events.NewProducer(cfg.Fanout.Kafka.Broker, cfg.Fanout.Kafka.Topic)
		app.closers = append(app.closers, producer.Close)
		publisher = producer
	}

	var notifier ports.Notifier
	if cfg.Fanout.Telegram.BotToken != "" {
		notifier = telegram.NewNotifier(cfg.Fanout.Telegram.BotToken, cfg.Fanout.Telegram.ChatID)
	}

	app.processor = usecase.NewProcessor(usecase.ProcessorDeps{
		RawNews:   rawNews,
		Articles:  articles,
		Rewriter:  rewriter,
		Publisher: publisher,
		Notifier:  notifier,
		Delay:     cfg.Rewriter.Delay.Std(),
		Logger:    baseLogger.With("component", "processor"),
	})

	handler := server.NewHandler(app.ingestor, app.processor, articles, settings,
		baseLogger.With("component", "http"))
	app.server = server.New(cfg.Server, handler, baseLogger.With("component", "http"))

	app.scheduler = scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())

	return app, nil
}

// Run starts the scheduler and serves HTTP until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	job := func(trigger time.Time) {
		a.logger.Info("scheduled crawl", "trigger", trigger.Format(time.RFC3339))
		if _, err := a.ingestor.Run(ctx); err != nil {
			a.logger.Error("scheduled crawl failed", "error", err)
		}
	}
	if err := a.scheduler.Start(ctx, job); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	err := a.server.Run(ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if stopErr := a.scheduler.Stop(stopCtx); stopErr != nil {
		a.logger.Warn("scheduler stop", "error", stopErr)
	}

	for _, closeFn := range a.closers {
		if closeErr := closeFn(); closeErr != nil {
			a.logger.Warn("close resource", "error", closeErr)
		}
	}

	return err
}
