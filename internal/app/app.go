package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"EdgarWatcher/internal/config"
	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/infrastructure/blob"
	"EdgarWatcher/internal/infrastructure/diffengine"
	"EdgarWatcher/internal/infrastructure/diffhtml"
	"EdgarWatcher/internal/infrastructure/email"
	"EdgarWatcher/internal/infrastructure/fetch"
	"EdgarWatcher/internal/infrastructure/jsonl"
	"EdgarWatcher/internal/infrastructure/kafka"
	"EdgarWatcher/internal/infrastructure/parser"
	"EdgarWatcher/internal/infrastructure/render"
	"EdgarWatcher/internal/infrastructure/reporting"
	"EdgarWatcher/internal/infrastructure/storage"
	"EdgarWatcher/internal/infrastructure/telegram"
	"EdgarWatcher/internal/logging"
	"EdgarWatcher/internal/ports"
	"EdgarWatcher/internal/usecase"
)

// diffFileLabel replaces scratch buffer names in artifact headers.
const diffFileLabel = "filing document, previous (-) vs current (+)"

// Application wires configs to use cases and owns adapter lifecycles.
type Application struct {
	cfg          config.Config
	logger       *slog.Logger
	store        *storage.Repository
	publisher    *usecase.ArtifactPublisher
	artifacts    *diffhtml.Renderer
	orchestrator *usecase.Orchestrator
}

// New builds every adapter named by cfg. The caller must Close the application.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	a, err := build(ctx, cfg, baseLogger, store)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg config.Config, baseLogger *slog.Logger, store *storage.Repository) (*Application, error) {
	pages := newPageClient(cfg.Edgar)

	links, err := parser.NewIndexResolver(pages, cfg.Edgar.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: edgar base url: %w", domain.ErrInvalidConfig, err)
	}

	pipeline, artifacts := newPipeline(cfg, pages, baseLogger)

	blobs, err := newBlobStore(ctx, cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	publisher := usecase.NewArtifactPublisher(blobs, usecase.PublisherOptions{
		Prefix: cfg.Artifacts.Prefix,
		ACL:    cfg.Artifacts.ACL,
		TTL:    cfg.Artifacts.SignedURLTTL,
	})

	transports, err := newTransports(ctx, cfg.Notifications, baseLogger)
	if err != nil {
		return nil, err
	}
	dispatcher := usecase.NewNotificationDispatcher(transports, usecase.DispatcherOptions{
		Recipients: cfg.Notifications.Email.Recipients,
		Footer:     cfg.Notifications.Footer,
	})

	orchestrator := usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Policy: usecase.Policy{
			DiffAndNotify: config.FilingTypes(cfg.Filings.DiffAndNotify),
			NotifyOnly:    config.FilingTypes(cfg.Filings.NotifyOnly),
		},
		Lineage:    usecase.NewLineageResolver(store),
		Links:      links,
		Diffs:      pipeline,
		Publisher:  publisher,
		Dispatcher: dispatcher,
		Reporter:   reporting.NewLogReporter(baseLogger.With("component", "reporter")),
		Timeouts: usecase.Timeouts{
			Store:   cfg.Timeouts.Store,
			Fetch:   cfg.Timeouts.Fetch,
			Publish: cfg.Timeouts.Publish,
			Notify:  cfg.Timeouts.Notify,
		},
		Logger: baseLogger.With("component", "orchestrator"),
	})

	return &Application{
		cfg:          cfg,
		logger:       baseLogger,
		store:        store,
		publisher:    publisher,
		artifacts:    artifacts,
		orchestrator: orchestrator,
	}, nil
}

// Run consumes the Kafka topic until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	if err := a.publishStaticAssets(ctx); err != nil {
		return err
	}

	source, err := kafka.NewSource(kafka.Options{
		Brokers: a.cfg.Source.Kafka.Brokers,
		Topic:   a.cfg.Source.Kafka.Topic,
		GroupID: a.cfg.Source.Kafka.GroupID,
	}, a.logger.With("component", "source.kafka"))
	if err != nil {
		return err
	}
	defer closeLogged(a.logger, "kafka source", source)

	a.logger.Info("consuming entries", "topic", a.cfg.Source.Kafka.Topic, "group", a.cfg.Source.Kafka.GroupID)
	return a.runner(source, usecase.RunnerOptions{}).Run(ctx)
}

// Replay processes the events stored in a JSON-lines file. With record set each
// entry is saved to the store once handled, so later lines see it as lineage.
func (a *Application) Replay(ctx context.Context, path string, record bool) error {
	if err := a.publishStaticAssets(ctx); err != nil {
		return err
	}

	source, err := jsonl.Open(path, a.logger.With("component", "source.jsonl"))
	if err != nil {
		return err
	}
	defer closeLogged(a.logger, "replay file", source)

	var opts usecase.RunnerOptions
	if record {
		// lineage of later lines depends on earlier ones being stored first
		opts.Concurrency = 1
		opts.AfterEvent = func(ctx context.Context, ev domain.Event, _ error) {
			if err := a.store.SaveEntry(ctx, ev.Feed, ev.Entry); err != nil {
				a.logger.Error("record entry", "guid", ev.Entry.GUID, "error", err)
			}
		}
	}
	return a.runner(source, opts).Run(ctx)
}

// Diff renders a one-shot artifact comparing two documents into out. It needs
// neither the store nor any publishing backend.
func Diff(ctx context.Context, cfg config.Config, logger *slog.Logger, oldURL, newURL, out string) error {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}
	pipeline, _ := newPipeline(cfg, newPageClient(cfg.Edgar), logger)

	result, err := pipeline.BuildDiff(ctx, oldURL, newURL)
	if err != nil {
		return err
	}

	artifact, err := pipeline.RenderArtifact(domain.FilingEntry{
		GUID:      "adhoc",
		Title:     newURL,
		FeedTitle: oldURL,
	}, result)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, artifact.Body, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	logger.Info("diff written", "path", out, "changed", result.Changed)
	return nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

func (a *Application) runner(source ports.EntrySource, opts usecase.RunnerOptions) *usecase.Runner {
	if opts.Concurrency == 0 {
		opts.Concurrency = a.cfg.Worker.Concurrency
	}
	opts.EventTimeout = a.cfg.Worker.EventTimeout
	opts.Logger = a.logger.With("component", "runner")
	return usecase.NewRunner(source, a.orchestrator, opts)
}

func (a *Application) publishStaticAssets(ctx context.Context) error {
	if !a.cfg.Artifacts.UploadStaticAssets {
		return nil
	}
	assets, err := a.artifacts.Assets()
	if err != nil {
		return err
	}
	if err := a.publisher.PublishStaticAssets(ctx, assets); err != nil {
		return fmt.Errorf("publish static assets: %w", err)
	}
	a.logger.Info("static assets published", "count", len(assets))
	return nil
}

func newPageClient(cfg config.EdgarConfig) *fetch.Client {
	return fetch.NewClient(&http.Client{Timeout: cfg.Timeout}, fetch.Options{
		UserAgent:         cfg.UserAgent,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
}

func newPipeline(cfg config.Config, pages *fetch.Client, logger *slog.Logger) (*usecase.DiffPipeline, *diffhtml.Renderer) {
	artifacts := diffhtml.NewRenderer(diffhtml.Options{
		StaticPath: cfg.Artifacts.StaticPath,
		FileLabel:  diffFileLabel,
		Footer:     cfg.Notifications.Footer,
	})

	pipeline := usecase.NewDiffPipeline(usecase.DiffPipelineDeps{
		Renderer:      newRenderer(cfg.Render, pages),
		Engine:        newDiffEngine(cfg.Diff),
		Artifacts:     artifacts,
		Logger:        logger.With("component", "diff"),
		ScratchDir:    cfg.Diff.WorkDir,
		RenderTimeout: cfg.Timeouts.Render,
		DiffTimeout:   cfg.Timeouts.Diff,
	})
	return pipeline, artifacts
}

func openStore(ctx context.Context, cfg config.DatabaseConfig) (*storage.Repository, error) {
	switch cfg.Driver {
	case "sqlite":
		return storage.OpenSQLite(ctx, cfg.DSN)
	default:
		return storage.OpenPostgres(ctx, cfg.DSN, cfg.MaxOpenConns)
	}
}

func newRenderer(cfg config.RenderConfig, pages *fetch.Client) ports.DocumentRenderer {
	if cfg.Kind == "html" {
		return render.NewPlainText(pages, cfg.Width)
	}
	return render.NewW3M(cfg.W3MPath, cfg.Width)
}

func newDiffEngine(cfg config.DiffConfig) ports.DiffEngine {
	if cfg.Engine == "native" {
		return diffengine.NewNative()
	}
	return diffengine.NewGit(cfg.GitPath)
}

func newBlobStore(ctx context.Context, cfg config.ArtifactsConfig) (ports.BlobStore, error) {
	if cfg.Backend == "filesystem" {
		return blob.NewFilesystem(cfg.Dir, cfg.PublicBaseURL)
	}

	awsCfg, err := loadAWS(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return blob.NewS3(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

func newTransports(ctx context.Context, cfg config.NotificationConfig, logger *slog.Logger) ([]ports.MessageTransport, error) {
	var transports []ports.MessageTransport

	if cfg.Email.Enabled() {
		awsCfg, err := loadAWS(ctx, cfg.Email.Region)
		if err != nil {
			return nil, err
		}
		transports = append(transports, email.NewSES(sesv2.NewFromConfig(awsCfg), cfg.Email.Source))
	}

	if cfg.Telegram.Enabled() {
		transports = append(transports, telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.APIBase))
	}

	if len(transports) == 0 {
		logger.Warn("no notification transport configured, notifications are logged only")
		transports = append(transports, reporting.NewLogTransport(logger.With("component", "notifications")))
	}
	return transports, nil
}

func loadAWS(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("%w: load aws config: %w", domain.ErrInvalidConfig, err)
	}
	return awsCfg, nil
}

type closer interface{ Close() error }

func closeLogged(logger *slog.Logger, what string, c closer) {
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logger.Warn("close "+what, "error", err)
	}
}
