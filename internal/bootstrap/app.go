package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"billtracker/internal/billing"
	"billtracker/internal/bills"
	"billtracker/internal/document"
	"billtracker/internal/events"
	"billtracker/internal/fetcher"
	"billtracker/internal/inbox"
	"billtracker/internal/ledger"
	"billtracker/internal/pipeline"
	"billtracker/internal/qa"
	"billtracker/internal/qa/openai"
	"billtracker/internal/reminder"
	"billtracker/internal/shared/config"
	"billtracker/internal/shared/secrets"
	"billtracker/internal/shared/server"
	"billtracker/internal/shared/storage/db"
	"billtracker/internal/shared/storage/object"
	localstore "billtracker/internal/shared/storage/object/local"
	s3store "billtracker/internal/shared/storage/object/s3"
	"billtracker/internal/shared/telemetry"
)

// App holds shared dependencies wired from configuration.
type App struct {
	Config    config.Config
	Router    *gin.Engine
	DB        *sql.DB
	Store     object.ObjectStore
	Ledger    ledger.Repo
	Engine    qa.Engine
	Scheduler reminder.Scheduler
	Source    inbox.Source
	Publisher events.Publisher
	Fetcher   *fetcher.Fetcher
	Processor *pipeline.Processor
}

// Build prepares the full dependency graph: secrets, storage, ledger, QA
// engine, reminder strategy, inbox source, and the two pipeline stages.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	if err := resolveSecrets(ctx, &cfg); err != nil {
		return nil, err
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var repo ledger.Repo
	if sqlDB != nil {
		repo = &ledger.PGRepo{DB: sqlDB}
	} else {
		repo = ledger.NewMemoryRepo()
	}

	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	scheduler, err := buildScheduler(cfg)
	if err != nil {
		return nil, err
	}

	processor := &pipeline.Processor{
		Store:     store,
		Loader:    document.NewLoader(),
		Extractor: billing.NewExtractor(engine),
		Scheduler: scheduler,
		Ledger:    repo,
	}

	app := &App{
		Config:    cfg,
		DB:        sqlDB,
		Store:     store,
		Ledger:    repo,
		Engine:    engine,
		Scheduler: scheduler,
		Processor: processor,
	}

	if cfg.MailUsername != "" && cfg.MailPassword != "" {
		app.Source = inbox.NewIMAPSource(
			cfg.IMAPHost,
			cfg.MailUsername,
			cfg.MailPassword,
			cfg.InvoiceSender,
			cfg.SubjectPrefix,
			cfg.FetchLimit,
		)
	} else {
		log.Printf("bootstrap: mail credentials missing; fetch stage disabled")
	}

	app.Publisher, err = buildPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if app.Source != nil {
		app.Fetcher = &fetcher.Fetcher{Source: app.Source, Store: store, Publisher: app.Publisher}
	}

	app.Router = server.NewRouter(cfg, bills.NewHandler(processor, app.Fetcher))

	return app, nil
}

func resolveSecrets(ctx context.Context, cfg *config.Config) error {
	var provider secrets.Provider
	if strings.TrimSpace(cfg.SecretName) != "" {
		awsProvider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			return fmt.Errorf("bootstrap: secrets provider: %w", err)
		}
		provider = awsProvider
	} else {
		provider = secrets.EnvProvider{Keys: secrets.CredentialKeys()}
	}

	payload, err := provider.GetSecret(ctx, cfg.SecretName)
	if err != nil {
		return fmt.Errorf("bootstrap: resolve secret %q: %w", cfg.SecretName, err)
	}
	cfg.ApplySecrets(payload)
	return nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		log.Printf("bootstrap: DATABASE_URL empty; using in-memory ledger")
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory ledger: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildEngine(cfg config.Config) (qa.Engine, error) {
	if cfg.QAProvider != "openai" {
		return qa.PlaceholderEngine{}, nil
	}
	if cfg.QAAPIKey == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY missing; using placeholder engine")
			return qa.PlaceholderEngine{}, nil
		}
		return nil, fmt.Errorf("bootstrap: OPENAI_API_KEY is required")
	}
	return openai.NewClient(cfg.QAAPIKey, cfg.QAModel)
}

func buildScheduler(cfg config.Config) (reminder.Scheduler, error) {
	var (
		scheduler reminder.Scheduler
		err       error
	)
	switch cfg.ReminderStrategy {
	case config.StrategyCalendar:
		scheduler, err = reminder.NewCalendarScheduler(cfg.CalendarCredentials, cfg.CalendarID)
	default:
		scheduler, err = reminder.NewWebhookScheduler(cfg.WebhookKey)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: reminder credentials missing; reminders disabled: %v", err)
			return noopScheduler{}, nil
		}
		return nil, err
	}
	return scheduler, nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (events.Publisher, error) {
	if strings.TrimSpace(cfg.AWSRegion) == "" || strings.TrimSpace(cfg.EventBusName) == "" {
		return nil, nil
	}
	pub, err := events.NewEventBridgePublisher(ctx, cfg.AWSRegion, cfg.EventBusName, cfg.EventSource, cfg.EventDetailType)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: event bus unavailable; processing inline: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return pub, nil
}

// noopScheduler stands in when no reminder credentials are configured.
type noopScheduler struct{}

func (noopScheduler) Schedule(ctx context.Context, bill billing.BillRecord) error {
	_ = ctx
	telemetry.Warn("reminder.disabled", telemetry.Fields{
		"due_date":   bill.DueDate,
		"due_amount": bill.DueAmount,
	})
	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
