// Package bootstrap builds the pipeline and its optional infrastructure from
// a loaded Config. Every entry point goes through it.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/kursadbilgin/photo-dispatch/internal/config"
	"github.com/kursadbilgin/photo-dispatch/internal/domain"
	"github.com/kursadbilgin/photo-dispatch/internal/infra/postgresql"
	"github.com/kursadbilgin/photo-dispatch/internal/infra/postgresql/migrations"
	infraredis "github.com/kursadbilgin/photo-dispatch/internal/infra/redis"
	"github.com/kursadbilgin/photo-dispatch/internal/observability"
	"github.com/kursadbilgin/photo-dispatch/internal/provider"
	"github.com/kursadbilgin/photo-dispatch/internal/recordstore"
	"github.com/kursadbilgin/photo-dispatch/internal/repository"
	"github.com/kursadbilgin/photo-dispatch/internal/service"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App is the wired pipeline plus the optional backends it was given.
type App struct {
	Notify   *service.NotifyService
	Attempts repository.AttemptRepository
	SQLDB    *sql.DB
	Redis    *redis.Client

	closers []func() error
}

// NewStore builds the record store client for the configured photo collection.
func NewStore(cfg *config.Config) (*recordstore.AppwriteStore, error) {
	return recordstore.NewAppwriteStore(recordstore.AppwriteConfig{
		Endpoint:     cfg.Endpoint,
		ProjectID:    cfg.ProjectID,
		APIKey:       cfg.APIKey,
		DatabaseID:   cfg.PhotoDatabase,
		CollectionID: cfg.PhotoCollection,
		Timeout:      cfg.OutboundTimeout(),
	})
}

// NewNotifier builds the notifier selected by NOTIFIER_PROVIDER.
func NewNotifier(ctx context.Context, cfg *config.Config) (provider.Notifier, error) {
	switch cfg.NotifierProvider {
	case config.ProviderSendGrid:
		return provider.NewSendGridNotifier(provider.SendGridConfig{
			BaseURL: cfg.SendGridBaseURL,
			APIKey:  cfg.SendGridAPIKey,
			Timeout: cfg.OutboundTimeout(),
		})
	case config.ProviderMessaging:
		return provider.NewMessagingNotifier(provider.MessagingConfig{
			Endpoint:  cfg.MessagingBaseURL(),
			ProjectID: cfg.ProjectID,
			APIKey:    cfg.APIKey,
			Timeout:   cfg.OutboundTimeout(),
		})
	case config.ProviderSES:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load aws config: %w", domain.ErrConfiguration, err)
		}
		return provider.NewSESNotifier(sesv2.NewFromConfig(awsCfg))
	default:
		return nil, fmt.Errorf("%w: unknown notifier provider %q", domain.ErrConfiguration, cfg.NotifierProvider)
	}
}

// New wires the pipeline. Redis and Postgres are attached only when their
// URLs are configured; a configured backend that cannot be reached fails
// startup.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, metrics *observability.Metrics) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is required", domain.ErrConfiguration)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := NewStore(cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := NewNotifier(ctx, cfg)
	if err != nil {
		return nil, err
	}

	notify, err := service.NewNotifyService(service.NotifyConfig{
		SenderEmail:     cfg.SenderEmail,
		OutboundTimeout: cfg.OutboundTimeout(),
		Diagnostic:      cfg.DiagnosticMode,
	}, store, notifier, logger)
	if err != nil {
		return nil, err
	}
	notify.SetMetrics(metrics)

	app := &App{Notify: notify}

	if cfg.RedisURL != "" {
		rdb, err := infraredis.NewRedis(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis initialization failed: %w", err)
		}
		app.Redis = rdb
		app.closers = append(app.closers, rdb.Close)

		limiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.SendRateLimit)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("rate limiter initialization failed: %w", err)
		}
		notify.SetRateLimiter(limiter)
		logger.Info("send rate limit enabled",
			zap.String("provider", notifier.Name()),
			zap.Int("perSecond", cfg.SendRateLimit),
		)
	}

	if cfg.DatabaseDSN != "" {
		db, err := postgresql.NewPostgres(cfg.DatabaseDSN)
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("postgres initialization failed: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("postgres underlying db init failed: %w", err)
		}
		app.SQLDB = sqlDB
		app.closers = append(app.closers, sqlDB.Close)

		if err := migrations.Migrate(db); err != nil {
			_ = app.Close()
			return nil, fmt.Errorf("database migrations failed: %w", err)
		}

		attempts, err := repository.NewGormAttemptRepo(db)
		if err != nil {
			_ = app.Close()
			return nil, err
		}
		app.Attempts = attempts
		notify.SetAttemptRecorder(attempts)
		logger.Info("delivery audit enabled")
	}

	logger.Info("photo pipeline ready",
		zap.String("provider", notifier.Name()),
		zap.Duration("outboundTimeout", cfg.OutboundTimeout()),
		zap.Bool("diagnostic", cfg.DiagnosticMode),
	)

	return app, nil
}

// Close releases the optional backends in reverse order.
func (a *App) Close() error {
	if a == nil {
		return nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
