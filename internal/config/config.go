package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"

	"github.com/kursadbilgin/photo-dispatch/internal/domain"
)

const (
	ProviderSendGrid  = "sendgrid"
	ProviderMessaging = "messaging"
	ProviderSES       = "ses"
)

type Config struct {
	// Record store
	ProjectID       string `env:"APPWRITE_FUNCTION_PROJECT_ID,required=true"`
	APIKey          string `env:"APPWRITE_API_KEY,required=true"`
	Endpoint        string `env:"APPWRITE_ENDPOINT,default=https://cloud.appwrite.io/v1"`
	PhotoDatabase   string `env:"PHOTO_DATABASE_ID,required=true"`
	PhotoCollection string `env:"PHOTO_COLLECTION_ID,required=true"`

	// Notifier
	NotifierProvider  string `env:"NOTIFIER_PROVIDER,default=sendgrid"`
	SendGridAPIKey    string `env:"SENDGRID_API_KEY"`
	SendGridBaseURL   string `env:"SENDGRID_BASE_URL,default=https://api.sendgrid.com"`
	MessagingEndpoint string `env:"MESSAGING_ENDPOINT"`
	SESRegion         string `env:"SES_REGION"`
	SenderEmail       string `env:"SENDER_EMAIL,required=true"`

	OutboundTimeoutMS int  `env:"OUTBOUND_TIMEOUT_MS,default=10000"`
	DiagnosticMode    bool `env:"DIAGNOSTIC_MODE,default=false"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	// Optional infrastructure; each is disabled when unset.
	RedisURL          string `env:"REDIS_URL"`
	SendRateLimit     int    `env:"SEND_RATE_LIMIT_PER_SEC,default=10"`
	DatabaseDSN       string `env:"DATABASE_DSN"`
	RabbitMQURL       string `env:"RABBITMQ_URL"`
	WorkerConcurrency int    `env:"WORKER_CONCURRENCY,default=4"`
}

// Load reads the configuration from the environment and validates it. Every
// error wraps domain.ErrConfiguration.
func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to load config: %w", domain.ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.NotifierProvider = strings.ToLower(strings.TrimSpace(c.NotifierProvider))
	if strings.TrimSpace(c.SenderEmail) == "" {
		return fmt.Errorf("%w: SENDER_EMAIL is required", domain.ErrConfiguration)
	}

	switch c.NotifierProvider {
	case ProviderSendGrid:
		if strings.TrimSpace(c.SendGridAPIKey) == "" {
			return fmt.Errorf("%w: SENDGRID_API_KEY is required for provider %q", domain.ErrConfiguration, c.NotifierProvider)
		}
	case ProviderSES:
		if strings.TrimSpace(c.SESRegion) == "" {
			return fmt.Errorf("%w: SES_REGION is required for provider %q", domain.ErrConfiguration, c.NotifierProvider)
		}
	case ProviderMessaging:
	default:
		return fmt.Errorf("%w: unknown NOTIFIER_PROVIDER %q", domain.ErrConfiguration, c.NotifierProvider)
	}

	if c.OutboundTimeoutMS <= 0 {
		return fmt.Errorf("%w: OUTBOUND_TIMEOUT_MS must be positive (got %d)", domain.ErrConfiguration, c.OutboundTimeoutMS)
	}
	if c.WorkerConcurrency < 1 {
		c.WorkerConcurrency = 1
	}
	return nil
}

// OutboundTimeout is the deadline applied to every record store and notifier call.
func (c *Config) OutboundTimeout() time.Duration {
	return time.Duration(c.OutboundTimeoutMS) * time.Millisecond
}

// MessagingBaseURL falls back to the record store endpoint.
func (c *Config) MessagingBaseURL() string {
	if strings.TrimSpace(c.MessagingEndpoint) != "" {
		return c.MessagingEndpoint
	}
	return c.Endpoint
}
