package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	PortalBaseURL     string `env:"PORTAL_BASE_URL,required=true"`
	PortalEmail       string `env:"PORTAL_EMAIL,required=true"`
	PortalPassword    string `env:"PORTAL_PASSWORD,required=true"`
	PortalOTPSecret   string `env:"PORTAL_OTP_SECRET"`
	PortalAccountName string `env:"PORTAL_ACCOUNT_NAME"`
	PortalRegion      string `env:"PORTAL_REGION"`
	Headless          bool   `env:"HEADLESS,default=true"`

	StepTimeoutMS    int `env:"STEP_TIMEOUT_MS,default=30000"`
	ProbeTimeoutMS   int `env:"PROBE_TIMEOUT_MS,default=3000"`
	MaxRunDurationMS int `env:"MAX_RUN_DURATION_MS,default=1800000"`
	SearchRatePerSec int `env:"SEARCH_RATE_LIMIT_PER_SEC,default=1"`

	// Optional infra. An empty value switches the feature off.
	DatabaseDSN      string `env:"DATABASE_DSN"`
	RedisURL         string `env:"REDIS_URL"`
	RabbitMQURL      string `env:"RABBITMQ_URL"`
	ResultWebhookURL string `env:"RESULT_WEBHOOK_URL"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.StepTimeoutMS) * time.Millisecond
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}

func (c *Config) MaxRunDuration() time.Duration {
	return time.Duration(c.MaxRunDurationMS) * time.Millisecond
}
