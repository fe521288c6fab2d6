package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN         string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL         string `env:"RABBITMQ_URL,required=true"`
	RedisURL            string `env:"REDIS_URL,required=true"`
	NotifyWebhookURL    string `env:"NOTIFY_WEBHOOK_URL,required=true"`
	WebhookRatePerSec   int    `env:"WEBHOOK_RATE_PER_SEC,default=50"`
	NotifierConcurrency int    `env:"NOTIFIER_CONCURRENCY,default=8"`
	SubmitConcurrency   int    `env:"SUBMIT_CONCURRENCY,default=8"`
	ConfirmStageTTLSec  int    `env:"CONFIRM_STAGE_TTL_SEC,default=300"`
	ReminderIntervalSec int    `env:"REMINDER_INTERVAL_SEC,default=300"`
	ReminderMaxAgeHours int    `env:"REMINDER_MAX_AGE_HOURS,default=24"`
	ReminderScanLimit   int    `env:"REMINDER_SCAN_LIMIT,default=100"`
	APIPort             int    `env:"API_PORT,default=8080"`
	LogLevel            string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
