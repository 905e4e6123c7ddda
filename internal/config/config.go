package config

import (
	"fmt"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisURL    string `env:"REDIS_URL" envDefault:""`
	JWTSecret   string `env:"JWT_SECRET,required"`
	// JWTExpiryHours is how long issued tokens stay valid.
	JWTExpiryHours int `env:"JWT_EXPIRY_HOURS" envDefault:"24"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	ProviderURL        string `env:"PROVIDER_URL" envDefault:"http://mock-provider:8081"`
	WebhookCallbackURL string `env:"WEBHOOK_CALLBACK_URL" envDefault:"http://app:8080/api/v1/webhooks/provider"`
	WebhookSecret      string `env:"WEBHOOK_SECRET,required"`

	// MinDonationAmount is the donation floor in currency units (UGX).
	MinDonationAmount int64 `env:"MIN_DONATION_AMOUNT" envDefault:"500"`

	// PledgeGraceDays is how long a pledge stays DUE past its due date
	// before the lifecycle worker expires it.
	PledgeGraceDays       int `env:"PLEDGE_GRACE_DAYS" envDefault:"7"`
	PledgeSweepIntervalS  int `env:"PLEDGE_SWEEP_INTERVAL_S" envDefault:"60"`
	ConfirmationIntervalS int `env:"CONFIRMATION_INTERVAL_S" envDefault:"2"`
	ConfirmationBatchSize int `env:"CONFIRMATION_BATCH_SIZE" envDefault:"50"`

	KafkaBrokers    []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaEventTopic string   `env:"KAFKA_EVENT_TOPIC" envDefault:"funding.events"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}
