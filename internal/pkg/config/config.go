package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.)
// - default: Values common across all environments (timeouts, windows, etc.)
// -----------------------------------------------------------------------------

type Config struct {
	Server      ServerConfig
	DB          DBConfig
	CORS        CORSConfig
	Log         LogConfig
	Reservation ReservationConfig
	Worker      WorkerConfig
	Collab      CollabConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,X-User-ID,X-User-Role"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// ReservationConfig tunes the reservation lifecycle.
type ReservationConfig struct {
	// HoldDuration is added to start_time when a ONE_TIME reservation
	// arrives without an explicit end_time.
	HoldDuration time.Duration `envconfig:"RESERVATION_HOLD_DURATION" default:"1h"`
	// NotifyWindow is how far before end_time a pending reservation
	// becomes eligible for a near-expiry notification.
	NotifyWindow   time.Duration `envconfig:"RESERVATION_NOTIFY_WINDOW" default:"15m"`
	NotifyInterval time.Duration `envconfig:"RESERVATION_NOTIFY_INTERVAL" default:"5m"`
	SweepInterval  time.Duration `envconfig:"RESERVATION_SWEEP_INTERVAL" default:"10m"`
	// AssignmentHour is the local hour of day the fixed-slot assignment runs.
	AssignmentHour int    `envconfig:"RESERVATION_ASSIGNMENT_HOUR" default:"6"`
	Timezone       string `envconfig:"RESERVATION_TIMEZONE" default:"UTC"`
}

type WorkerConfig struct {
	PollInterval     time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"5s"`
	BatchSize        int32         `envconfig:"WORKER_BATCH_SIZE" default:"25"`
	ExecutionTimeout time.Duration `envconfig:"WORKER_EXECUTION_TIMEOUT" default:"2m"`

	ExpireRetry RetryConfig `envconfig:"WORKER_EXPIRE"`
	NotifyRetry RetryConfig `envconfig:"WORKER_NOTIFY"`
	AssignRetry RetryConfig `envconfig:"WORKER_ASSIGN"`
	WalletRetry RetryConfig `envconfig:"WORKER_WALLET"`
}

// RetryConfig is one job type's retry budget. Defaults are set per type in
// DefaultWorkerConfig because envconfig applies struct defaults uniformly.
type RetryConfig struct {
	MaxAttempts int           `envconfig:"MAX_ATTEMPTS"`
	BaseDelay   time.Duration `envconfig:"BASE_DELAY"`
	MaxDelay    time.Duration `envconfig:"MAX_DELAY"`
}

type CollabConfig struct {
	WalletBaseURL   string        `envconfig:"COLLAB_WALLET_BASE_URL" default:"http://localhost:9101"`
	NotifierBaseURL string        `envconfig:"COLLAB_NOTIFIER_BASE_URL" default:"http://localhost:9102"`
	Timeout         time.Duration `envconfig:"COLLAB_TIMEOUT" default:"10s"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	applyWorkerDefaults(&cfg.Worker)
	return cfg, nil
}

// Per-type retry defaults; wallet execution runs on a tighter SLA than the
// rest, so it retries fast and often.
func applyWorkerDefaults(w *WorkerConfig) {
	fill := func(rc *RetryConfig, attempts int, base, maxDelay time.Duration) {
		if rc.MaxAttempts == 0 {
			rc.MaxAttempts = attempts
		}
		if rc.BaseDelay == 0 {
			rc.BaseDelay = base
		}
		if rc.MaxDelay == 0 {
			rc.MaxDelay = maxDelay
		}
	}
	fill(&w.ExpireRetry, 5, 30*time.Second, 10*time.Minute)
	fill(&w.NotifyRetry, 3, time.Minute, 15*time.Minute)
	fill(&w.AssignRetry, 4, time.Minute, 30*time.Minute)
	fill(&w.WalletRetry, 8, 5*time.Second, 2*time.Minute)
}
