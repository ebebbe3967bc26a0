package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	App      App
	Log      Log
	HTTP     HTTP
	Probe    Probe
	Metrics  Metrics
	Postgres Postgres
	Redis    Redis
	Asynq    Asynq
	Nats     Nats
	Bot      Bot
	Auction  Auction
}

type App struct {
	Name    string `env:"APP_NAME" envDefault:"campus-auction"`
	Version string `env:"APP_VERSION" envDefault:"dev"`
}

type Log struct {
	Pretty bool `env:"LOG_PRETTY" envDefault:"false"`
	Debug  bool `env:"LOG_DEBUG" envDefault:"false"`
	// LogFieldMaxLen обрезает дампы запросов и ответов в логах
	LogFieldMaxLen int `env:"LOG_FIELD_MAX_LEN" envDefault:"4096"`
}

type HTTP struct {
	ListenAddress   string        `env:"HTTP_LISTEN_ADDRESS" envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"15s"`
	// CORSOrigins через запятую; пусто — CORS выключен
	CORSOrigins []string `env:"HTTP_CORS_ORIGINS" envSeparator:","`
}

type Probe struct {
	ListenAddress string `env:"PROBE_LISTEN_ADDRESS" envDefault:":8081"`
}

type Metrics struct {
	ListenAddress string `env:"METRICS_LISTEN_ADDRESS" envDefault:":9090"`
}

type Redis struct {
	Address            string `env:"REDIS_ADDRESS" envDefault:"localhost:6379"`
	Username           string `env:"REDIS_USERNAME"`
	Password           string `env:"REDIS_PASSWORD" json:"-"`
	DatabaseNumber     int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize           int    `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConnections int    `env:"REDIS_MIN_IDLE_CONNS" envDefault:"1"`
	MaxIdleConnections int    `env:"REDIS_MAX_IDLE_CONNS" envDefault:"5"`
	// PublishEvents включает pub/sub событий лотов для живых подписчиков
	PublishEvents bool   `env:"REDIS_PUBLISH_EVENTS" envDefault:"true"`
	EventsPrefix  string `env:"REDIS_EVENTS_PREFIX" envDefault:"auction_events"`
}

type Asynq struct {
	Queue       string        `env:"ASYNQ_QUEUE" envDefault:"auction"`
	Concurrency int           `env:"ASYNQ_CONCURRENCY" envDefault:"10"`
	MaxRetry    int           `env:"ASYNQ_MAX_RETRY" envDefault:"25"`
	DedupTTL    time.Duration `env:"ASYNQ_DEDUP_TTL" envDefault:"1m"`
}

type Nats struct {
	// URL пустой — события в JetStream не публикуются
	URL     string        `env:"NATS_URL"`
	Stream  string        `env:"NATS_STREAM" envDefault:"AUCTION_EVENTS"`
	Subject string        `env:"NATS_SUBJECT" envDefault:"auction.events"`
	MaxAge  time.Duration `env:"NATS_MAX_AGE" envDefault:"168h"`
}

// Bot — уведомления о закрытых лотах в чат модераторов. Без токена выключены.
type Bot struct {
	Token  string `env:"BOT_TOKEN" json:"-"`
	ChatID int64  `env:"BOT_CHAT_ID"`
	// AdminID включает консоль оператора для этого пользователя
	AdminID int64 `env:"BOT_ADMIN_ID"`
}

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	SchedulerAsynq = "asynq"
	SchedulerTimer = "timer"
)

type Auction struct {
	Storage   string `env:"AUCTION_STORAGE" envDefault:"postgres"`
	Scheduler string `env:"AUCTION_SCHEDULER" envDefault:"asynq"`

	SweepInterval time.Duration `env:"AUCTION_SWEEP_INTERVAL" envDefault:"30s"`
	SweepBatch    int           `env:"AUCTION_SWEEP_BATCH" envDefault:"100"`

	RetryInitial time.Duration `env:"AUCTION_RETRY_INITIAL" envDefault:"1s"`
	RetryMax     time.Duration `env:"AUCTION_RETRY_MAX" envDefault:"1m"`
}

func Load() (Config, error) {
	_ = godotenv.Load()

	var config Config

	if err := env.Parse(&config); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}

	if err := config.validate(); err != nil {
		return Config{}, err
	}

	config.Bot.Token = correctNewlines(config.Bot.Token)

	return config, nil
}

// NeedsRedis сообщает, нужен ли Redis при выбранной конфигурации.
func (c Config) NeedsRedis() bool {
	return c.Auction.Scheduler == SchedulerAsynq || c.Redis.PublishEvents
}

func (c Config) validate() error {
	switch c.Auction.Storage {
	case StoragePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("PG_DSN is required for storage %q", c.Auction.Storage)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown AUCTION_STORAGE %q", c.Auction.Storage)
	}

	switch c.Auction.Scheduler {
	case SchedulerAsynq, SchedulerTimer:
	default:
		return fmt.Errorf("unknown AUCTION_SCHEDULER %q", c.Auction.Scheduler)
	}

	if c.Bot.Token != "" && c.Bot.ChatID == 0 {
		return errors.New("BOT_CHAT_ID is required when BOT_TOKEN is set")
	}

	return nil
}

func correctNewlines(s string) string {
	return strings.NewReplacer(`"`, "", `\n`, "\n").Replace(s)
}
