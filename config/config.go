package config

import (
	"log/slog"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV" env-default:"local"`
	HTTP     HTTPConfig
	Database DBConfig
	Redis    RedisConfig
	Security SecConfig
	Trading  TradingConfig
	Market   MarketConfig
	Kafka    KafkaConfig
}

type HTTPConfig struct {
	Port    uint16        `env:"PORT" env-default:"3000"`
	Timeout time.Duration `env:"HTTP_TIMEOUT" env-default:"30s"`
}

// DBConfig selects the relational store. SQLite is the development default,
// Postgres is used when DB_DRIVER=postgres.
type DBConfig struct {
	Driver     string `env:"DB_DRIVER" env-default:"sqlite"`
	SQLitePath string `env:"DB_PATH" env-default:"database.sqlite"`
	URL        string `env:"DATABASE_URL"`
	Host       string `env:"POSTGRES_HOST" env-default:"localhost"`
	Port       uint16 `env:"POSTGRES_PORT" env-default:"5432"`
	User       string `env:"POSTGRES_USER" env-default:"postgres"`
	Password   string `env:"POSTGRES_PASSWORD" env-default:"postgres"`
	Name       string `env:"POSTGRES_DB" env-default:"stockit"`
	LogQueries bool   `env:"DB_LOG_QUERIES" env-default:"false"`
}

// RedisConfig is optional: an empty address disables the quote cache and the
// refresh session store.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

type SecConfig struct {
	JWTSecret  string        `env:"JWT_SECRET" env-required:"true"`
	AccessTTL  time.Duration `env:"JWT_EXPIRES_IN" env-default:"720h"`
	RefreshTTL time.Duration `env:"JWT_REFRESH_EXPIRES_IN" env-default:"2160h"`
	BcryptCost int           `env:"BCRYPT_COST" env-default:"10"`
}

type TradingConfig struct {
	StartingBalance float64 `env:"STARTING_BALANCE" env-default:"100000"`
}

type MarketConfig struct {
	Provider string        `env:"MARKET_PROVIDER" env-default:"mock"`
	URL      string        `env:"ALPHA_VANTAGE_URL" env-default:"https://www.alphavantage.co"`
	APIKey   string        `env:"ALPHA_VANTAGE_API_KEY"`
	Timeout  time.Duration `env:"MARKET_TIMEOUT" env-default:"10s"`
	Debug    bool          `env:"MARKET_DEBUG" env-default:"false"`
	CacheTTL time.Duration `env:"QUOTE_CACHE_TTL" env-default:"5m"`
}

type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" env-separator:","`
	Topic        string        `env:"KAFKA_TOPIC" env-default:"stockit.trades"`
	BatchTimeout time.Duration `env:"KAFKA_BATCH_TIMEOUT" env-default:"1s"`
	RequiredAcks int           `env:"KAFKA_REQUIRED_ACKS" env-default:"1"`
	MaxAttempts  int           `env:"KAFKA_MAX_ATTEMPTS" env-default:"3"`
	WriteTimeout time.Duration `env:"KAFKA_WRITE_TIMEOUT" env-default:"10s"`
}

func MustLoad() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, reading from environment variables")
	}

	var cfg Config

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		slog.Error("failed to read environment variables", "error", err)
		os.Exit(1)
	}

	return &cfg
}
