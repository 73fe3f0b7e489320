package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envFileVar = "CHESSD_ENV_FILE"

const (
	StoreMongo  = "mongo"
	StoreMySQL  = "mysql"
	StoreMemory = "memory"

	NotifyRedis = "redis"
	NotifyLog   = "log"
)

type Config struct {
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8082"`

	StoreDriver string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI    string `env:"MONGO_URI"`
	MongoDBName string `env:"MONGO_DB_NAME" envDefault:"chess"`
	MySQLDSN    string `env:"MYSQL_DSN"`

	NotifyDriver     string `env:"NOTIFY_DRIVER" envDefault:"redis"`
	RedisAddr        string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword    string `env:"REDIS_PASSWORD"`
	RedisDB          int    `env:"REDIS_DB" envDefault:"0"`
	NotifyStream     string `env:"NOTIFY_STREAM" envDefault:"chess:notifications"`
	NotifyStreamMax  int64  `env:"NOTIFY_STREAM_MAXLEN" envDefault:"10000"`
	SlackToken       string `env:"SLACK_TOKEN"`
	FrontendBaseURL  string `env:"FRONTEND_BASE_URL" envDefault:"http://localhost:8082"`

	ReapFinishedEvery time.Duration `env:"REAP_FINISHED_EVERY" envDefault:"24h"`
	ReapStaleEvery    time.Duration `env:"REAP_STALE_EVERY" envDefault:"24h"`
	StaleAfter        time.Duration `env:"STALE_AFTER" envDefault:"72h"`

	JWTSecret     string `env:"JWT_SECRET"`
	TokenHashCost int    `env:"TOKEN_HASH_COST" envDefault:"10"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads the optional env file named by CHESSD_ENV_FILE (default .env)
// and parses the environment. Variables already set win over the file.
func Load() (*Config, error) {
	file := os.Getenv(envFileVar)
	if file == "" {
		file = ".env"
	}
	if err := godotenv.Load(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read env file %s: %w", file, err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreMongo:
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is not set in environment"))
		}
		if c.MongoDBName == "" {
			errs = append(errs, errors.New("MONGO_DB_NAME is not set in environment"))
		}
	case StoreMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("MYSQL_DSN is not set in environment"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.NotifyDriver {
	case NotifyRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is not set in environment"))
		}
	case NotifyLog:
	default:
		errs = append(errs, fmt.Errorf("unknown NOTIFY_DRIVER %q", c.NotifyDriver))
	}

	if c.ReapFinishedEvery <= 0 || c.ReapStaleEvery <= 0 {
		errs = append(errs, errors.New("reaper intervals must be positive"))
	}
	if c.StaleAfter <= 0 {
		errs = append(errs, errors.New("STALE_AFTER must be positive"))
	}

	return errors.Join(errs...)
}
