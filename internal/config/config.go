package config

import (
	"time"

	"github.com/Netflix/go-env"
	"github.com/andescargo/tracking-gateway/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const ConfigTagName = "env"
const ConfigDefaultTagName = "default"

var config *Config

// Config holds every env-sourced setting used across the gateway. Only this
// struct must be used to hold configuration values, no direct access to env,
// ini or any other config source should be made.
type Config struct {
	AppEnv              string `env:"APP_ENV" default:"dev"`
	AppName             string `env:"APP_NAME" default:"tracking_gateway"`
	AppDebug            bool   `env:"APP_DEBUG" default:"1"`
	AppDebugMetricsAddr string `env:"APP_DEBUG_METRIC_ADDR"`
	AppDebugMetricsURI  string `env:"APP_DEBUG_METRIC_URI"`

	HttpListenAddr         string `env:"HTTP_LISTEN_ADDR"`
	HttpServerReadTimeout  int    `env:"HTTP_SERVER_READ_TIMEOUT"`
	HttpServerWriteTimeout int    `env:"HTTP_SERVER_WRITE_TIMEOUT"`

	PostgresReadHost     string `env:"POSTGRES_READ_HOST"`
	PostgresReadPort     string `env:"POSTGRES_READ_PORT"`
	PostgresReadUser     string `env:"POSTGRES_READ_USER"`
	PostgresReadPassword string `env:"POSTGRES_READ_PASSWORD"`
	PostgresReadDatabase string `env:"POSTGRES_READ_DBNAME"`

	PostgresWriteHost     string `env:"POSTGRES_WRITE_HOST"`
	PostgresWritePort     string `env:"POSTGRES_WRITE_PORT"`
	PostgresWriteUser     string `env:"POSTGRES_WRITE_USER"`
	PostgresWritePassword string `env:"POSTGRES_WRITE_PASSWORD"`
	PostgresWriteDatabase string `env:"POSTGRES_WRITE_DBNAME"`

	RedisAddr               string `env:"REDIS_ADDR"`
	RedisUsername           string `env:"REDIS_USER"`
	RedisPassword           string `env:"REDIS_PASS"`
	RedisDatabase           int    `env:"REDIS_DATABASE"`
	RedisUniversalKeyPrefix string `env:"REDIS_UNIVERSAL_KEY_PREFIX"`

	PromNamespace string `env:"PROM_NAMESPACE"`

	JWTSecret string `env:"JWT_SECRET"`

	TrackingCacheTTL time.Duration `env:"TRACKING_CACHE_TTL" default:"30s"`

	EventStreamName        string        `env:"EVENT_STREAM_NAME" default:"packages:events"`
	EventConsumerGroup     string        `env:"EVENT_CONSUMER_GROUP" default:"notifier"`
	EventConsumerName      string        `env:"EVENT_CONSUMER_NAME" default:"notifier-1"`
	EventMaxRetries        int           `env:"EVENT_MAX_RETRIES" default:"3"`
	EventVisibilityTimeout time.Duration `env:"EVENT_VISIBILITY_TIMEOUT" default:"30s"`
	EventPollInterval      time.Duration `env:"EVENT_POLL_INTERVAL" default:"100ms"`
	EventBatchSize         int64         `env:"EVENT_BATCH_SIZE" default:"10"`
	EventMaxLen            int64         `env:"EVENT_MAX_LEN" default:"100000"`
	EventEnableDLQ         bool          `env:"EVENT_ENABLE_DLQ" default:"1"`

	NotifierWorkers int `env:"NOTIFIER_WORKERS" default:"4"`

	LogLevel []string `env:"LOG_LEVEL"`
}

func Load(path string) error {
	logger.Info("loading configs..", "path", path)
	c := &Config{}
	var err error
	if path != "" {
		logger.Info("trying to publish env from file", "path", path)
		err = godotenv.Load(path)
		if err != nil {
			return errors.New("failed to load configuration file " + path + " error: " + err.Error())
		}
	}

	_, err = env.UnmarshalFromEnviron(c)

	if err != nil {
		return errors.New("failed to map env variables to Configuration object " + " error: " + err.Error())
	}

	config = c
	return nil
}

func Get() *Config {
	if config == nil {
		logger.Panic("Config is not initialized")
	}
	return config
}
