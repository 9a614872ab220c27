package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GenerateConfig struct {
	// Timeout is the hard wall-clock budget for one provider call,
	// kept under the host's execution ceiling so the handler can still
	// return a structured error instead of being killed mid-request.
	Timeout     time.Duration
	DefaultSize string
}

type ProviderEndpoint struct {
	BaseURL string
	APIKey  string
}

type ProvidersConfig struct {
	OpenAI    ProviderEndpoint
	Fireworks ProviderEndpoint
	Replicate ProviderEndpoint
	Vertex    ProviderEndpoint
}

type FeedConfig struct {
	Backend         string // "file" or "postgres"
	FilePath        string
	SeedPath        string
	DefaultPageSize int
	MaxPageSize     int
	MaxItems        int
	RetentionCron   string
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	PageTTL  time.Duration
}

type StorageConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	Region    string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Generate         GenerateConfig
	Providers        ProvidersConfig
	Feed             FeedConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("MEDIAFEED")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "60s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("generate.timeout", "55s")
	v.SetDefault("generate.defaultsize", "1024x1024")

	v.SetDefault("providers.openai.baseurl", "https://api.openai.com/v1")
	v.SetDefault("providers.fireworks.baseurl", "https://api.fireworks.ai/inference/v1")
	v.SetDefault("providers.replicate.baseurl", "https://api.replicate.com/v1")
	v.SetDefault("providers.vertex.baseurl", "https://us-central1-aiplatform.googleapis.com/v1")

	v.SetDefault("feed.backend", "file")
	v.SetDefault("feed.filepath", "data/media.json")
	v.SetDefault("feed.seedpath", "data/seed.json")
	v.SetDefault("feed.defaultpagesize", 8)
	v.SetDefault("feed.maxpagesize", 100)
	v.SetDefault("feed.maxitems", 0)
	v.SetDefault("feed.retentioncron", "0 0 * * * *") // hourly

	v.SetDefault("postgres.maxopen", 10)
	v.SetDefault("postgres.maxidle", 2)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pagettl", "30s")

	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.bucket", "mediafeed-generated")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")
}
