package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"logLevel"`
	Server      struct {
		Port            int           `mapstructure:"port"`
		ReadTimeout     time.Duration `mapstructure:"readTimeout"`
		WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	} `mapstructure:"server"`
	Health struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"health"`
	Webhook struct {
		Secret          string `mapstructure:"secret"`
		SignatureHeader string `mapstructure:"signatureHeader"`
	} `mapstructure:"webhook"`
	Tools struct {
		Concurrency int           `mapstructure:"concurrency"` // Max invocations in flight per event
		Timeout     time.Duration `mapstructure:"timeout"`     // Per-invocation deadline
		PoolSize    int           `mapstructure:"poolSize"`    // Process-wide executor goroutines
		ResultTTL   time.Duration `mapstructure:"resultTTL"`   // How long completed tool results are remembered
	} `mapstructure:"tools"`
	Events struct {
		MaxElapsed time.Duration `mapstructure:"maxElapsed"` // Publish retry budget per domain event
	} `mapstructure:"events"`
	NATS struct {
		URL           string `mapstructure:"url"`
		Stream        string `mapstructure:"stream"`
		SubjectPrefix string `mapstructure:"subjectPrefix"`
		MaxAgeDays    int    `mapstructure:"maxAgeDays"`
	} `mapstructure:"nats"`
	Redis struct {
		URL string `mapstructure:"url"`
	} `mapstructure:"redis"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Phone struct {
		DefaultRegion string `mapstructure:"defaultRegion"`
	} `mapstructure:"phone"`
	Assistant AssistantConfig `mapstructure:"assistant"`
	Metrics   struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Events WorkerPoolConfig `mapstructure:"events"`
	} `mapstructure:"workerPools"`
}

// AssistantConfig holds the defaults used to build assistants for inbound calls
type AssistantConfig struct {
	Name          string `mapstructure:"name"`
	Greeting      string `mapstructure:"greeting"`
	SystemPrompt  string `mapstructure:"systemPrompt"`
	ModelProvider string `mapstructure:"modelProvider"`
	Model         string `mapstructure:"model"`
	VoiceProvider string `mapstructure:"voiceProvider"`
	VoiceID       string `mapstructure:"voiceId"`
	ServerURL     string `mapstructure:"serverURL"`
}

// WorkerPoolConfig holds configuration for a background worker pool
type WorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Max tasks waiting for a worker
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// IsProduction reports whether the environment must fail secure.
func (c *Config) IsProduction() bool {
	return IsProductionEnvironment(c.Environment)
}

// IsProductionEnvironment classifies an environment name.
func IsProductionEnvironment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "live":
		return true
	default:
		return false
	}
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 60*time.Second)
	v.SetDefault("server.shutdownTimeout", 15*time.Second)
	v.SetDefault("health.port", 2112)
	v.SetDefault("metrics.enabled", true)

	v.SetDefault("webhook.signatureHeader", "X-Signature")

	v.SetDefault("tools.concurrency", 3)
	v.SetDefault("tools.timeout", 10*time.Second)
	v.SetDefault("tools.poolSize", 64)
	v.SetDefault("tools.resultTTL", 24*time.Hour)

	v.SetDefault("events.maxElapsed", 30*time.Second)
	v.SetDefault("nats.stream", "voice_domain_events")
	v.SetDefault("nats.subjectPrefix", "v1.domain")
	v.SetDefault("nats.maxAgeDays", 7)

	v.SetDefault("phone.defaultRegion", "US")

	v.SetDefault("assistant.name", "Receptionist")
	v.SetDefault("assistant.greeting", "Thanks for calling %s, how can I help you today?")
	v.SetDefault("assistant.systemPrompt", "You are the friendly phone receptionist for %s, a home services business. Collect the caller's name, phone number, address and a description of the problem, then book an appointment. Ask whether it is an emergency. Offer to transfer to a human when asked.")
	v.SetDefault("assistant.modelProvider", "openai")
	v.SetDefault("assistant.model", "gpt-4o-mini")
	v.SetDefault("assistant.voiceProvider", "11labs")
	v.SetDefault("assistant.voiceId", "rachel")

	v.SetDefault("workerPools.events.poolSize", 8)
	v.SetDefault("workerPools.events.queueSize", 1000)
	v.SetDefault("workerPools.events.maxBlock", time.Second)
	v.SetDefault("workerPools.events.expiryTime", time.Minute)

	v.SetConfigName("default")
	v.SetConfigType("yaml")

	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.serviceflow-voice")
	v.AddConfigPath("/etc/serviceflow-voice")

	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvs(v, Config{})

	// Read directly from ENV for critical values
	if dsn := os.Getenv("POSTGRES_DSN"); dsn != "" {
		v.Set("database.postgresDSN", dsn)
	}
	if lgLevel := os.Getenv("LOG_LEVEL"); lgLevel != "" {
		v.Set("logLevel", lgLevel)
	}
	if url := os.Getenv("NATS_URL"); url != "" {
		v.Set("nats.url", url)
	}
	if url := os.Getenv("REDIS_URL"); url != "" {
		v.Set("redis.url", url)
	}
	if secret := os.Getenv("VOICE_WEBHOOK_SECRET"); secret != "" {
		v.Set("webhook.secret", secret)
	}
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if config.Tools.Concurrency <= 0 {
		return nil, fmt.Errorf("tools.concurrency must be positive, got %d", config.Tools.Concurrency)
	}
	if config.Tools.PoolSize < config.Tools.Concurrency {
		config.Tools.PoolSize = config.Tools.Concurrency
	}

	return &config, nil
}

// bindEnvs recursively binds environment variables to config struct fields
func bindEnvs(v *viper.Viper, cfg interface{}, parts ...string) {
	ifv := reflect.ValueOf(cfg)
	ift := reflect.TypeOf(cfg)
	for i := 0; i < ift.NumField(); i++ {
		fieldVal := ifv.Field(i)
		fieldType := ift.Field(i)

		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		path := append(append([]string{}, parts...), tag)
		key := strings.Join(path, ".")

		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		_ = v.BindEnv(key)
	}
}
