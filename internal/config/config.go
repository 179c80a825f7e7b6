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
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`
	Database struct {
		PostgresDSN         string `mapstructure:"postgresDSN"`
		PostgresAutoMigrate bool   `mapstructure:"postgresAutoMigrate"`
	} `mapstructure:"database"`
	Outreach OutreachConfig `mapstructure:"outreach"`
	WhatsApp struct {
		GatewayURL  string        `mapstructure:"gatewayURL"`
		AccessToken string        `mapstructure:"accessToken"`
		SenderID    string        `mapstructure:"senderID"`
		Timeout     time.Duration `mapstructure:"timeout"`
	} `mapstructure:"whatsapp"`
	Email struct {
		SMTPHost     string `mapstructure:"smtpHost"`
		SMTPPort     int    `mapstructure:"smtpPort"`
		SMTPUser     string `mapstructure:"smtpUser"`
		SMTPPassword string `mapstructure:"smtpPassword"`
		FromAddress  string `mapstructure:"fromAddress"`
		FromName     string `mapstructure:"fromName"`
	} `mapstructure:"email"`
	Gemini struct {
		APIKey  string        `mapstructure:"apiKey"`
		BaseURL string        `mapstructure:"baseURL"`
		Model   string        `mapstructure:"model"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"gemini"`
	NATS struct {
		URL           string `mapstructure:"url"`
		SubjectPrefix string `mapstructure:"subjectPrefix"`
	} `mapstructure:"nats"`
	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"metrics"`
	WorkerPools struct {
		Jobs JobWorkerPoolConfig `mapstructure:"jobs"`
	} `mapstructure:"workerPools"`
}

// OutreachConfig holds settings for the daily outreach run
type OutreachConfig struct {
	DailyLimit     int    `mapstructure:"dailyLimit"`     // Max outbound messages per UTC day
	RunAt          string `mapstructure:"runAt"`          // Daily send time, "HH:MM"
	Timezone       string `mapstructure:"timezone"`       // IANA zone the runAt time is evaluated in
	PacingFloorMs  int    `mapstructure:"pacingFloorMs"`  // Minimum pause between consecutive leads
	PacingJitterMs int    `mapstructure:"pacingJitterMs"` // Random extra pause on top of the floor
	AutoStart      bool   `mapstructure:"autoStart"`      // Start the scheduler at boot
}

// JobWorkerPoolConfig holds configuration for the background job worker pool
type JobWorkerPoolConfig struct {
	PoolSize   int           `mapstructure:"poolSize"`   // Number of workers
	QueueSize  int           `mapstructure:"queueSize"`  // Task queue buffer size
	MaxBlock   time.Duration `mapstructure:"maxBlock"`   // Max time to block when submitting if queue full
	ExpiryTime time.Duration `mapstructure:"expiryTime"` // Idle worker expiry time
}

// LoadConfig reads configuration from file or environment variables
func LoadConfig(path string) (*Config, error) {
	// Create new viper instance
	v := viper.New()

	// Set defaults
	v.SetDefault("environment", "development")
	v.SetDefault("logLevel", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.postgresAutoMigrate", true)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 2112)

	// Outreach defaults
	v.SetDefault("outreach.dailyLimit", 10)
	v.SetDefault("outreach.runAt", "09:00")
	v.SetDefault("outreach.timezone", "Etc/UTC")
	v.SetDefault("outreach.pacingFloorMs", 3000)
	v.SetDefault("outreach.pacingJitterMs", 5000)
	v.SetDefault("outreach.autoStart", true)

	// Channel defaults
	v.SetDefault("whatsapp.timeout", 15*time.Second)
	v.SetDefault("email.smtpPort", 587)

	// Gemini defaults
	v.SetDefault("gemini.baseURL", "https://generativelanguage.googleapis.com")
	v.SetDefault("gemini.model", "gemini-1.5-flash")
	v.SetDefault("gemini.timeout", 20*time.Second)

	// NATS defaults
	v.SetDefault("nats.subjectPrefix", "v1.outreach")

	// WorkerPools Defaults
	v.SetDefault("workerPools.jobs.poolSize", 4)
	v.SetDefault("workerPools.jobs.queueSize", 64)
	v.SetDefault("workerPools.jobs.maxBlock", time.Second)
	v.SetDefault("workerPools.jobs.expiryTime", time.Minute)

	// Config file settings
	v.SetConfigName("default") // name of config file (without extension)
	v.SetConfigType("yaml")    // REQUIRED if the config file does not have the extension in the name

	// Add lookup paths
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath("$HOME/.daisi-lead-outreach")
	v.AddConfigPath("/etc/daisi-lead-outreach")

	// Try to read from config file
	if err := v.ReadInConfig(); err != nil {
		// It's ok if config file is not found, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Map environment variables to config fields
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
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		v.Set("gemini.apiKey", key)
	}
	if token := os.Getenv("WHATSAPP_ACCESS_TOKEN"); token != "" {
		v.Set("whatsapp.accessToken", token)
	}
	if pass := os.Getenv("SMTP_PASSWORD"); pass != "" {
		v.Set("email.smtpPassword", pass)
	}

	// Unmarshal config
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
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

		// Get the field tag value (mapstructure)
		tag := fieldType.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}

		// Build the env var path
		path := append(parts, tag)
		key := strings.Join(path, ".")

		// If it's a struct, recursively bind its fields
		if fieldType.Type.Kind() == reflect.Struct {
			bindEnvs(v, fieldVal.Interface(), path...)
			continue
		}

		// Bind the env var
		_ = v.BindEnv(key)
	}
}
