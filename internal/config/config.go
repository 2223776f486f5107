package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Scheduler SchedulerConfig
	Notify    NotifyConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled             bool
	RedisURL            string
	RedisHost           string
	RedisPort           string
	RedisPassword       string
	RedisDB             int
	DashboardTTLSeconds int
}

type SchedulerConfig struct {
	Enabled                bool
	AlertIntervalMinutes   int
	HistoryIntervalMinutes int
	PriceIntervalMinutes   int
	LookbackDays           int
}

type NotifyConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string
	TwilioSID    string
	TwilioToken  string
	TwilioFrom   string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 15)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "marketplace")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DASHBOARD_TTL_SECONDS", 60)
		viper.SetDefault("SCHEDULER_ENABLED", true)
		viper.SetDefault("SCHEDULER_ALERT_INTERVAL_MINUTES", 60)
		viper.SetDefault("SCHEDULER_HISTORY_INTERVAL_MINUTES", 360)
		viper.SetDefault("SCHEDULER_PRICE_INTERVAL_MINUTES", 240)
		viper.SetDefault("SCHEDULER_LOOKBACK_DAYS", 30)
		viper.SetDefault("SMTP_HOST", "")
		viper.SetDefault("SMTP_PORT", 587)
		viper.SetDefault("SMTP_USER", "")
		viper.SetDefault("SMTP_PASSWORD", "")
		viper.SetDefault("SMTP_FROM", "noreply@mundamarket.co.zw")
		viper.SetDefault("TWILIO_ACCOUNT_SID", "")
		viper.SetDefault("TWILIO_AUTH_TOKEN", "")
		viper.SetDefault("TWILIO_PHONE_NUMBER", "")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:             viper.GetBool("CACHE_ENABLED"),
				RedisURL:            viper.GetString("REDIS_URL"),
				RedisHost:           viper.GetString("REDIS_HOST"),
				RedisPort:           viper.GetString("REDIS_PORT"),
				RedisPassword:       viper.GetString("REDIS_PASSWORD"),
				RedisDB:             viper.GetInt("REDIS_DB"),
				DashboardTTLSeconds: viper.GetInt("CACHE_DASHBOARD_TTL_SECONDS"),
			},
			Scheduler: SchedulerConfig{
				Enabled:                viper.GetBool("SCHEDULER_ENABLED"),
				AlertIntervalMinutes:   viper.GetInt("SCHEDULER_ALERT_INTERVAL_MINUTES"),
				HistoryIntervalMinutes: viper.GetInt("SCHEDULER_HISTORY_INTERVAL_MINUTES"),
				PriceIntervalMinutes:   viper.GetInt("SCHEDULER_PRICE_INTERVAL_MINUTES"),
				LookbackDays:           viper.GetInt("SCHEDULER_LOOKBACK_DAYS"),
			},
			Notify: NotifyConfig{
				SMTPHost:     viper.GetString("SMTP_HOST"),
				SMTPPort:     viper.GetInt("SMTP_PORT"),
				SMTPUser:     viper.GetString("SMTP_USER"),
				SMTPPassword: viper.GetString("SMTP_PASSWORD"),
				SMTPFrom:     viper.GetString("SMTP_FROM"),
				TwilioSID:    viper.GetString("TWILIO_ACCOUNT_SID"),
				TwilioToken:  viper.GetString("TWILIO_AUTH_TOKEN"),
				TwilioFrom:   viper.GetString("TWILIO_PHONE_NUMBER"),
			},
		}
	})

	return instance
}
