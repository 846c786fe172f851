package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config holds application level configuration.
// Values are resolved as defaults, then the optional TOML file, then environment.
type Config struct {
	ServerPort     string          `toml:"server_port"`
	DBDriver       string          `toml:"db_driver"`
	MySQLDSN       string          `toml:"mysql_dsn"`
	SQLitePath     string          `toml:"sqlite_path"`
	ResetDB        bool            `toml:"reset_db"`
	RedisAddr      string          `toml:"redis_addr"`
	RedisDB        int             `toml:"redis_db"`
	RedisPass      string          `toml:"redis_password"`
	RabbitMQURL    string          `toml:"rabbitmq_url"`
	AlertQueue     string          `toml:"alert_queue"`
	MonthlyLimit   decimal.Decimal `toml:"monthly_limit"`
	CurrencySymbol string          `toml:"currency_symbol"`
	CSRFEnabled    bool            `toml:"csrf_enabled"`
	LogLevel       string          `toml:"log_level"`
	LogDevelopment bool            `toml:"log_development"`
	SwaggerHost    string          `toml:"swagger_host"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Load builds Config from defaults, the TOML file named by CONFIG_FILE, a .env
// file in the working directory, and the process environment.
func Load() (*Config, error) {
	cfg := Default()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file: %w", err)
		}
	}

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if err := overrideByEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DBDriver != DriverMySQL && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ServerPort:     "8080",
		DBDriver:       DriverMySQL,
		MySQLDSN:       "user:password@tcp(localhost:3306)/expenses?charset=utf8mb4&parseTime=True&loc=Local",
		SQLitePath:     "data/expenses.db",
		RedisAddr:      "localhost:6379",
		RabbitMQURL:    "",
		AlertQueue:     "expenses.limit_exceeded",
		MonthlyLimit:   decimal.NewFromInt(20000),
		CurrencySymbol: "₹",
		LogLevel:       "info",
	}
}

func overrideByEnv(cfg *Config) error {
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.DBDriver = getEnv("DB_DRIVER", cfg.DBDriver)
	cfg.MySQLDSN = getEnv("MYSQL_DSN", cfg.MySQLDSN)
	cfg.SQLitePath = getEnv("SQLITE_PATH", cfg.SQLitePath)
	cfg.ResetDB = getEnvBool("RESET_DB", cfg.ResetDB)
	cfg.RedisAddr = getEnv("REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisDB = getEnvInt("REDIS_DB", cfg.RedisDB)
	cfg.RedisPass = getEnv("REDIS_PASSWORD", cfg.RedisPass)
	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)
	cfg.AlertQueue = getEnv("ALERT_QUEUE", cfg.AlertQueue)
	cfg.CurrencySymbol = getEnv("CURRENCY_SYMBOL", cfg.CurrencySymbol)
	cfg.CSRFEnabled = getEnvBool("CSRF_ENABLED", cfg.CSRFEnabled)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogDevelopment = getEnvBool("LOG_DEVELOPMENT", cfg.LogDevelopment)
	cfg.SwaggerHost = getEnv("SWAGGER_HOST", cfg.SwaggerHost)

	if v := os.Getenv("MONTHLY_LIMIT"); v != "" {
		limit, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("parse MONTHLY_LIMIT: %w", err)
		}
		cfg.MonthlyLimit = limit
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return def
}
