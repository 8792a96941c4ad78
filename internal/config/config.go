package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mwalkowiak/flatwatch/internal/model"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Dashboard DashboardConfig `yaml:"dashboard" mapstructure:"dashboard"`
	Criteria  model.Criteria  `yaml:"criteria" mapstructure:"criteria"`
	Portals   []string        `yaml:"portals" mapstructure:"portals"`
	Scan      ScanConfig      `yaml:"scan" mapstructure:"scan"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Notify    NotifyConfig    `yaml:"notify" mapstructure:"notify"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// DashboardConfig configures the static dashboard artifact.
type DashboardConfig struct {
	Path  string `yaml:"path" mapstructure:"path"`
	Limit int    `yaml:"limit" mapstructure:"limit"`
}

// ScanConfig configures the monitoring cycle.
type ScanConfig struct {
	IntervalMinutes int `yaml:"interval_minutes" mapstructure:"interval_minutes"`
	TimeoutSecs     int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxPerPortal    int `yaml:"max_per_portal" mapstructure:"max_per_portal"`
}

// ServerConfig configures the keep-alive HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// NotifyConfig configures the notification channels.
type NotifyConfig struct {
	Email         EmailConfig    `yaml:"email" mapstructure:"email"`
	Telegram      TelegramConfig `yaml:"telegram" mapstructure:"telegram"`
	OnPriceChange bool           `yaml:"on_price_change" mapstructure:"on_price_change"`
}

// EmailConfig holds SMTP digest settings.
type EmailConfig struct {
	Enabled    bool     `yaml:"enabled" mapstructure:"enabled"`
	Host       string   `yaml:"host" mapstructure:"host"`
	Port       int      `yaml:"port" mapstructure:"port"`
	Sender     string   `yaml:"sender" mapstructure:"sender"`
	Password   string   `yaml:"password" mapstructure:"password"`
	Recipients []string `yaml:"recipients" mapstructure:"recipients"`
}

// TelegramConfig holds Bot API settings.
type TelegramConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	BotToken    string `yaml:"bot_token" mapstructure:"bot_token"`
	ChatID      string `yaml:"chat_id" mapstructure:"chat_id"`
	MaxPerCycle int    `yaml:"max_per_cycle" mapstructure:"max_per_cycle"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLATWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "flatwatch.db")
	v.SetDefault("dashboard.path", "dashboard.html")
	v.SetDefault("dashboard.limit", 100)
	v.SetDefault("criteria.min_price", 200000)
	v.SetDefault("criteria.max_price", 500000)
	v.SetDefault("criteria.min_area", 35)
	v.SetDefault("criteria.max_area", 70)
	v.SetDefault("portals", []string{"otodom", "olx", "gratka"})
	v.SetDefault("scan.interval_minutes", 60)
	v.SetDefault("scan.timeout_secs", 15)
	v.SetDefault("scan.max_per_portal", 20)
	v.SetDefault("server.port", 8000)
	v.SetDefault("notify.email.port", 587)
	v.SetDefault("notify.telegram.max_per_cycle", 5)
	v.SetDefault("notify.on_price_change", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
