package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Rates     RatesConfig     `yaml:"rates" mapstructure:"rates"`
	RunLog    RunLogConfig    `yaml:"runlog" mapstructure:"runlog"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds the scraping backend credential and model choice.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// BrowserConfig configures the page-locating navigation step.
type BrowserConfig struct {
	StartURL     string `yaml:"start_url" mapstructure:"start_url"`
	LinkSelector string `yaml:"link_selector" mapstructure:"link_selector"`
	Headless     bool   `yaml:"headless" mapstructure:"headless"`
	TimeoutSecs  int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ExtractConfig configures the page-to-JSON extraction step.
type ExtractConfig struct {
	Instruction string  `yaml:"instruction" mapstructure:"instruction"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// RatesConfig locates the staging and historical workbooks.
type RatesConfig struct {
	StagingPath    string `yaml:"staging_path" mapstructure:"staging_path"`
	HistoricalPath string `yaml:"historical_path" mapstructure:"historical_path"`
	SheetName      string `yaml:"sheet_name" mapstructure:"sheet_name"`
}

// RunLogConfig locates the local run log database.
type RunLogConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the read-only status server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("FTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The empty key default keeps FTC_ANTHROPIC_KEY visible to
	// Unmarshal via AutomaticEnv.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("browser.start_url", "https://www.ato.gov.au/businesses-and-organisations/income-deductions-and-concessions/incentives-and-concessions/fuel-schemes/fuel-tax-credits-business/rates-business/")
	v.SetDefault("browser.link_selector", `a[href*="from"]`)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.timeout_secs", 60)
	v.SetDefault("extract.instruction", "Extract all the available tables containing the 'Rates for fuel acquired' from the page.")
	v.SetDefault("extract.user_agent", "ftc-sync/1.0 (fuel tax credit rate monitor)")
	v.SetDefault("extract.timeout_secs", 30)
	v.SetDefault("extract.rate_per_sec", 1.0)
	v.SetDefault("rates.staging_path", "update.xlsx")
	v.SetDefault("rates.historical_path", "FTC Rates.xlsx")
	v.SetDefault("rates.sheet_name", "rates")
	v.SetDefault("runlog.path", "ftc-sync.db")
	v.SetDefault("server.port", 8080)
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
