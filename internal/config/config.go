package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig               `yaml:"store" mapstructure:"store"`
	Server    ServerConfig              `yaml:"server" mapstructure:"server"`
	Log       LogConfig                 `yaml:"log" mapstructure:"log"`
	Fetcher   FetcherConfig             `yaml:"fetcher" mapstructure:"fetcher"`
	Dispatch  DispatchConfig            `yaml:"dispatch" mapstructure:"dispatch"`
	Normalize NormalizeConfig           `yaml:"normalize" mapstructure:"normalize"`
	Risk      RiskConfig                `yaml:"risk" mapstructure:"risk"`
	Providers map[string]ProviderConfig `yaml:"providers" mapstructure:"providers"`
}

// StoreConfig configures the history store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the lookup API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetcherConfig configures the shared HTTP fetcher used by provider clients.
type FetcherConfig struct {
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRetries  int    `yaml:"max_retries" mapstructure:"max_retries"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DispatchConfig configures the fan-out coordinator.
type DispatchConfig struct {
	MaxConcurrent      int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	DefaultTimeoutSecs int `yaml:"default_timeout_secs" mapstructure:"default_timeout_secs"`
}

// NormalizeConfig configures the evidence normalizer.
type NormalizeConfig struct {
	DefaultMaxResults int `yaml:"default_max_results" mapstructure:"default_max_results"`
}

// ProviderConfig configures one external intelligence source.
type ProviderConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	BaseURL     string `yaml:"base_url" mapstructure:"base_url"`
	Token       string `yaml:"token" mapstructure:"token"`
}

// Timeout returns the provider timeout as a duration, falling back to def.
func (p ProviderConfig) Timeout(def time.Duration) time.Duration {
	if p.TimeoutSecs > 0 {
		return time.Duration(p.TimeoutSecs) * time.Second
	}
	return def
}

// RiskConfig holds the risk-scoring signal weights and knobs. The point
// values are product policy, not technical invariants, so they stay
// configurable rather than hard-coded in the engine.
type RiskConfig struct {
	YoungDomainDays    int   `yaml:"young_domain_days" mapstructure:"young_domain_days"`
	YoungDomainPoints  int   `yaml:"young_domain_points" mapstructure:"young_domain_points"`
	RecentDomainDays   int   `yaml:"recent_domain_days" mapstructure:"recent_domain_days"`
	RecentDomainPoints int   `yaml:"recent_domain_points" mapstructure:"recent_domain_points"`
	PrivacyWhoisPoints int   `yaml:"privacy_whois_points" mapstructure:"privacy_whois_points"`
	MissingMXPoints    int   `yaml:"missing_mx_points" mapstructure:"missing_mx_points"`
	FastFluxPoints     int   `yaml:"fast_flux_points" mapstructure:"fast_flux_points"`
	FastFluxMinIPs     int   `yaml:"fast_flux_min_ips" mapstructure:"fast_flux_min_ips"`
	OpenPortPoints     int   `yaml:"open_port_points" mapstructure:"open_port_points"`
	OpenPortCap        int   `yaml:"open_port_cap" mapstructure:"open_port_cap"`
	AllowedPorts       []int `yaml:"allowed_ports" mapstructure:"allowed_ports"`
	ThreatTagPoints    int   `yaml:"threat_tag_points" mapstructure:"threat_tag_points"`
	CacheSize          int   `yaml:"cache_size" mapstructure:"cache_size"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("OSINT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

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

func setDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "osint.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("fetcher.user_agent", "osint-core/1.0")
	v.SetDefault("fetcher.max_retries", 3)
	v.SetDefault("fetcher.timeout_secs", 30)

	v.SetDefault("dispatch.max_concurrent", 16)
	v.SetDefault("dispatch.default_timeout_secs", 15)
	v.SetDefault("normalize.default_max_results", 50)

	v.SetDefault("risk.young_domain_days", 30)
	v.SetDefault("risk.young_domain_points", 25)
	v.SetDefault("risk.recent_domain_days", 180)
	v.SetDefault("risk.recent_domain_points", 10)
	v.SetDefault("risk.privacy_whois_points", 10)
	v.SetDefault("risk.missing_mx_points", 5)
	v.SetDefault("risk.fast_flux_points", 20)
	v.SetDefault("risk.fast_flux_min_ips", 3)
	v.SetDefault("risk.open_port_points", 5)
	v.SetDefault("risk.open_port_cap", 20)
	v.SetDefault("risk.allowed_ports", []int{80, 443, 25})
	v.SetDefault("risk.threat_tag_points", 30)
	v.SetDefault("risk.cache_size", 256)

	v.SetDefault("providers.hackernews.enabled", true)
	v.SetDefault("providers.hackernews.timeout_secs", 10)
	v.SetDefault("providers.hackernews.base_url", "https://hn.algolia.com/api/v1")
	v.SetDefault("providers.github.enabled", true)
	v.SetDefault("providers.github.timeout_secs", 10)
	v.SetDefault("providers.github.base_url", "https://api.github.com")
	v.SetDefault("providers.dnsrecon.enabled", true)
	v.SetDefault("providers.dnsrecon.timeout_secs", 20)
	v.SetDefault("providers.dnsrecon.base_url", "https://rdap.org")
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
