package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"keywordanalyzer/internal/decode"
	"keywordanalyzer/internal/fetch"
	"keywordanalyzer/internal/log"
)

const EnvPrefix = "KEYWORDANALYZER"

const (
	URL                = "url"
	KEYWORDS           = "keywords"
	OUTPUT             = "output"
	WORKERS            = "workers"
	TIMEOUT            = "timeout"
	INSECURE           = "insecure_skip_verify"
	FOLLOW_REDIRECTS   = "follow_redirects"
	MAX_BODY_BYTES     = "max_body_bytes"
	ENCODINGS          = "encodings"
	RATE_LIMIT         = "rate_limit"
	USER_AGENT         = "user_agent"
	CACHE_TTL          = "cache_ttl"
	METRICS_ADDR       = "metrics_addr"
	PPROF_ADDR         = "pprof_addr"
	ENV                = "env"
	LOG_LEVEL          = "log_level"
	DefaultWorkers     = 10
	DefaultTimeout     = 15 * time.Second
	DefaultMaxBody     = 10 << 20
	DefaultCacheTTL    = 10 * time.Minute
	DefaultUserAgent   = "keywordanalyzer/1.0"
	DefaultLogLevel    = "info"
	DefaultEnvironment = "prod"
)

// flagKeys maps command line flag names to config keys.
var flagKeys = map[string]string{
	"url":              URL,
	"keywords":         KEYWORDS,
	"output":           OUTPUT,
	"workers":          WORKERS,
	"timeout":          TIMEOUT,
	"insecure":         INSECURE,
	"follow-redirects": FOLLOW_REDIRECTS,
	"max-body-bytes":   MAX_BODY_BYTES,
	"encodings":        ENCODINGS,
	"rate-limit":       RATE_LIMIT,
	"user-agent":       USER_AGENT,
	"cache-ttl":        CACHE_TTL,
	"metrics-addr":     METRICS_ADDR,
	"pprof-addr":       PPROF_ADDR,
	"env":              ENV,
	"log-level":        LOG_LEVEL,
}

type Config struct {
	URLFile            string        `mapstructure:"url"`
	KeywordFile        string        `mapstructure:"keywords"`
	OutputFile         string        `mapstructure:"output"`
	Workers            int           `mapstructure:"workers"`
	Timeout            time.Duration `mapstructure:"timeout"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
	FollowRedirects    bool          `mapstructure:"follow_redirects"`
	MaxBodyBytes       int64         `mapstructure:"max_body_bytes"`
	Encodings          []string      `mapstructure:"encodings"`
	RateLimit          float64       `mapstructure:"rate_limit"`
	UserAgent          string        `mapstructure:"user_agent"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl"`
	MetricsAddr        string        `mapstructure:"metrics_addr"`
	PprofAddr          string        `mapstructure:"pprof_addr"`
	Env                string        `mapstructure:"env"`
	LogLevel           string        `mapstructure:"log_level"`
}

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Message)
}

// RegisterFlags adds every configurable flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("url", "u", "", "file with one URL per line")
	fs.StringP("keywords", "k", "", "file with one keyword per line")
	fs.StringP("output", "o", "", "CSV report path")
	fs.Int("workers", DefaultWorkers, "number of concurrent fetches")
	fs.Duration("timeout", DefaultTimeout, "per-request timeout")
	fs.Bool("insecure", false, "skip TLS certificate verification")
	fs.Bool("follow-redirects", false, "follow HTTP redirects")
	fs.Int64("max-body-bytes", DefaultMaxBody, "maximum response body size, 0 for unlimited")
	fs.StringSlice("encodings", decode.DefaultEncodings, "strict decoding priority list")
	fs.Float64("rate-limit", 0, "maximum requests per second, 0 for unlimited")
	fs.String("user-agent", DefaultUserAgent, "User-Agent request header")
	fs.Duration("cache-ttl", DefaultCacheTTL, "decoded resource cache lifetime, 0 disables the cache")
	fs.String("metrics-addr", "", "address for the metrics and health endpoints")
	fs.String("pprof-addr", "", "address for pprof when env is dev")
	fs.String("env", DefaultEnvironment, "runtime environment (dev or prod)")
	fs.String("log-level", DefaultLogLevel, "log level")
	fs.String("config", "", "config file (yaml, json, toml or env)")
}

// Load resolves the configuration from defaults, a config file, the environment
// and flags, in increasing order of precedence. When configFile is empty a .env
// file in the working directory is used if present.
func Load(flags *pflag.FlagSet, configFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault(URL, "")
	v.SetDefault(KEYWORDS, "")
	v.SetDefault(OUTPUT, "")
	v.SetDefault(WORKERS, DefaultWorkers)
	v.SetDefault(TIMEOUT, DefaultTimeout)
	v.SetDefault(INSECURE, false)
	v.SetDefault(FOLLOW_REDIRECTS, false)
	v.SetDefault(MAX_BODY_BYTES, DefaultMaxBody)
	v.SetDefault(ENCODINGS, decode.DefaultEncodings)
	v.SetDefault(RATE_LIMIT, 0)
	v.SetDefault(USER_AGENT, DefaultUserAgent)
	v.SetDefault(CACHE_TTL, DefaultCacheTTL)
	v.SetDefault(METRICS_ADDR, "")
	v.SetDefault(PPROF_ADDR, "")
	v.SetDefault(ENV, DefaultEnvironment)
	v.SetDefault(LOG_LEVEL, DefaultLogLevel)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, &ConfigError{Field: "config", Message: err.Error()}
		}
	} else {
		v.SetConfigFile(".env")
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
				return nil, &ConfigError{Field: "config", Message: err.Error()}
			}
			log.Logger.Debug(".env file not found")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Field: "config", Message: err.Error()}
	}

	log.Logger.Debug("configuration loaded",
		zap.String("config_file", v.ConfigFileUsed()),
		zap.Int("workers", cfg.Workers),
		zap.Duration("timeout", cfg.Timeout),
		zap.Strings("encodings", cfg.Encodings),
	)
	return &cfg, nil
}

// Validate checks every setting that the analysis depends on.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.URLFile) == "":
		return &ConfigError{Field: URL, Message: "URL file is required"}
	case strings.TrimSpace(c.KeywordFile) == "":
		return &ConfigError{Field: KEYWORDS, Message: "keyword file is required"}
	case strings.TrimSpace(c.OutputFile) == "":
		return &ConfigError{Field: OUTPUT, Message: "output file is required"}
	case c.Workers < 1:
		return &ConfigError{Field: WORKERS, Message: fmt.Sprintf("must be at least 1, got %d", c.Workers)}
	case c.Timeout <= 0:
		return &ConfigError{Field: TIMEOUT, Message: fmt.Sprintf("must be positive, got %s", c.Timeout)}
	case c.MaxBodyBytes < 0:
		return &ConfigError{Field: MAX_BODY_BYTES, Message: "must not be negative"}
	case c.RateLimit < 0:
		return &ConfigError{Field: RATE_LIMIT, Message: "must not be negative"}
	case c.CacheTTL < 0:
		return &ConfigError{Field: CACHE_TTL, Message: "must not be negative"}
	case len(c.Encodings) == 0:
		return &ConfigError{Field: ENCODINGS, Message: "at least one encoding is required"}
	}

	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return &ConfigError{Field: LOG_LEVEL, Message: err.Error()}
	}
	for _, name := range c.Encodings {
		if _, err := decode.Lookup(name); err != nil {
			return &ConfigError{Field: ENCODINGS, Message: err.Error()}
		}
	}
	return nil
}

// IsDev reports whether development-only endpoints may be started.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Env, "dev")
}

func (c *Config) FetchConfig() fetch.Config {
	return fetch.Config{
		Timeout:            c.Timeout,
		InsecureSkipVerify: c.InsecureSkipVerify,
		FollowRedirects:    c.FollowRedirects,
		MaxBodyBytes:       c.MaxBodyBytes,
		UserAgent:          c.UserAgent,
		RateLimit:          c.RateLimit,
	}
}
