package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"keywordanalyzer/internal/decode"
	"keywordanalyzer/internal/log"
)

func TestMain(m *testing.M) {
	log.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) unexpected error: %v", args, err)
	}
	return fs
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newFlags(t), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	if cfg.Workers != DefaultWorkers {
		t.Errorf("Workers = %d, want %d", cfg.Workers, DefaultWorkers)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %s, want %s", cfg.Timeout, DefaultTimeout)
	}
	if cfg.FollowRedirects || cfg.InsecureSkipVerify {
		t.Errorf("FollowRedirects = %v, InsecureSkipVerify = %v, want false", cfg.FollowRedirects, cfg.InsecureSkipVerify)
	}
	if cfg.MaxBodyBytes != DefaultMaxBody {
		t.Errorf("MaxBodyBytes = %d, want %d", cfg.MaxBodyBytes, DefaultMaxBody)
	}
	if !reflect.DeepEqual(cfg.Encodings, decode.DefaultEncodings) {
		t.Errorf("Encodings = %v, want %v", cfg.Encodings, decode.DefaultEncodings)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %s, want %s", cfg.CacheTTL, DefaultCacheTTL)
	}
	if cfg.LogLevel != DefaultLogLevel || cfg.Env != DefaultEnvironment {
		t.Errorf("LogLevel = %q, Env = %q", cfg.LogLevel, cfg.Env)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("UserAgent = %q, want %q", cfg.UserAgent, DefaultUserAgent)
	}
}

func TestLoadFlags(t *testing.T) {
	fs := newFlags(t,
		"-u", "urls.txt",
		"-k", "keywords.txt",
		"-o", "out.csv",
		"--workers", "4",
		"--timeout", "3s",
		"--insecure",
		"--follow-redirects",
		"--encodings", "utf-8,ascii",
		"--rate-limit", "2.5",
		"--cache-ttl", "0s",
	)

	cfg, err := Load(fs, "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	expected := Config{
		URLFile:            "urls.txt",
		KeywordFile:        "keywords.txt",
		OutputFile:         "out.csv",
		Workers:            4,
		Timeout:            3 * time.Second,
		InsecureSkipVerify: true,
		FollowRedirects:    true,
		MaxBodyBytes:       DefaultMaxBody,
		Encodings:          []string{"utf-8", "ascii"},
		RateLimit:          2.5,
		UserAgent:          DefaultUserAgent,
		CacheTTL:           0,
		Env:                DefaultEnvironment,
		LogLevel:           DefaultLogLevel,
	}
	if !reflect.DeepEqual(*cfg, expected) {
		t.Errorf("Load() = %+v, want %+v", *cfg, expected)
	}
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "keywordanalyzer.yaml")
	content := "workers: 3\ntimeout: 2s\nlog_level: warn\nuser_agent: from-file\n"
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("KEYWORDANALYZER_TIMEOUT", "9s")
	t.Setenv("KEYWORDANALYZER_LOG_LEVEL", "error")

	cfg, err := Load(newFlags(t, "--log-level", "debug"), file)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{name: "File over default", got: cfg.Workers, expected: 3},
		{name: "Env over file", got: cfg.Timeout, expected: 9 * time.Second},
		{name: "Flag over env", got: cfg.LogLevel, expected: "debug"},
		{name: "File only", got: cfg.UserAgent, expected: "from-file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("KEYWORDANALYZER_WORKERS", "7")
	t.Setenv("KEYWORDANALYZER_FOLLOW_REDIRECTS", "true")
	t.Setenv("KEYWORDANALYZER_ENCODINGS", "utf-8,windows-1252")
	t.Setenv("KEYWORDANALYZER_URL", "from-env.txt")

	cfg, err := Load(newFlags(t), "")
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Workers != 7 {
		t.Errorf("Workers = %d, want 7", cfg.Workers)
	}
	if !cfg.FollowRedirects {
		t.Error("FollowRedirects = false, want true")
	}
	if !reflect.DeepEqual(cfg.Encodings, []string{"utf-8", "windows-1252"}) {
		t.Errorf("Encodings = %v", cfg.Encodings)
	}
	if cfg.URLFile != "from-env.txt" {
		t.Errorf("URLFile = %q, want from-env.txt", cfg.URLFile)
	}
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := Load(newFlags(t), filepath.Join(t.TempDir(), "absent.yaml"))

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Load() error = %v, want *ConfigError", err)
	}
	if cfgErr.Field != "config" {
		t.Errorf("Field = %q, want config", cfgErr.Field)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			URLFile:     "urls.txt",
			KeywordFile: "keywords.txt",
			OutputFile:  "out.csv",
			Workers:     DefaultWorkers,
			Timeout:     DefaultTimeout,
			Encodings:   decode.DefaultEncodings,
			LogLevel:    "info",
		}
	}

	tests := []struct {
		name          string
		mutate        func(*Config)
		expectedField string
	}{
		{name: "Valid", mutate: func(*Config) {}},
		{name: "Missing URL file", mutate: func(c *Config) { c.URLFile = " " }, expectedField: URL},
		{name: "Missing keyword file", mutate: func(c *Config) { c.KeywordFile = "" }, expectedField: KEYWORDS},
		{name: "Missing output", mutate: func(c *Config) { c.OutputFile = "" }, expectedField: OUTPUT},
		{name: "Zero workers", mutate: func(c *Config) { c.Workers = 0 }, expectedField: WORKERS},
		{name: "Zero timeout", mutate: func(c *Config) { c.Timeout = 0 }, expectedField: TIMEOUT},
		{name: "Negative body cap", mutate: func(c *Config) { c.MaxBodyBytes = -1 }, expectedField: MAX_BODY_BYTES},
		{name: "Negative rate", mutate: func(c *Config) { c.RateLimit = -1 }, expectedField: RATE_LIMIT},
		{name: "Negative cache TTL", mutate: func(c *Config) { c.CacheTTL = -time.Second }, expectedField: CACHE_TTL},
		{name: "No encodings", mutate: func(c *Config) { c.Encodings = nil }, expectedField: ENCODINGS},
		{name: "Unknown encoding", mutate: func(c *Config) { c.Encodings = []string{"utf-8", "klingon"} }, expectedField: ENCODINGS},
		{name: "Bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, expectedField: LOG_LEVEL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.expectedField == "" {
				if err != nil {
					t.Fatalf("Validate() unexpected error: %v", err)
				}
				return
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.expectedField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.expectedField)
			}
		})
	}
}

func TestFetchConfig(t *testing.T) {
	cfg := Config{Timeout: time.Second, FollowRedirects: true, MaxBodyBytes: 42, UserAgent: "ua", RateLimit: 3}
	fc := cfg.FetchConfig()
	if fc.Timeout != time.Second || !fc.FollowRedirects || fc.MaxBodyBytes != 42 || fc.UserAgent != "ua" || fc.RateLimit != 3 {
		t.Errorf("FetchConfig() = %+v", fc)
	}
}

func TestIsDev(t *testing.T) {
	for env, expected := range map[string]bool{"dev": true, "DEV": true, "prod": false, "": false} {
		if got := (&Config{Env: env}).IsDev(); got != expected {
			t.Errorf("IsDev(%q) = %v, want %v", env, got, expected)
		}
	}
}
