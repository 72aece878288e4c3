// Package config loads runtime settings from defaults, an optional YAML file
// and TRIAGE_* environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/triage/pkg/adapters/sqldb"
	"github.com/aretw0/triage/pkg/persistence/middleware"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TRIAGE_"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds all triage settings.
type Config struct {
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"` // "text" or "json"

	HTTP     HTTPConfig     `mapstructure:"http" yaml:"http"`
	Modules  ModulesConfig  `mapstructure:"modules" yaml:"modules"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Store    StoreConfig    `mapstructure:"store" yaml:"store"`
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	Ledger   LedgerConfig   `mapstructure:"ledger" yaml:"ledger"`
}

// HTTPConfig configures the REST server.
type HTTPConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics"`
}

// ModulesConfig selects where module definitions come from. Dir holds YAML or
// JSON files, or a loam repository when it contains a module.md.
type ModulesConfig struct {
	Dir     string `mapstructure:"dir" yaml:"dir"`
	Builtin bool   `mapstructure:"builtin" yaml:"builtin"`
}

// EngineConfig tunes the flow state machine.
type EngineConfig struct {
	HaltOnTopSeverity bool `mapstructure:"halt_on_top_severity" yaml:"halt_on_top_severity"`
}

// StoreConfig selects the session store.
type StoreConfig struct {
	Backend string        `mapstructure:"backend" yaml:"backend"`
	Dir     string        `mapstructure:"dir" yaml:"dir"`
	LockTTL time.Duration `mapstructure:"lock_ttl" yaml:"lock_ttl"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the redis store and distributed locker.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr"`
	Password string        `mapstructure:"password" yaml:"password"`
	DB       int           `mapstructure:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// SecurityConfig configures the session store middleware.
type SecurityConfig struct {
	EncryptionKey string   `mapstructure:"encryption_key" yaml:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys" yaml:"fallback_keys"`
	PIIPatterns   []string `mapstructure:"pii_patterns" yaml:"pii_patterns"`
}

// LedgerConfig configures the outcome ledger. An empty driver disables it.
type LedgerConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"`
	DSN    string `mapstructure:"dsn" yaml:"dsn"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		LogLevel:  "info",
		LogFormat: "text",
		HTTP:      HTTPConfig{Addr: ":8080", Metrics: true},
		Modules:   ModulesConfig{Builtin: true},
		Engine:    EngineConfig{HaltOnTopSeverity: true},
		Store: StoreConfig{
			Backend: BackendMemory,
			Dir:     ".triage/sessions",
			LockTTL: 30 * time.Second,
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "triage:session:"},
		},
	}
}

// keys lists every setting by its dotted path. The environment variable is
// the path upper-cased with dots replaced by underscores.
var keys = []string{
	"log_level",
	"log_format",
	"http.addr",
	"http.metrics",
	"modules.dir",
	"modules.builtin",
	"engine.halt_on_top_severity",
	"store.backend",
	"store.dir",
	"store.lock_ttl",
	"store.redis.addr",
	"store.redis.password",
	"store.redis.db",
	"store.redis.prefix",
	"store.redis.ttl",
	"security.encryption_key",
	"security.fallback_keys",
	"security.pii_patterns",
	"ledger.driver",
	"ledger.dsn",
}

// EnvName returns the environment variable for a dotted key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Load reads path (when not empty) and the process environment on top of
// Default.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		if err := decode(doc, &cfg, true); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	}

	env := make(map[string]any)
	for _, key := range keys {
		if v, ok := lookup(EnvName(key)); ok {
			setPath(env, key, v)
		}
	}
	if err := decode(env, &cfg, false); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(input map[string]any, out *Config, strict bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      strict,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func setPath(m map[string]any, key, value string) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("store.backend: unknown backend %q", c.Store.Backend))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: must be text or json, got %q", c.LogFormat))
	}
	if c.Ledger.Driver != "" {
		if _, err := sqldb.ParseDialect(c.Ledger.Driver); err != nil {
			errs = append(errs, fmt.Errorf("ledger.driver: %w", err))
		} else if c.Ledger.DSN == "" {
			errs = append(errs, errors.New("ledger.dsn: required when a driver is set"))
		}
	}
	if c.Security.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Security.EncryptionKey); err != nil {
			errs = append(errs, fmt.Errorf("security.encryption_key: %w", err))
		}
	}
	for i, k := range c.Security.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			errs = append(errs, fmt.Errorf("security.fallback_keys[%d]: %w", i, err))
		}
	}
	if !c.Modules.Builtin && c.Modules.Dir == "" {
		errs = append(errs, errors.New("modules: either builtin or dir must be set"))
	}
	return errors.Join(errs...)
}
