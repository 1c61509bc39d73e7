package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of a run. Adjust Trials and Workers to trade
// run time for the number of valleys found.
type Config struct {
	// Trials is the total random-restart budget, split evenly across workers.
	Trials int `mapstructure:"trials" yaml:"trials"`
	// Workers is the number of concurrent descents.
	Workers int `mapstructure:"workers" yaml:"workers"`
	// Frequencies is the bigram weight file (.json or line format).
	Frequencies string `mapstructure:"frequencies" yaml:"frequencies"`
	// Store is the sqlite file holding discovered valleys.
	Store string `mapstructure:"store" yaml:"store"`
	// PersistSteps stores the descent step count with each valley.
	PersistSteps bool `mapstructure:"persist_steps" yaml:"persist_steps"`
	// CacheSize bounds the in-process set of known valleys; 0 disables it.
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`

	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// MetricsAddr serves /metrics when set, e.g. ":9090".
	MetricsAddr string `mapstructure:"metrics_addr" yaml:"metrics_addr"`
	// NATSURL publishes new valleys to NATSSubject when set.
	NATSURL     string `mapstructure:"nats_url" yaml:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject" yaml:"nats_subject"`
}

// DefaultConfig returns the settings used when nothing overrides them.
func DefaultConfig() Config {
	return Config{
		Trials:       1_000_000,
		Workers:      runtime.NumCPU(),
		Frequencies:  "bigrams.txt",
		Store:        "layouts.db",
		PersistSteps: true,
		CacheSize:    1_000_000,
		LogLevel:     "info",
		LogFormat:    "text",
		NATSSubject:  "layouts.valleys",
	}
}

// envPrefix namespaces environment overrides, e.g. LAYOUT_TRIALS.
const envPrefix = "LAYOUT"

// LoadConfig layers defaults, the optional YAML file at path, LAYOUT_*
// environment variables and any flags set on flags, later layers winning.
// Flag names use dashes in place of the underscores of config keys.
func LoadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	def := DefaultConfig()
	v.SetDefault("trials", def.Trials)
	v.SetDefault("workers", def.Workers)
	v.SetDefault("frequencies", def.Frequencies)
	v.SetDefault("store", def.Store)
	v.SetDefault("persist_steps", def.PersistSteps)
	v.SetDefault("cache_size", def.CacheSize)
	v.SetDefault("log_level", def.LogLevel)
	v.SetDefault("log_format", def.LogFormat)
	v.SetDefault("metrics_addr", def.MetricsAddr)
	v.SetDefault("nats_url", def.NATSURL)
	v.SetDefault("nats_subject", def.NATSSubject)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flags != nil {
		var bindErr error
		flags.VisitAll(func(f *pflag.Flag) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if !isConfigKey(key) {
				return
			}
			if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
				bindErr = err
			}
		})
		if bindErr != nil {
			return Config{}, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func isConfigKey(key string) bool {
	switch key {
	case "trials", "workers", "frequencies", "store", "persist_steps", "cache_size",
		"log_level", "log_format", "metrics_addr", "nats_url", "nats_subject":
		return true
	}
	return false
}

// Validate reports the first setting that cannot drive a run.
func (c Config) Validate() error {
	switch {
	case c.Trials < 0:
		return fmt.Errorf("%w: trials must be >= 0, got %d", ErrInvalidConfig, c.Trials)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be >= 1, got %d", ErrInvalidConfig, c.Workers)
	case c.CacheSize < 0:
		return fmt.Errorf("%w: cache_size must be >= 0, got %d", ErrInvalidConfig, c.CacheSize)
	case c.Frequencies == "":
		return fmt.Errorf("%w: frequencies path is empty", ErrInvalidConfig)
	case c.Store == "":
		return fmt.Errorf("%w: store path is empty", ErrInvalidConfig)
	case c.NATSURL != "" && c.NATSSubject == "":
		return fmt.Errorf("%w: nats_subject is empty", ErrInvalidConfig)
	}
	return nil
}

// YAML renders the config in the format LoadConfig reads.
func (c Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
