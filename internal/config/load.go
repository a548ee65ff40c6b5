package config

import (
	"fmt"
	"sync"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var defineFlagsOnce sync.Once

// Load loads configuration from multiple sources with the following
// precedence (highest first): command line flags, environment variables,
// config file, default values.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	defineFlags()
	if !pflag.Parsed() {
		pflag.Parse()
	}
	if err := bindFlags(v); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	v.SetEnvPrefix("GQL2SQL")
	v.AutomaticEnv()

	cfgPath, _ := pflag.CommandLine.GetString("config")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", cfgPath, err)
		}
	} else {
		v.SetConfigName("gql2sql")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/gql2sql/")
		v.AddConfigPath("$HOME/.gql2sql")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("observability.service_name", "gql2sql")
	v.SetDefault("observability.service_version", "dev")
	v.SetDefault("observability.environment", "development")
	v.SetDefault("observability.trace_sample_ratio", 1.0)
	v.SetDefault("observability.metrics_addr", "")
}

func defineFlags() {
	defineFlagsOnce.Do(func() {
		pflag.String("config", "", "Path to a YAML config file")
		pflag.String("log-level", "info", "Log level: debug, info, warn, error")
		pflag.String("log-format", "json", "Log format: json, text")
		pflag.String("metrics-addr", "", "Address to serve Prometheus /metrics on, e.g. :9090 (disabled when empty)")
	})
}

// bindFlags maps each CLI flag to its mapstructure config key; flag names
// use CLI-friendly dashes while config keys use the nested dotted form.
func bindFlags(v *viper.Viper) error {
	mapping := map[string]string{
		"log-level":    "log.level",
		"log-format":   "log.format",
		"metrics-addr": "observability.metrics_addr",
	}
	for flagName, key := range mapping {
		flag := pflag.CommandLine.Lookup(flagName)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return err
		}
	}
	return nil
}
