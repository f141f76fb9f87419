// ©Hayabusa Cloud Co., Ltd. 2025. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// rompdConfig is rompd's structured configuration (SPEC_FULL.md §10):
// endpoint, debug, the default proxy synchronization policy new
// clients should assume, the log level, and an optional Prometheus
// metrics listener address.
type rompdConfig struct {
	Endpoint            string `mapstructure:"endpoint"`
	Debug               bool   `mapstructure:"debug"`
	SynchronizedDefault bool   `mapstructure:"synchronized-default"`
	LogLevel            string `mapstructure:"log-level"`
	MetricsAddr         string `mapstructure:"metrics-addr"`
}

func defaultRompdConfig() rompdConfig {
	return rompdConfig{
		Endpoint:            "tcpromp://127.0.0.1:9736",
		Debug:               false,
		SynchronizedDefault: true,
		LogLevel:            "info",
		MetricsAddr:         "",
	}
}

// loadConfig reads rompd's configuration the way dittofs's
// config.Load does: environment variables (ROMPD_ prefix) override a
// config file, which overrides the defaults above. A missing config
// file is not an error unless its path was given explicitly.
func loadConfig(configPath string) (rompdConfig, error) {
	cfg := defaultRompdConfig()

	v := viper.New()
	v.SetEnvPrefix("ROMPD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("endpoint", cfg.Endpoint)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("synchronized-default", cfg.SynchronizedDefault)
	v.SetDefault("log-level", cfg.LogLevel)
	v.SetDefault("metrics-addr", cfg.MetricsAddr)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("rompd: read config %s: %w", configPath, err)
		}
	} else {
		v.SetConfigName("rompd")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/rompd")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return cfg, fmt.Errorf("rompd: read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("rompd: unmarshal config: %w", err)
	}
	return cfg, nil
}
