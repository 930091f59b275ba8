// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the application driver settings.
type Config struct {
	// Workers is the scheduler worker pool size. Zero means GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// QueueCapacity is the scheduler admission bound.
	QueueCapacity int `mapstructure:"queue_capacity"`
	// InterruptFreq is how many times per second the driver polls module
	// futures while terminating.
	InterruptFreq int `mapstructure:"interrupt_freq"`
	// LogLevel is the minimum level emitted by the driver logger.
	LogLevel string `mapstructure:"log_level"`
}

// DefaultConfig returns the driver defaults.
func DefaultConfig() Config {
	return Config{
		Workers:       0,
		QueueCapacity: 256,
		InterruptFreq: 30,
		LogLevel:      "info",
	}
}

// LoadConfig reads the driver configuration from an optional config file
// and HONEYCOMB_* environment variables, on top of the defaults.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	def := DefaultConfig()
	v.SetDefault("workers", def.Workers)
	v.SetDefault("queue_capacity", def.QueueCapacity)
	v.SetDefault("interrupt_freq", def.InterruptFreq)
	v.SetDefault("log_level", def.LogLevel)

	v.SetEnvPrefix("HONEYCOMB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("app: read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("app: unmarshal config: %w", err)
	}
	if cfg.InterruptFreq <= 0 {
		cfg.InterruptFreq = def.InterruptFreq
	}
	return cfg, nil
}
