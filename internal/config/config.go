// Package config loads the optional YAML file that tunes the server, the reminder loop and
// notification delivery. Values set here override the settings stored in the database for
// the running process only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/utils"
)

type Config struct {
	Timezone      string        `yaml:"timezone"`
	Language      string        `yaml:"language"`
	Server        Server        `yaml:"server"`
	Reminders     Reminders     `yaml:"reminders"`
	Notifications Notifications `yaml:"notifications"`
}

type Server struct {
	Addr string `yaml:"addr"`
	Dev  bool   `yaml:"dev"` // colorized console logging
}

type Reminders struct {
	Tick   time.Duration `yaml:"tick"`   // longest pause between two evaluation passes
	Buffer int           `yaml:"buffer"` // wakeup channel capacity
}

type Notifications struct {
	Enabled    *bool `yaml:"enabled"` // nil keeps the stored setting
	DurationMs int   `yaml:"duration_ms"`
}

func DefaultConfig() Config {
	return Config{
		Server: Server{
			Addr: "127.0.0.1:8787",
		},
		Reminders: Reminders{
			Tick:   time.Minute,
			Buffer: 16,
		},
	}
}

// Load reads the config file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Reminders.Tick == 0 {
		c.Reminders.Tick = defaults.Reminders.Tick
	}
	if c.Reminders.Buffer == 0 {
		c.Reminders.Buffer = defaults.Reminders.Buffer
	}
}

func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("timezone", c.Timezone, func(tz string) error {
			if tz != "" && !utils.ValidateTimezone(tz) {
				return fmt.Errorf("unknown timezone %q", tz)
			}
			return nil
		}),
		criterio.Run("language", c.Language, func(lang string) error {
			if lang != "" && !models.ValidLanguage(lang) {
				return fmt.Errorf("must be %q or %q", constants.LanguageZh, constants.LanguageEn)
			}
			return nil
		}),
		criterio.Run("server.addr", c.Server.Addr, func(addr string) error {
			if addr == "" {
				return fmt.Errorf("is required")
			}
			return nil
		}),
		criterio.Run("reminders.tick", c.Reminders.Tick, func(d time.Duration) error {
			if d < time.Second {
				return fmt.Errorf("must be at least 1s, got %s", d)
			}
			return nil
		}),
		criterio.Run("reminders.buffer", c.Reminders.Buffer, func(n int) error {
			if n < 1 {
				return fmt.Errorf("must be at least 1")
			}
			return nil
		}),
		criterio.Run("notifications.duration_ms", c.Notifications.DurationMs, func(ms int) error {
			if ms < 0 {
				return fmt.Errorf("must not be negative")
			}
			return nil
		}),
	)
}

// Overlay returns settings with every value set in the file applied on top.
func (c *Config) Overlay(settings models.Settings) models.Settings {
	if c.Timezone != "" {
		settings.Timezone = c.Timezone
	}
	if c.Language != "" {
		settings.Language = c.Language
	}
	if c.Notifications.Enabled != nil {
		settings.NotificationsEnabled = *c.Notifications.Enabled
	}
	if c.Notifications.DurationMs > 0 {
		settings.NotificationDurationMs = c.Notifications.DurationMs
	}
	return settings
}
