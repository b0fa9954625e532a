package models

import (
	"fmt"
	"time"

	"github.com/julianstephens/ticktask/internal/constants"
)

// MapToSettings converts a map of key-value pairs to a Settings struct.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := Settings{}

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingLanguage:
			settings.Language = value
		case constants.SettingNotificationsEnabled:
			settings.NotificationsEnabled = value == "true"
		case constants.SettingStrictCategories:
			settings.StrictCategories = value == "true"
		case constants.SettingNotificationDurationMs:
			if _, err := fmt.Sscanf(value, "%d", &settings.NotificationDurationMs); err != nil {
				return Settings{}, fmt.Errorf("parsing notification_duration_ms: %w", err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:               settings.Timezone,
		constants.SettingLanguage:               settings.Language,
		constants.SettingNotificationsEnabled:   fmt.Sprintf("%v", settings.NotificationsEnabled),
		constants.SettingStrictCategories:       fmt.Sprintf("%v", settings.StrictCategories),
		constants.SettingNotificationDurationMs: fmt.Sprintf("%d", settings.NotificationDurationMs),
	}
}

// DefaultSettings returns the settings written by init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:               constants.DefaultTimezone,
		Language:               constants.DefaultLanguage,
		NotificationsEnabled:   constants.DefaultNotificationsEnabled,
		NotificationDurationMs: constants.NotificationDurationMs,
		StrictCategories:       constants.DefaultStrictCategories,
	}
}

// ApplyDefaultSettings applies default values to missing settings.
func ApplyDefaultSettings(settings *Settings) {
	if settings.Timezone == "" {
		settings.Timezone = constants.DefaultTimezone
	}
	if settings.Language == "" {
		settings.Language = constants.DefaultLanguage
	}
	if settings.NotificationDurationMs == 0 {
		settings.NotificationDurationMs = constants.NotificationDurationMs
	}
}

// ValidLanguage reports whether lang is a supported display language.
func ValidLanguage(lang string) bool {
	return lang == constants.LanguageZh || lang == constants.LanguageEn
}

// Validate checks the values a user can set. The timezone must load and the language
// must be supported.
func (s Settings) Validate() error {
	if s.Timezone != "Local" {
		if _, err := time.LoadLocation(s.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
		}
	}
	if !ValidLanguage(s.Language) {
		return fmt.Errorf("unsupported language %q (use %s or %s)", s.Language, constants.LanguageEn, constants.LanguageZh)
	}
	if s.NotificationDurationMs <= 0 {
		return fmt.Errorf("notification_duration_ms must be positive, got %d", s.NotificationDurationMs)
	}
	return nil
}
