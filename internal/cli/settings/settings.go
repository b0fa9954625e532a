package settings

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/julianstephens/ticktask/internal/cli"
	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
)

type SettingsCmd struct {
	List bool     `help:"List current settings."`
	Set  []string `help:"Set a setting as key=value. Repeatable." placeholder:"KEY=VALUE"`

	Timezone               *string `help:"IANA timezone name, or Local."`
	Language               *string `help:"Display language (en or zh)."`
	NotificationsEnabled   *bool   `help:"Enable or disable reminder notifications."`
	NotificationDurationMs *int    `help:"How long a tray notification stays visible."`
	StrictCategories       *bool   `help:"Refuse to remove task types that tasks still use."`
}

func (c *SettingsCmd) Run(ctx *cli.Context) error {
	settings, err := ctx.Store.GetSettings()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)

	if c.List {
		c.list(ctx, settings)
		return nil
	}

	updated, changed, err := c.apply(settings)
	if err != nil {
		return err
	}
	if !changed {
		ctx.Println("No changes specified. Use --list to view settings or flags to update them.")
		return nil
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if err := ctx.Store.SaveSettings(updated); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	ctx.Println("Settings updated successfully.")
	return nil
}

func (c *SettingsCmd) list(ctx *cli.Context, settings models.Settings) {
	ctx.Println("Current Settings:")
	ctx.Printf("  Timezone:               %s\n", settings.Timezone)
	ctx.Printf("  Language:               %s\n", settings.Language)
	ctx.Printf("  Strict Categories:      %v\n", settings.StrictCategories)
	ctx.Println("\nNotification Settings:")
	ctx.Printf("  Notifications Enabled:  %v\n", settings.NotificationsEnabled)
	ctx.Printf("  Notification Duration:  %d ms\n", settings.NotificationDurationMs)

	// values the config file overrides for this process
	effective, err := ctx.T().Settings()
	if err != nil || effective == settings {
		return
	}
	ctx.Println("\nOverridden by config file:")
	stored, eff := models.SettingsToMap(settings), models.SettingsToMap(effective)
	keys := make([]string, 0, len(eff))
	for k := range eff {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if stored[k] != eff[k] {
			ctx.Printf("  %s = %s\n", k, eff[k])
		}
	}
}

// apply layers --set pairs and then the typed flags over settings.
func (c *SettingsCmd) apply(settings models.Settings) (models.Settings, bool, error) {
	values := models.SettingsToMap(settings)
	changed := false

	for _, kv := range c.Set {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return settings, false, fmt.Errorf("invalid setting %q, expected key=value", kv)
		}
		if _, known := values[key]; !known {
			return settings, false, fmt.Errorf("unknown setting %q", key)
		}
		value = strings.TrimSpace(value)
		if key == constants.SettingNotificationsEnabled || key == constants.SettingStrictCategories {
			b, err := parseBool(value)
			if err != nil {
				return settings, false, fmt.Errorf("invalid value for %s: %q is not a boolean", key, value)
			}
			value = strconv.FormatBool(b)
		}
		values[key] = value
		changed = true
	}

	updated, err := models.MapToSettings(values)
	if err != nil {
		return settings, false, err
	}

	if c.Timezone != nil {
		updated.Timezone = *c.Timezone
		changed = true
	}
	if c.Language != nil {
		updated.Language = *c.Language
		changed = true
	}
	if c.NotificationsEnabled != nil {
		updated.NotificationsEnabled = *c.NotificationsEnabled
		changed = true
	}
	if c.NotificationDurationMs != nil {
		updated.NotificationDurationMs = *c.NotificationDurationMs
		changed = true
	}
	if c.StrictCategories != nil {
		updated.StrictCategories = *c.StrictCategories
		changed = true
	}
	return updated, changed, nil
}

// parseBool accepts strconv.ParseBool forms plus yes/no and on/off.
func parseBool(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(value)
}
