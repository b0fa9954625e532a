package constants

const (
	// General Settings
	SettingTimezone               = "timezone"
	SettingLanguage               = "language"
	SettingNotificationsEnabled   = "notifications_enabled"
	SettingNotificationDurationMs = "notification_duration_ms"
	SettingStrictCategories       = "strict_categories"

	// Languages
	LanguageZh = "zh"
	LanguageEn = "en"

	// Default Settings Values
	DefaultTimezone             = "Local" // Use system local timezone by default
	DefaultLanguage             = LanguageZh
	DefaultNotificationsEnabled = true
	DefaultStrictCategories     = false
)
