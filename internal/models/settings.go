package models

// Settings represents application-wide settings
type Settings struct {
	Timezone               string `json:"timezone"`                 // IANA timezone name, or "Local" for the system timezone
	Language               string `json:"language"`                 // "zh" or "en"
	NotificationsEnabled   bool   `json:"notifications_enabled"`    // whether reminders are delivered
	NotificationDurationMs int    `json:"notification_duration_ms"` // how long the tray shows a reminder
	StrictCategories       bool   `json:"strict_categories"`        // refuse to remove task types still referenced
}
