package constants

import "time"

// RecurrenceType represents the recurrence variant of a task definition
type RecurrenceType string

// ReminderType represents the reminder rule variant of a task definition
type ReminderType string

// ReminderKind distinguishes reminders sent before a checkpoint from those sent after it
type ReminderKind string

// Status is the display status of one occurrence
type Status string

// GroupBy is the statistics grouping granularity
type GroupBy string

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	AppName             = "ticktask"
	DefaultKeyringUser  = "database-connection"
	DefaultConfigPath   = "~/.config/ticktask/ticktask.db"
	DefaultSettingsFile = "config.yaml"
	Version             = "v1.0.0"

	// ConnectionEnvVar supplies a PostgreSQL connection string without a password on the command line
	ConnectionEnvVar = "TICKTASK_DB_CONNECTION"

	// MemoryConnection selects the ephemeral in-memory store
	MemoryConnection = "memory://"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "ticktask-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "ticktask-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.ticktask"

	// ReminderGracePeriod is how long a point-in-time reminder stays eligible after its instant
	ReminderGracePeriod = 10 * time.Minute

	// Recurrence constants
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
	RecurrenceYearly  RecurrenceType = "yearly"

	// Reminder rule constants
	ReminderNone              ReminderType = "none"
	ReminderAdvanceByDuration ReminderType = "advance_days"
	ReminderAdvanceByMinutes  ReminderType = "advance_minutes"
	ReminderOverdueAfter      ReminderType = "overdue_after"

	ReminderKindAdvance ReminderKind = "advance"
	ReminderKindOverdue ReminderKind = "overdue"

	// Status constants
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusMissed    Status = "missed"
	StatusAll       Status = "all"

	// Statistics grouping
	GroupByDay   GroupBy = "day"
	GroupByMonth GroupBy = "month"
	GroupByYear  GroupBy = "year"

	// DefaultStatsRangeDays is the lookback used when no statistics range is given
	DefaultStatsRangeDays = 30

	// MaxRangeYears bounds the span of statistics and export queries
	MaxRangeYears = 10

	// CategoryAll disables category filtering
	CategoryAll = "all"

	// Conflict types
	ConflictDanglingCategory   ConflictType = "dangling_category"
	ConflictDuplicateTaskTitle ConflictType = "duplicate_task_title"
	ConflictInvalidDefinition  ConflictType = "invalid_definition"
	ConflictUnreachableDay     ConflictType = "unreachable_day"
)
