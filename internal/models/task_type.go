package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/constants"
)

// TaskType is a category a task definition can reference.
type TaskType struct {
	Key     string `json:"key"`
	LabelEn string `json:"label_en"`
	LabelZh string `json:"label_zh"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// CategoryKey derives a category key from an English label: lowercased, whitespace runs
// replaced by a single underscore.
func CategoryKey(labelEn string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(labelEn)), "_")
}

// NewTaskType builds a task type whose key is derived from labelEn.
func NewTaskType(labelEn, labelZh string) (TaskType, error) {
	tt := TaskType{
		Key:     CategoryKey(labelEn),
		LabelEn: strings.TrimSpace(labelEn),
		LabelZh: strings.TrimSpace(labelZh),
	}
	if err := tt.Validate(); err != nil {
		return TaskType{}, err
	}
	return tt, nil
}

func (t TaskType) Validate() error {
	return validationError(criterio.ValidateStruct(
		criterio.Run("label_en", t.LabelEn, requiredText),
		criterio.Run("key", t.Key, func(k string) error {
			if k != CategoryKey(t.LabelEn) {
				return fmt.Errorf("key %q does not match label %q", k, t.LabelEn)
			}
			return nil
		}),
	))
}

// Label returns the label for the given language, falling back to English.
func (t TaskType) Label(lang string) string {
	if lang == constants.LanguageZh && t.LabelZh != "" {
		return t.LabelZh
	}
	return t.LabelEn
}

// DisplayLabel is the bilingual "zh en" label.
func (t TaskType) DisplayLabel() string {
	if t.LabelZh == "" {
		return t.LabelEn
	}
	return t.LabelZh + " " + t.LabelEn
}

// DefaultTaskTypes are seeded when storage is initialized.
func DefaultTaskTypes() []TaskType {
	return []TaskType{
		{Key: "work", LabelEn: "Work", LabelZh: "工作"},
		{Key: "personal", LabelEn: "Personal", LabelZh: "个人"},
		{Key: "health", LabelEn: "Health", LabelZh: "健康"},
		{Key: "learning", LabelEn: "Learning", LabelZh: "学习"},
		{Key: "other", LabelEn: "Other", LabelZh: "其他"},
	}
}

// StatusLabel returns the localized label of a status.
func StatusLabel(s constants.Status, lang string) string {
	if lang == constants.LanguageZh {
		switch s {
		case constants.StatusCompleted:
			return "已完成"
		case constants.StatusMissed:
			return "已错过"
		case constants.StatusPending:
			return "待完成"
		case constants.StatusAll:
			return "全部状态"
		}
	}
	switch s {
	case constants.StatusCompleted:
		return "Completed"
	case constants.StatusMissed:
		return "Missed"
	case constants.StatusPending:
		return "Pending"
	case constants.StatusAll:
		return "All Status"
	}
	return string(s)
}
