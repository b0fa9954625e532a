package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/hay-kot/criterio"

	"github.com/julianstephens/ticktask/internal/constants"
	"github.com/julianstephens/ticktask/internal/models"
	"github.com/julianstephens/ticktask/internal/scheduler"
	"github.com/julianstephens/ticktask/internal/storage"
	"github.com/julianstephens/ticktask/internal/tracker"
)

const basePath = "/api/v1"

// Handler serves the task, agenda and statistics routes.
type Handler struct {
	tracker *tracker.Tracker
	logger  *slog.Logger
}

func NewHandler(t *tracker.Tracker, logger *slog.Logger) *Handler {
	return &Handler{tracker: t, logger: logger}
}

// --- Input/Output types ---

type TaskIDInput struct {
	ID string `path:"id" doc:"Task ID"`
}

type ListTasksInput struct {
	IncludeDeleted bool `query:"include_deleted" doc:"Include soft-deleted tasks"`
}

type TaskList struct {
	Tasks []models.TaskDefinition `json:"tasks"`
	Count int                     `json:"count"`
}

type ListTasksOutput struct {
	Body TaskList
}

type TaskBodyInput struct {
	Body tracker.TaskInput
}

type UpdateTaskInput struct {
	ID   string `path:"id" doc:"Task ID"`
	Body tracker.TaskInput
}

type TaskOutput struct {
	Body models.TaskDefinition
}

type CompletionRequest struct {
	Date   string                  `json:"date,omitempty" doc:"Occurrence date (YYYY-MM-DD), today when empty"`
	Action models.CompletionAction `json:"action" enum:"complete,undo" doc:"complete or undo"`
}

type CompletionInput struct {
	ID   string `path:"id" doc:"Task ID"`
	Body CompletionRequest
}

type CompletionOutput struct {
	Body models.CompletionRecord
}

type HistoryInput struct {
	ID   string `path:"id" doc:"Task ID"`
	Date string `query:"date" doc:"Occurrence date (YYYY-MM-DD)" required:"true"`
}

type HistoryOutput struct {
	Body []models.CompletionEvent
}

type ListTypesOutput struct {
	Body []models.TaskType
}

type CreateTypeRequest struct {
	LabelEn string `json:"label_en" minLength:"1" doc:"English label, also used to derive the key"`
	LabelZh string `json:"label_zh,omitempty" doc:"Chinese label"`
}

type CreateTypeInput struct {
	Body CreateTypeRequest
}

type TypeOutput struct {
	Body models.TaskType
}

type DeleteTypeInput struct {
	Key string `path:"key" doc:"Task type key"`
}

type AgendaInput struct {
	Date string `query:"date" doc:"Date (YYYY-MM-DD), today when empty"`
}

type AgendaOutput struct {
	Body scheduler.Agenda
}

type MonthInput struct {
	Month string `query:"month" doc:"Month (YYYY-MM), current month when empty"`
}

type MonthView struct {
	Month string                 `json:"month"`
	Days  []scheduler.DaySummary `json:"days"`
}

type MonthOutput struct {
	Body MonthView
}

type StatsInput struct {
	From     string `query:"from" doc:"First date (YYYY-MM-DD)"`
	To       string `query:"to" doc:"Last date (YYYY-MM-DD)"`
	Group    string `query:"group" enum:"day,month,year" doc:"Grouping"`
	Category string `query:"category" doc:"Task type key filter"`
	Status   string `query:"status" enum:"all,completed,pending,missed" doc:"Status filter"`
}

type StatsOutput struct {
	Body tracker.StatsReport
}

type ConflictView struct {
	Type        constants.ConflictType `json:"type"`
	Description string                 `json:"description"`
	Items       []string               `json:"items"`
	TaskIDs     []string               `json:"task_ids"`
}

type ValidateOutput struct {
	Body struct {
		Conflicts []ConflictView `json:"conflicts"`
	}
}

type ExportInput struct {
	From      string `query:"from" doc:"First date (YYYY-MM-DD)"`
	To        string `query:"to" doc:"Last date (YYYY-MM-DD)"`
	Recurring bool   `query:"recurring" doc:"Emit one recurring event per checkpoint instead of single occurrences"`
	Alarms    bool   `query:"alarms" doc:"Attach reminder alarms"`
}

type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	Body               []byte
}

type SettingsOutput struct {
	Body models.Settings
}

// Register adds every route to api.
func (h *Handler) Register(api huma.API) {
	tasks := []string{"tasks"}

	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        basePath + "/tasks",
		Summary:     "List task definitions",
		Tags:        tasks,
	}, h.ListTasks)

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          basePath + "/tasks",
		Summary:       "Create a task definition",
		Tags:          tasks,
		DefaultStatus: http.StatusCreated,
	}, h.CreateTask)

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        basePath + "/tasks/{id}",
		Summary:     "Get a task definition",
		Tags:        tasks,
	}, h.GetTask)

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        basePath + "/tasks/{id}",
		Summary:     "Replace a task definition",
		Description: "Completion history is kept across edits.",
		Tags:        tasks,
	}, h.UpdateTask)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-task",
		Method:        http.MethodDelete,
		Path:          basePath + "/tasks/{id}",
		Summary:       "Soft-delete a task",
		Tags:          tasks,
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteTask)

	huma.Register(api, huma.Operation{
		OperationID: "restore-task",
		Method:      http.MethodPost,
		Path:        basePath + "/tasks/{id}/restore",
		Summary:     "Restore a soft-deleted task",
		Tags:        tasks,
	}, h.RestoreTask)

	huma.Register(api, huma.Operation{
		OperationID: "set-completion",
		Method:      http.MethodPost,
		Path:        basePath + "/tasks/{id}/completion",
		Summary:     "Complete or undo an occurrence",
		Tags:        tasks,
	}, h.SetCompletion)

	huma.Register(api, huma.Operation{
		OperationID: "completion-history",
		Method:      http.MethodGet,
		Path:        basePath + "/tasks/{id}/history",
		Summary:     "List completion toggles of an occurrence",
		Tags:        tasks,
	}, h.History)

	huma.Register(api, huma.Operation{
		OperationID: "list-types",
		Method:      http.MethodGet,
		Path:        basePath + "/types",
		Summary:     "List task types",
		Tags:        []string{"types"},
	}, h.ListTypes)

	huma.Register(api, huma.Operation{
		OperationID:   "create-type",
		Method:        http.MethodPost,
		Path:          basePath + "/types",
		Summary:       "Add a task type",
		Tags:          []string{"types"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateType)

	huma.Register(api, huma.Operation{
		OperationID:   "delete-type",
		Method:        http.MethodDelete,
		Path:          basePath + "/types/{key}",
		Summary:       "Remove a task type",
		Tags:          []string{"types"},
		DefaultStatus: http.StatusNoContent,
	}, h.DeleteType)

	huma.Register(api, huma.Operation{
		OperationID: "get-agenda",
		Method:      http.MethodGet,
		Path:        basePath + "/agenda",
		Summary:     "Occurrences and statuses for one day",
		Tags:        []string{"views"},
	}, h.Agenda)

	huma.Register(api, huma.Operation{
		OperationID: "get-calendar",
		Method:      http.MethodGet,
		Path:        basePath + "/calendar",
		Summary:     "Per-day counts for a month",
		Tags:        []string{"views"},
	}, h.Month)

	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        basePath + "/stats",
		Summary:     "Completion statistics",
		Tags:        []string{"views"},
	}, h.Stats)

	huma.Register(api, huma.Operation{
		OperationID: "validate-tasks",
		Method:      http.MethodGet,
		Path:        basePath + "/validate",
		Summary:     "Report conflicts across stored tasks",
		Tags:        []string{"views"},
	}, h.Validate)

	huma.Register(api, huma.Operation{
		OperationID: "export-ics",
		Method:      http.MethodGet,
		Path:        basePath + "/export.ics",
		Summary:     "Export occurrences as iCalendar",
		Tags:        []string{"views"},
	}, h.ExportICS)

	huma.Register(api, huma.Operation{
		OperationID: "get-settings",
		Method:      http.MethodGet,
		Path:        basePath + "/settings",
		Summary:     "Effective settings",
		Tags:        []string{"settings"},
	}, h.Settings)
}

// httpError maps tracker and storage errors onto problem responses.
func (h *Handler) httpError(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, models.ErrValidation):
		var details []error
		var fieldErrs criterio.FieldErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				details = append(details, &huma.ErrorDetail{
					Location: "body." + fe.Field,
					Message:  fe.Err.Error(),
				})
			}
		}
		return huma.Error422UnprocessableEntity(err.Error(), details...)
	case errors.Is(err, models.ErrInvalidOccurrence),
		errors.Is(err, tracker.ErrInvalidQuery),
		errors.Is(err, tracker.ErrUnknownAction):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, models.ErrDuplicateCategoryKey),
		errors.Is(err, tracker.ErrCategoryInUse),
		errors.Is(err, tracker.ErrLastTaskType):
		return huma.Error409Conflict(err.Error())
	}
	h.logger.Error(op+" failed", slog.String("error", err.Error()))
	return huma.Error500InternalServerError(op + " failed")
}

func (h *Handler) ListTasks(ctx context.Context, input *ListTasksInput) (*ListTasksOutput, error) {
	list, err := h.tracker.ListTasks(input.IncludeDeleted)
	if err != nil {
		return nil, h.httpError("list tasks", err)
	}
	if list == nil {
		list = []models.TaskDefinition{}
	}
	return &ListTasksOutput{Body: TaskList{Tasks: list, Count: len(list)}}, nil
}

func (h *Handler) CreateTask(ctx context.Context, input *TaskBodyInput) (*TaskOutput, error) {
	def, err := h.tracker.CreateTask(input.Body)
	if err != nil {
		return nil, h.httpError("create task", err)
	}
	h.logger.Info("task created", slog.String("id", def.ID), slog.String("title", def.Title))
	return &TaskOutput{Body: def}, nil
}

func (h *Handler) GetTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	def, err := h.tracker.GetTask(input.ID)
	if err != nil {
		return nil, h.httpError("get task", err)
	}
	return &TaskOutput{Body: def}, nil
}

func (h *Handler) UpdateTask(ctx context.Context, input *UpdateTaskInput) (*TaskOutput, error) {
	def, err := h.tracker.UpdateTask(input.ID, input.Body)
	if err != nil {
		return nil, h.httpError("update task", err)
	}
	return &TaskOutput{Body: def}, nil
}

func (h *Handler) DeleteTask(ctx context.Context, input *TaskIDInput) (*struct{}, error) {
	if err := h.tracker.DeleteTask(input.ID); err != nil {
		return nil, h.httpError("delete task", err)
	}
	return nil, nil
}

func (h *Handler) RestoreTask(ctx context.Context, input *TaskIDInput) (*TaskOutput, error) {
	if err := h.tracker.RestoreTask(input.ID); err != nil {
		return nil, h.httpError("restore task", err)
	}
	return h.GetTask(ctx, input)
}

func (h *Handler) SetCompletion(ctx context.Context, input *CompletionInput) (*CompletionOutput, error) {
	rec, err := h.tracker.SetCompletion(ctx, input.ID, input.Body.Date, input.Body.Action)
	if err != nil {
		return nil, h.httpError("set completion", err)
	}
	return &CompletionOutput{Body: rec}, nil
}

func (h *Handler) History(ctx context.Context, input *HistoryInput) (*HistoryOutput, error) {
	events, err := h.tracker.History(ctx, input.ID, input.Date)
	if err != nil {
		return nil, h.httpError("completion history", err)
	}
	if events == nil {
		events = []models.CompletionEvent{}
	}
	return &HistoryOutput{Body: events}, nil
}

func (h *Handler) ListTypes(ctx context.Context, _ *struct{}) (*ListTypesOutput, error) {
	types, err := h.tracker.ListTypes()
	if err != nil {
		return nil, h.httpError("list types", err)
	}
	return &ListTypesOutput{Body: types}, nil
}

func (h *Handler) CreateType(ctx context.Context, input *CreateTypeInput) (*TypeOutput, error) {
	tt, err := h.tracker.AddType(input.Body.LabelEn, input.Body.LabelZh)
	if err != nil {
		return nil, h.httpError("create type", err)
	}
	return &TypeOutput{Body: tt}, nil
}

func (h *Handler) DeleteType(ctx context.Context, input *DeleteTypeInput) (*struct{}, error) {
	inUse, err := h.tracker.RemoveType(input.Key)
	if err != nil {
		return nil, h.httpError("delete type", err)
	}
	if inUse > 0 {
		h.logger.Warn("task type removed while referenced",
			slog.String("key", input.Key), slog.Int("tasks", inUse))
	}
	return nil, nil
}

func (h *Handler) Agenda(ctx context.Context, input *AgendaInput) (*AgendaOutput, error) {
	agenda, err := h.tracker.Agenda(ctx, input.Date)
	if err != nil {
		return nil, h.httpError("build agenda", err)
	}
	return &AgendaOutput{Body: agenda}, nil
}

func (h *Handler) Month(ctx context.Context, input *MonthInput) (*MonthOutput, error) {
	first, days, err := h.tracker.Month(ctx, input.Month)
	if err != nil {
		return nil, h.httpError("build calendar", err)
	}
	if days == nil {
		days = []scheduler.DaySummary{}
	}
	return &MonthOutput{Body: MonthView{Month: first.Format(constants.MonthFormat), Days: days}}, nil
}

func (h *Handler) Stats(ctx context.Context, input *StatsInput) (*StatsOutput, error) {
	report, err := h.tracker.Stats(ctx, tracker.StatsQuery{
		From:     input.From,
		To:       input.To,
		GroupBy:  input.Group,
		Category: input.Category,
		Status:   input.Status,
	})
	if err != nil {
		return nil, h.httpError("compute stats", err)
	}
	return &StatsOutput{Body: report}, nil
}

func (h *Handler) Validate(ctx context.Context, _ *struct{}) (*ValidateOutput, error) {
	result, err := h.tracker.Validate()
	if err != nil {
		return nil, h.httpError("validate tasks", err)
	}
	out := &ValidateOutput{}
	out.Body.Conflicts = make([]ConflictView, 0, len(result.Conflicts))
	for _, c := range result.Conflicts {
		out.Body.Conflicts = append(out.Body.Conflicts, ConflictView{
			Type:        c.Type,
			Description: c.Description,
			Items:       c.Items,
			TaskIDs:     c.TaskIDs,
		})
	}
	return out, nil
}

func (h *Handler) ExportICS(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	var (
		ics string
		err error
	)
	if input.Recurring {
		ics, err = h.tracker.ExportRecurringICS(input.Alarms)
	} else {
		ics, err = h.tracker.ExportICS(ctx, input.From, input.To, input.Alarms)
	}
	if err != nil {
		return nil, h.httpError("export calendar", err)
	}
	return &ExportOutput{
		ContentType:        "text/calendar; charset=utf-8",
		ContentDisposition: `attachment; filename="ticktask.ics"`,
		Body:               []byte(ics),
	}, nil
}

func (h *Handler) Settings(ctx context.Context, _ *struct{}) (*SettingsOutput, error) {
	settings, err := h.tracker.Settings()
	if err != nil {
		return nil, h.httpError("load settings", err)
	}
	return &SettingsOutput{Body: settings}, nil
}
