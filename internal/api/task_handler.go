package api

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

// Goals assumed when a request names neither goal nor the kind-specific field.
const (
	defaultTarget   = 1
	defaultDuration = 30
)

type TaskHandler struct {
	service *service.TaskService
}

func NewTaskHandler(service *service.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// goalFields carries the goal the way clients send it: either a plain goal
// or duration (TIME_BASED minutes) and target (YES_NO count).
type goalFields struct {
	Goal     *int `json:"goal"`
	Duration *int `json:"duration"`
	Target   *int `json:"target"`
}

func (g goalFields) resolve(kind model.TaskKind) *int {
	switch {
	case g.Goal != nil:
		return g.Goal
	case kind == model.KindTimeBased && g.Duration != nil:
		return g.Duration
	case kind == model.KindYesNo && g.Target != nil:
		return g.Target
	}
	return nil
}

func (g goalFields) set() bool {
	return g.Goal != nil || g.Duration != nil || g.Target != nil
}

type progressResponse struct {
	Session       *model.ProgressEvent `json:"session"`
	Task          *model.Task          `json:"task"`
	SpawnedTaskID *uint                `json:"spawned_task_id,omitempty"`
	Replayed      bool                 `json:"replayed"`
}

func newProgressResponse(res *service.ProgressResult) progressResponse {
	return progressResponse{
		Session:       res.Event,
		Task:          res.Task,
		SpawnedTaskID: res.SpawnedSuccessorID,
		Replayed:      res.Replayed,
	}
}

// GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	filter, err := taskFilter(c)
	if err != nil {
		badRequest(c, "[task][list]", err)
		return
	}
	tasks, total, err := h.service.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "[task][list]", err)
		return
	}
	respondList(c, "Tasks fetched successfully", tasks, filter.Page, total)
}

func taskFilter(c *gin.Context) (model.TaskFilter, error) {
	var (
		filter model.TaskFilter
		err    error
	)
	if filter.Page, err = parsePage(c); err != nil {
		return filter, err
	}
	if filter.CategoryID, err = queryUint(c, "category_id"); err != nil {
		return filter, err
	}
	if filter.ParentTaskID, err = queryUint(c, "parent_task_id"); err != nil {
		return filter, err
	}
	if filter.PeriodStartDate, err = queryDate(c, "period_start_date"); err != nil {
		return filter, err
	}
	if filter.TemplatesOnly, err = queryBool(c, "templates"); err != nil {
		return filter, err
	}
	if filter.OpenOnly, err = queryBool(c, "open"); err != nil {
		return filter, err
	}
	if filter.IncludeArchived, err = queryBool(c, "include_archived"); err != nil {
		return filter, err
	}
	if raw := c.Query("task_type"); raw != "" {
		kind, err := model.ParseTaskKind(raw)
		if err != nil {
			return filter, err
		}
		filter.Kind = &kind
	}
	if raw := c.Query("task_frequency"); raw != "" {
		freq, err := model.ParseFrequency(raw)
		if err != nil {
			return filter, err
		}
		filter.Frequency = &freq
	}
	filter.Search = strings.TrimSpace(c.Query("search"))
	return filter, nil
}

// POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req struct {
		Name          string     `json:"name"`
		TaskType      string     `json:"task_type"`
		TaskFrequency string     `json:"task_frequency"`
		CategoryID    uint       `json:"category_id"`
		StartDate     model.Date `json:"start_date"`
		goalFields
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][create][bind]", err)
		return
	}
	log.Printf("[task][create] payload name=%q type=%q frequency=%q category_id=%d start=%s",
		req.Name, req.TaskType, req.TaskFrequency, req.CategoryID, req.StartDate)

	input := service.TaskInput{
		Name:       req.Name,
		Kind:       model.TaskKind(normalizeEnum(req.TaskType)),
		Frequency:  model.Frequency(normalizeEnum(req.TaskFrequency)),
		CategoryID: req.CategoryID,
		StartDate:  req.StartDate,
	}
	switch goal := req.resolve(input.Kind); {
	case goal != nil:
		input.Goal = *goal
	case input.Kind == model.KindTimeBased:
		input.Goal = defaultDuration
	default:
		input.Goal = defaultTarget
	}

	task, err := h.service.CreateTask(c.Request.Context(), input)
	if err != nil {
		respondError(c, "[task][create]", err)
		return
	}
	log.Printf("[task][create][ok] id=%d name=%q", task.ID, task.Name)
	respond(c, http.StatusCreated, "Task created successfully", task)
}

// GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[task][get]", err)
		return
	}
	task, err := h.service.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[task][get]", err)
		return
	}
	respond(c, http.StatusOK, "Task fetched successfully", task)
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[task][update]", err)
		return
	}
	var req struct {
		Name          *string     `json:"name"`
		TaskFrequency *string     `json:"task_frequency"`
		CategoryID    *uint       `json:"category_id"`
		StartDate     *model.Date `json:"start_date"`
		goalFields
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[task][update][bind]", err)
		return
	}

	upd := service.TaskUpdate{Name: req.Name, CategoryID: req.CategoryID, StartDate: req.StartDate}
	if req.TaskFrequency != nil {
		freq := model.Frequency(normalizeEnum(*req.TaskFrequency))
		upd.Frequency = &freq
	}
	if req.goalFields.set() {
		task, err := h.service.GetTask(c.Request.Context(), id)
		if err != nil {
			respondError(c, "[task][update]", err)
			return
		}
		upd.Goal = req.resolve(task.Kind)
	}

	task, err := h.service.UpdateTask(c.Request.Context(), id, upd)
	if err != nil {
		respondError(c, "[task][update]", err)
		return
	}
	log.Printf("[task][update][ok] id=%d", id)
	respond(c, http.StatusOK, "Task updated successfully", task)
}

// DELETE /api/tasks/:id archives the task.
func (h *TaskHandler) Archive(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[task][archive]", err)
		return
	}
	if err := h.service.ArchiveTask(c.Request.Context(), id); err != nil {
		respondError(c, "[task][archive]", err)
		return
	}
	log.Printf("[task][archive][ok] id=%d", id)
	respond(c, http.StatusOK, "Task archived successfully", nil)
}

// PATCH /api/tasks/:id/completion
func (h *TaskHandler) Complete(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[task][completion]", err)
		return
	}
	var req struct {
		CompletedTarget int `json:"completed_target"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "[task][completion][bind]", err)
		return
	}

	res, err := h.service.Complete(c.Request.Context(), id, req.CompletedTarget)
	if err != nil {
		respondError(c, "[task][completion]", err)
		return
	}
	log.Printf("[task][completion][ok] id=%d count=%d/%d", id, res.Task.CompletedCount, res.Task.Goal)
	respond(c, http.StatusOK, "Task completion updated successfully", newProgressResponse(res))
}

// GET /api/tasks/:id/period
func (h *TaskHandler) Period(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[task][period]", err)
		return
	}
	status, err := h.service.PeriodStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[task][period]", err)
		return
	}
	respond(c, http.StatusOK, "Task period fetched successfully", status)
}

// GET /api/periods?frequency=&start=
func (h *TaskHandler) ComputePeriod(c *gin.Context) {
	start, err := queryDate(c, "start")
	if err != nil {
		badRequest(c, "[period][compute]", err)
		return
	}
	var from model.Date
	if start != nil {
		from = *start
	}
	p, err := h.service.ComputePeriod(model.Frequency(normalizeEnum(c.Query("frequency"))), from)
	if err != nil {
		respondError(c, "[period][compute]", err)
		return
	}
	respond(c, http.StatusOK, "Period computed successfully", p)
}

func normalizeEnum(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
