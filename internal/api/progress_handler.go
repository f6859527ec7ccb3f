package api

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

// idempotencyHeader lets a client retry a session write without recording it twice.
const idempotencyHeader = "Idempotency-Key"

type ProgressHandler struct {
	service *service.TaskService
}

func NewProgressHandler(service *service.TaskService) *ProgressHandler {
	return &ProgressHandler{service: service}
}

// magnitudeFields accepts the session size under its generic name or the
// kind-specific ones.
type magnitudeFields struct {
	Magnitude       *int `json:"magnitude"`
	DurationMinutes *int `json:"duration_minutes"`
	CompletedTarget *int `json:"completed_target"`
}

func (m magnitudeFields) value() *int {
	switch {
	case m.Magnitude != nil:
		return m.Magnitude
	case m.DurationMinutes != nil:
		return m.DurationMinutes
	default:
		return m.CompletedTarget
	}
}

// GET /api/time-sessions
func (h *ProgressHandler) List(c *gin.Context) {
	var (
		filter model.ProgressFilter
		err    error
	)
	if filter.Page, err = parsePage(c); err != nil {
		badRequest(c, "[session][list]", err)
		return
	}
	if filter.TaskID, err = queryUint(c, "task_id"); err != nil {
		badRequest(c, "[session][list]", err)
		return
	}
	if filter.Date, err = queryDate(c, "date"); err != nil {
		badRequest(c, "[session][list]", err)
		return
	}
	filter.PeriodID = strings.TrimSpace(c.Query("period_id"))

	events, total, err := h.service.ListProgress(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "[session][list]", err)
		return
	}
	respondList(c, "Time sessions fetched successfully", events, filter.Page, total)
}

// POST /api/time-sessions
func (h *ProgressHandler) Create(c *gin.Context) {
	var req struct {
		ID     string     `json:"id"`
		TaskID uint       `json:"task_id"`
		Date   model.Date `json:"date"`
		Status string     `json:"status"`
		magnitudeFields
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[session][create][bind]", err)
		return
	}
	if req.TaskID == 0 {
		badRequest(c, "[session][create]", errMissingTaskID)
		return
	}

	input := service.ProgressInput{
		ID:     req.ID,
		Date:   req.Date,
		Status: model.SessionStatus(normalizeEnum(req.Status)),
	}
	if input.ID == "" {
		input.ID = strings.TrimSpace(c.GetHeader(idempotencyHeader))
	}
	if m := req.value(); m != nil {
		input.Magnitude = *m
	}
	log.Printf("[session][create] payload task_id=%d id=%q date=%s magnitude=%d", req.TaskID, input.ID, input.Date, input.Magnitude)

	res, err := h.service.RecordProgress(c.Request.Context(), req.TaskID, input)
	if err != nil {
		respondError(c, "[session][create]", err)
		return
	}
	if res.Replayed {
		log.Printf("[session][create][replay] id=%s", res.Event.ID)
		respond(c, http.StatusOK, "Time session already recorded", newProgressResponse(res))
		return
	}
	log.Printf("[session][create][ok] id=%s task_id=%d", res.Event.ID, req.TaskID)
	respond(c, http.StatusCreated, "Time session created successfully", newProgressResponse(res))
}

// GET /api/time-sessions/:id
func (h *ProgressHandler) Get(c *gin.Context) {
	event, err := h.service.GetProgress(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, "[session][get]", err)
		return
	}
	respond(c, http.StatusOK, "Time session fetched successfully", event)
}

// PATCH /api/time-sessions/:id
func (h *ProgressHandler) Update(c *gin.Context) {
	var req struct {
		Date   *model.Date `json:"date"`
		Status *string     `json:"status"`
		magnitudeFields
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[session][update][bind]", err)
		return
	}
	upd := service.ProgressUpdate{Date: req.Date, Magnitude: req.value()}
	if req.Status != nil {
		status := model.SessionStatus(normalizeEnum(*req.Status))
		upd.Status = &status
	}

	res, err := h.service.UpdateProgress(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		respondError(c, "[session][update]", err)
		return
	}
	log.Printf("[session][update][ok] id=%s", res.Event.ID)
	respond(c, http.StatusOK, "Time session updated successfully", newProgressResponse(res))
}

// DELETE /api/time-sessions/:id
func (h *ProgressHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	task, err := h.service.RemoveProgress(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[session][delete]", err)
		return
	}
	log.Printf("[session][delete][ok] id=%s task_id=%d", id, task.ID)
	respond(c, http.StatusOK, "Time session deleted successfully", task)
}
