package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

// envelope is the body of every API response.
type envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Page    int    `json:"page,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Total   *int64 `json:"total,omitempty"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{
		Status:  status,
		Success: status < http.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

func respondList(c *gin.Context, message string, data any, page model.Page, total int64) {
	page = page.Normalize()
	c.JSON(http.StatusOK, envelope{
		Status:  http.StatusOK,
		Success: true,
		Message: message,
		Data:    data,
		Page:    page.Number,
		Limit:   page.Limit,
		Total:   &total,
	})
}

// respondError maps a service error to its HTTP status. Internal errors are
// logged with tag and hidden behind a generic message.
func respondError(c *gin.Context, tag string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s[err] %v", tag, err)
		respond(c, status, "Internal server error", nil)
		return
	}
	log.Printf("%s[%d] %v", tag, status, err)
	respond(c, status, err.Error(), nil)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, tag string, err error) {
	log.Printf("%s[400] %v", tag, err)
	respond(c, http.StatusBadRequest, err.Error(), nil)
}
