package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/model"
	"habit-planner/internal/service"
)

type CategoryHandler struct {
	service *service.CategoryService
}

func NewCategoryHandler(service *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{service: service}
}

// GET /api/categories
func (h *CategoryHandler) List(c *gin.Context) {
	page, err := parsePage(c)
	if err != nil {
		badRequest(c, "[category][list]", err)
		return
	}
	filter := model.CategoryFilter{Search: c.Query("search"), Page: page}

	categories, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "[category][list]", err)
		return
	}
	respondList(c, "Categories fetched successfully", categories, page, total)
}

// POST /api/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[category][create][bind]", err)
		return
	}

	category, err := h.service.Create(c.Request.Context(), service.CategoryInput{Name: req.Name, Color: req.Color})
	if err != nil {
		respondError(c, "[category][create]", err)
		return
	}
	log.Printf("[category][create][ok] id=%d name=%q", category.ID, category.Name)
	respond(c, http.StatusCreated, "Category created successfully", category)
}

// GET /api/categories/:id
func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[category][get]", err)
		return
	}
	category, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, "[category][get]", err)
		return
	}
	respond(c, http.StatusOK, "Category fetched successfully", category)
}

// PATCH /api/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[category][update]", err)
		return
	}
	var req struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "[category][update][bind]", err)
		return
	}

	category, err := h.service.Update(c.Request.Context(), id, service.CategoryUpdate{Name: req.Name, Color: req.Color})
	if err != nil {
		respondError(c, "[category][update]", err)
		return
	}
	log.Printf("[category][update][ok] id=%d", id)
	respond(c, http.StatusOK, "Category updated successfully", category)
}

// DELETE /api/categories/:id archives the category and its tasks.
func (h *CategoryHandler) Archive(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		badRequest(c, "[category][archive]", err)
		return
	}
	if err := h.service.Archive(c.Request.Context(), id); err != nil {
		respondError(c, "[category][archive]", err)
		return
	}
	log.Printf("[category][archive][ok] id=%d", id)
	respond(c, http.StatusOK, "Category archived successfully", nil)
}
