// Package api exposes the planner over HTTP with gin.
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habit-planner/internal/service"
)

// NewRouter wires every handler under /api.
func NewRouter(tasks *service.TaskService, categories *service.CategoryService) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	categoryHandler := NewCategoryHandler(categories)
	taskHandler := NewTaskHandler(tasks)
	progressHandler := NewProgressHandler(tasks)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// CATEGORIES
	cats := api.Group("/categories")
	{
		cats.GET("", categoryHandler.List)
		cats.POST("", categoryHandler.Create)
		cats.GET("/:id", categoryHandler.Get)
		cats.PATCH("/:id", categoryHandler.Update)
		cats.DELETE("/:id", categoryHandler.Archive)
	}

	// TASKS
	tasksGroup := api.Group("/tasks")
	{
		tasksGroup.GET("", taskHandler.List)
		tasksGroup.POST("", taskHandler.Create)
		tasksGroup.GET("/:id", taskHandler.Get)
		tasksGroup.PATCH("/:id", taskHandler.Update)
		tasksGroup.DELETE("/:id", taskHandler.Archive)
		tasksGroup.PATCH("/:id/completion", taskHandler.Complete)
		tasksGroup.GET("/:id/period", taskHandler.Period)
	}

	// TIME SESSIONS
	sessions := api.Group("/time-sessions")
	{
		sessions.GET("", progressHandler.List)
		sessions.POST("", progressHandler.Create)
		sessions.GET("/:id", progressHandler.Get)
		sessions.PATCH("/:id", progressHandler.Update)
		sessions.DELETE("/:id", progressHandler.Delete)
	}

	api.GET("/periods", taskHandler.ComputePeriod)

	return r
}
