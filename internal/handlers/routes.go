// Package handlers mounts the API routes on a gin engine.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/imrishuroy/dishflow/internal/dishes"
	"github.com/imrishuroy/dishflow/internal/events"
	"github.com/imrishuroy/dishflow/internal/ids"
	"github.com/imrishuroy/dishflow/internal/orders"
)

// HandlerConfig groups dependencies for the API routes.
type HandlerConfig struct {
	Dishes   dishes.Records
	Orders   orders.Records
	IDs      ids.Generator
	Events   events.Publisher
	Validate *validatorv10.Validate
	Logger   *zap.Logger
}

// RegisterRoutes registers the health check, both resources and the JSON
// fallbacks for unknown paths and methods.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	dishes.NewPipeline(dishes.Config{
		Records: cfg.Dishes,
		IDs:     cfg.IDs,
		Events:  cfg.Events,
		Logger:  cfg.Logger,
	}).Register(r)

	orders.NewPipeline(orders.Config{
		Records:  cfg.Orders,
		IDs:      cfg.IDs,
		Events:   cfg.Events,
		Validate: cfg.Validate,
		Logger:   cfg.Logger,
	}).Register(r)

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": c.Request.Method + " not allowed for " + c.Request.URL.Path})
	})
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Path not found: " + c.Request.URL.Path})
	})
}
