package handlers

import (
	"context"
	"math"
	"net/http"
	"strconv"

	"inference-gateway/database"
	"inference-gateway/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const SessionHeader = "X-Session-ID"

// Runner executes inference tasks.
type Runner interface {
	Submit(ctx context.Context, sessionID string, task models.Task) (models.Result, error)
}

// History reads stored runs. It is nil when history is disabled.
type History interface {
	ListRuns(ctx context.Context, task models.TaskKind, limit int) ([]models.RunRecord, error)
	Stats(ctx context.Context) ([]database.TaskStats, error)
}

// Handlers represents the HTTP handlers
type Handlers struct {
	runner  Runner
	history History
	backend string
}

// NewHandlers creates new HTTP handlers. history may be nil.
func NewHandlers(runner Runner, history History, backend string) *Handlers {
	return &Handlers{runner: runner, history: history, backend: backend}
}

// Register mounts all routes on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/health", h.HealthCheck)

	api := router.Group("/api/v1")
	{
		api.POST("/text-to-image", h.TextToImage)
		api.POST("/image-to-image", h.ImageToImage)
		api.POST("/object-detection", h.ObjectDetection)
		api.POST("/visual-qa", h.VisualQA)
		api.POST("/speech-to-text", h.SpeechToText)
		api.POST("/text-to-speech", h.TextToSpeech)
		api.POST("/translate", h.Translate)
		api.POST("/audio-to-audio", h.AudioToAudio)

		api.GET("/runs", h.ListRuns)
		api.GET("/stats", h.Stats)
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "inference-gateway",
		"backend": h.backend,
		"history": h.history != nil,
	})
}

// run submits task under the caller's session, if any.
func (h *Handlers) run(c *gin.Context, task models.Task) (models.Result, bool) {
	result, err := h.runner.Submit(c.Request.Context(), c.GetHeader(SessionHeader), task)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return result, true
}

// statusFor maps an error kind to the HTTP status returned to callers.
func statusFor(ie *models.InferenceError) int {
	switch ie.Kind {
	case models.KindValidation:
		return http.StatusBadRequest
	case models.KindEncoding:
		return http.StatusUnprocessableEntity
	case models.KindProviderRejection:
		if ie.Reason == models.ReasonInvalidInput {
			return http.StatusUnprocessableEntity
		}
		return http.StatusServiceUnavailable
	case models.KindProviderError, models.KindNormalization:
		return http.StatusBadGateway
	case models.KindTimeout:
		return http.StatusGatewayTimeout
	case models.KindSuperseded:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	ie, ok := models.AsInferenceError(err)
	if !ok {
		log.Errorf("Unexpected error for %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{"kind": "internal", "message": "internal error", "retryable": false},
		})
		return
	}

	if ie.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(ie.RetryAfter.Seconds()))))
	}
	body := gin.H{
		"kind":      ie.Kind,
		"message":   ie.Error(),
		"retryable": ie.IsRetryable,
	}
	if ie.Reason != "" {
		body["reason"] = ie.Reason
	}
	c.JSON(statusFor(ie), gin.H{"error": body})
}

func badRequest(c *gin.Context, msg string) {
	writeError(c, models.NewValidationError(msg))
}
