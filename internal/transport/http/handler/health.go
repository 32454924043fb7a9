package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"courseassist/internal/bootstrap"
)

type HealthHandler struct {
	app *bootstrap.App
}

type dependencyStatus struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func NewHealthHandler(app *bootstrap.App) *HealthHandler {
	return &HealthHandler{app: app}
}

// Check reports liveness. Only configured dependencies are checked.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	deps := gin.H{}
	allOK := true
	if h.app.Redis != nil {
		s := h.checkRedis(ctx)
		deps["redis"] = s
		allOK = allOK && s.OK
	}
	if h.app.MQConn != nil {
		s := h.checkRabbitMQ()
		deps["rabbitmq"] = s
		allOK = allOK && s.OK
	}

	statusCode := http.StatusOK
	if !allOK {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"app":              h.app.Config.App.Name,
		"env":              h.app.Config.App.Env,
		"uptime_sec":       int(time.Since(h.app.StartedAt).Seconds()),
		"knowledge_chunks": h.app.Knowledge.Len(),
		"dependencies":     deps,
	})
}

// Ready reports whether the language model can serve prompts.
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status := dependencyStatus{OK: true}
	if err := h.app.LLM.Ready(ctx); err != nil {
		status = dependencyStatus{OK: false, Message: err.Error()}
	}

	statusCode := http.StatusOK
	if !status.OK {
		statusCode = http.StatusServiceUnavailable
	}
	c.JSON(statusCode, gin.H{
		"provider": h.app.LLM.Provider(),
		"model":    h.app.LLM.Model(),
		"llm":      status,
	})
}

func (h *HealthHandler) checkRedis(ctx context.Context) dependencyStatus {
	if err := h.app.Redis.Ping(ctx).Err(); err != nil {
		return dependencyStatus{OK: false, Message: err.Error()}
	}
	return dependencyStatus{OK: true}
}

func (h *HealthHandler) checkRabbitMQ() dependencyStatus {
	if h.app.MQConn.IsClosed() {
		return dependencyStatus{OK: false, Message: "connection closed"}
	}
	return dependencyStatus{OK: true}
}
