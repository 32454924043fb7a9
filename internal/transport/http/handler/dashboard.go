package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"courseassist/internal/app"
	"courseassist/internal/transport/http/response"
)

type DashboardHandler struct {
	dashboard *app.DashboardService
	now       func() time.Time
}

func NewDashboardHandler(dashboard *app.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, now: time.Now}
}

func (h *DashboardHandler) Get(c *gin.Context) {
	response.OK(c, h.dashboard.Snapshot(h.now()))
}
