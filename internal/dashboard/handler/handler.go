package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gestor/backoffice/internal/dashboard/service"
	"github.com/gestor/backoffice/pkg/httputil"
	"github.com/gestor/backoffice/pkg/logger"
)

// DashboardHandler serves the back-office overview
type DashboardHandler struct {
	service *service.DashboardService
	logger  *logger.Logger
	now     func() time.Time
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
		now:     time.Now,
	}
}

// Routes mounts the handler under /api/v1/dashboard
func (h *DashboardHandler) Routes(r chi.Router) {
	r.Get("/stats", h.Stats)
}

// Stats returns the overview of the current month, or of the month
// containing the date query parameter
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	day, err := httputil.QueryDate(r, "date")
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	now := h.now()
	if day != nil {
		now = *day
	}

	stats, err := h.service.Stats(r.Context(), now)
	if err != nil {
		httputil.ErrorLocalized(w, r, err)
		return
	}

	httputil.JSON(w, http.StatusOK, stats)
}
