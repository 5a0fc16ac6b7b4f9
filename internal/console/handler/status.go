package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/version"

	"github.com/kart-io/mongo-console/internal/console/biz"
	"github.com/kart-io/mongo-console/internal/pkg/httputils"
	"github.com/kart-io/mongo-console/pkg/utils/errors"
)

// StatusHandler serves the read-only connection routes.
type StatusHandler struct {
	svc *biz.StatusService
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(svc *biz.StatusService) *StatusHandler {
	return &StatusHandler{svc: svc}
}

// List handles GET /api/connections.
func (h *StatusHandler) List(c *gin.Context) {
	httputils.WriteResponse(c, nil, h.svc.List())
}

// Status handles GET /api/connections/:conn/status.
func (h *StatusHandler) Status(c *gin.Context) {
	status, err := h.svc.Status(c.Request.Context(), c.Param("conn"))
	if err != nil {
		if errors.IsCode(err, errors.ErrNotFound.Code) {
			httputils.WriteStatus(c, http.StatusNotFound, err)
			return
		}
		httputils.WriteResponse(c, err, nil)
		return
	}
	httputils.WriteResponse(c, nil, status)
}

// Health handles GET /health.
func (h *StatusHandler) Health(c *gin.Context) {
	httputils.WriteResponse(c, nil, h.svc.Health(c.Request.Context()))
}

// Version handles GET /version.
func (h *StatusHandler) Version(c *gin.Context) {
	httputils.WriteResponse(c, nil, version.Get())
}
