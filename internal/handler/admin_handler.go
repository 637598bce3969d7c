package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lifeline-health/lifeline-api/internal/models"
	appErrors "github.com/lifeline-health/lifeline-api/pkg/errors"
	"github.com/lifeline-health/lifeline-api/pkg/response"
)

type statsProvider interface {
	Snapshot() models.SystemMetrics
}

type reportService interface {
	Report(ctx context.Context, kind, format string, actor *models.JWTClaims) ([]byte, string, error)
}

// AdminHandler exposes operational stats and ledger exports.
type AdminHandler struct {
	stats   statsProvider
	reports reportService
}

// NewAdminHandler constructs the handler.
func NewAdminHandler(stats statsProvider, reports reportService) *AdminHandler {
	return &AdminHandler{stats: stats, reports: reports}
}

// Stats godoc
// @Summary Aggregated system metrics
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/stats [get]
func (h *AdminHandler) Stats(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.stats.Snapshot(), nil)
}

// Export godoc
// @Summary Export a ledger report
// @Tags Admin
// @Produce text/csv
// @Param kind path string true "Report kind (donations, matches, fund-requests)"
// @Param format query string false "csv or pdf"
// @Success 200 {file} binary
// @Router /admin/exports/{kind} [get]
func (h *AdminHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	kind := c.Param("kind")
	format := c.DefaultQuery("format", "csv")
	payload, contentType, err := h.reports.Report(c.Request.Context(), kind, format, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := fmt.Sprintf("%s-%s.%s", kind, time.Now().UTC().Format("20060102"), format)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Data(http.StatusOK, contentType, payload)
}
