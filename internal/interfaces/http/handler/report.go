package handler

import (
	"context"
	"fmt"
	"net/http"

	reportapp "github.com/bizdesk/backend/internal/application/report"
	"github.com/bizdesk/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// DigestTrigger runs the daily digest on demand
type DigestTrigger interface {
	TriggerManualRun(ctx context.Context) (int, error)
}

// ReportHandler serves reporting endpoints
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
	digest        DigestTrigger
}

// NewReportHandler creates a new ReportHandler. digest may be nil when the
// scheduler is disabled.
func NewReportHandler(reportService *reportapp.ReportService, digest DigestTrigger) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		digest:        digest,
	}
}

// Summary godoc
// @Summary      Business summary
// @Description  Sales, purchases, stock value and top products for the period
// @Tags         reports
// @Produce      json
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to   query string false "To date (YYYY-MM-DD)"
// @Success      200 {object} dto.Response{data=report.Summary}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var q reportapp.SummaryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	summary, err := h.reportService.Summary(c.Request.Context(), companyID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
// @Summary      Export the summary as XLSX
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        from query string false "From date (YYYY-MM-DD)"
// @Param        to   query string false "To date (YYYY-MM-DD)"
// @Success      200 {file} binary
// @Security     BearerAuth
// @Router       /reports/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	companyID, _, ok := h.companyScope(c)
	if !ok {
		return
	}
	var q reportapp.SummaryQuery
	if !h.bindQuery(c, &q) {
		return
	}
	export, err := h.reportService.ExportSummary(c.Request.Context(), companyID, q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, reportapp.XLSXContentType, export.Data)
}

// TriggerDigest godoc
// @Summary      Send the daily digest now
// @Description  Queues the digest email for every company with daily reports enabled
// @Tags         admin
// @Produce      json
// @Success      202 {object} dto.Response{data=reportapp.DigestRunResponse}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo} "Scheduler disabled"
// @Security     BearerAuth
// @Router       /admin/reports/digest [post]
func (h *ReportHandler) TriggerDigest(c *gin.Context) {
	if h.digest == nil {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeSchedulerDisabled, "Report scheduler is not enabled")
		return
	}
	queued, err := h.digest.TriggerManualRun(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(reportapp.DigestRunResponse{Queued: queued}))
}
