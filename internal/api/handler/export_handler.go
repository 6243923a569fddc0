package handler

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"rdo-fidel/backend/internal/service"
	"rdo-fidel/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportReport 导出报告为 Excel
// GET /api/v1/reports/:id/export/xlsx
func (h *ExportHandler) ExportReport(c *gin.Context) {
	h.download(c, h.exportSvc.ExportReport, contentTypeXLSX)
}

// ExportCalendar 导出作业和事件为 iCalendar
// GET /api/v1/reports/:id/export/ics
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	h.download(c, h.exportSvc.ExportCalendar, contentTypeICS)
}

func (h *ExportHandler) download(
	c *gin.Context,
	export func(ctx context.Context, reportID string) (*bytes.Buffer, string, error),
	contentType string,
) {
	buf, filename, err := export(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 23101, "报告不存在")
	case errors.Is(err, service.ErrExportNoEvents):
		response.BadRequest(c, 23102, "报告中没有带时间段的作业或事件")
	default:
		response.InternalError(c)
	}
}
