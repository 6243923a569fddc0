package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/service"
	"rdo-fidel/backend/pkg/response"
)

// ReportHandler 已定稿报告 HTTP 处理器
type ReportHandler struct {
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService) *ReportHandler {
	return &ReportHandler{reportSvc: reportSvc}
}

// List 分页查询报告
// GET /api/v1/reports
func (h *ReportHandler) List(c *gin.Context) {
	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.PageSize == 0 {
		req.PageSize = 20
	}

	list, total, err := h.reportSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OKPage(c, list, total, req.Page, req.PageSize)
}

// Totals 筛选结果汇总
// GET /api/v1/reports/totals
func (h *ReportHandler) Totals(c *gin.Context) {
	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 21001, "参数校验失败")
		return
	}

	totals, err := h.reportSvc.Totals(c.Request.Context(), &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, totals)
}

// Detail 报告详情
// GET /api/v1/reports/:id
func (h *ReportHandler) Detail(c *gin.Context) {
	detail, err := h.reportSvc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, detail)
}

// Delete 删除报告
// DELETE /api/v1/reports/:id
func (h *ReportHandler) Delete(c *gin.Context) {
	callerID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), c.Param("id"), callerID); err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, nil)
}

func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 21101, "报告不存在")
	case errors.Is(err, service.ErrInvalidDate):
		response.BadRequest(c, 21102, "日期格式无效，应为 YYYY-MM-DD")
	case errors.Is(err, service.ErrInvalidDateRange):
		response.BadRequest(c, 21103, "开始日期不能晚于结束日期")
	default:
		response.InternalError(c)
	}
}
