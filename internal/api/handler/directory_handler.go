package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/service"
	"rdo-fidel/backend/pkg/response"
)

// DirectoryHandler 参考数据 HTTP 处理器
type DirectoryHandler struct {
	directorySvc service.DirectoryService
}

// NewDirectoryHandler 创建 DirectoryHandler
func NewDirectoryHandler(directorySvc service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directorySvc: directorySvc}
}

// ListSites 启用中的工地
// GET /api/v1/sites
func (h *DirectoryHandler) ListSites(c *gin.Context) {
	sites, err := h.directorySvc.ListSites(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": sites})
}

// Catalog 作业目录逐级查询
// GET /api/v1/catalog?discipline=&sub_discipline=
func (h *DirectoryHandler) Catalog(c *gin.Context) {
	var req dto.CatalogRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 22001, "参数校验失败")
		return
	}

	items, err := h.directorySvc.Catalog(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// IncidentTypes 分类下可选的事件类型
// GET /api/v1/incident-types?classification=
func (h *DirectoryHandler) IncidentTypes(c *gin.Context) {
	var req dto.IncidentTypesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 22001, "classification 不能为空")
		return
	}

	types, err := h.directorySvc.IncidentTypes(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, report.ErrInvalidClassification) {
			response.BadRequest(c, 22101, "无效的事件分类")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, gin.H{"list": types})
}
