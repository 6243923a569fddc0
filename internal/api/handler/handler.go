package handler

import "rdo-fidel/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Session   *SessionHandler
	Report    *ReportHandler
	Directory *DirectoryHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Session:   NewSessionHandler(svc.Session),
		Report:    NewReportHandler(svc.Report),
		Directory: NewDirectoryHandler(svc.Directory),
		Export:    NewExportHandler(svc.Export),
	}
}
