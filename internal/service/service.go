package service

import (
	"go.uber.org/zap"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Session   SessionService
	Report    ReportService
	Directory DirectoryService
	Export    ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	drafts DraftStore,
	weather WeatherService,
	devices Devices,
	logger *zap.Logger,
) *Service {
	return &Service{
		Session:   NewSessionService(cfg, repo, drafts, weather, devices, logger),
		Report:    NewReportService(cfg, repo, logger),
		Directory: NewDirectoryService(repo, logger),
		Export:    NewExportService(cfg, repo, logger),
	}
}
