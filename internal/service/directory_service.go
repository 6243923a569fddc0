package service

import (
	"context"

	"go.uber.org/zap"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
)

// DirectoryService 参考数据查询：工地、作业目录、事件类型
type DirectoryService interface {
	ListSites(ctx context.Context) ([]dto.SiteResponse, error)
	Catalog(ctx context.Context, req *dto.CatalogRequest) ([]string, error)
	IncidentTypes(ctx context.Context, req *dto.IncidentTypesRequest) ([]string, error)
}

type directoryService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDirectoryService 创建 DirectoryService 实例
func NewDirectoryService(repo *repository.Repository, logger *zap.Logger) DirectoryService {
	return &directoryService{repo: repo, logger: logger}
}

func (s *directoryService) ListSites(ctx context.Context) ([]dto.SiteResponse, error) {
	sites, err := s.repo.Directory.ListSites(ctx)
	if err != nil {
		s.logger.Error("列出工地失败", zap.Error(err))
		return nil, err
	}
	out := make([]dto.SiteResponse, 0, len(sites))
	for _, site := range sites {
		out = append(out, dto.SiteResponse{
			ID:        site.SiteID,
			Name:      site.Name,
			Address:   site.Address,
			Latitude:  site.Latitude,
			Longitude: site.Longitude,
		})
	}
	return out, nil
}

// Catalog 逐级返回专业、子专业或工序
func (s *directoryService) Catalog(ctx context.Context, req *dto.CatalogRequest) ([]string, error) {
	entries, err := s.repo.Directory.ActivityCatalog(ctx)
	if err != nil {
		s.logger.Error("读取作业目录失败", zap.Error(err))
		return nil, err
	}
	switch {
	case req.Discipline == "":
		return report.Disciplines(entries), nil
	case req.SubDiscipline == "":
		return report.SubDisciplines(entries, req.Discipline), nil
	default:
		return report.Services(entries, req.Discipline, req.SubDiscipline), nil
	}
}

// IncidentTypes 工地配置了自定义类型时优先使用，否则返回内置列表
func (s *directoryService) IncidentTypes(ctx context.Context, req *dto.IncidentTypesRequest) ([]string, error) {
	c := report.Classification(req.Classification)
	if !c.Valid() {
		return nil, report.ErrInvalidClassification
	}
	custom, err := s.repo.Directory.IncidentTypes(ctx, req.Classification)
	if err != nil {
		s.logger.Warn("读取自定义事件类型失败，使用内置列表", zap.Error(err))
		custom = nil
	}
	return report.IncidentTypes(c, custom)
}
