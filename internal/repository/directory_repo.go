package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/report"
)

// DirectoryRepository 参考数据访问接口（工地、人员层级、目录）
// 实现 report.Directory，供名单解析使用
type DirectoryRepository interface {
	report.Directory

	GetSite(ctx context.Context, siteID string) (*model.Site, error)
	ListSites(ctx context.Context) ([]model.Site, error)
	ActivityCatalog(ctx context.Context) ([]report.CatalogEntry, error)
	IncidentTypes(ctx context.Context, classification string) ([]string, error)
}

type directoryRepo struct {
	db *gorm.DB
}

// NewDirectoryRepo 创建 DirectoryRepository 实例
func NewDirectoryRepo(db *gorm.DB) DirectoryRepository {
	return &directoryRepo{db: db}
}

func (r *directoryRepo) GetSite(ctx context.Context, siteID string) (*model.Site, error) {
	var site model.Site
	err := r.db.WithContext(ctx).
		Where("site_id = ?", siteID).
		First(&site).Error
	if err != nil {
		return nil, err
	}
	return &site, nil
}

func (r *directoryRepo) ListSites(ctx context.Context) ([]model.Site, error) {
	var sites []model.Site
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("name ASC").
		Find(&sites).Error
	return sites, err
}

// ── 人员层级 ──

func (r *directoryRepo) Supervisors(ctx context.Context, siteID string) ([]report.Member, error) {
	var rows []model.Member
	err := r.db.WithContext(ctx).
		Where("site_id = ? AND role = ? AND is_active = ?", siteID, report.RoleSupervisor, true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMembers(rows), nil
}

func (r *directoryRepo) Foremen(ctx context.Context, supervisorID string) ([]report.Member, error) {
	var rows []model.Member
	err := r.db.WithContext(ctx).
		Where("supervisor_id = ? AND role = ? AND is_active = ?", supervisorID, report.RoleForeman, true).
		Order("name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMembers(rows), nil
}

// TeamByForeman 工长没有在用班组时返回 (nil, nil)
func (r *directoryRepo) TeamByForeman(ctx context.Context, foremanID string) (*report.Team, error) {
	var team model.Team
	err := r.db.WithContext(ctx).
		Where("foreman_id = ? AND is_active = ?", foremanID, true).
		Order("created_at ASC").
		First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &report.Team{ID: team.TeamID, Name: team.Name, ForemanID: team.ForemanID}, nil
}

func (r *directoryRepo) TeamMembers(ctx context.Context, teamID string) ([]report.Member, error) {
	var rows []model.Member
	err := r.db.WithContext(ctx).
		Joins("JOIN team_members ON team_members.member_id = members.member_id").
		Where("team_members.team_id = ? AND members.is_active = ?", teamID, true).
		Order("members.name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMembers(rows), nil
}

// ── 目录 ──

func (r *directoryRepo) ActivityCatalog(ctx context.Context) ([]report.CatalogEntry, error) {
	var rows []model.ActivityCatalogEntry
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("discipline ASC, sub_discipline ASC, service ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	entries := make([]report.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, report.CatalogEntry{
			Discipline:    row.Discipline,
			SubDiscipline: row.SubDiscipline,
			Service:       row.Service,
		})
	}
	return entries, nil
}

// IncidentTypes 返回该分类在库中配置的类型名；为空时由调用方回退到内置列表
func (r *directoryRepo) IncidentTypes(ctx context.Context, classification string) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).
		Model(&model.IncidentType{}).
		Where("classification = ?", classification).
		Order("sort_order ASC, name ASC").
		Pluck("name", &names).Error
	return names, err
}

func toMembers(rows []model.Member) []report.Member {
	out := make([]report.Member, 0, len(rows))
	for _, m := range rows {
		out = append(out, report.Member{
			ID:                    m.MemberID,
			Name:                  m.Name,
			Role:                  m.Role,
			CredentialID:          m.CredentialID,
			HasReferencePhoto:     m.ReferencePhotoKey != "",
			HasReferenceSignature: m.ReferenceSignatureKey != "",
		})
	}
	return out
}
