package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
)

func setupTestDirectoryService() (DirectoryService, *mockDirectoryRepo) {
	dir := testDirectory()
	dir.catalog = []report.CatalogEntry{
		{Discipline: "Civil", SubDiscipline: "Estrutura", Service: "Concretagem"},
		{Discipline: "Civil", SubDiscipline: "Estrutura", Service: "Armação"},
		{Discipline: "Civil", SubDiscipline: "Alvenaria", Service: "Bloco"},
		{Discipline: "Elétrica", SubDiscipline: "Infra", Service: "Eletroduto"},
	}
	return NewDirectoryService(&repository.Repository{Directory: dir}, zap.NewNop()), dir
}

func TestDirectory_ListSites(t *testing.T) {
	svc, _ := setupTestDirectoryService()

	sites, err := svc.ListSites(context.Background())
	if err != nil {
		t.Fatalf("ListSites 应成功: %v", err)
	}
	if len(sites) != 1 || sites[0].ID != "site-1" || sites[0].Latitude == nil {
		t.Errorf("应只返回启用的工地: %+v", sites)
	}
}

func TestDirectory_CatalogLevels(t *testing.T) {
	svc, _ := setupTestDirectoryService()
	ctx := context.Background()

	tests := []struct {
		name string
		req  dto.CatalogRequest
		want int
	}{
		{"专业", dto.CatalogRequest{}, 2},
		{"子专业", dto.CatalogRequest{Discipline: "Civil"}, 2},
		{"工序", dto.CatalogRequest{Discipline: "Civil", SubDiscipline: "Estrutura"}, 2},
		{"未知专业", dto.CatalogRequest{Discipline: "Mecânica"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Catalog(ctx, &tt.req)
			if err != nil {
				t.Fatalf("Catalog 应成功: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("期望 %d 项，实际 %v", tt.want, got)
			}
		})
	}
}

func TestDirectory_IncidentTypes(t *testing.T) {
	svc, dir := setupTestDirectoryService()
	ctx := context.Background()

	defaults, err := svc.IncidentTypes(ctx, &dto.IncidentTypesRequest{Classification: "stoppage"})
	if err != nil || len(defaults) == 0 || defaults[0] != "Chuva intensa" {
		t.Errorf("未配置时应返回内置列表，实际 %v, %v", defaults, err)
	}

	dir.incidentTypes["stoppage"] = []string{"Greve"}
	custom, _ := svc.IncidentTypes(ctx, &dto.IncidentTypesRequest{Classification: "stoppage"})
	if len(custom) != 1 || custom[0] != "Greve" {
		t.Errorf("应优先使用自定义类型，实际 %v", custom)
	}

	if _, err := svc.IncidentTypes(ctx, &dto.IncidentTypesRequest{Classification: "outro"}); !errors.Is(err, report.ErrInvalidClassification) {
		t.Errorf("期望 ErrInvalidClassification，实际: %v", err)
	}
}
