package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/repository"
)

// ── 已定稿报告业务错误 ──

var (
	ErrReportNotFound   = errors.New("报告不存在")
	ErrInvalidDateRange = errors.New("开始日期不能晚于结束日期")
)

// ReportService 已定稿报告的查询与管理
type ReportService interface {
	List(ctx context.Context, req *dto.ReportListRequest) ([]dto.ReportSummaryResponse, int64, error)
	Totals(ctx context.Context, req *dto.ReportListRequest) (*dto.ReportTotalsResponse, error)
	Detail(ctx context.Context, reportID string) (*repository.ReportDetail, error)
	Delete(ctx context.Context, reportID, callerID string) error
}

type reportService struct {
	repo   *repository.Repository
	loc    *time.Location
	logger *zap.Logger
}

// NewReportService 创建 ReportService 实例
func NewReportService(cfg *config.Config, repo *repository.Repository, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, loc: cfg.Weather.Location(), logger: logger}
}

func (s *reportService) filter(req *dto.ReportListRequest) (repository.ReportFilter, error) {
	f := repository.ReportFilter{
		SiteID:   req.SiteID,
		Number:   req.Number,
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.DateFrom != "" {
		d, err := time.ParseInLocation(dateLayout, req.DateFrom, s.loc)
		if err != nil {
			return f, ErrInvalidDate
		}
		f.DateFrom = &d
	}
	if req.DateTo != "" {
		d, err := time.ParseInLocation(dateLayout, req.DateTo, s.loc)
		if err != nil {
			return f, ErrInvalidDate
		}
		f.DateTo = &d
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return f, ErrInvalidDateRange
	}
	return f, nil
}

// ────────────────────── List ──────────────────────

func (s *reportService) List(ctx context.Context, req *dto.ReportListRequest) ([]dto.ReportSummaryResponse, int64, error) {
	f, err := s.filter(req)
	if err != nil {
		return nil, 0, err
	}
	rows, total, err := s.repo.Report.List(ctx, f)
	if err != nil {
		s.logger.Error("查询报告列表失败", zap.Error(err))
		return nil, 0, err
	}
	out := make([]dto.ReportSummaryResponse, 0, len(rows))
	for i := range rows {
		out = append(out, toReportSummary(&rows[i]))
	}
	return out, total, nil
}

// ────────────────────── Totals ──────────────────────

func (s *reportService) Totals(ctx context.Context, req *dto.ReportListRequest) (*dto.ReportTotalsResponse, error) {
	f, err := s.filter(req)
	if err != nil {
		return nil, err
	}
	t, err := s.repo.Report.Totals(ctx, f)
	if err != nil {
		s.logger.Error("汇总报告失败", zap.Error(err))
		return nil, err
	}
	return &dto.ReportTotalsResponse{
		Reports:       t.Reports,
		Collaborators: t.Collaborators,
		TotalHours:    t.TotalHours,
		LostHours:     t.LostHours,
		Activities:    t.Activities,
	}, nil
}

// ────────────────────── Detail ──────────────────────

func (s *reportService) Detail(ctx context.Context, reportID string) (*repository.ReportDetail, error) {
	d, err := s.repo.Report.GetDetail(ctx, reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("查询报告详情失败", zap.String("report_id", reportID), zap.Error(err))
		return nil, err
	}
	return d, nil
}

// ────────────────────── Delete ──────────────────────

func (s *reportService) Delete(ctx context.Context, reportID, callerID string) error {
	d, err := s.Detail(ctx, reportID)
	if err != nil {
		return err
	}
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		return tx.Report.DeleteReport(ctx, reportID)
	})
	if err != nil {
		s.logger.Error("删除报告失败", zap.String("report_id", reportID), zap.Error(err))
		return err
	}
	s.logger.Info("删除报告",
		zap.String("report_id", reportID),
		zap.String("site_id", d.Report.SiteID),
		zap.String("number", d.Report.Number),
		zap.String("deleted_by", callerID),
	)
	return nil
}

func toReportSummary(r *model.Report) dto.ReportSummaryResponse {
	return dto.ReportSummaryResponse{
		ID:            r.ReportID,
		SiteID:        r.SiteID,
		SiteName:      r.SiteName,
		Number:        r.Number,
		Date:          r.ReportDate.Format(dateLayout),
		SupervisorID:  r.SupervisorID,
		ForemanID:     r.ForemanID,
		Collaborators: r.Collaborators,
		Activities:    r.ActivityCount,
		TotalHours:    r.TotalHours,
		LostHours:     r.LostHours,
		PTSRequired:   r.PTSRequired,
		FinalizedAt:   r.FinalizedAt.Format(time.RFC3339),
	}
}
