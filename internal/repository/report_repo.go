package repository

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/report"
)

// ErrDuplicateNumber 同一工地的报告编号已被占用
var ErrDuplicateNumber = errors.New("报告编号已被占用")

// ReportFilter 报告列表筛选条件
type ReportFilter struct {
	SiteID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Number   string // 编号包含匹配
	Page     int
	PageSize int
}

// ReportTotals 筛选结果的汇总
type ReportTotals struct {
	Reports       int64   `json:"reports"`
	Collaborators int64   `json:"collaborators"`
	TotalHours    float64 `json:"total_hours"`
	LostHours     float64 `json:"lost_hours"`
	Activities    int64   `json:"activities"`
}

// ReportDetail 报告全部内容
type ReportDetail struct {
	Report      model.Report             `json:"report"`
	Presence    []model.ReportPresence   `json:"presence"`
	Weather     []model.ReportWeather    `json:"weather"`
	Activities  []model.ReportActivity   `json:"activities"`
	Incidents   []model.ReportIncident   `json:"incidents"`
	Attachments []model.ReportAttachment `json:"attachments"`
}

// ReportRepository 已定稿报告的数据访问接口
// 写入部分实现 report.ReportWriter，编号读取实现 report.SequenceSource
type ReportRepository interface {
	report.ReportWriter
	report.SequenceSource

	List(ctx context.Context, f ReportFilter) ([]model.Report, int64, error)
	Totals(ctx context.Context, f ReportFilter) (*ReportTotals, error)
	GetDetail(ctx context.Context, reportID string) (*ReportDetail, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

// ── 写入 ──

// WriteReportHeader 按 report_id 插入或覆盖报告头，并清空旧的子记录，重试时结果一致
func (r *reportRepo) WriteReportHeader(ctx context.Context, h report.Header) (string, error) {
	row := model.Report{
		ReportID:            h.ReportID,
		SessionID:           h.SessionID,
		SiteID:              h.SiteID,
		SiteName:            h.SiteName,
		Number:              h.Number,
		ReportDate:          h.Date,
		SupervisorID:        h.SupervisorID,
		ForemanID:           h.ForemanID,
		TeamID:              h.TeamID,
		PTSRequired:         h.PTS.Required,
		PTSActivity:         h.PTS.Activity,
		Notes:               h.Notes,
		SupervisorSignature: h.SupervisorSignature,
		WeatherApproximated: h.WeatherApproximated,
		WeatherSource:       h.WeatherSource,
		Collaborators:       h.Collaborators,
		TotalHours:          h.TotalHours,
		LostHours:           h.LostHours,
		ActivityCount:       h.Activities,
		CreatedBy:           h.CreatedBy,
		FinalizedAt:         h.FinalizedAt,
	}

	db := r.db.WithContext(ctx)
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "report_id"}},
		DoUpdates: clause.AssignmentColumns(headerColumns),
	}).Create(&row).Error
	if err != nil {
		if isUniqueViolation(err) {
			return "", ErrDuplicateNumber
		}
		return "", err
	}

	if err := r.clearChildren(db, row.ReportID); err != nil {
		return "", err
	}
	return row.ReportID, nil
}

var headerColumns = []string{
	"session_id", "site_id", "site_name", "number", "report_date",
	"supervisor_id", "foreman_id", "team_id", "pts_required", "pts_activity", "notes",
	"supervisor_signature", "weather_approximated", "weather_source",
	"collaborators", "total_hours", "lost_hours", "activity_count",
	"created_by", "finalized_at", "updated_at",
}

func (r *reportRepo) WritePresenceRecords(ctx context.Context, reportID string, records []report.PresenceRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]model.ReportPresence, 0, len(records))
	for i, rec := range records {
		rows = append(rows, model.ReportPresence{
			ReportID:             reportID,
			MemberID:             rec.Member.ID,
			MemberName:           rec.Member.Name,
			Role:                 rec.Member.Role,
			Status:               string(rec.Status),
			ConfirmationState:    string(rec.State),
			ConfirmationMethod:   string(rec.Method),
			ConfirmedAt:          rec.ConfirmedAt,
			Detail:               rec.Detail,
			Artifact:             rec.Artifact,
			DestinationTeamID:    rec.DestinationTeamID,
			DestinationForemanID: rec.DestinationForemanID,
			HardwareNote:         rec.HardwareNote,
			Position:             i,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *reportRepo) WriteWeatherSummary(ctx context.Context, reportID string, summaries []report.WeatherPeriodSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	rows := make([]model.ReportWeather, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, model.ReportWeather{
			ReportID:      reportID,
			Period:        string(s.Period),
			Temperature:   s.Temperature,
			TempMin:       s.TempMin,
			TempMax:       s.TempMax,
			Humidity:      s.Humidity,
			WindSpeed:     s.WindSpeed,
			WindDirection: s.WindDirection,
			Precipitation: s.Precipitation,
			Code:          s.Code,
			Description:   s.Description,
			Condition:     string(s.Condition),
			Samples:       s.Samples,
			Approximated:  s.Approximated,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *reportRepo) WriteActivity(ctx context.Context, reportID string, a report.Activity) (string, error) {
	db := r.db.WithContext(ctx)
	var position int64
	if err := db.Model(&model.ReportActivity{}).Where("report_id = ?", reportID).Count(&position).Error; err != nil {
		return "", err
	}
	row := model.ReportActivity{
		ActivityID:    a.ID,
		ReportID:      reportID,
		Discipline:    a.Discipline,
		SubDiscipline: a.SubDiscipline,
		Service:       a.Service,
		Description:   a.Description,
		StartTime:     timeLabel(a.Span.Start),
		EndTime:       timeLabel(a.Span.End),
		DurationHours: spanHours(a.Span),
		TotalHours:    a.TotalHours(),
		Position:      int(position),
	}
	if err := db.Create(&row).Error; err != nil {
		return "", err
	}
	return row.ActivityID, nil
}

func (r *reportRepo) WriteActivityAssignments(ctx context.Context, activityID string, assignments []report.Allocation) error {
	if len(assignments) == 0 {
		return nil
	}
	rows := make([]model.ReportActivityAssignment, 0, len(assignments))
	for _, al := range assignments {
		rows = append(rows, model.ReportActivityAssignment{
			ActivityID: activityID,
			MemberID:   al.MemberID,
			MemberName: al.MemberName,
			Hours:      al.Hours,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// WriteIncident 写入事件及其照片
func (r *reportRepo) WriteIncident(ctx context.Context, reportID string, in report.Incident) (string, error) {
	db := r.db.WithContext(ctx)
	var position int64
	if err := db.Model(&model.ReportIncident{}).Where("report_id = ?", reportID).Count(&position).Error; err != nil {
		return "", err
	}
	row := model.ReportIncident{
		IncidentID:     in.ID,
		ReportID:       reportID,
		Classification: string(in.Classification),
		Type:           in.Type,
		Description:    in.Description,
		ResponsibleID:  in.ResponsibleID,
		StartTime:      timeLabel(in.Span.Start),
		EndTime:        timeLabel(in.Span.End),
		DurationHours:  spanHours(in.Span),
		LostHours:      in.LostHours(),
		Position:       int(position),
	}
	if err := db.Create(&row).Error; err != nil {
		return "", err
	}
	if len(in.Photos) > 0 {
		incidentID := row.IncidentID
		photos := toAttachments(reportID, &incidentID, in.Photos)
		if err := db.Create(&photos).Error; err != nil {
			return "", err
		}
	}
	return row.IncidentID, nil
}

func (r *reportRepo) WriteIncidentAssignments(ctx context.Context, incidentID string, affected []report.Allocation) error {
	if len(affected) == 0 {
		return nil
	}
	rows := make([]model.ReportIncidentMember, 0, len(affected))
	for _, al := range affected {
		rows = append(rows, model.ReportIncidentMember{
			IncidentID: incidentID,
			MemberID:   al.MemberID,
			MemberName: al.MemberName,
			Hours:      al.Hours,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *reportRepo) WriteAttachments(ctx context.Context, reportID string, photos []report.Attachment) error {
	if len(photos) == 0 {
		return nil
	}
	rows := toAttachments(reportID, nil, photos)
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteReport 删除报告及全部子记录（定稿补偿、管理员删除共用）
func (r *reportRepo) DeleteReport(ctx context.Context, reportID string) error {
	db := r.db.WithContext(ctx)
	if err := r.clearChildren(db, reportID); err != nil {
		return err
	}
	return db.Where("report_id = ?", reportID).Delete(&model.Report{}).Error
}

// clearChildren 子表按依赖顺序显式删除，不依赖外键级联
func (r *reportRepo) clearChildren(db *gorm.DB, reportID string) error {
	activityIDs := db.Model(&model.ReportActivity{}).Select("activity_id").Where("report_id = ?", reportID)
	incidentIDs := db.Model(&model.ReportIncident{}).Select("incident_id").Where("report_id = ?", reportID)

	steps := []func() error{
		func() error {
			return db.Where("activity_id IN (?)", activityIDs).Delete(&model.ReportActivityAssignment{}).Error
		},
		func() error {
			return db.Where("incident_id IN (?)", incidentIDs).Delete(&model.ReportIncidentMember{}).Error
		},
		func() error { return db.Where("report_id = ?", reportID).Delete(&model.ReportAttachment{}).Error },
		func() error { return db.Where("report_id = ?", reportID).Delete(&model.ReportActivity{}).Error },
		func() error { return db.Where("report_id = ?", reportID).Delete(&model.ReportIncident{}).Error },
		func() error { return db.Where("report_id = ?", reportID).Delete(&model.ReportWeather{}).Error },
		func() error { return db.Where("report_id = ?", reportID).Delete(&model.ReportPresence{}).Error },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

// ── 读取 ──

// ReportNumbers 工地已用编号，供 max+1 分配
func (r *reportRepo) ReportNumbers(ctx context.Context, siteID string) ([]string, error) {
	var numbers []string
	err := r.db.WithContext(ctx).
		Model(&model.Report{}).
		Where("site_id = ?", siteID).
		Pluck("number", &numbers).Error
	return numbers, err
}

func (r *reportRepo) filtered(ctx context.Context, f ReportFilter) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.Report{})
	if f.SiteID != "" {
		db = db.Where("site_id = ?", f.SiteID)
	}
	if f.DateFrom != nil {
		db = db.Where("report_date >= ?", f.DateFrom.Format("2006-01-02"))
	}
	if f.DateTo != nil {
		db = db.Where("report_date < ?", f.DateTo.AddDate(0, 0, 1).Format("2006-01-02"))
	}
	if n := strings.TrimSpace(f.Number); n != "" {
		db = db.Where("number LIKE ?", "%"+n+"%")
	}
	return db
}

func (r *reportRepo) List(ctx context.Context, f ReportFilter) ([]model.Report, int64, error) {
	var total int64
	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := f.Page, f.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	var reports []model.Report
	err := r.filtered(ctx, f).
		Omit("supervisor_signature").
		Order("report_date DESC, number DESC").
		Offset((page - 1) * size).
		Limit(size).
		Find(&reports).Error
	return reports, total, err
}

func (r *reportRepo) Totals(ctx context.Context, f ReportFilter) (*ReportTotals, error) {
	var t ReportTotals
	err := r.filtered(ctx, f).
		Select("COUNT(*) AS reports, COALESCE(SUM(collaborators), 0) AS collaborators, " +
			"COALESCE(SUM(total_hours), 0) AS total_hours, COALESCE(SUM(lost_hours), 0) AS lost_hours, " +
			"COALESCE(SUM(activity_count), 0) AS activities").
		Scan(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *reportRepo) GetDetail(ctx context.Context, reportID string) (*ReportDetail, error) {
	db := r.db.WithContext(ctx)
	var d ReportDetail
	if err := db.Where("report_id = ?", reportID).First(&d.Report).Error; err != nil {
		return nil, err
	}
	if err := db.Where("report_id = ?", reportID).Order("position ASC").Find(&d.Presence).Error; err != nil {
		return nil, err
	}
	if err := db.Where("report_id = ?", reportID).Find(&d.Weather).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Assignments").Where("report_id = ?", reportID).Order("position ASC").Find(&d.Activities).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Members").Where("report_id = ?", reportID).Order("position ASC").Find(&d.Incidents).Error; err != nil {
		return nil, err
	}
	if err := db.Where("report_id = ?", reportID).Order("file_name ASC").Find(&d.Attachments).Error; err != nil {
		return nil, err
	}
	sortWeather(d.Weather)
	return &d, nil
}

// ── 映射辅助 ──

func toAttachments(reportID string, incidentID *string, photos []report.Attachment) []model.ReportAttachment {
	rows := make([]model.ReportAttachment, 0, len(photos))
	for _, p := range photos {
		rows = append(rows, model.ReportAttachment{
			AttachmentID: p.ID,
			ReportID:     reportID,
			IncidentID:   incidentID,
			FileName:     p.FileName,
			ContentType:  p.ContentType,
			Size:         p.Size,
			StorageKey:   p.StorageKey,
			Caption:      p.Caption,
			UploadedAt:   p.UploadedAt,
		})
	}
	return rows
}

func timeLabel(t *report.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}

func spanHours(s report.TimeSpan) *float64 {
	h, ok := s.Hours()
	if !ok {
		return nil
	}
	return &h
}

// sortWeather 早/午/晚顺序
func sortWeather(rows []model.ReportWeather) {
	rank := map[string]int{}
	for i, p := range report.Periods {
		rank[string(p)] = i
	}
	sort.SliceStable(rows, func(i, j int) bool { return rank[rows[i].Period] < rank[rows[j].Period] })
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
