package service

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
)

var errMockDB = errors.New("mock: 数据库不可用")

// ── Mock DirectoryRepository ──

type mockDirectoryRepo struct {
	sites         map[string]*model.Site
	supervisors   map[string][]report.Member // siteID →
	foremen       map[string][]report.Member // supervisorID →
	teams         map[string]*report.Team    // foremanID →
	members       map[string][]report.Member // teamID →
	catalog       []report.CatalogEntry
	incidentTypes map[string][]string
	supervisorErr error
	foremenErr    error
}

func newMockDirectoryRepo() *mockDirectoryRepo {
	return &mockDirectoryRepo{
		sites:         make(map[string]*model.Site),
		supervisors:   make(map[string][]report.Member),
		foremen:       make(map[string][]report.Member),
		teams:         make(map[string]*report.Team),
		members:       make(map[string][]report.Member),
		incidentTypes: make(map[string][]string),
	}
}

func (m *mockDirectoryRepo) GetSite(_ context.Context, siteID string) (*model.Site, error) {
	if s, ok := m.sites[siteID]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDirectoryRepo) ListSites(_ context.Context) ([]model.Site, error) {
	var result []model.Site
	for _, s := range m.sites {
		if s.IsActive {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockDirectoryRepo) Supervisors(_ context.Context, siteID string) ([]report.Member, error) {
	if m.supervisorErr != nil {
		return nil, m.supervisorErr
	}
	return m.supervisors[siteID], nil
}

func (m *mockDirectoryRepo) Foremen(_ context.Context, supervisorID string) ([]report.Member, error) {
	if m.foremenErr != nil {
		return nil, m.foremenErr
	}
	return m.foremen[supervisorID], nil
}

func (m *mockDirectoryRepo) TeamByForeman(_ context.Context, foremanID string) (*report.Team, error) {
	return m.teams[foremanID], nil
}

func (m *mockDirectoryRepo) TeamMembers(_ context.Context, teamID string) ([]report.Member, error) {
	return m.members[teamID], nil
}

func (m *mockDirectoryRepo) ActivityCatalog(_ context.Context) ([]report.CatalogEntry, error) {
	return m.catalog, nil
}

func (m *mockDirectoryRepo) IncidentTypes(_ context.Context, classification string) ([]string, error) {
	return m.incidentTypes[classification], nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	details  map[string]*repository.ReportDetail
	reports  []model.Report
	totals   *repository.ReportTotals
	numbers  map[string][]string
	deleted  []string
	lastList repository.ReportFilter
	listErr  error
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{
		details: make(map[string]*repository.ReportDetail),
		numbers: make(map[string][]string),
	}
}

func (m *mockReportRepo) WriteReportHeader(_ context.Context, h report.Header) (string, error) {
	return h.ReportID, nil
}

func (m *mockReportRepo) WritePresenceRecords(context.Context, string, []report.PresenceRecord) error {
	return nil
}

func (m *mockReportRepo) WriteWeatherSummary(context.Context, string, []report.WeatherPeriodSummary) error {
	return nil
}

func (m *mockReportRepo) WriteActivity(_ context.Context, _ string, a report.Activity) (string, error) {
	return a.ID, nil
}

func (m *mockReportRepo) WriteActivityAssignments(context.Context, string, []report.Allocation) error {
	return nil
}

func (m *mockReportRepo) WriteIncident(_ context.Context, _ string, in report.Incident) (string, error) {
	return in.ID, nil
}

func (m *mockReportRepo) WriteIncidentAssignments(context.Context, string, []report.Allocation) error {
	return nil
}

func (m *mockReportRepo) WriteAttachments(context.Context, string, []report.Attachment) error {
	return nil
}

func (m *mockReportRepo) DeleteReport(_ context.Context, reportID string) error {
	delete(m.details, reportID)
	m.deleted = append(m.deleted, reportID)
	return nil
}

func (m *mockReportRepo) ReportNumbers(_ context.Context, siteID string) ([]string, error) {
	return m.numbers[siteID], nil
}

func (m *mockReportRepo) List(_ context.Context, f repository.ReportFilter) ([]model.Report, int64, error) {
	m.lastList = f
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.reports, int64(len(m.reports)), nil
}

func (m *mockReportRepo) Totals(_ context.Context, f repository.ReportFilter) (*repository.ReportTotals, error) {
	m.lastList = f
	if m.totals == nil {
		return &repository.ReportTotals{}, nil
	}
	return m.totals, nil
}

func (m *mockReportRepo) GetDetail(_ context.Context, reportID string) (*repository.ReportDetail, error) {
	if d, ok := m.details[reportID]; ok {
		return d, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// ── Mock SequenceRepository ──

type mockSequenceRepo struct {
	counters map[string]int64
}

func newMockSequenceRepo() *mockSequenceRepo {
	return &mockSequenceRepo{counters: make(map[string]int64)}
}

func (m *mockSequenceRepo) NextCounter(_ context.Context, siteID string) (int64, error) {
	m.counters[siteID]++
	return m.counters[siteID], nil
}

// ── Stub WeatherService ──

type stubWeather struct {
	report report.WeatherReport
	err    error
	calls  int
}

func (w *stubWeather) ForSession(_ context.Context, s *report.Session, now time.Time) (report.WeatherReport, error) {
	w.calls++
	if w.err != nil {
		return report.WeatherReport{}, w.err
	}
	out := w.report
	out.Date = *s.Date
	out.FetchedAt = now
	return out, nil
}

// ── Stub 设备 ──

type stubScanner struct {
	serial  string
	err     error
	stopped bool
}

func (s *stubScanner) Start(context.Context) error { return nil }

func (s *stubScanner) Scan(context.Context) (string, error) { return s.serial, s.err }

func (s *stubScanner) Stop() error {
	s.stopped = true
	return nil
}

type stubCamera struct {
	openErr error
	still   []byte
}

func (c *stubCamera) Open(context.Context) error { return c.openErr }

func (c *stubCamera) Capture(context.Context) ([]byte, error) { return c.still, nil }

func (c *stubCamera) Close() error { return nil }
