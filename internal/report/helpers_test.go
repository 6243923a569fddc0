package report

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"
)

// ── 测试辅助 ──

var testNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func tod(s string) *TimeOfDay {
	v := MustTimeOfDay(s)
	return &v
}

// newTestSession 名单: m1 有工牌、m2 有照片和签名、m3 无登记能力
func newTestSession(t *testing.T) *Session {
	t.Helper()
	s := NewSession("site-001", "Obra Centro", "user-001", testNow)
	d := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	s.Date = &d
	s.Supervisors = []Member{{ID: "sup-001", Name: "Sérgio", Role: RoleSupervisor}}
	s.Foremen = []Member{{ID: "for-001", Name: "Fábio", Role: RoleForeman}}
	s.SupervisorID = "sup-001"
	s.ForemanID = "for-001"
	s.TeamID = "team-001"
	s.Roster = []PresenceRecord{
		{Member: Member{ID: "m1", Name: "Ana", Role: RoleWorker, CredentialID: "04A1B2C3"}, Status: StatusUnset, State: ConfirmationNone},
		{Member: Member{ID: "m2", Name: "Bruno", Role: RoleWorker, HasReferencePhoto: true, HasReferenceSignature: true}, Status: StatusUnset, State: ConfirmationNone},
		{Member: Member{ID: "m3", Name: "Carla", Role: RoleWorker}, Status: StatusUnset, State: ConfirmationNone},
	}
	return s
}

// confirmPresent 标记出勤并人工确认
func confirmPresent(t *testing.T, s *Session, ids ...string) {
	t.Helper()
	for _, id := range ids {
		if err := s.SetStatus(id, StatusPresent, testNow); err != nil {
			t.Fatalf("SetStatus(%s) 应成功: %v", id, err)
		}
		if err := s.ConfirmManual(id, testNow); err != nil {
			t.Fatalf("ConfirmManual(%s) 应成功: %v", id, err)
		}
	}
}

func signaturePNG(t *testing.T, blank bool) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 20, 10))
	if !blank {
		img.Set(5, 5, color.NRGBA{R: 0, G: 0, B: 0, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("编码 PNG 失败: %v", err)
	}
	return buf.Bytes()
}

func approxEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

// ── mock 设备 ──

type mockScanner struct {
	startErr error
	serial   string
	scanErr  error
	block    bool
	started  bool
	stopped  bool
}

func (m *mockScanner) Start(ctx context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *mockScanner) Scan(ctx context.Context) (string, error) {
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return m.serial, m.scanErr
}

func (m *mockScanner) Stop() error {
	m.stopped = true
	return nil
}

type mockCamera struct {
	openErr error
	still   []byte
	opened  bool
	closed  bool
}

func (m *mockCamera) Open(ctx context.Context) error {
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *mockCamera) Capture(ctx context.Context) ([]byte, error) {
	return m.still, nil
}

func (m *mockCamera) Close() error {
	m.closed = true
	return nil
}

// ── mock 持久化 ──

type mockWriter struct {
	failStep    string
	deleteErr   error
	headers     []Header
	presence    map[string][]PresenceRecord
	weather     map[string][]WeatherPeriodSummary
	activities  []Activity
	assignments map[string][]Allocation
	incidents   []Incident
	affected    map[string][]Allocation
	photos      []Attachment
	deleted     []string
}

func newMockWriter() *mockWriter {
	return &mockWriter{
		presence:    make(map[string][]PresenceRecord),
		weather:     make(map[string][]WeatherPeriodSummary),
		assignments: make(map[string][]Allocation),
		affected:    make(map[string][]Allocation),
	}
}

var errWriteFailed = errors.New("写入失败")

func (m *mockWriter) WriteReportHeader(ctx context.Context, h Header) (string, error) {
	if m.failStep == StepHeader {
		return "", errWriteFailed
	}
	m.headers = append(m.headers, h)
	return h.ReportID, nil
}

func (m *mockWriter) WritePresenceRecords(ctx context.Context, reportID string, records []PresenceRecord) error {
	if m.failStep == StepPresence {
		return errWriteFailed
	}
	m.presence[reportID] = records
	return nil
}

func (m *mockWriter) WriteWeatherSummary(ctx context.Context, reportID string, summaries []WeatherPeriodSummary) error {
	if m.failStep == StepWeather {
		return errWriteFailed
	}
	m.weather[reportID] = summaries
	return nil
}

func (m *mockWriter) WriteActivity(ctx context.Context, reportID string, a Activity) (string, error) {
	if m.failStep == StepActivity {
		return "", errWriteFailed
	}
	m.activities = append(m.activities, a)
	return a.ID, nil
}

func (m *mockWriter) WriteActivityAssignments(ctx context.Context, activityID string, assignments []Allocation) error {
	m.assignments[activityID] = assignments
	return nil
}

func (m *mockWriter) WriteIncident(ctx context.Context, reportID string, in Incident) (string, error) {
	if m.failStep == StepIncident {
		return "", errWriteFailed
	}
	m.incidents = append(m.incidents, in)
	return in.ID, nil
}

func (m *mockWriter) WriteIncidentAssignments(ctx context.Context, incidentID string, affected []Allocation) error {
	m.affected[incidentID] = affected
	return nil
}

func (m *mockWriter) WriteAttachments(ctx context.Context, reportID string, photos []Attachment) error {
	if m.failStep == StepAttachments {
		return errWriteFailed
	}
	m.photos = append(m.photos, photos...)
	return nil
}

func (m *mockWriter) DeleteReport(ctx context.Context, reportID string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, reportID)
	return nil
}
