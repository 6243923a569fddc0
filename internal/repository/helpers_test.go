package repository

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/report"
)

var testNow = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

// newTestDB 内存 SQLite，单连接保证所有语句落在同一个库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("获取 sql.DB 失败: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	err = db.AutoMigrate(
		&model.Site{},
		&model.Member{},
		&model.Team{},
		&model.TeamMember{},
		&model.ActivityCatalogEntry{},
		&model.IncidentType{},
		&model.Report{},
		&model.ReportPresence{},
		&model.ReportWeather{},
		&model.ReportActivity{},
		&model.ReportActivityAssignment{},
		&model.ReportIncident{},
		&model.ReportIncidentMember{},
		&model.ReportAttachment{},
		&model.ReportSequence{},
	)
	if err != nil {
		t.Fatalf("AutoMigrate 失败: %v", err)
	}
	return db
}

func mustCreate(t *testing.T, db *gorm.DB, v interface{}) {
	t.Helper()
	if err := db.Create(v).Error; err != nil {
		t.Fatalf("写入测试数据失败: %v", err)
	}
}

func tod(s string) *report.TimeOfDay {
	v := report.MustTimeOfDay(s)
	return &v
}

// newPayload 组装一份完整日报：2 人出勤、1 项作业、1 个停工事件、报告与事件各 1 张照片
func newPayload(t *testing.T, siteID, number string) *report.Payload {
	t.Helper()
	s := report.NewSession(siteID, "Obra Norte", uuid.NewString(), testNow)
	if err := s.SetDate(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), testNow); err != nil {
		t.Fatalf("SetDate 失败: %v", err)
	}
	s.SupervisorID = uuid.NewString()
	s.ForemanID = uuid.NewString()
	s.TeamID = uuid.NewString()
	s.Roster = []report.PresenceRecord{
		{Member: report.Member{ID: uuid.NewString(), Name: "Ana", Role: report.RoleWorker}, Status: report.StatusUnset, State: report.ConfirmationNone},
		{Member: report.Member{ID: uuid.NewString(), Name: "Bruno", Role: report.RoleWorker}, Status: report.StatusUnset, State: report.ConfirmationNone},
		{Member: report.Member{ID: uuid.NewString(), Name: "Carla", Role: report.RoleWorker}, Status: report.StatusUnset, State: report.ConfirmationNone},
	}
	for _, r := range s.Roster[:2] {
		if err := s.SetStatus(r.Member.ID, report.StatusPresent, testNow); err != nil {
			t.Fatalf("SetStatus 失败: %v", err)
		}
		if err := s.ConfirmManual(r.Member.ID, testNow); err != nil {
			t.Fatalf("ConfirmManual 失败: %v", err)
		}
	}
	_ = s.SetStatus(s.Roster[2].Member.ID, report.StatusAbsent, testNow)

	if _, err := s.AddActivity(report.ActivityInput{
		Discipline: "Civil", Service: "Concretagem", Description: "Concretagem da laje",
		Start: tod("07:00"), End: tod("11:00"),
	}, testNow); err != nil {
		t.Fatalf("AddActivity 失败: %v", err)
	}
	inc, err := s.AddIncident(report.IncidentInput{
		Classification: report.ClassStoppage, Type: "Chuva", Description: "Parada por chuva",
		Start: tod("13:00"), End: tod("14:30"),
	}, testNow)
	if err != nil {
		t.Fatalf("AddIncident 失败: %v", err)
	}
	if err := s.MarkAllAffected(inc.ID, true, testNow); err != nil {
		t.Fatalf("MarkAllAffected 失败: %v", err)
	}
	if _, err := s.AddPhoto(report.PhotoInput{ContentType: "image/jpeg", Size: 2048, StorageKey: "photos/a.jpg"}, 0, testNow); err != nil {
		t.Fatalf("AddPhoto 失败: %v", err)
	}
	if _, err := s.AddIncidentPhoto(inc.ID, report.PhotoInput{ContentType: "image/png", Size: 1024}, 0, testNow); err != nil {
		t.Fatalf("AddIncidentPhoto 失败: %v", err)
	}
	if err := s.AssignNumber(number); err != nil {
		t.Fatalf("AssignNumber 失败: %v", err)
	}

	p, err := report.Assemble(s, testNow)
	if err != nil {
		t.Fatalf("Assemble 失败: %v", err)
	}
	return p
}
