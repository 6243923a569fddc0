//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rdo-fidel/backend/internal/model"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
	"rdo-fidel/backend/pkg/database"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=rdo password=rdo_password dbname=rdo_test sslmode=disable TimeZone=America/Sao_Paulo"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	// 走正式迁移，验证 SQL 迁移文件与模型一致
	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取 sql.DB 失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "迁移失败: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	os.Exit(code)
}

func cleanupSite(t *testing.T, siteID string) {
	t.Helper()
	repo := repository.NewRepository(testDB)
	var ids []string
	testDB.Model(&model.Report{}).Where("site_id = ?", siteID).Pluck("report_id", &ids)
	for _, id := range ids {
		_ = repo.Report.DeleteReport(context.Background(), id)
	}
	testDB.Where("site_id = ?", siteID).Delete(&model.ReportSequence{})
}

func payload(t *testing.T, siteID, number string) *report.Payload {
	t.Helper()
	now := time.Now().UTC()
	s := report.NewSession(siteID, "Obra Integração", uuid.NewString(), now)
	_ = s.SetDate(now, now)
	s.Roster = []report.PresenceRecord{
		{Member: report.Member{ID: uuid.NewString(), Name: "Ana"}, Status: report.StatusUnset, State: report.ConfirmationNone},
	}
	id := s.Roster[0].Member.ID
	_ = s.SetStatus(id, report.StatusPresent, now)
	_ = s.ConfirmManual(id, now)
	start, end := report.MustTimeOfDay("07:00"), report.MustTimeOfDay("16:00")
	if _, err := s.AddActivity(report.ActivityInput{Description: "Alvenaria", Start: &start, End: &end}, now); err != nil {
		t.Fatalf("AddActivity 失败: %v", err)
	}
	_ = s.AssignNumber(number)
	p, err := report.Assemble(s, now)
	if err != nil {
		t.Fatalf("Assemble 失败: %v", err)
	}
	return p
}

// ═══════════════════════════════════════════════════════════
// Test: Finalize round trip
// ═══════════════════════════════════════════════════════════

func TestIntegration_SubmitInTransaction(t *testing.T) {
	siteID := uuid.NewString()
	defer cleanupSite(t, siteID)

	repo := repository.NewRepository(testDB)
	ctx := context.Background()
	p := payload(t, siteID, "00000001")

	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		return report.Submit(ctx, tx.Report, p)
	})
	if err != nil {
		t.Fatalf("事务内定稿失败: %v", err)
	}

	d, err := repo.Report.GetDetail(ctx, p.Header.ReportID)
	if err != nil {
		t.Fatalf("GetDetail 失败: %v", err)
	}
	if d.Report.TotalHours != 9 || len(d.Activities) != 1 || len(d.Activities[0].Assignments) != 1 {
		t.Errorf("报告内容不正确: %+v", d.Report)
	}
}

func TestIntegration_DuplicateNumberRejected(t *testing.T) {
	siteID := uuid.NewString()
	defer cleanupSite(t, siteID)

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := report.Submit(ctx, repo.Report, payload(t, siteID, "00000001")); err != nil {
		t.Fatalf("首份报告失败: %v", err)
	}
	err := report.Submit(ctx, repo.Report, payload(t, siteID, "00000001"))
	if !errors.Is(err, repository.ErrDuplicateNumber) {
		t.Errorf("期望 ErrDuplicateNumber，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Counter strategy under concurrency
// ═══════════════════════════════════════════════════════════

func TestIntegration_CounterIsUniqueUnderConcurrency(t *testing.T) {
	siteID := uuid.NewString()
	defer cleanupSite(t, siteID)

	alloc := report.NewCounterAllocator(repository.NewRepository(testDB).Sequence)
	ctx := context.Background()

	const workers = 20
	var (
		mu   sync.Mutex
		seen = map[string]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := alloc.Next(ctx, siteID)
			if err != nil {
				t.Errorf("Next 失败: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[n] {
				t.Errorf("编号重复: %s", n)
			}
			seen[n] = true
		}()
	}
	wg.Wait()

	if len(seen) != workers {
		t.Errorf("期望 %d 个不同编号，实际 %d", workers, len(seen))
	}
}
