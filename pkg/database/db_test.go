package database

import (
	"io/fs"
	"strings"
	"testing"

	gormlogger "gorm.io/gorm/logger"
)

func TestLogLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"error":  gormlogger.Error,
		"warn":   gormlogger.Warn,
		"info":   gormlogger.Info,
		"":       gormlogger.Warn,
		"loud":   gormlogger.Warn,
	}
	for name, want := range cases {
		if got := LogLevel(name); got != want {
			t.Errorf("%q: 期望 %v，实际 %v", name, want, got)
		}
	}
}

// 每个 up 迁移都要有对应的 down
func TestMigrations_Paired(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil || len(names) == 0 {
		t.Fatalf("未找到迁移文件: %v", err)
	}
	seen := map[string]int{}
	for _, n := range names {
		base := strings.TrimSuffix(strings.TrimSuffix(strings.TrimSuffix(n, ".sql"), ".up"), ".down")
		seen[base]++
	}
	for base, n := range seen {
		if n != 2 {
			t.Errorf("%s: 期望 up/down 成对，实际 %d 个文件", base, n)
		}
	}
}
