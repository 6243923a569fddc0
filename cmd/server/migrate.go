package main

import (
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rdo-fidel/backend/pkg/database"
)

var migrateSteps int

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "数据库迁移",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "执行全部未应用的迁移",
	RunE: withSQLDB(func(db *sql.DB, logger *zap.Logger) error {
		return database.RunMigrations(db, logger)
	}),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "回滚迁移",
	RunE: withSQLDB(func(db *sql.DB, logger *zap.Logger) error {
		return database.RollbackMigrations(db, migrateSteps, logger)
	}),
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateSteps, "steps", 1, "回滚的版本数")

	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

// withSQLDB 为迁移命令建立数据库连接
func withSQLDB(fn func(db *sql.DB, logger *zap.Logger) error) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, _ []string) error {
		cfg, logger, err := bootstrap()
		if err != nil {
			return err
		}
		defer logger.Sync()

		gdb, err := database.NewDB(&cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("数据库连接失败: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		defer sqlDB.Close()

		return fn(sqlDB, logger)
	}
}
