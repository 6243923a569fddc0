package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// SequenceRepository 报告编号计数器（counter 策略），实现 report.CounterStore
type SequenceRepository interface {
	NextCounter(ctx context.Context, siteID string) (int64, error)
}

type sequenceRepo struct {
	db *gorm.DB
}

// NewSequenceRepo 创建 SequenceRepository 实例
func NewSequenceRepo(db *gorm.DB) SequenceRepository {
	return &sequenceRepo{db: db}
}

// 首次使用时以现有最大编号为起点，之后单条语句原子自增
const nextCounterSQL = `
INSERT INTO report_sequences (site_id, last_value, updated_at)
VALUES (?, (SELECT COALESCE(MAX(CAST(number AS BIGINT)), 0) + 1 FROM reports WHERE site_id = ?), ?)
ON CONFLICT (site_id) DO UPDATE
SET last_value = report_sequences.last_value + 1, updated_at = excluded.updated_at
RETURNING last_value`

func (r *sequenceRepo) NextCounter(ctx context.Context, siteID string) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Raw(nextCounterSQL, siteID, siteID, time.Now().UTC()).
		Scan(&next).Error
	return next, err
}
