package report

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// SequenceWidth 报告编号位数
const SequenceWidth = 8

// FirstSequence 工地的第一个编号，也是读取失败时的降级值
const FirstSequence = "00000001"

// 编号分配策略
const (
	StrategyMaxPlusOne = "max_plus_one"
	StrategyCounter    = "counter"
)

// SequenceAllocator 分配工地的下一个报告编号
type SequenceAllocator interface {
	Next(ctx context.Context, siteID string) (string, error)
}

// SequenceSource 读取工地已有的全部报告编号
type SequenceSource interface {
	ReportNumbers(ctx context.Context, siteID string) ([]string, error)
}

// CounterStore 服务端原子计数器
type CounterStore interface {
	NextCounter(ctx context.Context, siteID string) (int64, error)
}

// FormatSequence 左补零到 8 位
func FormatSequence(n int64) string {
	return fmt.Sprintf("%0*d", SequenceWidth, n)
}

// NextAfter 数值最大值 + 1；无法解析的编号忽略
func NextAfter(numbers []string) string {
	var max int64
	for _, raw := range numbers {
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil || n < 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return FormatSequence(max + 1)
}

// ════════════════════════════════════════════════════════════
// MaxPlusOneAllocator 读取最大编号后加一。
// 并发提交同一工地时可能算出相同编号，多人部署请使用 CounterAllocator。
// ════════════════════════════════════════════════════════════

type MaxPlusOneAllocator struct {
	source SequenceSource
	logger *zap.Logger
}

// NewMaxPlusOneAllocator 创建默认编号分配器
func NewMaxPlusOneAllocator(source SequenceSource, logger *zap.Logger) *MaxPlusOneAllocator {
	return &MaxPlusOneAllocator{source: source, logger: logger}
}

// Next 读取失败时返回 00000001 并记录告警，需人工核对
func (a *MaxPlusOneAllocator) Next(ctx context.Context, siteID string) (string, error) {
	numbers, err := a.source.ReportNumbers(ctx, siteID)
	if err != nil {
		a.logger.Warn("读取报告编号失败，使用默认编号，请人工核对",
			zap.String("site_id", siteID),
			zap.String("fallback", FirstSequence),
			zap.Error(err),
		)
		return FirstSequence, nil
	}
	return NextAfter(numbers), nil
}

// CounterAllocator 通过数据库原子计数器分配编号
type CounterAllocator struct {
	store CounterStore
}

// NewCounterAllocator 创建计数器分配器
func NewCounterAllocator(store CounterStore) *CounterAllocator {
	return &CounterAllocator{store: store}
}

// Next 计数器失败直接返回错误，不做降级
func (a *CounterAllocator) Next(ctx context.Context, siteID string) (string, error) {
	n, err := a.store.NextCounter(ctx, siteID)
	if err != nil {
		return "", fmt.Errorf("分配报告编号失败: %w", err)
	}
	return FormatSequence(n), nil
}
