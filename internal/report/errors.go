package report

import (
	"errors"
	"fmt"
	"strings"
)

// ── 报告会话业务错误 ──

var (
	ErrSessionFinalized      = errors.New("报告已定稿，不可修改")
	ErrMemberNotOnRoster     = errors.New("成员不在当前名单中")
	ErrInvalidStatus         = errors.New("无效的出勤状态")
	ErrInvalidMethod         = errors.New("无效的确认方式")
	ErrMethodNotAvailable    = errors.New("该成员不支持此确认方式")
	ErrNotPresent            = errors.New("成员未标记为出勤，无法确认")
	ErrNoPendingMethod       = errors.New("成员没有进行中的确认流程")
	ErrMethodMismatch        = errors.New("确认方式与进行中的流程不一致")
	ErrAlreadyConfirmed      = errors.New("成员已确认出勤")
	ErrBlankSignature        = errors.New("签名为空，请签名后再确认")
	ErrEmptyCapture          = errors.New("未采集到有效图像")
	ErrDestinationRequired   = errors.New("调出/借调成员必须选择目标班组")
	ErrDestinationNotAllowed = errors.New("仅调出/借调成员可设置目标班组")
	ErrMemberNotEligible     = errors.New("成员未确认出勤，不能分配工时")
	ErrActivityNotFound      = errors.New("作业记录不存在")
	ErrIncidentNotFound      = errors.New("事件记录不存在")
	ErrAllocationNotFound    = errors.New("成员不在该记录的分配列表中")
	ErrAllocationInactive    = errors.New("成员未勾选参与，不能填写工时")
	ErrDurationUnknown       = errors.New("请先设置开始和结束时间")
	ErrHoursOutOfRange       = errors.New("工时必须在 0 到 24 之间")
	ErrInvalidClassification = errors.New("无效的事件分类")
	ErrInvalidTimeOfDay      = errors.New("时间格式无效，应为 HH:MM")
	ErrSupervisorRequired    = errors.New("请先选择主管")
	ErrSupervisorNotListed   = errors.New("所选主管不属于该工地")
	ErrForemanNotListed      = errors.New("所选工长不隶属于当前主管")
	ErrSiteRequired          = errors.New("请先选择工地")
	ErrDateRequired          = errors.New("请先选择日期")
	ErrPhotoNotFound         = errors.New("照片不存在")
	ErrInvalidPhoto          = errors.New("照片格式无效")
	ErrPhotoTooLarge         = errors.New("照片超过大小限制")
	ErrDateOutOfRange        = errors.New("日期超出 5 天预报范围")

	// ErrTransientFetch 名单/天气等外部拉取失败，可重试，不影响其他区域编辑
	ErrTransientFetch = errors.New("外部数据拉取失败，请重试")
	// ErrHardwareUnavailable 摄像头/读卡器不可用，应降级为人工确认
	ErrHardwareUnavailable = errors.New("设备不可用")
	// ErrPersistence 定稿写入失败
	ErrPersistence = errors.New("报告保存失败")
)

// TagMismatchError 工牌标识不匹配，保留待确认状态供重试或换用其他方式
type TagMismatchError struct {
	Expected string
	Received string
}

func (e *TagMismatchError) Error() string {
	expected := e.Expected
	if expected == "" {
		expected = "未登记"
	}
	return fmt.Sprintf("工牌不匹配: 读取 %s，登记 %s", e.Received, expected)
}

// ValidationError 定稿校验失败，汇总所有问题
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "定稿校验失败: " + strings.Join(e.Problems, "; ")
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// PartialWriteError 定稿写入中途失败。
// Completed 为已成功的步骤；Compensated 表示补偿删除是否成功。
type PartialWriteError struct {
	ReportID        string
	Step            string
	Completed       []string
	Err             error
	Compensated     bool
	CompensationErr error
}

func (e *PartialWriteError) Error() string {
	msg := fmt.Sprintf("报告 %s 在步骤 %s 写入失败(已完成 %d 步): %v", e.ReportID, e.Step, len(e.Completed), e.Err)
	if e.CompensationErr != nil {
		msg += fmt.Sprintf("; 补偿清理失败: %v", e.CompensationErr)
	}
	return msg
}

func (e *PartialWriteError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
