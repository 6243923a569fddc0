package dto

import "rdo-fidel/backend/internal/report"

// ── 日报会话 DTO ──

// OpenSessionRequest 新建日报草稿
type OpenSessionRequest struct {
	SiteID string `json:"site_id" binding:"required"`
	Date   string `json:"date"    binding:"omitempty,datetime=2006-01-02"`
}

// SetDateRequest 设置报告日期
type SetDateRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// SelectSupervisorRequest 选择主管，空字符串表示清除
type SelectSupervisorRequest struct {
	SupervisorID string `json:"supervisor_id"`
}

// SelectForemanRequest 选择工长，空字符串表示清除
type SelectForemanRequest struct {
	ForemanID string `json:"foreman_id"`
}

// SetStatusRequest 设置出勤状态
type SetStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetDestinationRequest 调出/借调目标班组
type SetDestinationRequest struct {
	TeamID    string `json:"team_id"    binding:"required"`
	ForemanID string `json:"foreman_id"`
}

// BeginConfirmationRequest 开始确认流程
type BeginConfirmationRequest struct {
	Method string `json:"method" binding:"required"`
}

// ConfirmRequest 提交确认结果。
// 工牌用 Serial，人脸/签名用 base64 编码的 Image；UseDevice 为 true 时由服务端设备采集。
type ConfirmRequest struct {
	Method    string `json:"method"     binding:"required"`
	Serial    string `json:"serial"`
	Image     string `json:"image"`
	UseDevice bool   `json:"use_device"`
}

// HardwareUnavailableRequest 记录设备不可用
type HardwareUnavailableRequest struct {
	Method string `json:"method" binding:"required"`
	Reason string `json:"reason" binding:"omitempty,max=255"`
}

// ActivityRequest 新建/修改作业，时间格式 HH:MM
type ActivityRequest struct {
	Discipline    string  `json:"discipline"     binding:"omitempty,max=100"`
	SubDiscipline string  `json:"sub_discipline" binding:"omitempty,max=100"`
	Service       string  `json:"service"        binding:"omitempty,max=150"`
	Description   string  `json:"description"    binding:"required"`
	Start         *string `json:"start"`
	End           *string `json:"end"`
}

// SpanRequest 修改时间段
type SpanRequest struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
}

// HoursRequest 修改成员工时
type HoursRequest struct {
	Hours *float64 `json:"hours" binding:"required"`
}

// MemberActiveRequest 启用/停用成员分配
type MemberActiveRequest struct {
	Active bool `json:"active"`
}

// IncidentRequest 新建/修改事件
type IncidentRequest struct {
	Classification string  `json:"classification" binding:"required"`
	Type           string  `json:"type"           binding:"omitempty,max=150"`
	Description    string  `json:"description"    binding:"required"`
	ResponsibleID  string  `json:"responsible_id"`
	Start          *string `json:"start"`
	End            *string `json:"end"`
}

// AffectedRequest 标记受影响成员
type AffectedRequest struct {
	Marked bool `json:"marked"`
}

// PTSRequest 作业许可
type PTSRequest struct {
	Required bool   `json:"required"`
	Activity string `json:"activity" binding:"omitempty,max=500"`
}

// NotesRequest 备注
type NotesRequest struct {
	Notes string `json:"notes" binding:"max=4000"`
}

// SignatureRequest 主管签字，base64 编码的 PNG
type SignatureRequest struct {
	Image string `json:"image" binding:"required"`
}

// PhotoRequest 照片元数据，文件本身已上传到存储服务
type PhotoRequest struct {
	ContentType string `json:"content_type" binding:"required"`
	Size        int64  `json:"size"         binding:"required,min=1"`
	StorageKey  string `json:"storage_key"  binding:"required,max=255"`
	Caption     string `json:"caption"      binding:"omitempty,max=255"`
}

// ── 日报会话响应 ──

// SessionResponse 草稿及其版本号
type SessionResponse struct {
	Version int64           `json:"version"`
	Session *report.Session `json:"session"`
}

// FinalizeResponse 定稿结果
type FinalizeResponse struct {
	ReportID    string `json:"report_id"`
	Number      string `json:"number"`
	FinalizedAt string `json:"finalized_at"`
}

// MethodsResponse 成员可用的确认方式
type MethodsResponse struct {
	MemberID string                      `json:"member_id"`
	Methods  []report.ConfirmationMethod `json:"methods"`
}
