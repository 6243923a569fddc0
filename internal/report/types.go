package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ── 人员 ──

// 人员角色
const (
	RoleSupervisor = "supervisor"
	RoleForeman    = "foreman"
	RoleWorker     = "worker"
)

// Member 参考数据中的人员（只读）
type Member struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Role                  string `json:"role"`
	CredentialID          string `json:"credential_id,omitempty"` // 已登记工牌标识
	HasReferencePhoto     bool   `json:"has_reference_photo"`
	HasReferenceSignature bool   `json:"has_reference_signature"`
}

// HasCredential 是否登记了工牌
func (m Member) HasCredential() bool {
	return strings.TrimSpace(m.CredentialID) != ""
}

// ── 出勤状态 ──

// PresenceStatus 出勤状态
type PresenceStatus string

const (
	StatusUnset       PresenceStatus = "unset"
	StatusPresent     PresenceStatus = "present"
	StatusAbsent      PresenceStatus = "absent"
	StatusVacation    PresenceStatus = "vacation"
	StatusLeave       PresenceStatus = "leave"
	StatusTransferred PresenceStatus = "transferred"
	StatusLoaned      PresenceStatus = "loaned"
)

// Valid 是否为合法状态
func (s PresenceStatus) Valid() bool {
	switch s {
	case StatusUnset, StatusPresent, StatusAbsent, StatusVacation, StatusLeave, StatusTransferred, StatusLoaned:
		return true
	}
	return false
}

// NeedsDestination 调出/借调需要目标班组
func (s PresenceStatus) NeedsDestination() bool {
	return s == StatusTransferred || s == StatusLoaned
}

// ConfirmationMethod 出勤确认方式
type ConfirmationMethod string

const (
	MethodTag       ConfirmationMethod = "tag"
	MethodFacial    ConfirmationMethod = "facial"
	MethodSignature ConfirmationMethod = "signature"
	MethodManual    ConfirmationMethod = "manual"
)

// Valid 是否为合法确认方式
func (m ConfirmationMethod) Valid() bool {
	switch m {
	case MethodTag, MethodFacial, MethodSignature, MethodManual:
		return true
	}
	return false
}

// ConfirmationState 确认子状态
type ConfirmationState string

const (
	ConfirmationNone      ConfirmationState = "none"
	ConfirmationPending   ConfirmationState = "pending"
	ConfirmationConfirmed ConfirmationState = "confirmed"
)

// ── 时间 ──

const minutesPerDay = 24 * 60

// TimeOfDay 一天中的时刻（自零点起的分钟数），JSON 编码为 "HH:MM"
type TimeOfDay int

// ParseTimeOfDay 解析 "HH:MM"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var h, m int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d:%d", &h, &m); err != nil {
		return 0, ErrInvalidTimeOfDay
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, ErrInvalidTimeOfDay
	}
	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay 仅用于常量与测试
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On 把时刻落到指定日期上
func (t TimeOfDay) On(date time.Time) time.Time {
	y, mo, d := date.Date()
	return time.Date(y, mo, d, int(t)/60, int(t)%60, 0, 0, date.Location())
}

// TimeSpan 开始/结束时刻；任一为空时时长未定义
type TimeSpan struct {
	Start *TimeOfDay `json:"start,omitempty"`
	End   *TimeOfDay `json:"end,omitempty"`
}

// DurationMinutes 时长 = (end - start) mod 1440，跨零点的班次为正值
func DurationMinutes(start, end TimeOfDay) int {
	d := (int(end) - int(start)) % minutesPerDay
	if d < 0 {
		d += minutesPerDay
	}
	return d
}

// Minutes 返回时长分钟数；未设置时间段时 ok=false
func (s TimeSpan) Minutes() (int, bool) {
	if s.Start == nil || s.End == nil {
		return 0, false
	}
	return DurationMinutes(*s.Start, *s.End), true
}

// Hours 返回小时数（小数）
func (s TimeSpan) Hours() (float64, bool) {
	m, ok := s.Minutes()
	if !ok {
		return 0, false
	}
	return float64(m) / 60, true
}

// Label 格式化为 "HH:MM" 时长
func (s TimeSpan) Label() string {
	m, ok := s.Minutes()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// DateOnly 截断到当天零点（保留时区）
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
