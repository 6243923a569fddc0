package report

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus 会话状态
type SessionStatus string

const (
	SessionDraft     SessionStatus = "draft"
	SessionFinalized SessionStatus = "finalized"
)

// PTS 作业许可
type PTS struct {
	Required bool   `json:"required"`
	Activity string `json:"activity,omitempty"`
}

// PresenceRecord 名单中一名成员当天的出勤记录
type PresenceRecord struct {
	Member               Member               `json:"member"`
	Status               PresenceStatus       `json:"status"`
	State                ConfirmationState    `json:"state"`
	Method               ConfirmationMethod   `json:"method,omitempty"`
	ConfirmedAt          *time.Time           `json:"confirmed_at,omitempty"`
	Detail               string               `json:"detail,omitempty"`
	Artifact             []byte               `json:"artifact,omitempty"`
	DestinationTeamID    string               `json:"destination_team_id,omitempty"`
	DestinationForemanID string               `json:"destination_foreman_id,omitempty"`
	UnavailableMethods   []ConfirmationMethod `json:"unavailable_methods,omitempty"`
	HardwareNote         string               `json:"hardware_note,omitempty"`
}

// Eligible 出勤且已确认的成员才能分配工时
func (r *PresenceRecord) Eligible() bool {
	return r.Status == StatusPresent && r.State == ConfirmationConfirmed
}

// AwaitingDestination 调出/借调但尚未选择目标班组
func (r *PresenceRecord) AwaitingDestination() bool {
	return r.Status.NeedsDestination() && r.DestinationTeamID == ""
}

// Session 日报会话（聚合根）。草稿阶段可编辑，定稿后只读。
type Session struct {
	ID        string     `json:"id"`
	SiteID    string     `json:"site_id"`
	SiteName  string     `json:"site_name"`
	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	Date      *time.Time `json:"date,omitempty"`
	Number    string     `json:"number,omitempty"`

	SupervisorID string   `json:"supervisor_id,omitempty"`
	ForemanID    string   `json:"foreman_id,omitempty"`
	TeamID       string   `json:"team_id,omitempty"`
	Supervisors  []Member `json:"supervisors,omitempty"`
	Foremen      []Member `json:"foremen,omitempty"`

	Roster     []PresenceRecord `json:"roster"`
	Weather    *WeatherReport   `json:"weather,omitempty"`
	Activities []Activity       `json:"activities"`
	Incidents  []Incident       `json:"incidents"`

	PTS                 PTS          `json:"pts"`
	Photos              []Attachment `json:"photos,omitempty"`
	SupervisorSignature []byte       `json:"supervisor_signature,omitempty"`
	Notes               string       `json:"notes,omitempty"`

	Status      SessionStatus `json:"status"`
	ReportID    string        `json:"report_id,omitempty"`
	CreatedBy   string        `json:"created_by,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	FinalizedAt *time.Time    `json:"finalized_at,omitempty"`
}

// NewSession 为工地新建草稿会话
func NewSession(siteID, siteName, createdBy string, at time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		SiteID:     siteID,
		SiteName:   siteName,
		Roster:     []PresenceRecord{},
		Activities: []Activity{},
		Incidents:  []Incident{},
		Status:     SessionDraft,
		CreatedBy:  createdBy,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

func (s *Session) editable() error {
	if s.Status == SessionFinalized {
		return ErrSessionFinalized
	}
	return nil
}

// Finalized 是否已定稿
func (s *Session) Finalized() bool {
	return s.Status == SessionFinalized
}

func (s *Session) touch(at time.Time) {
	if !at.IsZero() {
		s.UpdatedAt = at
	}
}

// SetSiteCoordinates 设置工地坐标（天气查询用）
func (s *Session) SetSiteCoordinates(lat, lng *float64) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Latitude, s.Longitude = lat, lng
	return nil
}

// SetDate 设置报告日期；日期变化时整体丢弃已有天气汇总
func (s *Session) SetDate(date time.Time, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	d := DateOnly(date)
	if s.Date == nil || !s.Date.Equal(d) {
		s.Weather = nil
	}
	s.Date = &d
	s.touch(at)
	return nil
}

// SetWeather 整体替换天气汇总
func (s *Session) SetWeather(w WeatherReport, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Weather = &w
	s.touch(at)
	return nil
}

// AssignNumber 记录已分配的报告编号；已有编号时保持不变
func (s *Session) AssignNumber(number string) error {
	if err := s.editable(); err != nil {
		return err
	}
	if s.Number == "" {
		s.Number = number
		s.renamePhotos()
	}
	return nil
}

// ReleaseNumber 放弃已分配但未落库的编号（编号被并发定稿占用时使用），下次定稿重新分配
func (s *Session) ReleaseNumber() error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Number = ""
	s.renamePhotos()
	return nil
}

// SetPTS 设置作业许可信息
func (s *Session) SetPTS(required bool, activity string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.PTS = PTS{Required: required}
	if required {
		s.PTS.Activity = activity
	}
	s.touch(at)
	return nil
}

// SetNotes 设置备注
func (s *Session) SetNotes(notes string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.Notes = notes
	s.touch(at)
	return nil
}

// SetSupervisorSignature 主管签字，空白签名拒绝
func (s *Session) SetSupervisorSignature(png []byte, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	if err := checkSignature(png); err != nil {
		return err
	}
	s.SupervisorSignature = append([]byte(nil), png...)
	s.touch(at)
	return nil
}

// ClearSupervisorSignature 清除主管签字
func (s *Session) ClearSupervisorSignature(at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	s.SupervisorSignature = nil
	s.touch(at)
	return nil
}

// ── 名单查询 ──

func (s *Session) record(memberID string) (*PresenceRecord, error) {
	for i := range s.Roster {
		if s.Roster[i].Member.ID == memberID {
			return &s.Roster[i], nil
		}
	}
	return nil, ErrMemberNotOnRoster
}

// Record 返回成员的出勤记录
func (s *Session) Record(memberID string) (PresenceRecord, error) {
	r, err := s.record(memberID)
	if err != nil {
		return PresenceRecord{}, err
	}
	return *r, nil
}

// IsEligible 成员是否可被分配工时
func (s *Session) IsEligible(memberID string) bool {
	r, err := s.record(memberID)
	return err == nil && r.Eligible()
}

// EligibleMembers 当前可分配工时的成员，按名单顺序
func (s *Session) EligibleMembers() []Member {
	var out []Member
	for i := range s.Roster {
		if s.Roster[i].Eligible() {
			out = append(out, s.Roster[i].Member)
		}
	}
	return out
}

// PendingDestinations 仍在等待目标班组的成员
func (s *Session) PendingDestinations() []Member {
	var out []Member
	for i := range s.Roster {
		if s.Roster[i].AwaitingDestination() {
			out = append(out, s.Roster[i].Member)
		}
	}
	return out
}

// resetStaffing 清空名单及其上所有工时分配，作业/事件记录本身保留
func (s *Session) resetStaffing() {
	s.TeamID = ""
	s.Roster = []PresenceRecord{}
	for i := range s.Activities {
		s.Activities[i].Assignments = nil
	}
	for i := range s.Incidents {
		s.Incidents[i].Affected = nil
		s.Incidents[i].ResponsibleID = ""
	}
}

// dropMember 成员失去资格时从所有作业/事件中移除
func (s *Session) dropMember(memberID string) {
	for i := range s.Activities {
		s.Activities[i].Assignments = removeAllocation(s.Activities[i].Assignments, memberID)
	}
	for i := range s.Incidents {
		s.Incidents[i].Affected = removeAllocation(s.Incidents[i].Affected, memberID)
	}
}
