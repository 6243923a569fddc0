package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Classification 事件分类
type Classification string

const (
	ClassOccurrence   Classification = "occurrence"
	ClassStoppage     Classification = "stoppage"
	ClassInterference Classification = "interference"
	ClassNearMiss     Classification = "near_miss"
	ClassAccident     Classification = "accident"
)

// Classifications 全部分类，按展示顺序
var Classifications = []Classification{
	ClassOccurrence, ClassStoppage, ClassInterference, ClassNearMiss, ClassAccident,
}

// Valid 是否为合法分类
func (c Classification) Valid() bool {
	for _, v := range Classifications {
		if c == v {
			return true
		}
	}
	return false
}

// Incident 事件/停工/干扰记录
type Incident struct {
	ID             string         `json:"id"`
	Classification Classification `json:"classification"`
	Type           string         `json:"type,omitempty"`
	Description    string         `json:"description"`
	ResponsibleID  string         `json:"responsible_id,omitempty"`
	Span           TimeSpan       `json:"span"`
	Affected       []Allocation   `json:"affected"`
	Photos         []Attachment   `json:"photos,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// IncidentInput 新建/修改事件的字段
type IncidentInput struct {
	Classification Classification
	Type           string
	Description    string
	ResponsibleID  string
	Start          *TimeOfDay
	End            *TimeOfDay
}

// DurationHours 事件时长（小时）
func (in *Incident) DurationHours() (float64, bool) {
	return in.Span.Hours()
}

// AffectedCount 被标记的受影响成员数
func (in *Incident) AffectedCount() int {
	return activeCount(in.Affected)
}

// LostHours 损失工时 = 时长 × 受影响人数，与单个成员的工时编辑无关
func (in *Incident) LostHours() float64 {
	hours, ok := in.Span.Hours()
	if !ok {
		return 0
	}
	return hours * float64(activeCount(in.Affected))
}

func (s *Session) incident(id string) (*Incident, error) {
	for i := range s.Incidents {
		if s.Incidents[i].ID == id {
			return &s.Incidents[i], nil
		}
	}
	return nil, ErrIncidentNotFound
}

// Incident 按 ID 查找事件
func (s *Session) Incident(id string) (Incident, error) {
	in, err := s.incident(id)
	if err != nil {
		return Incident{}, err
	}
	return *in, nil
}

func (s *Session) checkResponsible(memberID string) error {
	if memberID == "" {
		return nil
	}
	_, err := s.record(memberID)
	return err
}

// AddIncident 新建事件。可分配成员列入受影响名单但默认不勾选。
func (s *Session) AddIncident(in IncidentInput, at time.Time) (Incident, error) {
	if err := s.editable(); err != nil {
		return Incident{}, err
	}
	if in.Classification != "" && !in.Classification.Valid() {
		return Incident{}, ErrInvalidClassification
	}
	if err := s.checkResponsible(in.ResponsibleID); err != nil {
		return Incident{}, err
	}
	inc := Incident{
		ID:             uuid.NewString(),
		Classification: in.Classification,
		Type:           strings.TrimSpace(in.Type),
		Description:    strings.TrimSpace(in.Description),
		ResponsibleID:  in.ResponsibleID,
		Span:           spanFrom(in.Start, in.End),
		Affected:       snapshot(s.EligibleMembers(), false),
		CreatedAt:      at,
	}
	s.Incidents = append(s.Incidents, inc)
	s.touch(at)
	return inc, nil
}

// UpdateIncident 修改分类、类型、描述和责任人
func (s *Session) UpdateIncident(id string, in IncidentInput, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	if in.Classification != "" && !in.Classification.Valid() {
		return ErrInvalidClassification
	}
	if err := s.checkResponsible(in.ResponsibleID); err != nil {
		return err
	}
	if in.Classification != inc.Classification {
		// 分类变化后原类型不再适用
		inc.Type = ""
	}
	inc.Classification = in.Classification
	if t := strings.TrimSpace(in.Type); t != "" {
		inc.Type = t
	}
	inc.Description = strings.TrimSpace(in.Description)
	inc.ResponsibleID = in.ResponsibleID
	s.touch(at)
	return nil
}

// SetIncidentSpan 设置起止时间；被标记成员重写为整段时长
func (s *Session) SetIncidentSpan(id string, start, end *TimeOfDay, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	inc.Span = spanFrom(start, end)
	stamp(inc.Affected, inc.Span)
	s.touch(at)
	return nil
}

// MarkAffected 标记/取消受影响成员；只有可分配成员能被标记
func (s *Session) MarkAffected(id, memberID string, marked bool, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	if marked {
		r, err := s.record(memberID)
		if err != nil {
			return err
		}
		if !r.Eligible() {
			return ErrMemberNotEligible
		}
		if findAllocation(inc.Affected, memberID) < 0 {
			inc.Affected = append(inc.Affected, Allocation{MemberID: r.Member.ID, MemberName: r.Member.Name})
		}
	}
	if err := setAllocationActive(inc.Affected, memberID, marked, inc.Span); err != nil {
		return err
	}
	s.touch(at)
	return nil
}

// MarkAllAffected 全选/全不选当前可分配成员
func (s *Session) MarkAllAffected(id string, marked bool, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	if marked {
		for _, m := range s.EligibleMembers() {
			if findAllocation(inc.Affected, m.ID) < 0 {
				inc.Affected = append(inc.Affected, Allocation{MemberID: m.ID, MemberName: m.Name})
			}
		}
	}
	for i := range inc.Affected {
		_ = setAllocationActive(inc.Affected, inc.Affected[i].MemberID, marked, inc.Span)
	}
	s.touch(at)
	return nil
}

// SetAffectedHours 单独修改受影响成员的工时，不改变损失工时
func (s *Session) SetAffectedHours(id, memberID string, hours float64, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	if err := setAllocationHours(inc.Affected, memberID, hours); err != nil {
		return err
	}
	s.touch(at)
	return nil
}

// DistributeIncidentHours 与作业一致：重写整段时长，不平分
func (s *Session) DistributeIncidentHours(id string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	inc, err := s.incident(id)
	if err != nil {
		return err
	}
	if _, ok := inc.Span.Minutes(); !ok {
		return ErrDurationUnknown
	}
	stamp(inc.Affected, inc.Span)
	s.touch(at)
	return nil
}

// RemoveIncident 删除事件及其受影响名单和照片
func (s *Session) RemoveIncident(id string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	for i := range s.Incidents {
		if s.Incidents[i].ID == id {
			s.Incidents = append(s.Incidents[:i], s.Incidents[i+1:]...)
			s.touch(at)
			return nil
		}
	}
	return ErrIncidentNotFound
}

// TotalLostHours 所有事件的损失工时合计
func (s *Session) TotalLostHours() float64 {
	var sum float64
	for i := range s.Incidents {
		sum += s.Incidents[i].LostHours()
	}
	return sum
}
