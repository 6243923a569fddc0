package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Activity 当日执行的一项作业
type Activity struct {
	ID            string       `json:"id"`
	Discipline    string       `json:"discipline"`
	SubDiscipline string       `json:"sub_discipline,omitempty"`
	Service       string       `json:"service,omitempty"`
	Description   string       `json:"description"`
	Span          TimeSpan     `json:"span"`
	Assignments   []Allocation `json:"assignments"`
	CreatedAt     time.Time    `json:"created_at"`
}

// ActivityInput 新建/修改作业的字段
type ActivityInput struct {
	Discipline    string
	SubDiscipline string
	Service       string
	Description   string
	Start         *TimeOfDay
	End           *TimeOfDay
}

// DurationHours 作业时长（小时）
func (a *Activity) DurationHours() (float64, bool) {
	return a.Span.Hours()
}

// TotalHours 有效成员工时合计
func (a *Activity) TotalHours() float64 {
	return activeHours(a.Assignments)
}

// ActiveMembers 参与成员数
func (a *Activity) ActiveMembers() int {
	return activeCount(a.Assignments)
}

func (s *Session) activity(id string) (*Activity, error) {
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			return &s.Activities[i], nil
		}
	}
	return nil, ErrActivityNotFound
}

// Activity 按 ID 查找作业
func (s *Session) Activity(id string) (Activity, error) {
	a, err := s.activity(id)
	if err != nil {
		return Activity{}, err
	}
	return *a, nil
}

// AddActivity 新建作业，当前可分配成员全部参与；时长已知时按整段时长写入
func (s *Session) AddActivity(in ActivityInput, at time.Time) (Activity, error) {
	if err := s.editable(); err != nil {
		return Activity{}, err
	}
	a := Activity{
		ID:            uuid.NewString(),
		Discipline:    strings.TrimSpace(in.Discipline),
		SubDiscipline: strings.TrimSpace(in.SubDiscipline),
		Service:       strings.TrimSpace(in.Service),
		Description:   strings.TrimSpace(in.Description),
		Span:          spanFrom(in.Start, in.End),
		Assignments:   snapshot(s.EligibleMembers(), true),
		CreatedAt:     at,
	}
	stamp(a.Assignments, a.Span)
	s.Activities = append(s.Activities, a)
	s.touch(at)
	return a, nil
}

// UpdateActivity 修改作业分类与描述，不影响时长和工时
func (s *Session) UpdateActivity(id string, in ActivityInput, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	a.Discipline = strings.TrimSpace(in.Discipline)
	a.SubDiscipline = strings.TrimSpace(in.SubDiscipline)
	a.Service = strings.TrimSpace(in.Service)
	a.Description = strings.TrimSpace(in.Description)
	s.touch(at)
	return nil
}

// SetActivitySpan 设置起止时间；时长确定后所有参与成员重写为整段时长
func (s *Session) SetActivitySpan(id string, start, end *TimeOfDay, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	a.Span = spanFrom(start, end)
	stamp(a.Assignments, a.Span)
	s.touch(at)
	return nil
}

// SetActivityHours 单独修改某成员的工时，其他成员不受影响
func (s *Session) SetActivityHours(id, memberID string, hours float64, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	if err := setAllocationHours(a.Assignments, memberID, hours); err != nil {
		return err
	}
	s.touch(at)
	return nil
}

// SetActivityMemberActive 勾选/取消成员参与；取消时工时清零
func (s *Session) SetActivityMemberActive(id, memberID string, active bool, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	if active && !s.IsEligible(memberID) {
		return ErrMemberNotEligible
	}
	if err := setAllocationActive(a.Assignments, memberID, active, a.Span); err != nil {
		return err
	}
	s.touch(at)
	return nil
}

// AddActivityMember 将作业创建后才确认出勤的成员加入作业
func (s *Session) AddActivityMember(id, memberID string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if !r.Eligible() {
		return ErrMemberNotEligible
	}
	if findAllocation(a.Assignments, memberID) < 0 {
		a.Assignments = append(a.Assignments, Allocation{MemberID: r.Member.ID, MemberName: r.Member.Name})
	}
	if err := setAllocationActive(a.Assignments, memberID, true, a.Span); err != nil {
		return err
	}
	s.touch(at)
	return nil
}

// DistributeActivityHours "平均分配"：每个参与成员重写为整段时长，不按人数平分
func (s *Session) DistributeActivityHours(id string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	a, err := s.activity(id)
	if err != nil {
		return err
	}
	if _, ok := a.Span.Minutes(); !ok {
		return ErrDurationUnknown
	}
	stamp(a.Assignments, a.Span)
	s.touch(at)
	return nil
}

// RemoveActivity 删除作业及其全部工时分配
func (s *Session) RemoveActivity(id string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	for i := range s.Activities {
		if s.Activities[i].ID == id {
			s.Activities = append(s.Activities[:i], s.Activities[i+1:]...)
			s.touch(at)
			return nil
		}
	}
	return ErrActivityNotFound
}

// TotalActivityHours 所有作业的工时合计
func (s *Session) TotalActivityHours() float64 {
	var sum float64
	for i := range s.Activities {
		sum += s.Activities[i].TotalHours()
	}
	return sum
}
