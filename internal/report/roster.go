package report

import (
	"context"
	"fmt"
	"time"
)

// Team 班组
type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ForemanID string `json:"foreman_id"`
}

// Directory 参考数据（只读）
type Directory interface {
	Supervisors(ctx context.Context, siteID string) ([]Member, error)
	Foremen(ctx context.Context, supervisorID string) ([]Member, error)
	TeamByForeman(ctx context.Context, foremanID string) (*Team, error)
	TeamMembers(ctx context.Context, teamID string) ([]Member, error)
}

// RosterResolver 工地 → 主管 → 工长 → 班组 → 成员
type RosterResolver struct {
	dir Directory
}

// NewRosterResolver 创建名单解析器
func NewRosterResolver(dir Directory) *RosterResolver {
	return &RosterResolver{dir: dir}
}

// Supervisors 解析工地的在职主管并缓存到会话
func (r *RosterResolver) Supervisors(ctx context.Context, s *Session) ([]Member, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	if s.SiteID == "" {
		return nil, ErrSiteRequired
	}
	list, err := r.dir.Supervisors(ctx, s.SiteID)
	if err != nil {
		return nil, fmt.Errorf("%w: 主管列表: %v", ErrTransientFetch, err)
	}
	s.Supervisors = list
	return list, nil
}

// SelectSupervisor 选择主管。先同步清空工长、班组、名单和工时分配，再拉取工长列表。
// 主管必须属于会话工地；缓存中没有时重新拉取一次主管列表。
func (r *RosterResolver) SelectSupervisor(ctx context.Context, s *Session, supervisorID string, at time.Time) ([]Member, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	if supervisorID != "" && !containsMember(s.Supervisors, supervisorID) {
		list, err := r.Supervisors(ctx, s)
		if err != nil {
			return nil, err
		}
		if !containsMember(list, supervisorID) {
			return nil, ErrSupervisorNotListed
		}
	}
	s.SupervisorID = supervisorID
	s.ForemanID = ""
	s.Foremen = nil
	s.resetStaffing()
	s.touch(at)

	if supervisorID == "" {
		return nil, nil
	}
	list, err := r.dir.Foremen(ctx, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("%w: 工长列表: %v", ErrTransientFetch, err)
	}
	s.Foremen = list
	return list, nil
}

// SelectForeman 选择工长。工长须隶属当前主管。先清空名单，再解析其班组成员；无班组时名单为空。
func (r *RosterResolver) SelectForeman(ctx context.Context, s *Session, foremanID string, at time.Time) ([]PresenceRecord, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	if s.SupervisorID == "" {
		return nil, ErrSupervisorRequired
	}
	if foremanID != "" && !containsMember(s.Foremen, foremanID) {
		list, err := r.dir.Foremen(ctx, s.SupervisorID)
		if err != nil {
			return nil, fmt.Errorf("%w: 工长列表: %v", ErrTransientFetch, err)
		}
		s.Foremen = list
		if !containsMember(list, foremanID) {
			return nil, ErrForemanNotListed
		}
	}
	s.ForemanID = foremanID
	s.resetStaffing()
	s.touch(at)

	if foremanID == "" {
		return s.Roster, nil
	}
	team, err := r.dir.TeamByForeman(ctx, foremanID)
	if err != nil {
		return nil, fmt.Errorf("%w: 班组: %v", ErrTransientFetch, err)
	}
	if team == nil {
		return s.Roster, nil
	}
	members, err := r.dir.TeamMembers(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: 班组成员: %v", ErrTransientFetch, err)
	}

	s.TeamID = team.ID
	roster := make([]PresenceRecord, 0, len(members))
	for _, m := range members {
		roster = append(roster, PresenceRecord{
			Member: m,
			Status: StatusUnset,
			State:  ConfirmationNone,
		})
	}
	s.Roster = roster
	return s.Roster, nil
}

func containsMember(list []Member, id string) bool {
	for _, m := range list {
		if m.ID == id {
			return true
		}
	}
	return false
}
