package report

// MaxMemberHours 单个成员单条记录的工时上限
const MaxMemberHours = 24.0

// Allocation 成员在一条作业/事件上的工时。
// 作业中 Active 表示参与；事件中 Active 表示被标记为受影响。
type Allocation struct {
	MemberID   string  `json:"member_id"`
	MemberName string  `json:"member_name"`
	Hours      float64 `json:"hours"`
	Active     bool    `json:"active"`
}

func findAllocation(allocs []Allocation, memberID string) int {
	for i := range allocs {
		if allocs[i].MemberID == memberID {
			return i
		}
	}
	return -1
}

func removeAllocation(allocs []Allocation, memberID string) []Allocation {
	i := findAllocation(allocs, memberID)
	if i < 0 {
		return allocs
	}
	return append(allocs[:i], allocs[i+1:]...)
}

// stamp 把整段时长写给每个有效成员（不做平分）
func stamp(allocs []Allocation, span TimeSpan) {
	hours, ok := span.Hours()
	if !ok {
		return
	}
	for i := range allocs {
		if allocs[i].Active {
			allocs[i].Hours = hours
		}
	}
}

// setAllocationHours 只允许给参与/受影响的成员填工时，未勾选的成员工时保持 0
func setAllocationHours(allocs []Allocation, memberID string, hours float64) error {
	if hours < 0 || hours > MaxMemberHours {
		return ErrHoursOutOfRange
	}
	i := findAllocation(allocs, memberID)
	if i < 0 {
		return ErrAllocationNotFound
	}
	if !allocs[i].Active {
		return ErrAllocationInactive
	}
	allocs[i].Hours = hours
	return nil
}

// setAllocationActive 取消即清零；重新启用时按当前时长补写
func setAllocationActive(allocs []Allocation, memberID string, active bool, span TimeSpan) error {
	i := findAllocation(allocs, memberID)
	if i < 0 {
		return ErrAllocationNotFound
	}
	allocs[i].Active = active
	allocs[i].Hours = 0
	if active {
		if hours, ok := span.Hours(); ok {
			allocs[i].Hours = hours
		}
	}
	return nil
}

func activeCount(allocs []Allocation) int {
	n := 0
	for _, a := range allocs {
		if a.Active {
			n++
		}
	}
	return n
}

func activeHours(allocs []Allocation) float64 {
	var sum float64
	for _, a := range allocs {
		if a.Active {
			sum += a.Hours
		}
	}
	return sum
}

func activeOnly(allocs []Allocation) []Allocation {
	out := make([]Allocation, 0, len(allocs))
	for _, a := range allocs {
		if a.Active {
			out = append(out, a)
		}
	}
	return out
}

// snapshot 以当前可分配成员生成分配列表
func snapshot(members []Member, active bool) []Allocation {
	out := make([]Allocation, 0, len(members))
	for _, m := range members {
		out = append(out, Allocation{MemberID: m.ID, MemberName: m.Name, Active: active})
	}
	return out
}

// spanFrom 复制时刻，避免与调用方共享指针
func spanFrom(start, end *TimeOfDay) TimeSpan {
	var span TimeSpan
	if start != nil {
		v := *start
		span.Start = &v
	}
	if end != nil {
		v := *end
		span.End = &v
	}
	return span
}
