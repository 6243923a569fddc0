package report

import (
	"errors"
	"testing"
)

// ── 时长 ──

func TestDurationMinutes(t *testing.T) {
	cases := []struct {
		start, end string
		want       int
	}{
		{"08:00", "12:00", 240},
		{"22:00", "02:00", 240},
		{"07:30", "07:30", 0},
		{"23:59", "00:00", 1},
		{"00:00", "23:59", 1439},
	}
	for _, c := range cases {
		got := DurationMinutes(MustTimeOfDay(c.start), MustTimeOfDay(c.end))
		if got != c.want {
			t.Errorf("%s→%s: 期望 %d 分钟，实际 %d", c.start, c.end, c.want, got)
		}
	}
}

func TestTimeSpan_Undefined(t *testing.T) {
	span := TimeSpan{Start: tod("08:00")}
	if _, ok := span.Minutes(); ok {
		t.Error("缺少结束时间时时长应未定义")
	}
	if span.Label() != "" {
		t.Errorf("期望空标签，实际: %s", span.Label())
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, in := range []string{"", "24:00", "12:60", "ab:cd", "-1:00"} {
		if _, err := ParseTimeOfDay(in); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Errorf("%q: 期望 ErrInvalidTimeOfDay，实际: %v", in, err)
		}
	}
}

// ── 作业 ──

func TestActivity_DefaultStampAndIndependentEdit(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2")

	a, err := s.AddActivity(ActivityInput{Discipline: "Civil", Description: "Forma de pilares", Start: tod("08:00"), End: tod("12:00")}, testNow)
	if err != nil {
		t.Fatalf("AddActivity 应成功: %v", err)
	}
	if len(a.Assignments) != 2 {
		t.Fatalf("期望 2 名成员参与，实际: %d", len(a.Assignments))
	}
	for _, as := range a.Assignments {
		if !approxEqual(as.Hours, 4) {
			t.Errorf("%s: 期望 4.0h，实际 %.2f", as.MemberID, as.Hours)
		}
	}

	if err := s.SetActivityHours(a.ID, "m1", 2, testNow); err != nil {
		t.Fatalf("SetActivityHours 应成功: %v", err)
	}
	got, _ := s.Activity(a.ID)
	if !approxEqual(got.Assignments[0].Hours, 2) || !approxEqual(got.Assignments[1].Hours, 4) {
		t.Errorf("修改一人工时不应影响他人，实际: %+v", got.Assignments)
	}
	if !approxEqual(got.TotalHours(), 6) {
		t.Errorf("期望合计 6h，实际 %.2f", got.TotalHours())
	}
}

func TestActivity_OnlyEligibleMembers(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1")
	_ = s.SetStatus("m2", StatusPresent, testNow) // 出勤但未确认

	a, _ := s.AddActivity(ActivityInput{Description: "Alvenaria"}, testNow)
	if len(a.Assignments) != 1 || a.Assignments[0].MemberID != "m1" {
		t.Fatalf("只有已确认成员应参与，实际: %+v", a.Assignments)
	}
	if err := s.AddActivityMember(a.ID, "m2", testNow); !errors.Is(err, ErrMemberNotEligible) {
		t.Errorf("期望 ErrMemberNotEligible，实际: %v", err)
	}

	_ = s.ConfirmManual("m2", testNow)
	if err := s.AddActivityMember(a.ID, "m2", testNow); err != nil {
		t.Fatalf("确认后加入应成功: %v", err)
	}
}

func TestActivity_SpanLaterStampsActive(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2")
	a, _ := s.AddActivity(ActivityInput{Description: "Escavação"}, testNow)
	_ = s.SetActivityMemberActive(a.ID, "m2", false, testNow)

	if err := s.SetActivitySpan(a.ID, tod("22:00"), tod("02:00"), testNow); err != nil {
		t.Fatalf("SetActivitySpan 应成功: %v", err)
	}
	got, _ := s.Activity(a.ID)
	if !approxEqual(got.Assignments[0].Hours, 4) {
		t.Errorf("跨零点 4h 应写入参与成员，实际 %.2f", got.Assignments[0].Hours)
	}
	if got.Assignments[1].Hours != 0 {
		t.Errorf("未参与成员工时应为 0，实际 %.2f", got.Assignments[1].Hours)
	}
}

func TestActivity_DeactivateZeroesHours(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1")
	a, _ := s.AddActivity(ActivityInput{Description: "Pintura", Start: tod("13:00"), End: tod("17:00")}, testNow)

	_ = s.SetActivityMemberActive(a.ID, "m1", false, testNow)
	got, _ := s.Activity(a.ID)
	if got.Assignments[0].Active || got.Assignments[0].Hours != 0 {
		t.Errorf("取消参与应清零，实际: %+v", got.Assignments[0])
	}

	_ = s.SetActivityMemberActive(a.ID, "m1", true, testNow)
	got, _ = s.Activity(a.ID)
	if !approxEqual(got.Assignments[0].Hours, 4) {
		t.Errorf("重新参与应写入整段时长，实际 %.2f", got.Assignments[0].Hours)
	}
}

func TestActivity_HoursRejectedForInactiveMember(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1")
	a, _ := s.AddActivity(ActivityInput{Description: "Pintura", Start: tod("13:00"), End: tod("17:00")}, testNow)
	_ = s.SetActivityMemberActive(a.ID, "m1", false, testNow)

	if err := s.SetActivityHours(a.ID, "m1", 3, testNow); !errors.Is(err, ErrAllocationInactive) {
		t.Fatalf("期望 ErrAllocationInactive，实际: %v", err)
	}
	got, _ := s.Activity(a.ID)
	if got.Assignments[0].Hours != 0 || got.Assignments[0].Active {
		t.Errorf("未参与成员不应写入工时，实际: %+v", got.Assignments[0])
	}
}

func TestActivity_DistributeRestampsWithoutDividing(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2", "m3")
	a, _ := s.AddActivity(ActivityInput{Description: "Armação", Start: tod("07:00"), End: tod("10:00")}, testNow)
	_ = s.SetActivityHours(a.ID, "m1", 1, testNow)

	if err := s.DistributeActivityHours(a.ID, testNow); err != nil {
		t.Fatalf("DistributeActivityHours 应成功: %v", err)
	}
	got, _ := s.Activity(a.ID)
	for _, as := range got.Assignments {
		if !approxEqual(as.Hours, 3) {
			t.Errorf("%s: 期望每人 3h（不平分），实际 %.2f", as.MemberID, as.Hours)
		}
	}
}

func TestActivity_DistributeWithoutSpan(t *testing.T) {
	s := newTestSession(t)
	a, _ := s.AddActivity(ActivityInput{Description: "Limpeza"}, testNow)
	if err := s.DistributeActivityHours(a.ID, testNow); !errors.Is(err, ErrDurationUnknown) {
		t.Errorf("期望 ErrDurationUnknown，实际: %v", err)
	}
}

func TestActivity_HoursOutOfRange(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1")
	a, _ := s.AddActivity(ActivityInput{Description: "Solda"}, testNow)
	for _, h := range []float64{-1, 24.5} {
		if err := s.SetActivityHours(a.ID, "m1", h, testNow); !errors.Is(err, ErrHoursOutOfRange) {
			t.Errorf("%.1f: 期望 ErrHoursOutOfRange，实际: %v", h, err)
		}
	}
}

func TestActivity_Remove(t *testing.T) {
	s := newTestSession(t)
	a, _ := s.AddActivity(ActivityInput{Description: "Topografia"}, testNow)
	if err := s.RemoveActivity(a.ID, testNow); err != nil {
		t.Fatalf("RemoveActivity 应成功: %v", err)
	}
	if _, err := s.Activity(a.ID); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("期望 ErrActivityNotFound，实际: %v", err)
	}
	if err := s.RemoveActivity(a.ID, testNow); !errors.Is(err, ErrActivityNotFound) {
		t.Errorf("重复删除期望 ErrActivityNotFound，实际: %v", err)
	}
}

// ── 事件 ──

func TestIncident_LostHours(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2", "m3")
	inc, err := s.AddIncident(IncidentInput{Classification: ClassStoppage, Type: "Chuva intensa", Description: "Paralisação por chuva", Start: tod("14:00"), End: tod("15:30")}, testNow)
	if err != nil {
		t.Fatalf("AddIncident 应成功: %v", err)
	}
	if inc.AffectedCount() != 0 {
		t.Errorf("新事件默认无人受影响，实际: %d", inc.AffectedCount())
	}

	if err := s.MarkAllAffected(inc.ID, true, testNow); err != nil {
		t.Fatalf("MarkAllAffected 应成功: %v", err)
	}
	got, _ := s.Incident(inc.ID)
	if !approxEqual(got.LostHours(), 4.5) {
		t.Errorf("期望损失 4.5h，实际 %.2f", got.LostHours())
	}

	// 单人工时编辑不改变损失工时
	_ = s.SetAffectedHours(inc.ID, "m1", 0.5, testNow)
	got, _ = s.Incident(inc.ID)
	if !approxEqual(got.LostHours(), 4.5) {
		t.Errorf("损失工时应为时长 × 人数，实际 %.2f", got.LostHours())
	}

	_ = s.MarkAffected(inc.ID, "m3", false, testNow)
	got, _ = s.Incident(inc.ID)
	if !approxEqual(got.LostHours(), 3) {
		t.Errorf("取消一人后期望 3h，实际 %.2f", got.LostHours())
	}
}

func TestIncident_NoMembersNoLostHours(t *testing.T) {
	s := newTestSession(t)
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassOccurrence, Description: "Falta de cimento", Start: tod("08:00"), End: tod("09:00")}, testNow)
	if inc.LostHours() != 0 {
		t.Errorf("无受影响成员时损失应为 0，实际 %.2f", inc.LostHours())
	}
}

func TestIncident_MarkIneligibleRejected(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusAbsent, testNow)
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassInterference, Description: "Área interditada"}, testNow)
	if err := s.MarkAffected(inc.ID, "m1", true, testNow); !errors.Is(err, ErrMemberNotEligible) {
		t.Errorf("期望 ErrMemberNotEligible，实际: %v", err)
	}
}

func TestIncident_HoursRejectedForUnmarkedMember(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2")
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassStoppage, Description: "Vento", Start: tod("09:00"), End: tod("11:00")}, testNow)
	_ = s.MarkAffected(inc.ID, "m1", true, testNow)
	_ = s.MarkAffected(inc.ID, "m1", false, testNow)

	if err := s.SetAffectedHours(inc.ID, "m1", 3, testNow); !errors.Is(err, ErrAllocationInactive) {
		t.Fatalf("期望 ErrAllocationInactive，实际: %v", err)
	}
	got, _ := s.Incident(inc.ID)
	for _, a := range got.Affected {
		if a.MemberID == "m1" && a.Hours != 0 {
			t.Errorf("未标记成员工时应保持 0，实际 %.2f", a.Hours)
		}
	}
	if got.LostHours() != 0 {
		t.Errorf("无受影响成员时损失应为 0，实际 %.2f", got.LostHours())
	}
}

func TestIncident_InvalidClassification(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddIncident(IncidentInput{Classification: "fire"}, testNow); !errors.Is(err, ErrInvalidClassification) {
		t.Errorf("期望 ErrInvalidClassification，实际: %v", err)
	}
}

func TestIncident_ResponsibleMustBeOnRoster(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddIncident(IncidentInput{Classification: ClassAccident, ResponsibleID: "ghost"}, testNow); !errors.Is(err, ErrMemberNotOnRoster) {
		t.Errorf("期望 ErrMemberNotOnRoster，实际: %v", err)
	}
	// 责任人可以是任意名单成员，无需确认出勤
	if _, err := s.AddIncident(IncidentInput{Classification: ClassAccident, ResponsibleID: "m3"}, testNow); err != nil {
		t.Errorf("名单成员作为责任人应成功: %v", err)
	}
}

func TestIncident_ClassificationChangeResetsType(t *testing.T) {
	s := newTestSession(t)
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassStoppage, Type: "Raios", Description: "x"}, testNow)
	_ = s.UpdateIncident(inc.ID, IncidentInput{Classification: ClassNearMiss, Description: "x"}, testNow)
	got, _ := s.Incident(inc.ID)
	if got.Type != "" {
		t.Errorf("分类变化后类型应清空，实际: %s", got.Type)
	}
}

func TestIncident_DistributeRestamps(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m2")
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassStoppage, Description: "Vento", Start: tod("09:00"), End: tod("11:00")}, testNow)
	_ = s.MarkAffected(inc.ID, "m1", true, testNow)
	_ = s.MarkAffected(inc.ID, "m2", true, testNow)
	_ = s.SetAffectedHours(inc.ID, "m2", 0.25, testNow)

	if err := s.DistributeIncidentHours(inc.ID, testNow); err != nil {
		t.Fatalf("DistributeIncidentHours 应成功: %v", err)
	}
	got, _ := s.Incident(inc.ID)
	for _, a := range got.Affected {
		if !approxEqual(a.Hours, 2) {
			t.Errorf("%s: 期望 2h，实际 %.2f", a.MemberID, a.Hours)
		}
	}
}

func TestIncident_Remove(t *testing.T) {
	s := newTestSession(t)
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassOccurrence, Description: "x"}, testNow)
	if err := s.RemoveIncident(inc.ID, testNow); err != nil {
		t.Fatalf("RemoveIncident 应成功: %v", err)
	}
	if len(s.Incidents) != 0 {
		t.Errorf("期望事件列表为空，实际: %d", len(s.Incidents))
	}
}
