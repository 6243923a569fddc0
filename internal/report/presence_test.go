package report

import (
	"errors"
	"testing"
)

// ── 状态设置 ──

func TestSetStatus_ClearsConfirmationArtifact(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m2", StatusPresent, testNow)
	if err := s.BeginConfirmation("m2", MethodSignature, testNow); err != nil {
		t.Fatalf("BeginConfirmation 应成功: %v", err)
	}
	if err := s.ConfirmSignature("m2", signaturePNG(t, false), testNow); err != nil {
		t.Fatalf("ConfirmSignature 应成功: %v", err)
	}

	if err := s.SetStatus("m2", StatusPresent, testNow); err != nil {
		t.Fatalf("SetStatus 应成功: %v", err)
	}
	r, _ := s.Record("m2")
	if r.State != ConfirmationNone || r.Method != "" || r.Artifact != nil || r.ConfirmedAt != nil {
		t.Errorf("重选状态后应清空确认信息，实际: %+v", r)
	}
}

func TestSetStatus_InvalidStatus(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetStatus("m1", PresenceStatus("sick"), testNow); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("期望 ErrInvalidStatus，实际: %v", err)
	}
}

func TestSetStatus_UnknownMember(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetStatus("ghost", StatusPresent, testNow); !errors.Is(err, ErrMemberNotOnRoster) {
		t.Errorf("期望 ErrMemberNotOnRoster，实际: %v", err)
	}
}

func TestSetStatus_IneligibleMemberRemovedFromLedgers(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m1", "m3")
	a, _ := s.AddActivity(ActivityInput{Description: "Concretagem", Start: tod("08:00"), End: tod("12:00")}, testNow)
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassStoppage, Description: "Chuva", Start: tod("10:00"), End: tod("11:00")}, testNow)
	_ = s.MarkAffected(inc.ID, "m1", true, testNow)

	if err := s.SetStatus("m1", StatusAbsent, testNow); err != nil {
		t.Fatalf("SetStatus 应成功: %v", err)
	}
	got, _ := s.Activity(a.ID)
	if findAllocation(got.Assignments, "m1") >= 0 {
		t.Error("失去资格的成员不应留在作业分配中")
	}
	gotInc, _ := s.Incident(inc.ID)
	if findAllocation(gotInc.Affected, "m1") >= 0 {
		t.Error("失去资格的成员不应留在事件受影响名单中")
	}
	if findAllocation(got.Assignments, "m3") < 0 {
		t.Error("其他成员的分配不应受影响")
	}
}

// ── 目标班组 ──

func TestDestination_RequiredForTransfer(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m3", StatusTransferred, testNow)

	if got := s.PendingDestinations(); len(got) != 1 || got[0].ID != "m3" {
		t.Fatalf("期望 m3 等待目标班组，实际: %+v", got)
	}
	if err := s.SetDestination("m3", "", "", testNow); !errors.Is(err, ErrDestinationRequired) {
		t.Errorf("期望 ErrDestinationRequired，实际: %v", err)
	}
	if err := s.SetDestination("m3", "team-009", "for-009", testNow); err != nil {
		t.Fatalf("SetDestination 应成功: %v", err)
	}
	if got := s.PendingDestinations(); len(got) != 0 {
		t.Errorf("设置目标后不应再等待，实际: %+v", got)
	}
}

func TestDestination_NotAllowedForPresent(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	if err := s.SetDestination("m1", "team-009", "", testNow); !errors.Is(err, ErrDestinationNotAllowed) {
		t.Errorf("期望 ErrDestinationNotAllowed，实际: %v", err)
	}
}

func TestDestination_ClearedOnStatusChange(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m3", StatusLoaned, testNow)
	_ = s.SetDestination("m3", "team-009", "", testNow)
	_ = s.SetStatus("m3", StatusLoaned, testNow)
	r, _ := s.Record("m3")
	if r.DestinationTeamID != "" {
		t.Error("重选状态后目标班组应清空")
	}
}

// ── 确认方式 ──

func TestAvailableMethods_ByCapability(t *testing.T) {
	s := newTestSession(t)
	cases := map[string][]ConfirmationMethod{
		"m1": {MethodTag, MethodManual},
		"m2": {MethodFacial, MethodSignature, MethodManual},
		"m3": {MethodManual},
	}
	for id, want := range cases {
		got, err := s.AvailableMethods(id)
		if err != nil {
			t.Fatalf("AvailableMethods(%s) 应成功: %v", id, err)
		}
		if len(got) != len(want) {
			t.Fatalf("%s: 期望 %v，实际 %v", id, want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("%s: 期望 %v，实际 %v", id, want, got)
			}
		}
	}
}

func TestBeginConfirmation_RequiresPresent(t *testing.T) {
	s := newTestSession(t)
	if err := s.BeginConfirmation("m1", MethodTag, testNow); !errors.Is(err, ErrNotPresent) {
		t.Errorf("期望 ErrNotPresent，实际: %v", err)
	}
}

func TestBeginConfirmation_MethodNotOffered(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m3", StatusPresent, testNow)
	if err := s.BeginConfirmation("m3", MethodTag, testNow); !errors.Is(err, ErrMethodNotAvailable) {
		t.Errorf("期望 ErrMethodNotAvailable，实际: %v", err)
	}
}

func TestConfirmTag_CaseInsensitiveMatch(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	_ = s.BeginConfirmation("m1", MethodTag, testNow)

	if err := s.ConfirmTag("m1", " 04a1b2c3 ", testNow); err != nil {
		t.Fatalf("ConfirmTag 应成功: %v", err)
	}
	if !s.IsEligible("m1") {
		t.Error("工牌匹配后成员应可分配")
	}
	r, _ := s.Record("m1")
	if r.Method != MethodTag || r.ConfirmedAt == nil {
		t.Errorf("期望记录确认方式和时间，实际: %+v", r)
	}
}

func TestConfirmTag_MismatchStaysPending(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	_ = s.BeginConfirmation("m1", MethodTag, testNow)

	err := s.ConfirmTag("m1", "FFFF0000", testNow)
	var mismatch *TagMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("期望 TagMismatchError，实际: %v", err)
	}
	if mismatch.Expected != "04A1B2C3" || mismatch.Received != "FFFF0000" {
		t.Errorf("期望显示登记值和读取值，实际: %+v", mismatch)
	}
	r, _ := s.Record("m1")
	if r.State != ConfirmationPending {
		t.Errorf("不匹配后应保持待确认，实际: %s", r.State)
	}

	// 可改用人工确认
	if err := s.ConfirmManual("m1", testNow); err != nil {
		t.Fatalf("改用人工确认应成功: %v", err)
	}
}

func TestConfirmFacial_AnyCapture(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m2", StatusPresent, testNow)
	_ = s.BeginConfirmation("m2", MethodFacial, testNow)

	if err := s.ConfirmFacial("m2", nil, testNow); !errors.Is(err, ErrEmptyCapture) {
		t.Errorf("期望 ErrEmptyCapture，实际: %v", err)
	}
	if err := s.ConfirmFacial("m2", signaturePNG(t, true), testNow); err != nil {
		t.Fatalf("任意有效图像都应确认: %v", err)
	}
	if !s.IsEligible("m2") {
		t.Error("采集后成员应可分配")
	}
}

func TestConfirmSignature_BlankRejected(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m2", StatusPresent, testNow)
	_ = s.BeginConfirmation("m2", MethodSignature, testNow)

	if err := s.ConfirmSignature("m2", signaturePNG(t, true), testNow); !errors.Is(err, ErrBlankSignature) {
		t.Fatalf("期望 ErrBlankSignature，实际: %v", err)
	}
	r, _ := s.Record("m2")
	if r.State != ConfirmationPending {
		t.Errorf("空白签名不应改变状态，实际: %s", r.State)
	}
	if err := s.ConfirmSignature("m2", signaturePNG(t, false), testNow); err != nil {
		t.Fatalf("非空签名应确认: %v", err)
	}
}

func TestConfirm_MethodMismatch(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m2", StatusPresent, testNow)
	_ = s.BeginConfirmation("m2", MethodFacial, testNow)
	if err := s.ConfirmSignature("m2", signaturePNG(t, false), testNow); !errors.Is(err, ErrMethodMismatch) {
		t.Errorf("期望 ErrMethodMismatch，实际: %v", err)
	}
}

func TestConfirm_WithoutPending(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	if err := s.ConfirmTag("m1", "04A1B2C3", testNow); !errors.Is(err, ErrNoPendingMethod) {
		t.Errorf("期望 ErrNoPendingMethod，实际: %v", err)
	}
}

func TestConfirmed_IsTerminal(t *testing.T) {
	s := newTestSession(t)
	confirmPresent(t, s, "m3")
	if err := s.BeginConfirmation("m3", MethodManual, testNow); !errors.Is(err, ErrAlreadyConfirmed) {
		t.Errorf("期望 ErrAlreadyConfirmed，实际: %v", err)
	}
}

func TestCancelConfirmation(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	_ = s.BeginConfirmation("m1", MethodTag, testNow)
	if err := s.CancelConfirmation("m1", testNow); err != nil {
		t.Fatalf("CancelConfirmation 应成功: %v", err)
	}
	r, _ := s.Record("m1")
	if r.Status != StatusPresent || r.State != ConfirmationNone || r.Method != "" {
		t.Errorf("取消后应回到出勤未确认，实际: %+v", r)
	}
	if err := s.CancelConfirmation("m1", testNow); !errors.Is(err, ErrNoPendingMethod) {
		t.Errorf("期望 ErrNoPendingMethod，实际: %v", err)
	}
}

func TestMarkHardwareUnavailable_FallsBackToManual(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetStatus("m1", StatusPresent, testNow)
	_ = s.BeginConfirmation("m1", MethodTag, testNow)

	if err := s.MarkHardwareUnavailable("m1", MethodTag, "读卡器未连接", testNow); err != nil {
		t.Fatalf("MarkHardwareUnavailable 应成功: %v", err)
	}
	methods, _ := s.AvailableMethods("m1")
	if len(methods) != 1 || methods[0] != MethodManual {
		t.Errorf("设备不可用时只应提供人工确认，实际: %v", methods)
	}
	r, _ := s.Record("m1")
	if r.State != ConfirmationNone || r.HardwareNote != "读卡器未连接" {
		t.Errorf("期望退回未确认并记录原因，实际: %+v", r)
	}
	if err := s.ConfirmManual("m1", testNow); err != nil {
		t.Fatalf("人工确认应成功: %v", err)
	}
}

func TestMarkHardwareUnavailable_ManualRejected(t *testing.T) {
	s := newTestSession(t)
	if err := s.MarkHardwareUnavailable("m1", MethodManual, "", testNow); !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("期望 ErrInvalidMethod，实际: %v", err)
	}
}

func TestFinalizedSession_RejectsPresenceChanges(t *testing.T) {
	s := newTestSession(t)
	s.Status = SessionFinalized
	if err := s.SetStatus("m1", StatusPresent, testNow); !errors.Is(err, ErrSessionFinalized) {
		t.Errorf("期望 ErrSessionFinalized，实际: %v", err)
	}
	if err := s.ConfirmManual("m1", testNow); !errors.Is(err, ErrSessionFinalized) {
		t.Errorf("期望 ErrSessionFinalized，实际: %v", err)
	}
}
