package report

import (
	"errors"
	"strings"
	"testing"
)

func TestAddPhoto_Validation(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.AddPhoto(PhotoInput{ContentType: "application/pdf", Size: 100}, 0, testNow); !errors.Is(err, ErrInvalidPhoto) {
		t.Errorf("期望 ErrInvalidPhoto，实际: %v", err)
	}
	if _, err := s.AddPhoto(PhotoInput{ContentType: "image/jpeg", Size: DefaultMaxPhotoBytes + 1}, 0, testNow); !errors.Is(err, ErrPhotoTooLarge) {
		t.Errorf("期望 ErrPhotoTooLarge，实际: %v", err)
	}
	if _, err := s.AddPhoto(PhotoInput{ContentType: "image/jpeg", Size: 2048}, 1024, testNow); !errors.Is(err, ErrPhotoTooLarge) {
		t.Errorf("自定义上限期望 ErrPhotoTooLarge，实际: %v", err)
	}
}

func TestPhotoNames_RenamedWhenNumberAssigned(t *testing.T) {
	s := newTestSession(t)
	p1, _ := s.AddPhoto(PhotoInput{ContentType: "image/jpeg", Size: 10}, 0, testNow)
	if !strings.HasPrefix(p1.FileName, "RDO") {
		t.Errorf("未分配编号时应使用临时前缀，实际 %s", p1.FileName)
	}
	inc, _ := s.AddIncident(IncidentInput{Classification: ClassAccident, Description: "x"}, testNow)
	_, _ = s.AddIncidentPhoto(inc.ID, PhotoInput{ContentType: "image/png", Size: 10}, 0, testNow)
	_, _ = s.AddPhoto(PhotoInput{ContentType: "image/jpeg", Size: 10}, 0, testNow)

	_ = s.AssignNumber("00000021")
	if s.Photos[0].FileName != "00000021_0001.jpg" || s.Photos[1].FileName != "00000021_0002.jpg" {
		t.Errorf("报告照片命名不正确: %s, %s", s.Photos[0].FileName, s.Photos[1].FileName)
	}
	if got := s.Incidents[0].Photos[0].FileName; got != "00000021_accident_0001.jpg" {
		t.Errorf("事件照片命名不正确: %s", got)
	}
}

func TestRemovePhoto(t *testing.T) {
	s := newTestSession(t)
	p, _ := s.AddPhoto(PhotoInput{ContentType: "image/jpeg", Size: 10}, 0, testNow)
	if err := s.RemovePhoto(p.ID, testNow); err != nil {
		t.Fatalf("RemovePhoto 应成功: %v", err)
	}
	if err := s.RemovePhoto(p.ID, testNow); !errors.Is(err, ErrPhotoNotFound) {
		t.Errorf("期望 ErrPhotoNotFound，实际: %v", err)
	}
}

func TestSupervisorSignature(t *testing.T) {
	s := newTestSession(t)
	if err := s.SetSupervisorSignature(signaturePNG(t, true), testNow); !errors.Is(err, ErrBlankSignature) {
		t.Errorf("期望 ErrBlankSignature，实际: %v", err)
	}
	if err := s.SetSupervisorSignature([]byte("not a png"), testNow); !errors.Is(err, ErrBlankSignature) {
		t.Errorf("无效图像期望 ErrBlankSignature，实际: %v", err)
	}
	if err := s.SetSupervisorSignature(signaturePNG(t, false), testNow); err != nil {
		t.Fatalf("SetSupervisorSignature 应成功: %v", err)
	}
	_ = s.ClearSupervisorSignature(testNow)
	if s.SupervisorSignature != nil {
		t.Error("清除后签名应为空")
	}
}

func TestSetPTS(t *testing.T) {
	s := newTestSession(t)
	_ = s.SetPTS(true, "Trabalho em altura", testNow)
	if !s.PTS.Required || s.PTS.Activity != "Trabalho em altura" {
		t.Errorf("PTS 设置不正确: %+v", s.PTS)
	}
	_ = s.SetPTS(false, "ignorado", testNow)
	if s.PTS.Activity != "" {
		t.Error("无需 PTS 时作业内容应清空")
	}
}

// ── 目录 ──

func TestIncidentTypes(t *testing.T) {
	types, err := IncidentTypes(ClassNearMiss, nil)
	if err != nil || len(types) == 0 || types[0] != "Queda de objeto" {
		t.Errorf("期望默认类型，实际 %v, err=%v", types, err)
	}
	custom, _ := IncidentTypes(ClassOccurrence, []string{"Outro tipo"})
	if len(custom) != 1 {
		t.Errorf("自定义类型应优先，实际 %v", custom)
	}
	if _, err := IncidentTypes("fire", nil); !errors.Is(err, ErrInvalidClassification) {
		t.Errorf("期望 ErrInvalidClassification，实际: %v", err)
	}
}

func TestActivityCatalog(t *testing.T) {
	entries := []CatalogEntry{
		{Discipline: "Elétrica", SubDiscipline: "Iluminação", Service: "Instalar luminária"},
		{Discipline: "Civil", SubDiscipline: "Estrutura", Service: "Concretagem"},
		{Discipline: "Civil", SubDiscipline: "Estrutura", Service: "Armação"},
		{Discipline: "Civil", SubDiscipline: "Acabamento", Service: "Pintura"},
	}
	if got := Disciplines(entries); len(got) != 2 || got[0] != "Civil" {
		t.Errorf("专业列表不正确: %v", got)
	}
	if got := SubDisciplines(entries, "Civil"); len(got) != 2 {
		t.Errorf("子专业列表不正确: %v", got)
	}
	if got := Services(entries, "Civil", "Estrutura"); len(got) != 2 || got[0] != "Armação" {
		t.Errorf("工序列表不正确: %v", got)
	}
}
