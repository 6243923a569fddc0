package report

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
	"time"
)

// ════════════════════════════════════════════════════════════
// 出勤确认状态机
//
//   unset ─┬─> present ──(选择方式)──> pending ──(确认)──> confirmed
//          ├─> absent / vacation / leave
//          └─> transferred / loaned ──(选择目标班组)──> 完整
//
// 任何状态重选都会清空确认方式、凭证与目标班组。
// ════════════════════════════════════════════════════════════

// SetStatus 直接设置出勤状态，始终允许
func (s *Session) SetStatus(memberID string, status PresenceStatus, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	if !status.Valid() {
		return ErrInvalidStatus
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}

	wasEligible := r.Eligible()
	r.Status = status
	r.State = ConfirmationNone
	r.Method = ""
	r.ConfirmedAt = nil
	r.Detail = ""
	r.Artifact = nil
	r.DestinationTeamID = ""
	r.DestinationForemanID = ""

	if wasEligible {
		s.dropMember(memberID)
	}
	s.touch(at)
	return nil
}

// SetDestination 为调出/借调成员选择目标班组
func (s *Session) SetDestination(memberID, teamID, foremanID string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if !r.Status.NeedsDestination() {
		return ErrDestinationNotAllowed
	}
	if strings.TrimSpace(teamID) == "" {
		return ErrDestinationRequired
	}
	r.DestinationTeamID = teamID
	r.DestinationForemanID = foremanID
	s.touch(at)
	return nil
}

// AvailableMethods 按成员登记能力和设备状态列出可用的确认方式。人工确认始终可用。
func (s *Session) AvailableMethods(memberID string) ([]ConfirmationMethod, error) {
	r, err := s.record(memberID)
	if err != nil {
		return nil, err
	}
	return availableMethods(r), nil
}

func availableMethods(r *PresenceRecord) []ConfirmationMethod {
	var out []ConfirmationMethod
	if r.Member.HasCredential() && !methodDisabled(r, MethodTag) {
		out = append(out, MethodTag)
	}
	if r.Member.HasReferencePhoto && !methodDisabled(r, MethodFacial) {
		out = append(out, MethodFacial)
	}
	if r.Member.HasReferenceSignature && !methodDisabled(r, MethodSignature) {
		out = append(out, MethodSignature)
	}
	return append(out, MethodManual)
}

func methodDisabled(r *PresenceRecord, m ConfirmationMethod) bool {
	for _, u := range r.UnavailableMethods {
		if u == m {
			return true
		}
	}
	return false
}

func methodAvailable(r *PresenceRecord, m ConfirmationMethod) bool {
	for _, a := range availableMethods(r) {
		if a == m {
			return true
		}
	}
	return false
}

// BeginConfirmation 为出勤成员开启确认流程
func (s *Session) BeginConfirmation(memberID string, method ConfirmationMethod, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	if !method.Valid() {
		return ErrInvalidMethod
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if r.Status != StatusPresent {
		return ErrNotPresent
	}
	if r.State == ConfirmationConfirmed {
		return ErrAlreadyConfirmed
	}
	if !methodAvailable(r, method) {
		return ErrMethodNotAvailable
	}
	r.State = ConfirmationPending
	r.Method = method
	r.Detail = ""
	r.Artifact = nil
	s.touch(at)
	return nil
}

// pending 取出处于指定方式待确认状态的记录
func (s *Session) pending(memberID string, method ConfirmationMethod) (*PresenceRecord, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	r, err := s.record(memberID)
	if err != nil {
		return nil, err
	}
	if r.Status != StatusPresent {
		return nil, ErrNotPresent
	}
	switch r.State {
	case ConfirmationConfirmed:
		return nil, ErrAlreadyConfirmed
	case ConfirmationPending:
	default:
		return nil, ErrNoPendingMethod
	}
	if r.Method != method {
		return nil, ErrMethodMismatch
	}
	return r, nil
}

func confirm(r *PresenceRecord, detail string, artifact []byte, at time.Time) {
	t := at
	r.State = ConfirmationConfirmed
	r.ConfirmedAt = &t
	r.Detail = detail
	r.Artifact = artifact
}

// ConfirmTag 比对读取到的工牌标识（不区分大小写）。不匹配时保持待确认。
func (s *Session) ConfirmTag(memberID, serial string, at time.Time) error {
	r, err := s.pending(memberID, MethodTag)
	if err != nil {
		return err
	}
	received := strings.ToUpper(strings.TrimSpace(serial))
	expected := strings.ToUpper(strings.TrimSpace(r.Member.CredentialID))
	if expected == "" || received != expected {
		return &TagMismatchError{Expected: expected, Received: received}
	}
	confirm(r, received, nil, at)
	s.touch(at)
	return nil
}

// ConfirmFacial 采集到任意有效静态图像即确认，不做人脸比对
func (s *Session) ConfirmFacial(memberID string, still []byte, at time.Time) error {
	r, err := s.pending(memberID, MethodFacial)
	if err != nil {
		return err
	}
	if len(still) == 0 {
		return ErrEmptyCapture
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(still)); err != nil {
		return ErrEmptyCapture
	}
	confirm(r, "人脸采集", append([]byte(nil), still...), at)
	s.touch(at)
	return nil
}

// ConfirmSignature 手写签名，至少有一个非透明像素才确认
func (s *Session) ConfirmSignature(memberID string, signature []byte, at time.Time) error {
	r, err := s.pending(memberID, MethodSignature)
	if err != nil {
		return err
	}
	if err := checkSignature(signature); err != nil {
		return err
	}
	confirm(r, "手写签名", append([]byte(nil), signature...), at)
	s.touch(at)
	return nil
}

// ConfirmManual 人工确认，立即生效
func (s *Session) ConfirmManual(memberID string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if r.Status != StatusPresent {
		return ErrNotPresent
	}
	if r.State == ConfirmationConfirmed {
		return ErrAlreadyConfirmed
	}
	r.Method = MethodManual
	confirm(r, "人工确认", nil, at)
	s.touch(at)
	return nil
}

// CancelConfirmation 放弃进行中的确认流程，回到出勤未确认
func (s *Session) CancelConfirmation(memberID string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if r.State != ConfirmationPending {
		return ErrNoPendingMethod
	}
	r.State = ConfirmationNone
	r.Method = ""
	r.Detail = ""
	r.Artifact = nil
	s.touch(at)
	return nil
}

// MarkHardwareUnavailable 设备不可用：该方式不再提供，进行中的流程退回，提示改用人工确认
func (s *Session) MarkHardwareUnavailable(memberID string, method ConfirmationMethod, reason string, at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	if method != MethodTag && method != MethodFacial && method != MethodSignature {
		return ErrInvalidMethod
	}
	r, err := s.record(memberID)
	if err != nil {
		return err
	}
	if !methodDisabled(r, method) {
		r.UnavailableMethods = append(r.UnavailableMethods, method)
	}
	if r.State == ConfirmationPending && r.Method == method {
		r.State = ConfirmationNone
		r.Method = ""
		r.Detail = ""
		r.Artifact = nil
	}
	r.HardwareNote = reason
	s.touch(at)
	return nil
}

// checkSignature 签名必须是 PNG 且包含至少一个 alpha > 0 的像素
func checkSignature(data []byte) error {
	if len(data) == 0 {
		return ErrBlankSignature
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return ErrBlankSignature
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				return nil
			}
		}
	}
	return ErrBlankSignature
}
