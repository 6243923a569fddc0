package service

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rdo-fidel/backend/config"
	"rdo-fidel/backend/internal/dto"
	"rdo-fidel/backend/internal/report"
	"rdo-fidel/backend/internal/repository"
	apperrors "rdo-fidel/backend/pkg/errors"
)

// ── 日报会话业务错误 ──

var (
	ErrSiteNotFound        = errors.New("工地不存在或已停用")
	ErrInvalidDate         = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidImage        = errors.New("图像数据无效，应为 base64 编码")
	ErrImageRequired       = errors.New("请提供图像或使用设备采集")
	ErrNumberConflict      = errors.New("报告编号已被其他定稿占用，请重新定稿")
	ErrReportPersistFailed = errors.New("报告保存失败，请稍后重试")
)

const dateLayout = "2006-01-02"

// Devices 服务端连接的采集设备，未连接时为 nil
type Devices struct {
	Scanner report.CredentialScanner
	Camera  report.Camera
}

// SessionService 日报草稿业务接口
//
// 每个请求按"读取草稿 → 修改 → 按版本写回"执行；
// 返回错误且响应非空时，表示状态已保存但部分操作失败（如名单或天气拉取失败）。
type SessionService interface {
	Open(ctx context.Context, req *dto.OpenSessionRequest, callerID string) (*dto.SessionResponse, error)
	Get(ctx context.Context, id string) (*dto.SessionResponse, error)
	Discard(ctx context.Context, id string) error

	SetDate(ctx context.Context, id string, req *dto.SetDateRequest) (*dto.SessionResponse, error)
	RefreshWeather(ctx context.Context, id string) (*dto.SessionResponse, error)
	RefreshSupervisors(ctx context.Context, id string) (*dto.SessionResponse, error)
	SelectSupervisor(ctx context.Context, id string, req *dto.SelectSupervisorRequest) (*dto.SessionResponse, error)
	SelectForeman(ctx context.Context, id string, req *dto.SelectForemanRequest) (*dto.SessionResponse, error)

	SetStatus(ctx context.Context, id, memberID string, req *dto.SetStatusRequest) (*dto.SessionResponse, error)
	SetDestination(ctx context.Context, id, memberID string, req *dto.SetDestinationRequest) (*dto.SessionResponse, error)
	AvailableMethods(ctx context.Context, id, memberID string) (*dto.MethodsResponse, error)
	BeginConfirmation(ctx context.Context, id, memberID string, req *dto.BeginConfirmationRequest) (*dto.SessionResponse, error)
	Confirm(ctx context.Context, id, memberID string, req *dto.ConfirmRequest) (*dto.SessionResponse, error)
	CancelConfirmation(ctx context.Context, id, memberID string) (*dto.SessionResponse, error)
	MarkHardwareUnavailable(ctx context.Context, id, memberID string, req *dto.HardwareUnavailableRequest) (*dto.SessionResponse, error)

	AddActivity(ctx context.Context, id string, req *dto.ActivityRequest) (*dto.SessionResponse, error)
	UpdateActivity(ctx context.Context, id, activityID string, req *dto.ActivityRequest) (*dto.SessionResponse, error)
	SetActivitySpan(ctx context.Context, id, activityID string, req *dto.SpanRequest) (*dto.SessionResponse, error)
	AddActivityMember(ctx context.Context, id, activityID, memberID string) (*dto.SessionResponse, error)
	SetActivityHours(ctx context.Context, id, activityID, memberID string, req *dto.HoursRequest) (*dto.SessionResponse, error)
	SetActivityMemberActive(ctx context.Context, id, activityID, memberID string, req *dto.MemberActiveRequest) (*dto.SessionResponse, error)
	DistributeActivityHours(ctx context.Context, id, activityID string) (*dto.SessionResponse, error)
	RemoveActivity(ctx context.Context, id, activityID string) (*dto.SessionResponse, error)

	AddIncident(ctx context.Context, id string, req *dto.IncidentRequest) (*dto.SessionResponse, error)
	UpdateIncident(ctx context.Context, id, incidentID string, req *dto.IncidentRequest) (*dto.SessionResponse, error)
	SetIncidentSpan(ctx context.Context, id, incidentID string, req *dto.SpanRequest) (*dto.SessionResponse, error)
	MarkAffected(ctx context.Context, id, incidentID, memberID string, req *dto.AffectedRequest) (*dto.SessionResponse, error)
	MarkAllAffected(ctx context.Context, id, incidentID string, req *dto.AffectedRequest) (*dto.SessionResponse, error)
	SetAffectedHours(ctx context.Context, id, incidentID, memberID string, req *dto.HoursRequest) (*dto.SessionResponse, error)
	DistributeIncidentHours(ctx context.Context, id, incidentID string) (*dto.SessionResponse, error)
	RemoveIncident(ctx context.Context, id, incidentID string) (*dto.SessionResponse, error)

	AddPhoto(ctx context.Context, id string, req *dto.PhotoRequest) (*dto.SessionResponse, error)
	RemovePhoto(ctx context.Context, id, photoID string) (*dto.SessionResponse, error)
	AddIncidentPhoto(ctx context.Context, id, incidentID string, req *dto.PhotoRequest) (*dto.SessionResponse, error)
	RemoveIncidentPhoto(ctx context.Context, id, incidentID, photoID string) (*dto.SessionResponse, error)

	SetPTS(ctx context.Context, id string, req *dto.PTSRequest) (*dto.SessionResponse, error)
	SetNotes(ctx context.Context, id string, req *dto.NotesRequest) (*dto.SessionResponse, error)
	SetSignature(ctx context.Context, id string, req *dto.SignatureRequest) (*dto.SessionResponse, error)
	ClearSignature(ctx context.Context, id string) (*dto.SessionResponse, error)

	Finalize(ctx context.Context, id string) (*dto.FinalizeResponse, error)
}

type sessionService struct {
	cfg     *config.Config
	repo    *repository.Repository
	drafts  DraftStore
	roster  *report.RosterResolver
	weather WeatherService
	devices Devices
	loc     *time.Location
	logger  *zap.Logger
	now     func() time.Time
}

// NewSessionService 创建 SessionService 实例
func NewSessionService(
	cfg *config.Config,
	repo *repository.Repository,
	drafts DraftStore,
	weather WeatherService,
	devices Devices,
	logger *zap.Logger,
) SessionService {
	return &sessionService{
		cfg:     cfg,
		repo:    repo,
		drafts:  drafts,
		roster:  report.NewRosterResolver(repo.Directory),
		weather: weather,
		devices: devices,
		loc:     cfg.Weather.Location(),
		logger:  logger,
		now:     time.Now,
	}
}

// ────────────────────── 草稿读写 ──────────────────────

func (s *sessionService) load(ctx context.Context, id string) (*report.Session, int64, error) {
	sess, version, err := s.drafts.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			s.logger.Error("读取日报草稿失败", zap.String("session_id", id), zap.Error(err))
		}
		return nil, 0, err
	}
	return sess, version, nil
}

// keepOnError 操作失败但会话状态已改变且应保留的错误
func keepOnError(err error) bool {
	return errors.Is(err, report.ErrTransientFetch) ||
		errors.Is(err, report.ErrDateOutOfRange) ||
		errors.Is(err, report.ErrHardwareUnavailable)
}

// mutate 读取草稿、执行修改并按版本写回
func (s *sessionService) mutate(ctx context.Context, id string, fn func(sess *report.Session, now time.Time) error) (*dto.SessionResponse, error) {
	sess, version, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	opErr := fn(sess, s.now())
	if opErr != nil && !keepOnError(opErr) {
		return nil, opErr
	}

	next, err := s.drafts.Save(ctx, sess, version)
	if err != nil {
		if !errors.Is(err, apperrors.ErrOptimisticLock) {
			s.logger.Error("保存日报草稿失败", zap.String("session_id", id), zap.Error(err))
		}
		return nil, err
	}
	return &dto.SessionResponse{Version: next, Session: sess}, opErr
}

// ────────────────────── Open ──────────────────────

func (s *sessionService) Open(ctx context.Context, req *dto.OpenSessionRequest, callerID string) (*dto.SessionResponse, error) {
	site, err := s.repo.Directory.GetSite(ctx, req.SiteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSiteNotFound
		}
		s.logger.Error("查询工地失败", zap.String("site_id", req.SiteID), zap.Error(err))
		return nil, err
	}
	if !site.IsActive {
		return nil, ErrSiteNotFound
	}

	now := s.now()
	sess := report.NewSession(site.SiteID, site.Name, callerID, now)
	if err := sess.SetSiteCoordinates(site.Latitude, site.Longitude); err != nil {
		return nil, err
	}

	// 名单和天气拉取失败不影响建草稿，前端可单独刷新
	if _, err := s.roster.Supervisors(ctx, sess); err != nil {
		s.logger.Warn("拉取主管列表失败", zap.String("site_id", site.SiteID), zap.Error(err))
	}
	if req.Date != "" {
		date, err := s.parseDate(req.Date)
		if err != nil {
			return nil, err
		}
		if err := sess.SetDate(date, now); err != nil {
			return nil, err
		}
		if w, err := s.weather.ForSession(ctx, sess, now); err == nil {
			_ = sess.SetWeather(w, now)
		}
	}

	version, err := s.drafts.Save(ctx, sess, 0)
	if err != nil {
		s.logger.Error("保存日报草稿失败", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("新建日报草稿",
		zap.String("session_id", sess.ID),
		zap.String("site_id", sess.SiteID),
		zap.String("created_by", callerID),
	)
	return &dto.SessionResponse{Version: version, Session: sess}, nil
}

// ────────────────────── Get / Discard ──────────────────────

func (s *sessionService) Get(ctx context.Context, id string) (*dto.SessionResponse, error) {
	sess, version, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.SessionResponse{Version: version, Session: sess}, nil
}

func (s *sessionService) Discard(ctx context.Context, id string) error {
	if _, _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		s.logger.Error("删除日报草稿失败", zap.String("session_id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 日期与天气 ──────────────────────

func (s *sessionService) parseDate(value string) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, value, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// SetDate 先保存日期，再拉取天气；天气失败时日期仍然生效
func (s *sessionService) SetDate(ctx context.Context, id string, req *dto.SetDateRequest) (*dto.SessionResponse, error) {
	date, err := s.parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		if err := sess.SetDate(date, now); err != nil {
			return err
		}
		return s.fillWeather(ctx, sess, now)
	})
}

func (s *sessionService) RefreshWeather(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		if sess.Finalized() {
			return report.ErrSessionFinalized
		}
		return s.fillWeather(ctx, sess, now)
	})
}

func (s *sessionService) fillWeather(ctx context.Context, sess *report.Session, now time.Time) error {
	w, err := s.weather.ForSession(ctx, sess, now)
	if err != nil {
		return err
	}
	return sess.SetWeather(w, now)
}

// ────────────────────── 名单 ──────────────────────

func (s *sessionService) RefreshSupervisors(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, _ time.Time) error {
		_, err := s.roster.Supervisors(ctx, sess)
		return err
	})
}

func (s *sessionService) SelectSupervisor(ctx context.Context, id string, req *dto.SelectSupervisorRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := s.roster.SelectSupervisor(ctx, sess, req.SupervisorID, now)
		return err
	})
}

func (s *sessionService) SelectForeman(ctx context.Context, id string, req *dto.SelectForemanRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := s.roster.SelectForeman(ctx, sess, req.ForemanID, now)
		return err
	})
}

// ────────────────────── 出勤确认 ──────────────────────

func (s *sessionService) SetStatus(ctx context.Context, id, memberID string, req *dto.SetStatusRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetStatus(memberID, report.PresenceStatus(req.Status), now)
	})
}

func (s *sessionService) SetDestination(ctx context.Context, id, memberID string, req *dto.SetDestinationRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetDestination(memberID, req.TeamID, req.ForemanID, now)
	})
}

func (s *sessionService) AvailableMethods(ctx context.Context, id, memberID string) (*dto.MethodsResponse, error) {
	sess, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	methods, err := sess.AvailableMethods(memberID)
	if err != nil {
		return nil, err
	}
	return &dto.MethodsResponse{MemberID: memberID, Methods: methods}, nil
}

func (s *sessionService) BeginConfirmation(ctx context.Context, id, memberID string, req *dto.BeginConfirmationRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.BeginConfirmation(memberID, report.ConfirmationMethod(req.Method), now)
	})
}

// Confirm 提交确认结果。使用服务端设备采集失败时记录该方式不可用并返回 ErrHardwareUnavailable，
// 操作员随后可改用其他方式。
func (s *sessionService) Confirm(ctx context.Context, id, memberID string, req *dto.ConfirmRequest) (*dto.SessionResponse, error) {
	method := report.ConfirmationMethod(req.Method)
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		switch method {
		case report.MethodTag:
			serial := req.Serial
			if req.UseDevice {
				read, err := report.ScanCredential(ctx, s.devices.Scanner)
				if err != nil {
					return s.deviceFailed(sess, memberID, method, err, now)
				}
				serial = read
			}
			return sess.ConfirmTag(memberID, serial, now)

		case report.MethodFacial:
			still, err := s.image(req)
			if req.UseDevice {
				still, err = report.CaptureStill(ctx, s.devices.Camera)
				if err != nil {
					return s.deviceFailed(sess, memberID, method, err, now)
				}
			}
			if err != nil {
				return err
			}
			return sess.ConfirmFacial(memberID, still, now)

		case report.MethodSignature:
			sig, err := s.image(req)
			if err != nil {
				return err
			}
			return sess.ConfirmSignature(memberID, sig, now)

		case report.MethodManual:
			return sess.ConfirmManual(memberID, now)
		}
		return report.ErrInvalidMethod
	})
}

// deviceFailed 设备故障时记录不可用，操作员取消时原样返回
func (s *sessionService) deviceFailed(sess *report.Session, memberID string, method report.ConfirmationMethod, err error, now time.Time) error {
	if !errors.Is(err, report.ErrHardwareUnavailable) {
		return err
	}
	s.logger.Warn("采集设备不可用",
		zap.String("session_id", sess.ID),
		zap.String("member_id", memberID),
		zap.String("method", string(method)),
		zap.Error(err),
	)
	if markErr := sess.MarkHardwareUnavailable(memberID, method, err.Error(), now); markErr != nil {
		return markErr
	}
	return err
}

func (s *sessionService) image(req *dto.ConfirmRequest) ([]byte, error) {
	if req.Image == "" {
		return nil, ErrImageRequired
	}
	return decodeImage(req.Image)
}

// decodeImage 接受纯 base64 或 data URL
func decodeImage(value string) ([]byte, error) {
	if i := strings.Index(value, ","); strings.HasPrefix(value, "data:") && i >= 0 {
		value = value[i+1:]
	}
	data, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return nil, ErrInvalidImage
	}
	return data, nil
}

func (s *sessionService) CancelConfirmation(ctx context.Context, id, memberID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.CancelConfirmation(memberID, now)
	})
}

func (s *sessionService) MarkHardwareUnavailable(ctx context.Context, id, memberID string, req *dto.HardwareUnavailableRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.MarkHardwareUnavailable(memberID, report.ConfirmationMethod(req.Method), req.Reason, now)
	})
}

// ────────────────────── 作业 ──────────────────────

func parseClock(v *string) (*report.TimeOfDay, error) {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	t, err := report.ParseTimeOfDay(strings.TrimSpace(*v))
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseSpan(start, end *string) (*report.TimeOfDay, *report.TimeOfDay, error) {
	s, err := parseClock(start)
	if err != nil {
		return nil, nil, err
	}
	e, err := parseClock(end)
	if err != nil {
		return nil, nil, err
	}
	return s, e, nil
}

func activityInput(req *dto.ActivityRequest) (report.ActivityInput, error) {
	start, end, err := parseSpan(req.Start, req.End)
	if err != nil {
		return report.ActivityInput{}, err
	}
	return report.ActivityInput{
		Discipline:    req.Discipline,
		SubDiscipline: req.SubDiscipline,
		Service:       req.Service,
		Description:   req.Description,
		Start:         start,
		End:           end,
	}, nil
}

func (s *sessionService) AddActivity(ctx context.Context, id string, req *dto.ActivityRequest) (*dto.SessionResponse, error) {
	in, err := activityInput(req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := sess.AddActivity(in, now)
		return err
	})
}

func (s *sessionService) UpdateActivity(ctx context.Context, id, activityID string, req *dto.ActivityRequest) (*dto.SessionResponse, error) {
	in, err := activityInput(req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.UpdateActivity(activityID, in, now)
	})
}

func (s *sessionService) SetActivitySpan(ctx context.Context, id, activityID string, req *dto.SpanRequest) (*dto.SessionResponse, error) {
	start, end, err := parseSpan(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetActivitySpan(activityID, start, end, now)
	})
}

func (s *sessionService) AddActivityMember(ctx context.Context, id, activityID, memberID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.AddActivityMember(activityID, memberID, now)
	})
}

func (s *sessionService) SetActivityHours(ctx context.Context, id, activityID, memberID string, req *dto.HoursRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetActivityHours(activityID, memberID, *req.Hours, now)
	})
}

func (s *sessionService) SetActivityMemberActive(ctx context.Context, id, activityID, memberID string, req *dto.MemberActiveRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetActivityMemberActive(activityID, memberID, req.Active, now)
	})
}

func (s *sessionService) DistributeActivityHours(ctx context.Context, id, activityID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.DistributeActivityHours(activityID, now)
	})
}

func (s *sessionService) RemoveActivity(ctx context.Context, id, activityID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.RemoveActivity(activityID, now)
	})
}

// ────────────────────── 事件 ──────────────────────

func incidentInput(req *dto.IncidentRequest) (report.IncidentInput, error) {
	start, end, err := parseSpan(req.Start, req.End)
	if err != nil {
		return report.IncidentInput{}, err
	}
	return report.IncidentInput{
		Classification: report.Classification(req.Classification),
		Type:           req.Type,
		Description:    req.Description,
		ResponsibleID:  req.ResponsibleID,
		Start:          start,
		End:            end,
	}, nil
}

func (s *sessionService) AddIncident(ctx context.Context, id string, req *dto.IncidentRequest) (*dto.SessionResponse, error) {
	in, err := incidentInput(req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := sess.AddIncident(in, now)
		return err
	})
}

func (s *sessionService) UpdateIncident(ctx context.Context, id, incidentID string, req *dto.IncidentRequest) (*dto.SessionResponse, error) {
	in, err := incidentInput(req)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.UpdateIncident(incidentID, in, now)
	})
}

func (s *sessionService) SetIncidentSpan(ctx context.Context, id, incidentID string, req *dto.SpanRequest) (*dto.SessionResponse, error) {
	start, end, err := parseSpan(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetIncidentSpan(incidentID, start, end, now)
	})
}

func (s *sessionService) MarkAffected(ctx context.Context, id, incidentID, memberID string, req *dto.AffectedRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.MarkAffected(incidentID, memberID, req.Marked, now)
	})
}

func (s *sessionService) MarkAllAffected(ctx context.Context, id, incidentID string, req *dto.AffectedRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.MarkAllAffected(incidentID, req.Marked, now)
	})
}

func (s *sessionService) SetAffectedHours(ctx context.Context, id, incidentID, memberID string, req *dto.HoursRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetAffectedHours(incidentID, memberID, *req.Hours, now)
	})
}

func (s *sessionService) DistributeIncidentHours(ctx context.Context, id, incidentID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.DistributeIncidentHours(incidentID, now)
	})
}

func (s *sessionService) RemoveIncident(ctx context.Context, id, incidentID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.RemoveIncident(incidentID, now)
	})
}

// ────────────────────── 照片 ──────────────────────

func photoInput(req *dto.PhotoRequest) report.PhotoInput {
	return report.PhotoInput{
		ContentType: req.ContentType,
		Size:        req.Size,
		StorageKey:  req.StorageKey,
		Caption:     req.Caption,
	}
}

func (s *sessionService) AddPhoto(ctx context.Context, id string, req *dto.PhotoRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := sess.AddPhoto(photoInput(req), s.cfg.Report.MaxPhotoBytes, now)
		return err
	})
}

func (s *sessionService) RemovePhoto(ctx context.Context, id, photoID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.RemovePhoto(photoID, now)
	})
}

func (s *sessionService) AddIncidentPhoto(ctx context.Context, id, incidentID string, req *dto.PhotoRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		_, err := sess.AddIncidentPhoto(incidentID, photoInput(req), s.cfg.Report.MaxPhotoBytes, now)
		return err
	})
}

func (s *sessionService) RemoveIncidentPhoto(ctx context.Context, id, incidentID, photoID string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.RemoveIncidentPhoto(incidentID, photoID, now)
	})
}

// ────────────────────── 报告头 ──────────────────────

func (s *sessionService) SetPTS(ctx context.Context, id string, req *dto.PTSRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetPTS(req.Required, req.Activity, now)
	})
}

func (s *sessionService) SetNotes(ctx context.Context, id string, req *dto.NotesRequest) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetNotes(req.Notes, now)
	})
}

func (s *sessionService) SetSignature(ctx context.Context, id string, req *dto.SignatureRequest) (*dto.SessionResponse, error) {
	png, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.SetSupervisorSignature(png, now)
	})
}

func (s *sessionService) ClearSignature(ctx context.Context, id string) (*dto.SessionResponse, error) {
	return s.mutate(ctx, id, func(sess *report.Session, now time.Time) error {
		return sess.ClearSupervisorSignature(now)
	})
}

// ═══════════════════════════════════════════════════════════
// Finalize 分配编号、组装并在同一事务内写入
// ═══════════════════════════════════════════════════════════
//
// counter 策略在事务内分配编号，事务回滚时计数器一并回滚。
// max_plus_one 在事务外读取已有编号，读取失败不会中止写入事务，降级编号照常落库。
// 本次新分配或已被占用的编号在失败时释放，报告 ID 保留供重试沿用。

func (s *sessionService) Finalize(ctx context.Context, id string) (*dto.FinalizeResponse, error) {
	sess, version, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Finalized() {
		return nil, report.ErrSessionFinalized
	}

	now := s.now()
	fresh := sess.Number == ""
	counter := s.cfg.Report.SequenceStrategy == report.StrategyCounter
	if fresh && !counter {
		err = s.assignNumber(ctx, s.repo, sess)
	}
	if err == nil {
		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if fresh && counter {
				if err := s.assignNumber(ctx, tx, sess); err != nil {
					return err
				}
			}
			payload, err := report.Assemble(sess, now)
			if err != nil {
				return err
			}
			return report.Submit(ctx, tx.Report, payload)
		})
	}
	if err != nil {
		if fresh || errors.Is(err, repository.ErrDuplicateNumber) {
			_ = sess.ReleaseNumber()
		}
		if _, saveErr := s.drafts.Save(ctx, sess, version); saveErr != nil {
			s.logger.Warn("定稿失败后保存草稿失败", zap.String("session_id", id), zap.Error(saveErr))
		}
		return nil, s.finalizeError(sess, err)
	}

	if err := sess.MarkFinalized(now); err != nil {
		return nil, err
	}
	if _, err := s.drafts.Save(ctx, sess, version); err != nil {
		// 报告已落库，草稿状态未能同步，草稿过期后自然清理
		s.logger.Error("定稿后更新草稿状态失败",
			zap.String("session_id", id),
			zap.String("report_id", sess.ReportID),
			zap.Error(err),
		)
	}

	s.logger.Info("日报定稿",
		zap.String("session_id", id),
		zap.String("report_id", sess.ReportID),
		zap.String("site_id", sess.SiteID),
		zap.String("number", sess.Number),
	)
	return &dto.FinalizeResponse{
		ReportID:    sess.ReportID,
		Number:      sess.Number,
		FinalizedAt: now.Format(time.RFC3339),
	}, nil
}

func (s *sessionService) assignNumber(ctx context.Context, repo *repository.Repository, sess *report.Session) error {
	number, err := s.allocator(repo).Next(ctx, sess.SiteID)
	if err != nil {
		return err
	}
	return sess.AssignNumber(number)
}

func (s *sessionService) allocator(repo *repository.Repository) report.SequenceAllocator {
	if s.cfg.Report.SequenceStrategy == report.StrategyCounter {
		return report.NewCounterAllocator(repo.Sequence)
	}
	return report.NewMaxPlusOneAllocator(repo.Report, s.logger)
}

func (s *sessionService) finalizeError(sess *report.Session, err error) error {
	var verr *report.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, report.ErrSessionFinalized):
		return err
	case errors.Is(err, repository.ErrDuplicateNumber):
		s.logger.Warn("报告编号冲突", zap.String("session_id", sess.ID), zap.String("site_id", sess.SiteID))
		return ErrNumberConflict
	}
	s.logger.Error("日报定稿写入失败",
		zap.String("session_id", sess.ID),
		zap.String("report_id", sess.ReportID),
		zap.Error(err),
	)
	return ErrReportPersistFailed
}
