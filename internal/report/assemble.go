package report

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Header 报告头
type Header struct {
	ReportID            string    `json:"report_id"`
	SessionID           string    `json:"session_id"`
	SiteID              string    `json:"site_id"`
	SiteName            string    `json:"site_name"`
	Date                time.Time `json:"date"`
	Number              string    `json:"number"`
	SupervisorID        string    `json:"supervisor_id,omitempty"`
	ForemanID           string    `json:"foreman_id,omitempty"`
	TeamID              string    `json:"team_id,omitempty"`
	PTS                 PTS       `json:"pts"`
	Notes               string    `json:"notes,omitempty"`
	SupervisorSignature []byte    `json:"supervisor_signature,omitempty"`
	WeatherApproximated bool      `json:"weather_approximated"`
	WeatherSource       string    `json:"weather_source,omitempty"`
	Collaborators       int       `json:"collaborators"`
	Activities          int       `json:"activities"`
	TotalHours          float64   `json:"total_hours"`
	LostHours           float64   `json:"lost_hours"`
	CreatedBy           string    `json:"created_by,omitempty"`
	FinalizedAt         time.Time `json:"finalized_at"`
}

// Signed 是否有主管签字
func (h *Header) Signed() bool {
	return len(h.SupervisorSignature) > 0
}

// Payload 定稿后的完整报告，与会话不共享任何可变数据
type Payload struct {
	Header     Header                 `json:"header"`
	Weather    []WeatherPeriodSummary `json:"weather"`
	Roster     []PresenceRecord       `json:"roster"`
	Activities []Activity             `json:"activities"`
	Incidents  []Incident             `json:"incidents"`
	Photos     []Attachment           `json:"photos,omitempty"`
}

// Validate 检查定稿条件，所有问题一并返回
func (s *Session) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(s.SiteID) == "" {
		v.add("未选择工地")
	}
	if s.Date == nil || s.Date.IsZero() {
		v.add("未选择日期")
	}
	if strings.TrimSpace(s.Number) == "" {
		v.add("未分配报告编号")
	}
	for _, m := range s.PendingDestinations() {
		v.add("成员 %s 调出/借调未选择目标班组", m.Name)
	}
	for i, a := range s.Activities {
		if strings.TrimSpace(a.Description) == "" {
			v.add("作业 %d 缺少描述", i+1)
		}
		if _, ok := a.Span.Minutes(); !ok {
			v.add("作业 %d 缺少开始/结束时间", i+1)
		}
	}
	for i, in := range s.Incidents {
		if strings.TrimSpace(in.Description) == "" {
			v.add("事件 %d 缺少描述", i+1)
		}
		if !in.Classification.Valid() {
			v.add("事件 %d 缺少分类", i+1)
		}
		if _, ok := in.Span.Minutes(); !ok {
			v.add("事件 %d 缺少开始/结束时间", i+1)
		}
	}
	if len(v.Problems) > 0 {
		return v
	}
	return nil
}

// Assemble 校验通过后生成不可变报告。首次定稿时分配报告 ID，重试沿用同一 ID。
func Assemble(s *Session, at time.Time) (*Payload, error) {
	if err := s.editable(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if s.ReportID == "" {
		s.ReportID = uuid.NewString()
	}

	p := &Payload{
		Header: Header{
			ReportID:            s.ReportID,
			SessionID:           s.ID,
			SiteID:              s.SiteID,
			SiteName:            s.SiteName,
			Date:                *s.Date,
			Number:              s.Number,
			SupervisorID:        s.SupervisorID,
			ForemanID:           s.ForemanID,
			TeamID:              s.TeamID,
			PTS:                 s.PTS,
			Notes:               s.Notes,
			SupervisorSignature: cloneBytes(s.SupervisorSignature),
			Activities:          len(s.Activities),
			TotalHours:          s.TotalActivityHours(),
			LostHours:           s.TotalLostHours(),
			CreatedBy:           s.CreatedBy,
			FinalizedAt:         at,
		},
		Roster:     make([]PresenceRecord, 0, len(s.Roster)),
		Activities: make([]Activity, 0, len(s.Activities)),
		Incidents:  make([]Incident, 0, len(s.Incidents)),
		Photos:     append([]Attachment(nil), s.Photos...),
	}

	if s.Weather != nil {
		p.Header.WeatherApproximated = s.Weather.Approximated
		p.Header.WeatherSource = s.Weather.Source
		for _, w := range s.Weather.Periods {
			p.Weather = append(p.Weather, cloneSummary(w))
		}
	} else {
		for _, period := range Periods {
			p.Weather = append(p.Weather, WeatherPeriodSummary{Period: period})
		}
	}

	for _, r := range s.Roster {
		if r.Status == StatusPresent {
			p.Header.Collaborators++
		}
		p.Roster = append(p.Roster, cloneRecord(r))
	}
	for _, a := range s.Activities {
		c := a
		c.Span = spanFrom(a.Span.Start, a.Span.End)
		c.Assignments = activeOnly(a.Assignments)
		p.Activities = append(p.Activities, c)
	}
	for _, in := range s.Incidents {
		c := in
		c.Span = spanFrom(in.Span.Start, in.Span.End)
		c.Affected = activeOnly(in.Affected)
		c.Photos = append([]Attachment(nil), in.Photos...)
		p.Incidents = append(p.Incidents, c)
	}
	return p, nil
}

// MarkFinalized 写入成功后锁定会话
func (s *Session) MarkFinalized(at time.Time) error {
	if err := s.editable(); err != nil {
		return err
	}
	t := at
	s.Status = SessionFinalized
	s.FinalizedAt = &t
	s.touch(at)
	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

func cloneRecord(r PresenceRecord) PresenceRecord {
	c := r
	c.Artifact = cloneBytes(r.Artifact)
	c.UnavailableMethods = append([]ConfirmationMethod(nil), r.UnavailableMethods...)
	if r.ConfirmedAt != nil {
		t := *r.ConfirmedAt
		c.ConfirmedAt = &t
	}
	return c
}

func cloneSummary(w WeatherPeriodSummary) WeatherPeriodSummary {
	c := w
	for _, f := range []**float64{&c.Temperature, &c.TempMin, &c.TempMax, &c.Humidity, &c.WindSpeed, &c.Precipitation} {
		if *f != nil {
			*f = ptr(**f)
		}
	}
	return c
}
