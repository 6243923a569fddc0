package model

import (
	"time"

	"gorm.io/gorm"
)

// Report 日报主表，对应 reports，(site_id, number) 唯一
type Report struct {
	ReportID            string    `gorm:"type:uuid;primaryKey"                                  json:"report_id"`
	SessionID           string    `gorm:"type:uuid;not null"                                    json:"session_id"`
	SiteID              string    `gorm:"type:uuid;not null;uniqueIndex:uq_report_number"       json:"site_id"`
	SiteName            string    `gorm:"type:varchar(150)"                                     json:"site_name"`
	Number              string    `gorm:"type:varchar(8);not null;uniqueIndex:uq_report_number" json:"number"`
	ReportDate          time.Time `gorm:"type:date;not null;index"                              json:"report_date"`
	SupervisorID        string    `gorm:"type:varchar(64)"                                      json:"supervisor_id,omitempty"`
	ForemanID           string    `gorm:"type:varchar(64)"                                      json:"foreman_id,omitempty"`
	TeamID              string    `gorm:"type:varchar(64)"                                      json:"team_id,omitempty"`
	PTSRequired         bool      `gorm:"column:pts_required;not null;default:false"            json:"pts_required"`
	PTSActivity         string    `gorm:"column:pts_activity;type:text"                         json:"pts_activity,omitempty"`
	Notes               string    `gorm:"type:text"                                             json:"notes,omitempty"`
	SupervisorSignature []byte    `gorm:"type:bytea"                                            json:"-"`
	WeatherApproximated bool      `gorm:"not null;default:false"                                json:"weather_approximated"`
	WeatherSource       string    `gorm:"type:varchar(20)"                                      json:"weather_source,omitempty"`
	Collaborators       int       `gorm:"not null;default:0"                                    json:"collaborators"`
	TotalHours          float64   `gorm:"not null;default:0"                                    json:"total_hours"`
	LostHours           float64   `gorm:"not null;default:0"                                    json:"lost_hours"`
	ActivityCount       int       `gorm:"not null;default:0"                                    json:"activity_count"`
	CreatedBy           string    `gorm:"type:varchar(64)"                                      json:"created_by,omitempty"`
	FinalizedAt         time.Time `gorm:"not null"                                              json:"finalized_at"`
	BaseModel
}

// TableName 指定表名
func (Report) TableName() string { return "reports" }

// BeforeCreate 生成主键
func (r *Report) BeforeCreate(*gorm.DB) error { ensureID(&r.ReportID); return nil }

// ReportPresence 出勤记录，对应 report_presence
type ReportPresence struct {
	PresenceID           string     `gorm:"type:uuid;primaryKey"       json:"presence_id"`
	ReportID             string     `gorm:"type:uuid;not null;index"   json:"report_id"`
	MemberID             string     `gorm:"type:uuid;not null"         json:"member_id"`
	MemberName           string     `gorm:"type:varchar(150);not null" json:"member_name"`
	Role                 string     `gorm:"type:varchar(20)"           json:"role"`
	Status               string     `gorm:"type:varchar(20);not null"  json:"status"`
	ConfirmationState    string     `gorm:"type:varchar(20);not null"  json:"confirmation_state"`
	ConfirmationMethod   string     `gorm:"type:varchar(20)"           json:"confirmation_method,omitempty"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	Detail               string     `gorm:"type:varchar(255)"          json:"detail,omitempty"`
	Artifact             []byte     `gorm:"type:bytea"                 json:"-"`
	DestinationTeamID    string     `gorm:"type:varchar(64)"           json:"destination_team_id,omitempty"`
	DestinationForemanID string     `gorm:"type:varchar(64)"           json:"destination_foreman_id,omitempty"`
	HardwareNote         string     `gorm:"type:varchar(255)"          json:"hardware_note,omitempty"`
	Position             int        `gorm:"not null;default:0"         json:"position"`
}

// TableName 指定表名
func (ReportPresence) TableName() string { return "report_presence" }

// BeforeCreate 生成主键
func (p *ReportPresence) BeforeCreate(*gorm.DB) error { ensureID(&p.PresenceID); return nil }

// ReportWeather 时段天气汇总，对应 report_weather，每份日报 3 行
type ReportWeather struct {
	WeatherID     string   `gorm:"type:uuid;primaryKey"      json:"weather_id"`
	ReportID      string   `gorm:"type:uuid;not null;index"  json:"report_id"`
	Period        string   `gorm:"type:varchar(20);not null" json:"period"`
	Temperature   *float64 `json:"temperature,omitempty"`
	TempMin       *float64 `json:"temp_min,omitempty"`
	TempMax       *float64 `json:"temp_max,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection string   `gorm:"type:varchar(4)"           json:"wind_direction,omitempty"`
	Precipitation *float64 `json:"precipitation,omitempty"`
	Code          int      `gorm:"not null;default:0"        json:"code"`
	Description   string   `gorm:"type:varchar(100)"         json:"description,omitempty"`
	Condition     string   `gorm:"type:varchar(20)"          json:"condition,omitempty"`
	Samples       int      `gorm:"not null;default:0"        json:"samples"`
	Approximated  bool     `gorm:"not null;default:false"    json:"approximated"`
}

// TableName 指定表名
func (ReportWeather) TableName() string { return "report_weather" }

// BeforeCreate 生成主键
func (w *ReportWeather) BeforeCreate(*gorm.DB) error { ensureID(&w.WeatherID); return nil }

// ReportActivity 作业，对应 report_activities
type ReportActivity struct {
	ActivityID    string   `gorm:"type:uuid;primaryKey"     json:"activity_id"`
	ReportID      string   `gorm:"type:uuid;not null;index" json:"report_id"`
	Discipline    string   `gorm:"type:varchar(100)"        json:"discipline,omitempty"`
	SubDiscipline string   `gorm:"type:varchar(100)"        json:"sub_discipline,omitempty"`
	Service       string   `gorm:"type:varchar(150)"        json:"service,omitempty"`
	Description   string   `gorm:"type:text;not null"       json:"description"`
	StartTime     string   `gorm:"type:varchar(5)"          json:"start_time"` // HH:MM
	EndTime       string   `gorm:"type:varchar(5)"          json:"end_time"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	TotalHours    float64  `gorm:"not null;default:0"       json:"total_hours"`
	Position      int      `gorm:"not null;default:0"       json:"position"`

	// 关联
	Assignments []ReportActivityAssignment `gorm:"foreignKey:ActivityID;references:ActivityID" json:"assignments,omitempty"`
}

// TableName 指定表名
func (ReportActivity) TableName() string { return "report_activities" }

// BeforeCreate 生成主键
func (a *ReportActivity) BeforeCreate(*gorm.DB) error { ensureID(&a.ActivityID); return nil }

// ReportActivityAssignment 作业人员工时，对应 report_activity_assignments
type ReportActivityAssignment struct {
	AssignmentID string  `gorm:"type:uuid;primaryKey"       json:"assignment_id"`
	ActivityID   string  `gorm:"type:uuid;not null;index"   json:"activity_id"`
	MemberID     string  `gorm:"type:uuid;not null"         json:"member_id"`
	MemberName   string  `gorm:"type:varchar(150);not null" json:"member_name"`
	Hours        float64 `gorm:"not null;default:0"         json:"hours"`
}

// TableName 指定表名
func (ReportActivityAssignment) TableName() string { return "report_activity_assignments" }

// BeforeCreate 生成主键
func (a *ReportActivityAssignment) BeforeCreate(*gorm.DB) error { ensureID(&a.AssignmentID); return nil }

// ReportIncident 事件，对应 report_incidents
type ReportIncident struct {
	IncidentID     string   `gorm:"type:uuid;primaryKey"     json:"incident_id"`
	ReportID       string   `gorm:"type:uuid;not null;index" json:"report_id"`
	Classification string   `gorm:"type:varchar(20)"         json:"classification"`
	Type           string   `gorm:"type:varchar(150)"        json:"type,omitempty"`
	Description    string   `gorm:"type:text;not null"       json:"description"`
	ResponsibleID  string   `gorm:"type:varchar(64)"         json:"responsible_id,omitempty"`
	StartTime      string   `gorm:"type:varchar(5)"          json:"start_time"`
	EndTime        string   `gorm:"type:varchar(5)"          json:"end_time"`
	DurationHours  *float64 `json:"duration_hours,omitempty"`
	LostHours      float64  `gorm:"not null;default:0"       json:"lost_hours"`
	Position       int      `gorm:"not null;default:0"       json:"position"`

	// 关联
	Members []ReportIncidentMember `gorm:"foreignKey:IncidentID;references:IncidentID" json:"members,omitempty"`
}

// TableName 指定表名
func (ReportIncident) TableName() string { return "report_incidents" }

// BeforeCreate 生成主键
func (i *ReportIncident) BeforeCreate(*gorm.DB) error { ensureID(&i.IncidentID); return nil }

// ReportIncidentMember 受影响人员，对应 report_incident_members
type ReportIncidentMember struct {
	AffectedID string  `gorm:"type:uuid;primaryKey"       json:"affected_id"`
	IncidentID string  `gorm:"type:uuid;not null;index"   json:"incident_id"`
	MemberID   string  `gorm:"type:uuid;not null"         json:"member_id"`
	MemberName string  `gorm:"type:varchar(150);not null" json:"member_name"`
	Hours      float64 `gorm:"not null;default:0"         json:"hours"`
}

// TableName 指定表名
func (ReportIncidentMember) TableName() string { return "report_incident_members" }

// BeforeCreate 生成主键
func (m *ReportIncidentMember) BeforeCreate(*gorm.DB) error { ensureID(&m.AffectedID); return nil }

// ReportAttachment 照片元数据，对应 report_attachments；IncidentID 为空表示报告照片
type ReportAttachment struct {
	AttachmentID string    `gorm:"type:uuid;primaryKey"       json:"attachment_id"`
	ReportID     string    `gorm:"type:uuid;not null;index"   json:"report_id"`
	IncidentID   *string   `gorm:"type:uuid;index"            json:"incident_id,omitempty"`
	FileName     string    `gorm:"type:varchar(100);not null" json:"file_name"`
	ContentType  string    `gorm:"type:varchar(50);not null"  json:"content_type"`
	Size         int64     `gorm:"not null"                   json:"size"`
	StorageKey   string    `gorm:"type:varchar(255)"          json:"storage_key,omitempty"`
	Caption      string    `gorm:"type:varchar(255)"          json:"caption,omitempty"`
	UploadedAt   time.Time `gorm:"not null"                   json:"uploaded_at"`
}

// TableName 指定表名
func (ReportAttachment) TableName() string { return "report_attachments" }

// BeforeCreate 生成主键
func (a *ReportAttachment) BeforeCreate(*gorm.DB) error { ensureID(&a.AttachmentID); return nil }

// ReportSequence 每个工地的编号计数器，对应 report_sequences（counter 策略）
type ReportSequence struct {
	SiteID    string    `gorm:"type:uuid;primaryKey"               json:"site_id"`
	LastValue int64     `gorm:"not null"                           json:"last_value"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (ReportSequence) TableName() string { return "report_sequences" }
