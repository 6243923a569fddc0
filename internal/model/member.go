package model

import "gorm.io/gorm"

// Member 人员表，对应 members
// 主管挂在工地下，工长挂在主管下，工人通过 team_members 归属班组
type Member struct {
	MemberID              string  `gorm:"type:uuid;primaryKey"                       json:"member_id"`
	SiteID                *string `gorm:"type:uuid;index"                            json:"site_id,omitempty"`
	SupervisorID          *string `gorm:"type:uuid;index"                            json:"supervisor_id,omitempty"`
	Name                  string  `gorm:"type:varchar(150);not null"                 json:"name"`
	Role                  string  `gorm:"type:varchar(20);not null;default:'worker'" json:"role"` // supervisor | foreman | worker
	CredentialID          string  `gorm:"type:varchar(64)"                           json:"credential_id,omitempty"`
	ReferencePhotoKey     string  `gorm:"type:varchar(255)"                          json:"reference_photo_key,omitempty"`
	ReferenceSignatureKey string  `gorm:"type:varchar(255)"                          json:"reference_signature_key,omitempty"`
	IsActive              bool    `gorm:"not null;default:true"                      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Member) TableName() string { return "members" }

// BeforeCreate 生成主键
func (m *Member) BeforeCreate(*gorm.DB) error { ensureID(&m.MemberID); return nil }

// Team 班组表，对应 teams
type Team struct {
	TeamID    string `gorm:"type:uuid;primaryKey"       json:"team_id"`
	Name      string `gorm:"type:varchar(100);not null" json:"name"`
	ForemanID string `gorm:"type:uuid;not null;index"   json:"foreman_id"`
	IsActive  bool   `gorm:"not null;default:true"      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Team) TableName() string { return "teams" }

// BeforeCreate 生成主键
func (t *Team) BeforeCreate(*gorm.DB) error { ensureID(&t.TeamID); return nil }

// TeamMember 班组成员关系，对应 team_members
type TeamMember struct {
	TeamID   string `gorm:"type:uuid;primaryKey" json:"team_id"`
	MemberID string `gorm:"type:uuid;primaryKey" json:"member_id"`

	// 关联
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName 指定表名
func (TeamMember) TableName() string { return "team_members" }
