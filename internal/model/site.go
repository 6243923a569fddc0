package model

import "gorm.io/gorm"

// Site 工地表，对应 sites
type Site struct {
	SiteID    string   `gorm:"type:uuid;primaryKey"       json:"site_id"`
	Name      string   `gorm:"type:varchar(150);not null" json:"name"`
	Address   string   `gorm:"type:varchar(255)"          json:"address,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	IsActive  bool     `gorm:"not null;default:true"      json:"is_active"`
	BaseModel
}

// TableName 指定表名
func (Site) TableName() string { return "sites" }

// BeforeCreate 生成主键
func (s *Site) BeforeCreate(*gorm.DB) error { ensureID(&s.SiteID); return nil }
