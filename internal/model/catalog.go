package model

import "gorm.io/gorm"

// ActivityCatalogEntry 作业目录，对应 activity_catalog（专业 → 子专业 → 工序）
type ActivityCatalogEntry struct {
	EntryID       string `gorm:"type:uuid;primaryKey"       json:"entry_id"`
	Discipline    string `gorm:"type:varchar(100);not null" json:"discipline"`
	SubDiscipline string `gorm:"type:varchar(100)"          json:"sub_discipline,omitempty"`
	Service       string `gorm:"type:varchar(150)"          json:"service,omitempty"`
	IsActive      bool   `gorm:"not null;default:true"      json:"is_active"`
}

// TableName 指定表名
func (ActivityCatalogEntry) TableName() string { return "activity_catalog" }

// BeforeCreate 生成主键
func (e *ActivityCatalogEntry) BeforeCreate(*gorm.DB) error { ensureID(&e.EntryID); return nil }

// IncidentType 事件类型目录，对应 incident_types，覆盖内置默认列表
type IncidentType struct {
	TypeID         string `gorm:"type:uuid;primaryKey"            json:"type_id"`
	Classification string `gorm:"type:varchar(20);not null;index" json:"classification"`
	Name           string `gorm:"type:varchar(150);not null"      json:"name"`
	SortOrder      int    `gorm:"not null;default:0"              json:"sort_order"`
}

// TableName 指定表名
func (IncidentType) TableName() string { return "incident_types" }

// BeforeCreate 生成主键
func (t *IncidentType) BeforeCreate(*gorm.DB) error { ensureID(&t.TypeID); return nil }
