package model

import (
	"time"

	"github.com/google/uuid"
)

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ensureID 主键为空时生成 UUID。主键由应用生成，数据库侧不依赖 gen_random_uuid()。
func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}
