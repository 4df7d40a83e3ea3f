package model

import "time"

// BaseModel 通用字段，业务主键使用外部生成的字符串 id
type BaseModel struct {
	Id        string    `gorm:"column:id;primaryKey;size:64" json:"id"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
