package model

import "gorm.io/datatypes"

// ReleaseUpdate 发布动态，市场首页的更新公告
type ReleaseUpdate struct {
	BaseModel
	Title     string         `gorm:"column:title" json:"title"`
	Timestamp string         `gorm:"column:timestamp" json:"timestamp"` // 展示用的日期文本
	Summary   string         `gorm:"column:summary;type:text" json:"summary"`
	Tags      datatypes.JSON `gorm:"column:tags;type:json" json:"tags"`
	Link      string         `gorm:"column:link" json:"link"`
}

func (ReleaseUpdate) TableName() string {
	return "t_release_update"
}

// ReleaseUpdateReq 创建或更新发布动态
type ReleaseUpdateReq struct {
	Title     string   `json:"title"`
	Timestamp string   `json:"timestamp"`
	Summary   string   `json:"summary"`
	Tags      []string `json:"tags"`
	Link      string   `json:"link"`
}
