package entity

import "time"

// CatalogStamp 印章库条目，ImagePath 指向存储层中的章面图片
type CatalogStamp struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	ImagePath string    `json:"image_path" gorm:"size:500;not null"`
	// default 标签会吞掉 false 零值，停用章必须原样落库
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CatalogStamp) TableName() string {
	return "catalog_stamps"
}

// StampPlacement 盖章落位记录，只增不删；合成引擎绝不回写
type StampPlacement struct {
	ID             string           `json:"id" gorm:"primaryKey;size:36"`
	DocumentID     string           `json:"document_id" gorm:"size:36;not null;index"`
	CatalogStampID string           `json:"catalog_stamp_id" gorm:"size:36;not null"`
	PlacedBy       string           `json:"placed_by" gorm:"size:36;not null"`
	PageNumber     int              `json:"page_number" gorm:"not null"`
	PositionRect   ArtifactPosition `json:"position_rect" gorm:"type:jsonb"`
	CreatedAt      time.Time        `json:"created_at"`

	// 关联
	Stamp *CatalogStamp `json:"stamp,omitempty" gorm:"foreignKey:CatalogStampID"`
}

func (StampPlacement) TableName() string {
	return "stamp_placements"
}
