package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ArtifactPosition 签名/印章的放置坐标（前端视口像素坐标系，左上角为原点）
// 视口锚定（签名）时 ViewportWidth/ViewportHeight 必填；
// 比例锚定（印章）时 PDFWidth/PDFHeight 必填。
type ArtifactPosition struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	PageIndex int     `json:"page_index"`
	Rotation  float64 `json:"rotation"`

	ViewportWidth  float64 `json:"viewport_width,omitempty"`
	ViewportHeight float64 `json:"viewport_height,omitempty"`

	PDFWidth  float64 `json:"pdf_width,omitempty"`
	PDFHeight float64 `json:"pdf_height,omitempty"`
}

func (p ArtifactPosition) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *ArtifactPosition) Scan(value interface{}) error {
	if value == nil {
		*p = ArtifactPosition{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("failed to scan ArtifactPosition: %v", value)
		}
	}
	return json.Unmarshal(bytes, p)
}

// ArtifactItem 单个已落章的痕迹（审计用，落库后只读）
type ArtifactItem struct {
	Ref      string           `json:"ref"`
	Position ArtifactPosition `json:"position"`
}

// ArtifactData 审批记录上保存的痕迹集合
// 结构化类型，仅在存储边界做JSON序列化。
type ArtifactData struct {
	Items []ArtifactItem `json:"items"`
}

func (d ArtifactData) Value() (driver.Value, error) {
	if len(d.Items) == 0 {
		return nil, nil
	}
	return json.Marshal(d)
}

func (d *ArtifactData) Scan(value interface{}) error {
	if value == nil {
		*d = ArtifactData{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			return fmt.Errorf("failed to scan ArtifactData: %v", value)
		}
	}
	return json.Unmarshal(bytes, d)
}
