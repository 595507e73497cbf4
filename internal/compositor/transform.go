package compositor

import (
	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

// PageSize PDF页面尺寸，单位为点
type PageSize struct {
	Width  float64
	Height float64
}

// Rect 页面坐标系内的落章区域
//
// 原点在页面左上角，X 向右、Y 向下，单位为点。
type Rect struct {
	X        float64
	Y        float64
	W        float64
	H        float64
	Rotation float64
}

// Transform 将前端视口坐标换算为页面坐标
//
// 位置带 ViewportWidth 时按视口比例换算，并用素材原始宽高比
// 重算高度；带 PDFWidth 时直接按页面比例缩放。换算结果会被
// 夹取到页面范围内：坐标不足补零，宽高超出则收缩。区域收缩
// 到零时返回 false，调用方应跳过该素材。
func Transform(pos entity.ArtifactPosition, page PageSize, imgW, imgH int) (Rect, bool) {
	var rect Rect
	rect.Rotation = pos.Rotation

	switch {
	case pos.ViewportWidth > 0 && pos.ViewportHeight > 0:
		rx := page.Width / pos.ViewportWidth
		ry := page.Height / pos.ViewportHeight
		rect.X = pos.X * rx
		rect.Y = pos.Y * ry
		rect.W = pos.Width * rx
		// 高度由素材宽高比推出，避免视口与页面比例不一致时拉伸
		if imgW > 0 {
			rect.H = rect.W * float64(imgH) / float64(imgW)
		} else {
			rect.H = pos.Height * ry
		}
	case pos.PDFWidth > 0 && pos.PDFHeight > 0:
		rx := page.Width / pos.PDFWidth
		ry := page.Height / pos.PDFHeight
		rect.X = pos.X * rx
		rect.Y = pos.Y * ry
		rect.W = pos.Width * rx
		rect.H = pos.Height * ry
	default:
		// 未携带参照尺寸，按已是页面坐标处理
		rect.X = pos.X
		rect.Y = pos.Y
		rect.W = pos.Width
		rect.H = pos.Height
	}

	return clamp(rect, page)
}

// clamp 将区域夹取到页面范围内
func clamp(rect Rect, page PageSize) (Rect, bool) {
	if rect.X < 0 {
		rect.X = 0
	}
	if rect.Y < 0 {
		rect.Y = 0
	}
	if rect.X+rect.W > page.Width {
		rect.W = page.Width - rect.X
	}
	if rect.Y+rect.H > page.Height {
		rect.H = page.Height - rect.Y
	}
	if rect.W <= 0 || rect.H <= 0 {
		return rect, false
	}
	return rect, true
}
