package compositor

import (
	"math"
	"testing"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestTransformViewportAnchored(t *testing.T) {
	// 800x600 视口映射到 400x300 的页面，等比缩小一半
	pos := entity.ArtifactPosition{
		X: 100, Y: 80, Width: 200, Height: 100,
		ViewportWidth: 800, ViewportHeight: 600,
	}
	page := PageSize{Width: 400, Height: 300}

	rect, ok := Transform(pos, page, 200, 100)
	if !ok {
		t.Fatal("Transform dropped an in-bounds artifact")
	}
	if !almostEqual(rect.X, 50) || !almostEqual(rect.Y, 40) {
		t.Errorf("position = (%v, %v), want (50, 40)", rect.X, rect.Y)
	}
	if !almostEqual(rect.W, 100) || !almostEqual(rect.H, 50) {
		t.Errorf("size = (%v, %v), want (100, 50)", rect.W, rect.H)
	}
}

func TestTransformAspectPreservation(t *testing.T) {
	// 100x50 的签名铺在 800x600 视口上，落到 210x148.5 的页面后
	// 高度必须仍是宽度的一半，不随视口与页面比例差拉伸
	pos := entity.ArtifactPosition{
		X: 0, Y: 0, Width: 100, Height: 50,
		ViewportWidth: 800, ViewportHeight: 600,
	}
	page := PageSize{Width: 210, Height: 148.5}

	rect, ok := Transform(pos, page, 100, 50)
	if !ok {
		t.Fatal("Transform dropped an in-bounds artifact")
	}
	if !almostEqual(rect.H, rect.W*0.5) {
		t.Errorf("height = %v, want %v (width * 0.5)", rect.H, rect.W*0.5)
	}
}

func TestTransformScaleAnchored(t *testing.T) {
	// 印章坐标按调用方视角的页面尺寸锚定，宽高都直接缩放
	pos := entity.ArtifactPosition{
		X: 50, Y: 50, Width: 80, Height: 80,
		PDFWidth: 595, PDFHeight: 842,
	}
	page := PageSize{Width: 1190, Height: 1684}

	rect, ok := Transform(pos, page, 300, 300)
	if !ok {
		t.Fatal("Transform dropped an in-bounds artifact")
	}
	if !almostEqual(rect.X, 100) || !almostEqual(rect.Y, 100) {
		t.Errorf("position = (%v, %v), want (100, 100)", rect.X, rect.Y)
	}
	if !almostEqual(rect.W, 160) || !almostEqual(rect.H, 160) {
		t.Errorf("size = (%v, %v), want (160, 160)", rect.W, rect.H)
	}
}

func TestTransformClampNegativeOrigin(t *testing.T) {
	pos := entity.ArtifactPosition{
		X: -20, Y: -10, Width: 100, Height: 50,
		PDFWidth: 595, PDFHeight: 842,
	}
	page := PageSize{Width: 595, Height: 842}

	rect, ok := Transform(pos, page, 100, 50)
	if !ok {
		t.Fatal("Transform dropped a clampable artifact")
	}
	if rect.X != 0 || rect.Y != 0 {
		t.Errorf("origin = (%v, %v), want (0, 0)", rect.X, rect.Y)
	}
}

func TestTransformClampOverflow(t *testing.T) {
	// 超出右下边界时收缩宽高而不是平移
	pos := entity.ArtifactPosition{
		X: 550, Y: 800, Width: 100, Height: 100,
		PDFWidth: 595, PDFHeight: 842,
	}
	page := PageSize{Width: 595, Height: 842}

	rect, ok := Transform(pos, page, 100, 100)
	if !ok {
		t.Fatal("Transform dropped a clampable artifact")
	}
	if !almostEqual(rect.X, 550) || !almostEqual(rect.Y, 800) {
		t.Errorf("origin moved to (%v, %v), want (550, 800)", rect.X, rect.Y)
	}
	if !almostEqual(rect.X+rect.W, page.Width) {
		t.Errorf("x+w = %v, want %v", rect.X+rect.W, page.Width)
	}
	if !almostEqual(rect.Y+rect.H, page.Height) {
		t.Errorf("y+h = %v, want %v", rect.Y+rect.H, page.Height)
	}
}

func TestTransformDropsOffPageArtifact(t *testing.T) {
	pos := entity.ArtifactPosition{
		X: 700, Y: 100, Width: 100, Height: 50,
		PDFWidth: 595, PDFHeight: 842,
	}
	page := PageSize{Width: 595, Height: 842}

	if _, ok := Transform(pos, page, 100, 50); ok {
		t.Error("Transform kept an artifact entirely outside the page")
	}
}

func TestTransformWithoutReferenceDims(t *testing.T) {
	// 没有锚定尺寸时按页面坐标原样使用
	pos := entity.ArtifactPosition{X: 10, Y: 20, Width: 30, Height: 40}
	page := PageSize{Width: 595, Height: 842}

	rect, ok := Transform(pos, page, 30, 40)
	if !ok {
		t.Fatal("Transform dropped an in-bounds artifact")
	}
	if !almostEqual(rect.X, 10) || !almostEqual(rect.Y, 20) ||
		!almostEqual(rect.W, 30) || !almostEqual(rect.H, 40) {
		t.Errorf("rect = %+v, want passthrough", rect)
	}
}

func TestTransformCarriesRotation(t *testing.T) {
	pos := entity.ArtifactPosition{
		X: 10, Y: 10, Width: 50, Height: 50, Rotation: 45,
		PDFWidth: 595, PDFHeight: 842,
	}
	page := PageSize{Width: 595, Height: 842}

	rect, ok := Transform(pos, page, 50, 50)
	if !ok {
		t.Fatal("Transform dropped an in-bounds artifact")
	}
	if rect.Rotation != 45 {
		t.Errorf("rotation = %v, want 45", rect.Rotation)
	}
}
