package compositor

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"go.uber.org/zap"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/storage"
)

// Artifact 待叠加的素材（签名或印章）
type Artifact struct {
	Image    []byte
	Position entity.ArtifactPosition
}

// CompositionError 合成过程的致命错误
//
// 源文件缺失或输出写入失败时返回，单个素材的失败不会触发。
type CompositionError struct {
	DocumentID string
	Err        error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("公文 %s 合成失败: %v", e.DocumentID, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// Compositor 页面合成器
//
// 将签名、印章素材永久烧录进公文页面，每次合成都产出
// 全新的文件版本，源文件保持不变。
type Compositor struct {
	store storage.Store
	log   *zap.Logger
}

func New(store storage.Store, log *zap.Logger) *Compositor {
	return &Compositor{store: store, log: log}
}

// Composite 将素材叠加到公文并写出新版本
//
// 逐个素材独立处理：解码失败、页码越界、区域收缩为空
// 都只跳过该素材并记录日志，整体合成照常完成。素材集为空
// 时仍然产出一份新版本。返回新版本的存储路径。
func (c *Compositor) Composite(ctx context.Context, documentID, sourcePath string, artifacts []Artifact) (string, error) {
	src, err := c.store.Read(ctx, sourcePath)
	if err != nil {
		return "", &CompositionError{DocumentID: documentID, Err: err}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	dims, err := api.PageDims(bytes.NewReader(src), conf)
	if err != nil {
		return "", &CompositionError{DocumentID: documentID, Err: fmt.Errorf("读取页面尺寸失败: %w", err)}
	}

	out := src
	for i, artifact := range artifacts {
		stamped, err := c.apply(out, artifact, dims, conf)
		if err != nil {
			c.log.Warn("素材叠加失败，已跳过",
				zap.String("document_id", documentID),
				zap.Int("artifact_index", i),
				zap.Int("page_index", artifact.Position.PageIndex),
				zap.Error(err))
			continue
		}
		out = stamped
	}

	newPath := storage.RevisionPath(documentID)
	if err := c.store.Write(ctx, newPath, out, "application/pdf"); err != nil {
		return "", &CompositionError{DocumentID: documentID, Err: err}
	}
	return newPath, nil
}

// apply 将单个素材叠加到目标页
func (c *Compositor) apply(pdf []byte, artifact Artifact, dims []types.Dim, conf *model.Configuration) ([]byte, error) {
	pos := artifact.Position
	if pos.PageIndex < 0 || pos.PageIndex >= len(dims) {
		return nil, fmt.Errorf("页码越界: %d（共 %d 页）", pos.PageIndex, len(dims))
	}
	page := PageSize{Width: dims[pos.PageIndex].Width, Height: dims[pos.PageIndex].Height}

	img, err := DecodeRaster(artifact.Image)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	rect, ok := Transform(pos, page, bounds.Dx(), bounds.Dy())
	if !ok {
		return nil, fmt.Errorf("素材区域在页面外")
	}

	rendered, err := renderPNG(img, rect)
	if err != nil {
		return nil, err
	}

	// 页面坐标原点在左上角，叠加层锚点在左下角，这里换算偏移
	offX := rect.X
	offY := page.Height - rect.Y - rect.H
	desc := fmt.Sprintf("pos:bl, off:%.2f %.2f, scale:1 abs, rot:%.2f, op:1", offX, offY, -rect.Rotation)

	wm, err := api.ImageWatermarkForReader(bytes.NewReader(rendered), desc, true, false, types.POINTS)
	if err != nil {
		return nil, fmt.Errorf("构建叠加层失败: %w", err)
	}

	var buf bytes.Buffer
	pageNo := pos.PageIndex + 1
	if err := api.AddWatermarksMap(bytes.NewReader(pdf), &buf, map[int]*model.Watermark{pageNo: wm}, conf); err != nil {
		return nil, fmt.Errorf("叠加素材失败: %w", err)
	}
	return buf.Bytes(), nil
}
