package compositor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// ImageDecodeError 素材图像无法解码
type ImageDecodeError struct {
	Err error
}

func (e *ImageDecodeError) Error() string {
	return fmt.Sprintf("素材图像解码失败: %v", e.Err)
}

func (e *ImageDecodeError) Unwrap() error {
	return e.Err
}

// DecodeRaster 解码素材图像
//
// 输入可以是 data-URI、纯 base64 文本或原始图像字节，
// 统一重绘到带透明通道的画布上，保证 JPEG 等无 alpha 的
// 来源也能正确叠加。
func DecodeRaster(data []byte) (*image.NRGBA, error) {
	raw, err := rawImageBytes(data)
	if err != nil {
		return nil, &ImageDecodeError{Err: err}
	}
	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, &ImageDecodeError{Err: err}
	}
	bounds := src.Bounds()
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(canvas, canvas.Bounds(), src, bounds.Min, xdraw.Over)
	return canvas, nil
}

// rawImageBytes 剥离 data-URI 前缀并按需做 base64 解码
func rawImageBytes(data []byte) ([]byte, error) {
	if bytes.HasPrefix(data, []byte("data:")) {
		idx := bytes.IndexByte(data, ',')
		if idx < 0 {
			return nil, fmt.Errorf("data-URI 缺少内容分隔符")
		}
		return base64.StdEncoding.DecodeString(string(data[idx+1:]))
	}
	// 原始字节直接携带图像魔数时无需解码
	if looksLikeImage(data) {
		return data, nil
	}
	if decoded, err := base64.StdEncoding.DecodeString(string(bytes.TrimSpace(data))); err == nil {
		return decoded, nil
	}
	return data, nil
}

func looksLikeImage(data []byte) bool {
	if len(data) < 4 {
		return false
	}
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return true
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return true
	case bytes.HasPrefix(data, []byte("GIF8")):
		return true
	}
	return false
}

// renderPNG 将素材重采样到目标点尺寸并编码为PNG
//
// 输出按 1 像素 = 1 点重采样，叠加时无需再缩放。
func renderPNG(src *image.NRGBA, rect Rect) ([]byte, error) {
	w := int(rect.W + 0.5)
	h := int(rect.H + 0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, fmt.Errorf("素材重采样编码失败: %w", err)
	}
	return buf.Bytes(), nil
}
