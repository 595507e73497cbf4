package compositor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeRasterRawPNG(t *testing.T) {
	img, err := DecodeRaster(pngBytes(t, 40, 20))
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", img.Bounds())
	}
}

func TestDecodeRasterDataURI(t *testing.T) {
	raw := pngBytes(t, 10, 10)
	uri := "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	img, err := DecodeRaster([]byte(uri))
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}
	if img.Bounds().Dx() != 10 || img.Bounds().Dy() != 10 {
		t.Errorf("bounds = %v, want 10x10", img.Bounds())
	}
}

func TestDecodeRasterBareBase64(t *testing.T) {
	raw := pngBytes(t, 8, 8)
	encoded := base64.StdEncoding.EncodeToString(raw)

	img, err := DecodeRaster([]byte(encoded))
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("bounds = %v, want 8x8", img.Bounds())
	}
}

func TestDecodeRasterJPEGGainsAlpha(t *testing.T) {
	// JPEG 没有透明通道，归一化后的画布必须带 alpha
	src := image.NewRGBA(image.Rect(0, 0, 6, 6))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}

	img, err := DecodeRaster(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}
	if _, _, _, a := img.At(0, 0).RGBA(); a == 0 {
		t.Error("normalized canvas lost opaque pixels")
	}
}

func TestDecodeRasterInvalid(t *testing.T) {
	_, err := DecodeRaster([]byte("definitely not an image"))
	if err == nil {
		t.Fatal("expected decode error")
	}
	var decodeErr *ImageDecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("error type = %T, want *ImageDecodeError", err)
	}
}

func TestDecodeRasterMalformedDataURI(t *testing.T) {
	_, err := DecodeRaster([]byte("data:image/png;base64"))
	var decodeErr *ImageDecodeError
	if !errors.As(err, &decodeErr) {
		t.Errorf("error = %v, want *ImageDecodeError", err)
	}
}

func TestRenderPNGResamples(t *testing.T) {
	img, err := DecodeRaster(pngBytes(t, 100, 50))
	if err != nil {
		t.Fatalf("DecodeRaster: %v", err)
	}

	out, err := renderPNG(img, Rect{W: 50, H: 25})
	if err != nil {
		t.Fatalf("renderPNG: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if decoded.Bounds().Dx() != 50 || decoded.Bounds().Dy() != 25 {
		t.Errorf("output bounds = %v, want 50x25", decoded.Bounds())
	}
}
