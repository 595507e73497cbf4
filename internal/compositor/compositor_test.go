package compositor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"

	"github.com/nOngMolZ/esaraban-sub000/internal/entity"
	"github.com/nOngMolZ/esaraban-sub000/internal/storage"
)

// twoPagePDF 运行时组装一份最小的双页 PDF，交叉引用表按实际偏移生成
func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, 7)
	obj := func(n int, body string) {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, body)
	}
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, "<< /Type /Pages /Kids [3 0 R 5 0 R] /Count 2 >>")
	obj(3, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> /Contents 4 0 R >>")
	obj(4, "<< /Length 0 >>\nstream\n\nendstream")
	obj(5, "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Resources << >> /Contents 6 0 R >>")
	obj(6, "<< /Length 0 >>\nstream\n\nendstream")
	xref := buf.Len()
	buf.WriteString("xref\n0 7\n0000000000 65535 f \n")
	for i := 1; i <= 6; i++ {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size 7 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

func pageCount(t *testing.T, pdf []byte) int {
	t.Helper()
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	dims, err := api.PageDims(bytes.NewReader(pdf), conf)
	if err != nil {
		t.Fatalf("读取页面尺寸: %v", err)
	}
	return len(dims)
}

func TestCompositeBurnsArtifactsIntoRevision(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	ctx := context.Background()
	source := twoPagePDF(t)
	if err := store.Write(ctx, "documents/source.pdf", source, "application/pdf"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New(store, zap.NewNop())
	artifacts := []Artifact{
		{
			Image:    pngBytes(t, 100, 50),
			Position: entity.ArtifactPosition{X: 40, Y: 60, Width: 100, Height: 50, PageIndex: 1, ViewportWidth: 800, ViewportHeight: 600},
		},
		// 解码失败的素材只跳过，不中断整体合成
		{
			Image:    []byte("junk"),
			Position: entity.ArtifactPosition{X: 10, Y: 10, Width: 50, Height: 50, ViewportWidth: 800, ViewportHeight: 600},
		},
		// 页码越界同样只跳过
		{
			Image:    pngBytes(t, 80, 80),
			Position: entity.ArtifactPosition{X: 10, Y: 10, Width: 80, Height: 80, PageIndex: 9, PDFWidth: 595, PDFHeight: 842},
		},
	}

	newPath, err := c.Composite(ctx, "doc-3", "documents/source.pdf", artifacts)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if newPath == "documents/source.pdf" {
		t.Fatal("composite must emit a fresh revision path")
	}

	out, err := store.Read(ctx, newPath)
	if err != nil {
		t.Fatalf("read revision: %v", err)
	}
	if got := pageCount(t, out); got != 2 {
		t.Errorf("revision pages = %d, want 2", got)
	}

	// 源文件保持原样
	after, err := store.Read(ctx, "documents/source.pdf")
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	if !bytes.Equal(after, source) {
		t.Error("source bytes changed after compositing")
	}
}

func TestCompositeEmptyArtifactsEmitsRevision(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	ctx := context.Background()
	if err := store.Write(ctx, "documents/source.pdf", twoPagePDF(t), "application/pdf"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New(store, zap.NewNop())
	newPath, err := c.Composite(ctx, "doc-4", "documents/source.pdf", nil)
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if newPath == "documents/source.pdf" {
		t.Fatal("composite must emit a fresh revision path")
	}
	out, err := store.Read(ctx, newPath)
	if err != nil {
		t.Fatalf("read revision: %v", err)
	}
	if got := pageCount(t, out); got != 2 {
		t.Errorf("revision pages = %d, want 2", got)
	}
}

func TestCompositeMissingSourceIsFatal(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	c := New(store, zap.NewNop())

	_, err := c.Composite(context.Background(), "doc-1", "documents/missing.pdf", nil)
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
	var compErr *CompositionError
	if !errors.As(err, &compErr) {
		t.Fatalf("error type = %T, want *CompositionError", err)
	}
	if compErr.DocumentID != "doc-1" {
		t.Errorf("document id = %s, want doc-1", compErr.DocumentID)
	}
}

func TestCompositeCorruptSourceIsFatal(t *testing.T) {
	store := storage.NewLocalStore(t.TempDir())
	ctx := context.Background()
	if err := store.Write(ctx, "documents/broken.pdf", []byte("not a pdf"), "application/pdf"); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	c := New(store, zap.NewNop())
	_, err := c.Composite(ctx, "doc-2", "documents/broken.pdf", nil)
	var compErr *CompositionError
	if !errors.As(err, &compErr) {
		t.Fatalf("error = %v, want *CompositionError", err)
	}
}
