package convert

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

func TestSaveImagesNumbersPerPage(t *testing.T) {
	payload := testPNGBase64(t)
	resp := &mistral.OCRResponse{
		Pages: []mistral.Page{
			{Index: 0, Images: []mistral.Image{
				{ID: "a", ImageBase64: payload},
				{ID: "b", ImageBase64: payload},
			}},
			{Index: 1, Images: []mistral.Image{
				{ID: "c", ImageBase64: payload},
			}},
		},
	}

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n, err := saveImages(resp, dir, logger)
	if err != nil {
		t.Fatalf("saveImages() error: %v", err)
	}
	if n != 3 {
		t.Errorf("written = %d, want 3", n)
	}

	// numbering restarts on every page
	for _, want := range []string{"page_0_img_0.png", "page_0_img_1.png", "page_1_img_0.png"} {
		if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
			t.Errorf("missing %s: %v", want, err)
		}
	}
}

func TestSaveImagesSkipsUndecodable(t *testing.T) {
	resp := &mistral.OCRResponse{
		Pages: []mistral.Page{
			{Index: 0, Images: []mistral.Image{
				{ID: "bad", ImageBase64: "!!!"},
				{ID: "good", ImageBase64: testPNGBase64(t)},
			}},
		},
	}

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	n, err := saveImages(resp, dir, logger)
	if err != nil {
		t.Fatalf("saveImages() error: %v", err)
	}
	if n != 1 {
		t.Errorf("written = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "page_0_img_1.png")); err != nil {
		t.Errorf("surviving image not written under its own position: %v", err)
	}
}
