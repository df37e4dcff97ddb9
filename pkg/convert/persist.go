package convert

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ocrtools/ocrdoc/pkg/mdimage"
	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

// saveJSON writes v as indented JSON with HTML escaping disabled, so
// non-ASCII characters and markup in the recognized text survive verbatim.
// Parent directories are created as needed.
func saveJSON(v any, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	enc := json.NewEncoder(f)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// saveFile writes data to path, creating parent directories as needed.
func saveFile(data []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// saveImages writes every embedded page image as its own file named
// page_<page>_img_<n>.<ext>, numbered from zero within each page. Images
// that fail to decode are logged and skipped. Returns the number of files
// written.
func saveImages(resp *mistral.OCRResponse, dir string, logger *slog.Logger) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create images directory: %w", err)
	}

	written := 0
	for _, page := range resp.Pages {
		for i, img := range page.Images {
			payload := img.ImageBase64
			if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
				payload = payload[i+1:]
			}
			data, err := base64.StdEncoding.DecodeString(payload)
			if err != nil {
				logger.Error("skipping image", "id", img.ID, "page", page.Index, "error", err)
				continue
			}
			format, err := mdimage.DetectFormat(data)
			if err != nil {
				logger.Error("skipping image", "id", img.ID, "page", page.Index, "error", err)
				continue
			}
			name := fmt.Sprintf("page_%d_img_%d%s", page.Index, i, extensionFor(format))
			if err := saveFile(data, filepath.Join(dir, name)); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}

func extensionFor(format string) string {
	switch format {
	case "JPEG", "JPG":
		return ".jpg"
	case "GIF":
		return ".gif"
	case "WEBP":
		return ".webp"
	default:
		return ".png"
	}
}
