// Package convert runs the PDF-to-document conversion pipeline: resolve the
// source reference to local bytes, hand them to the OCR gateway, reassemble
// the per-page result into one markdown document, and persist the rendered
// document plus the raw OCR result as JSON.
//
// Execution is strictly sequential and single-threaded; the first error of
// any stage aborts the run. The transient local copy of the source never
// outlives the run, whichever way it ends.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ocrtools/ocrdoc/pkg/docgen"
	"github.com/ocrtools/ocrdoc/pkg/mdimage"
	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

// RunResult records what a conversion run produced.
type RunResult struct {
	DocumentPath string
	JSONPath     string
	MarkdownPath string
	HTMLPath     string
	Pages        int
	ImageFiles   int
}

// Run executes the full pipeline for one document reference.
func Run(ctx context.Context, gw mistral.Gateway, ref string, cfg Config) (*RunResult, error) {
	logger := cfg.logger()

	logger.Info("starting processing", "ref", ref)
	src, err := fetchSource(ctx, ref, cfg.fetchTimeout())
	if err != nil {
		return nil, err
	}
	defer src.remove()

	data, err := os.ReadFile(src.path)
	if err != nil {
		return nil, fmt.Errorf("read fetched file: %w", err)
	}

	logger.Info("uploading document", "name", src.base, "bytes", len(data))
	fileID, err := gw.UploadPDF(ctx, src.base, data)
	if err != nil {
		return nil, fmt.Errorf("upload document: %w", err)
	}
	defer func() {
		// best effort; the upload expires on the service side anyway
		if err := gw.DeleteFile(ctx, fileID); err != nil {
			logger.Warn("could not delete uploaded file", "file_id", fileID, "error", err)
		}
	}()

	signedURL, err := gw.SignedURL(ctx, fileID, cfg.expiryDays())
	if err != nil {
		return nil, fmt.Errorf("sign upload: %w", err)
	}

	logger.Info("running OCR", "model", cfg.Model)
	resp, err := gw.ProcessOCR(ctx, signedURL)
	if err != nil {
		return nil, fmt.Errorf("process OCR: %w", err)
	}
	logger.Info("OCR completed", "pages", len(resp.Pages))

	res := &RunResult{Pages: len(resp.Pages)}

	res.JSONPath = filepath.Join(cfg.JSONDir, src.base+".json")
	if err := saveJSON(resp, res.JSONPath); err != nil {
		return nil, err
	}
	logger.Info("JSON data saved", "path", res.JSONPath)

	combined := mdimage.Combined(resp)

	docCfg := docgen.DefaultConfig()
	docCfg.Logger = logger
	doc, err := docgen.RenderPDF(combined, docCfg)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	res.DocumentPath = filepath.Join(cfg.DocDir, src.base+"_ocr_processed.pdf")
	if err := saveFile(doc, res.DocumentPath); err != nil {
		return nil, err
	}
	logger.Info("document saved", "path", res.DocumentPath)

	if cfg.MarkdownPath != "" {
		if err := saveFile([]byte(combined), cfg.MarkdownPath); err != nil {
			return nil, err
		}
		res.MarkdownPath = cfg.MarkdownPath
		logger.Info("markdown saved", "path", cfg.MarkdownPath)
	}
	if cfg.HTMLPath != "" {
		page, err := docgen.RenderHTML(combined)
		if err != nil {
			return nil, fmt.Errorf("render HTML: %w", err)
		}
		if err := saveFile(page, cfg.HTMLPath); err != nil {
			return nil, err
		}
		res.HTMLPath = cfg.HTMLPath
		logger.Info("HTML saved", "path", cfg.HTMLPath)
	}
	if cfg.ImagesDir != "" {
		n, err := saveImages(resp, cfg.ImagesDir, logger)
		if err != nil {
			return nil, err
		}
		res.ImageFiles = n
		logger.Info("images extracted", "count", n, "dir", cfg.ImagesDir)
	}

	logger.Info("processing finished", "document", res.DocumentPath, "json", res.JSONPath)
	return res, nil
}
