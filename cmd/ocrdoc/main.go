// ocrdoc is a command-line tool for converting PDF documents into editable
// formats using the Mistral OCR service.
//
// The tool uploads the PDF to the service, requests a signed access URL, runs
// OCR against it and reassembles the per-page markdown result locally into a
// paginated PDF with recognized text and inline images. The raw OCR result is
// saved alongside as JSON.
//
// Usage:
//
//	ocrdoc [options] <pdf-path-or-url>
//
// The reference is either a local path prefixed with file:// or an HTTP(S)
// URL. Default outputs:
//
//	docs/processed/<base>_ocr_processed.pdf   rendered document
//	docs/JSON_data/<base>.json                raw OCR result
//
// Options:
//
//	-config string    Path to a YAML config file (model, endpoint, output dirs)
//	-model string     OCR model override
//	-markdown string  Also save the combined markdown to this path
//	-html string      Also save a standalone HTML page to this path
//	-images string    Also extract embedded images into this directory
//	-quiet            Only log warnings and errors
//
// Authentication:
//
// The tool reads the API key from the MISTRAL_API_KEY environment variable;
// a .env file in the working directory is loaded when present.
//
// Examples:
//
//	export MISTRAL_API_KEY=...
//	ocrdoc "file:///path/to/document.pdf"
//	ocrdoc -model mistral-ocr-latest -html out/document.html https://example.com/paper.pdf
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ocrtools/ocrdoc/pkg/convert"
	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("ocrdoc", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a YAML config file")
	model := fs.String("model", "", "OCR model override")
	markdownPath := fs.String("markdown", "", "Also save the combined markdown to this path")
	htmlPath := fs.String("html", "", "Also save a standalone HTML page to this path")
	imagesDir := fs.String("images", "", "Also extract embedded images into this directory")
	quiet := fs.Bool("quiet", false, "Only log warnings and errors")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options] <pdf-path-or-url>\n\n", fs.Name())
		fmt.Fprintln(stderr, "The reference is either a file:// path or an HTTP(S) URL of a PDF document.")
		fmt.Fprintln(stderr, "Options:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return fmt.Errorf("expected exactly one document reference, got %d", fs.NArg())
	}
	ref := fs.Arg(0)

	level := slog.LevelInfo
	if *quiet {
		level = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	cfg := convert.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = convert.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if *model != "" {
		cfg.Model = *model
	}
	cfg.MarkdownPath = *markdownPath
	cfg.HTMLPath = *htmlPath
	cfg.ImagesDir = *imagesDir
	cfg.Logger = logger

	apiKey, err := convert.APIKeyFromEnv()
	if err != nil {
		return err
	}

	opts := []mistral.Option{}
	if cfg.BaseURL != "" {
		opts = append(opts, mistral.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		opts = append(opts, mistral.WithModel(cfg.Model))
	}
	client := mistral.NewClient(apiKey, opts...)

	res, err := convert.Run(context.Background(), client, ref, cfg)
	if err != nil {
		return err
	}

	fmt.Println(res.DocumentPath)
	return nil
}
