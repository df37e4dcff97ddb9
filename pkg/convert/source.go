package convert

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/text/unicode/norm"
)

// source is the transient local copy of the input document.
type source struct {
	path string
	base string // document stem, used to derive output names
}

// remove deletes the transient file. Safe to call more than once.
func (s *source) remove() {
	if s.path != "" {
		os.Remove(s.path)
		s.path = ""
	}
}

// fetchSource materializes the referenced document as a transient local file.
// References with a file:// scheme are copied from disk; anything else is
// fetched over HTTP with a bounded timeout. The bytes are sniffed before the
// source is accepted, so an HTML error page or a wrong link fails here
// instead of at the OCR service.
func fetchSource(ctx context.Context, ref string, timeout time.Duration) (*source, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse reference %q: %w", ref, err)
	}
	decodedPath, err := url.PathUnescape(parsed.Path)
	if err != nil {
		decodedPath = parsed.Path
	}

	// percent-decoded names can arrive in decomposed form; normalize so the
	// derived output names are stable
	base := strings.TrimSuffix(filepath.Base(decodedPath), filepath.Ext(decodedPath))
	base = norm.NFC.String(base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}

	tmp, err := os.CreateTemp("", "ocrdoc-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	src := &source{path: tmp.Name(), base: base}

	var copyErr error
	if parsed.Scheme == "file" {
		copyErr = copyLocal(decodedPath, tmp)
	} else {
		copyErr = download(ctx, ref, tmp, timeout)
	}
	closeErr := tmp.Close()
	if copyErr != nil {
		src.remove()
		return nil, copyErr
	}
	if closeErr != nil {
		src.remove()
		return nil, fmt.Errorf("write temp file: %w", closeErr)
	}

	mt, err := mimetype.DetectFile(src.path)
	if err != nil {
		src.remove()
		return nil, fmt.Errorf("inspect fetched file: %w", err)
	}
	if !mt.Is("application/pdf") {
		src.remove()
		return nil, fmt.Errorf("%s does not look like a PDF (detected %s)", ref, mt)
	}
	return src, nil
}

func copyLocal(path string, dst io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open local file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copy local file %s: %w", path, err)
	}
	return nil
}

func download(ctx context.Context, ref string, dst io.Writer, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return fmt.Errorf("build fetch request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fetch %s: unexpected status %s", ref, resp.Status)
	}
	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("read response of %s: %w", ref, err)
	}
	return nil
}
