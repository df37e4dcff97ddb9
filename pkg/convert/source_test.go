package convert

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

func writeTestPDF(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		t.Fatalf("write test PDF: %v", err)
	}
	return path
}

func TestFetchSourceLocalFile(t *testing.T) {
	path := writeTestPDF(t, "report.pdf")

	src, err := fetchSource(context.Background(), "file://"+path, time.Second)
	if err != nil {
		t.Fatalf("fetchSource() error: %v", err)
	}
	defer src.remove()

	if src.base != "report" {
		t.Errorf("base = %q, want report", src.base)
	}
	got, err := os.ReadFile(src.path)
	if err != nil {
		t.Fatalf("read transient file: %v", err)
	}
	if string(got) != string(pdfBytes) {
		t.Errorf("transient file content differs from source")
	}
}

func TestFetchSourceDecodesEncodedNames(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "annual report.pdf")
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		t.Fatalf("write test PDF: %v", err)
	}

	ref := "file://" + filepath.Join(dir, "annual%20report.pdf")
	src, err := fetchSource(context.Background(), ref, time.Second)
	if err != nil {
		t.Fatalf("fetchSource() error: %v", err)
	}
	defer src.remove()

	if src.base != "annual report" {
		t.Errorf("base = %q, want %q", src.base, "annual report")
	}
}

func TestFetchSourceMissingLocalFile(t *testing.T) {
	ref := "file://" + filepath.Join(t.TempDir(), "nope.pdf")
	if _, err := fetchSource(context.Background(), ref, time.Second); err == nil {
		t.Fatal("fetchSource() succeeded on a missing file")
	}
}

func TestFetchSourceRejectsNonPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "page.pdf")
	if err := os.WriteFile(path, []byte("<html><body>not found</body></html>"), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	_, err := fetchSource(context.Background(), "file://"+path, time.Second)
	if err == nil {
		t.Fatal("fetchSource() accepted non-PDF bytes")
	}
	if !strings.Contains(err.Error(), "does not look like a PDF") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFetchSourceHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(pdfBytes)
	}))
	defer srv.Close()

	src, err := fetchSource(context.Background(), srv.URL+"/docs/paper.pdf", 5*time.Second)
	if err != nil {
		t.Fatalf("fetchSource() error: %v", err)
	}
	defer src.remove()

	if src.base != "paper" {
		t.Errorf("base = %q, want paper", src.base)
	}
}

func TestFetchSourceHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	if _, err := fetchSource(context.Background(), srv.URL+"/missing.pdf", 5*time.Second); err == nil {
		t.Fatal("fetchSource() succeeded on a 404 response")
	}
}

func TestSourceRemove(t *testing.T) {
	path := writeTestPDF(t, "gone.pdf")
	src, err := fetchSource(context.Background(), "file://"+path, time.Second)
	if err != nil {
		t.Fatalf("fetchSource() error: %v", err)
	}

	transient := src.path
	src.remove()
	if _, err := os.Stat(transient); !os.IsNotExist(err) {
		t.Errorf("transient file still exists after remove()")
	}
	// second call must not panic or touch anything
	src.remove()
}
