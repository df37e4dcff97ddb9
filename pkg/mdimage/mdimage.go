// Package mdimage assembles OCR page markup into a single markdown document
// and understands the embedded-image tags that assembly produces.
//
// The OCR service references each extracted image from the page markdown with
// a self-referential placeholder ![id](id). Assembly replaces those
// placeholders with inline data URIs so the document carries its images, and
// the tag scanner lets renderers find and decode them again.
package mdimage

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/ocrtools/ocrdoc/pkg/mistral"
)

// InlineImages replaces each placeholder ![id](id) whose id has an entry in
// images with an inline reference carrying the same payload. Each occurrence
// is replaced exactly once; placeholders without a matching id are left
// untouched. Payloads that already are data URIs are used verbatim.
func InlineImages(markdown string, images map[string]string) string {
	for id, payload := range images {
		placeholder := fmt.Sprintf("![%s](%s)", id, id)
		var inline string
		if strings.HasPrefix(payload, "data:") {
			inline = fmt.Sprintf("![%s](%s)", id, payload)
		} else {
			inline = fmt.Sprintf("![%s](data:image/png;base64,%s)", id, payload)
		}
		markdown = strings.ReplaceAll(markdown, placeholder, inline)
	}
	return markdown
}

// Combined assembles the whole document: every page's markup with its images
// inlined, joined in page order with a blank line between pages.
func Combined(resp *mistral.OCRResponse) string {
	parts := make([]string, 0, len(resp.Pages))
	for _, page := range resp.Pages {
		images := make(map[string]string, len(page.Images))
		for _, img := range page.Images {
			images[img.ID] = img.ImageBase64
		}
		parts = append(parts, InlineImages(page.Markdown, images))
	}
	return strings.Join(parts, "\n\n")
}

// Tag is one embedded-image reference found in a line of assembled markdown:
// ![alt](data:image/<subtype>;base64,<payload>).
type Tag struct {
	Alt     string
	Subtype string // png, jpg, jpeg or gif
	Payload string // base64 payload as it appears in the tag
	Start   int    // byte offset of the opening '!'
	End     int    // byte offset just past the closing ')'
}

const (
	tagOpen     = "!["
	dataPrefix  = "data:image/"
	base64Infix = ";base64,"
)

var imageSubtypes = []string{"png", "jpg", "jpeg", "gif"}

// ScanTags finds every embedded-image tag in line, in order of appearance.
// It is a single forward pass: a candidate that fails the grammar is
// abandoned and scanning resumes right after its opening marker, so runtime
// stays linear in the line length.
func ScanTags(line string) []Tag {
	var tags []Tag
	i := 0
	for i < len(line) {
		open := strings.Index(line[i:], tagOpen)
		if open < 0 {
			break
		}
		start := i + open
		if tag, ok := parseTag(line, start); ok {
			tags = append(tags, tag)
			i = tag.End
		} else {
			i = start + 1
		}
	}
	return tags
}

// parseTag attempts to read one full tag starting at the '!' at offset start.
func parseTag(line string, start int) (Tag, bool) {
	p := start + len(tagOpen)

	altEnd := strings.Index(line[p:], "](")
	if altEnd < 0 {
		return Tag{}, false
	}
	alt := line[p : p+altEnd]
	p += altEnd + 2

	// tolerate whitespace between '(' and the data URI
	for p < len(line) && (line[p] == ' ' || line[p] == '\t') {
		p++
	}
	if !strings.HasPrefix(line[p:], dataPrefix) {
		return Tag{}, false
	}
	p += len(dataPrefix)

	var subtype string
	for _, s := range imageSubtypes {
		if strings.HasPrefix(line[p:], s+base64Infix) {
			subtype = s
			break
		}
	}
	if subtype == "" {
		return Tag{}, false
	}
	p += len(subtype) + len(base64Infix)

	closing := strings.IndexByte(line[p:], ')')
	if closing < 0 {
		return Tag{}, false
	}
	payload := line[p : p+closing]

	return Tag{
		Alt:     alt,
		Subtype: subtype,
		Payload: payload,
		Start:   start,
		End:     p + closing + 1,
	}, true
}

// StripTags removes every tag from line and returns the residual text with
// surrounding whitespace trimmed.
func StripTags(line string, tags []Tag) string {
	if len(tags) == 0 {
		return strings.TrimSpace(line)
	}
	var b strings.Builder
	pos := 0
	for _, t := range tags {
		b.WriteString(line[pos:t.Start])
		pos = t.End
	}
	b.WriteString(line[pos:])
	return strings.TrimSpace(b.String())
}

// Decode returns the raw image bytes of the tag payload together with the
// detected format name ("PNG", "JPEG", ...). Corrupted base64 and byte
// sequences that no registered decoder recognizes both fail; the caller
// decides whether that is fatal.
func (t Tag) Decode() ([]byte, string, error) {
	payload := t.Payload
	// a full data URI can end up in the payload slot when a placeholder was
	// inlined from a service response that already carried the prefix
	if strings.HasPrefix(payload, "data:") {
		if i := strings.Index(payload, "base64,"); i >= 0 {
			payload = payload[i+len("base64,"):]
		}
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, "", fmt.Errorf("decode base64 payload of %q: %w", t.Alt, err)
	}
	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", fmt.Errorf("inspect image %q: %w", t.Alt, err)
	}
	return data, format, nil
}

// DetectFormat sniffs the encoded image format. A decodable image with no
// reported format name falls back to PNG.
func DetectFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("unrecognized image data: %w", err)
	}
	if format == "" {
		return "PNG", nil
	}
	return strings.ToUpper(format), nil
}
