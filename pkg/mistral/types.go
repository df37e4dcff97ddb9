package mistral

// OCRRequest is the request body for the OCR endpoint.
type OCRRequest struct {
	Model              string      `json:"model"`
	Document           DocumentURL `json:"document"`
	IncludeImageBase64 bool        `json:"include_image_base64"`
}

// DocumentURL points the OCR service at a previously signed document URL.
type DocumentURL struct {
	Type        string `json:"type"`
	DocumentURL string `json:"document_url"`
}

// OCRResponse is the full result of an OCR run: an ordered sequence of pages,
// immutable once received.
type OCRResponse struct {
	Pages []Page `json:"pages"`
	Model string `json:"model,omitempty"`
}

// Page holds the recognized markup for one page plus the inline images it
// references. Markdown placeholders of the form ![id](id) name entries of
// Images by their ID.
type Page struct {
	Index      int         `json:"index"`
	Markdown   string      `json:"markdown"`
	Images     []Image     `json:"images"`
	Dimensions *Dimensions `json:"dimensions,omitempty"`
}

// Dimensions describes the pixel geometry of a processed page.
type Dimensions struct {
	DPI    int `json:"dpi"`
	Height int `json:"height"`
	Width  int `json:"width"`
}

// Image is one inline image extracted from a page. ImageBase64 may or may not
// carry a data: URI prefix depending on the service version.
type Image struct {
	ID           string `json:"id"`
	TopLeftX     int    `json:"top_left_x"`
	TopLeftY     int    `json:"top_left_y"`
	BottomRightX int    `json:"bottom_right_x"`
	BottomRightY int    `json:"bottom_right_y"`
	ImageBase64  string `json:"image_base64"`
}
