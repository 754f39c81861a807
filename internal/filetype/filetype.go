// Package filetype dispatches uploads to the PDF or image extraction path
// based on the declared content type, falling back to the filename
// extension.
package filetype

import (
	"errors"
	"path/filepath"
	"strings"
)

// Kind is the extraction path an upload is routed to.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindImage Kind = "image"
)

// ErrUnsupported is returned for uploads that match neither path.
// The server maps it to a 400 response.
var ErrUnsupported = errors.New("unsupported file type")

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
}

// Detect classifies an upload. Content type wins when recognized;
// otherwise the filename extension decides.
func Detect(contentType, filename string) (Kind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}

	switch {
	case ct == "application/pdf":
		return KindPDF, nil
	case strings.HasPrefix(ct, "image/"):
		return KindImage, nil
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch {
	case ext == ".pdf":
		return KindPDF, nil
	case imageExtensions[ext]:
		return KindImage, nil
	}

	return "", ErrUnsupported
}
