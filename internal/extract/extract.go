// Package extract turns uploaded files into normalizable payloads.
//
// Dispatch is by file extension. Image types come back base64-encoded
// with their MIME type; text-like documents come back as plain text.
// Anything outside the accepted set is rejected here, before the
// content normalizer or any persistence runs.
package extract

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedType is returned for extensions outside the accepted set.
var ErrUnsupportedType = errors.New("unsupported file type")

// maxFileSize caps a single upload read (20MB) to bound memory use.
const maxFileSize = 20 * 1024 * 1024

// imageTypes maps accepted image extensions to their MIME types.
var imageTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// textTypes maps accepted document extensions to their MIME types.
var textTypes = map[string]string{
	".txt":  "text/plain",
	".md":   "text/markdown",
	".csv":  "text/csv",
	".json": "application/json",
	".log":  "text/plain",
	".html": "text/html",
	".xml":  "application/xml",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
}

// Extractor converts an uploaded file into (payload, mediaType).
// For images the payload is base64; for documents it is extracted text.
type Extractor interface {
	Extract(name string, r io.Reader) (payload string, mediaType string, err error)
}

// Supported reports whether the extension is in the accepted set.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, img := imageTypes[ext]
	_, txt := textTypes[ext]
	return img || txt
}

// FileExtractor is the extension-dispatched Extractor used in production.
type FileExtractor struct{}

// New creates a FileExtractor.
func New() *FileExtractor {
	return &FileExtractor{}
}

// Extract reads the file and returns its payload and media type.
// Unknown extensions return ErrUnsupportedType without reading.
func (e *FileExtractor) Extract(name string, r io.Reader) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(name))

	if mediaType, ok := imageTypes[ext]; ok {
		raw, err := readCapped(r)
		if err != nil {
			return "", "", fmt.Errorf("extract %s: %w", name, err)
		}
		return base64.StdEncoding.EncodeToString(raw), mediaType, nil
	}

	if mediaType, ok := textTypes[ext]; ok {
		raw, err := readCapped(r)
		if err != nil {
			return "", "", fmt.Errorf("extract %s: %w", name, err)
		}
		return string(raw), mediaType, nil
	}

	return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, ext)
}

func readCapped(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if len(raw) > maxFileSize {
		return nil, fmt.Errorf("file exceeds %d byte limit", maxFileSize)
	}
	return raw, nil
}

var _ Extractor = (*FileExtractor)(nil)
