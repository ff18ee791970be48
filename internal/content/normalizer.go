package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyInput is returned when a request carries neither text nor files.
// It is rejected before any persistence or network call.
var ErrEmptyInput = errors.New("no message text or files provided")

// File is an extracted attachment ready for normalization.
// Payload holds extracted text for documents, or base64 bytes for images.
type File struct {
	Name      string
	Payload   string
	MediaType string
}

// IsImage reports whether the extracted payload is an inline image.
func (f File) IsImage() bool {
	return strings.HasPrefix(f.MediaType, "image/")
}

// Normalize converts raw user input into an ordered part sequence.
//
// Text, when present, becomes the leading text part. Image files append
// image parts in order. Document files concatenate onto the text part
// under a "--- Content from <name> ---" header, creating a leading text
// part when none exists yet.
func Normalize(text string, files []File) ([]Part, error) {
	if strings.TrimSpace(text) == "" && len(files) == 0 {
		return nil, ErrEmptyInput
	}

	var parts []Part
	textIdx := -1
	if strings.TrimSpace(text) != "" {
		parts = append(parts, TextPart(text))
		textIdx = 0
	}

	for _, f := range files {
		if f.IsImage() {
			parts = append(parts, ImagePart(f.MediaType, f.Payload))
			continue
		}

		section := fmt.Sprintf("--- Content from %s ---\n%s", f.Name, f.Payload)
		if textIdx >= 0 {
			merged := *parts[textIdx].Text + "\n\n" + section
			parts[textIdx] = TextPart(merged)
		} else {
			// Documents always lead, before any image parts.
			parts = append([]Part{TextPart(section)}, parts...)
			textIdx = 0
		}
	}

	return parts, nil
}
