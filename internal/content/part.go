// Package content defines the provider-neutral message content model.
//
// DESIGN: A message's content is an ordered sequence of typed parts.
// Two variants exist: text and inline image (base64 + media type).
// Parts are serialized as a JSON array when persisted; the decode path
// tolerates legacy rows that stored plain text instead of a part array.
package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Part is one unit of message content. Exactly one variant is set:
// either Text is non-nil or Image is non-nil, never both.
type Part struct {
	Text  *string
	Image *ImageData
}

// ImageData holds an inline image payload.
type ImageData struct {
	MediaType string // MIME image type, e.g. "image/png"
	Data      string // base64-encoded bytes
}

// TextPart builds a text variant.
func TextPart(s string) Part {
	return Part{Text: &s}
}

// ImagePart builds an image variant.
func ImagePart(mediaType, data string) Part {
	return Part{Image: &ImageData{MediaType: mediaType, Data: data}}
}

// IsText reports whether the part is the text variant.
func (p Part) IsText() bool { return p.Text != nil }

// IsImage reports whether the part is the image variant.
func (p Part) IsImage() bool { return p.Image != nil }

// wirePart is the persisted JSON shape of a Part.
type wirePart struct {
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`
}

// MarshalJSON encodes the part as its tagged wire shape.
func (p Part) MarshalJSON() ([]byte, error) {
	switch {
	case p.Text != nil:
		return json.Marshal(wirePart{Type: "text", Text: *p.Text})
	case p.Image != nil:
		return json.Marshal(wirePart{Type: "image", MediaType: p.Image.MediaType, Data: p.Image.Data})
	default:
		return nil, fmt.Errorf("content: part has no variant set")
	}
}

// UnmarshalJSON decodes the tagged wire shape back into a variant.
func (p *Part) UnmarshalJSON(data []byte) error {
	var w wirePart
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	switch w.Type {
	case "text":
		p.Text = &w.Text
		p.Image = nil
	case "image":
		p.Image = &ImageData{MediaType: w.MediaType, Data: w.Data}
		p.Text = nil
	default:
		return fmt.Errorf("content: unknown part type %q", w.Type)
	}
	return nil
}

// EncodeParts serializes a part sequence for storage.
func EncodeParts(parts []Part) (string, error) {
	if len(parts) == 0 {
		return "", fmt.Errorf("content: refusing to encode empty part sequence")
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return "", fmt.Errorf("content: encode parts: %w", err)
	}
	return string(b), nil
}

// DecodeParts deserializes stored content back into a part sequence.
// Rows written before the structured format existed hold plain text;
// those wrap as a single text part rather than failing.
func DecodeParts(raw string) []Part {
	if gjson.Valid(raw) && gjson.Parse(raw).IsArray() {
		var parts []Part
		if err := json.Unmarshal([]byte(raw), &parts); err == nil && len(parts) > 0 {
			return parts
		}
	}
	return []Part{TextPart(raw)}
}

// Flatten collapses a part sequence into plain text for providers that
// only accept flat prompts. Image parts are dropped; that fidelity loss
// is inherent to flat-prompt providers.
func Flatten(parts []Part) string {
	var sb strings.Builder
	for _, p := range parts {
		if p.Text != nil {
			if sb.Len() > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(*p.Text)
		}
	}
	return sb.String()
}
