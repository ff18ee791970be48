package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EmptyInput(t *testing.T) {
	_, err := Normalize("", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = Normalize("   ", nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestNormalize_TextOnly(t *testing.T) {
	parts, err := Normalize("Hello", nil)
	require.NoError(t, err)

	require.Len(t, parts, 1)
	require.True(t, parts[0].IsText())
	assert.Equal(t, "Hello", *parts[0].Text)
}

func TestNormalize_TextWithImage(t *testing.T) {
	parts, err := Normalize("what is this?", []File{
		{Name: "photo.png", Payload: "aGVsbG8=", MediaType: "image/png"},
	})
	require.NoError(t, err)

	require.Len(t, parts, 2)
	assert.Equal(t, "what is this?", *parts[0].Text)
	require.True(t, parts[1].IsImage())
	assert.Equal(t, "image/png", parts[1].Image.MediaType)
}

func TestNormalize_DocumentConcatenatesOntoText(t *testing.T) {
	parts, err := Normalize("summarize this", []File{
		{Name: "notes.txt", Payload: "line one\nline two", MediaType: "text/plain"},
	})
	require.NoError(t, err)

	require.Len(t, parts, 1)
	text := *parts[0].Text
	assert.True(t, strings.HasPrefix(text, "summarize this"))
	assert.Contains(t, text, "--- Content from notes.txt ---\nline one\nline two")
}

func TestNormalize_DocumentWithoutTextCreatesLeadingPart(t *testing.T) {
	parts, err := Normalize("", []File{
		{Name: "photo.png", Payload: "aGVsbG8=", MediaType: "image/png"},
		{Name: "notes.txt", Payload: "content", MediaType: "text/plain"},
	})
	require.NoError(t, err)

	// Document text leads even though the image arrived first.
	require.Len(t, parts, 2)
	require.True(t, parts[0].IsText())
	assert.Contains(t, *parts[0].Text, "--- Content from notes.txt ---")
	assert.True(t, parts[1].IsImage())
}

func TestNormalize_NeverReturnsEmptySequence(t *testing.T) {
	cases := []struct {
		name  string
		text  string
		files []File
	}{
		{"text only", "hi", nil},
		{"file only", "", []File{{Name: "a.txt", Payload: "x", MediaType: "text/plain"}}},
		{"image only", "", []File{{Name: "a.png", Payload: "eA==", MediaType: "image/png"}}},
		{"both", "hi", []File{{Name: "a.txt", Payload: "x", MediaType: "text/plain"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parts, err := Normalize(tc.text, tc.files)
			require.NoError(t, err)
			assert.NotEmpty(t, parts)
		})
	}
}
