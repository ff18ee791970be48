package tools

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewWebSearcher_Defaults(t *testing.T) {
	s := NewWebSearcher(SearchConfig{})

	assert.Equal(t, 3, s.cfg.MaxResults)
	assert.Equal(t, 4000, s.cfg.TokenBudget)
	assert.Equal(t, 15*time.Second, s.cfg.PageTimeout)
}

func TestWebSearcher_SearchWithoutStart(t *testing.T) {
	// Failures never escape the search boundary.
	s := NewWebSearcher(SearchConfig{})
	assert.Equal(t, "", s.Search(context.Background(), "anything"))
}

func TestWebSearcher_TruncateWithoutEncoderPassesThrough(t *testing.T) {
	s := NewWebSearcher(SearchConfig{TokenBudget: 1})
	assert.Equal(t, "long text untouched", s.truncate("long text untouched"))
}

func TestCollapseBlankLines(t *testing.T) {
	in := "  first \n\n\n   \nsecond\n\n"
	assert.Equal(t, "first\nsecond", collapseBlankLines(in))
}
