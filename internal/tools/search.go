package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog/log"
)

// Searcher returns concatenated textual evidence for a query. Failures
// never escape this boundary: the result is "" when nothing could be
// fetched.
type Searcher interface {
	Search(ctx context.Context, query string) string
}

// SearchConfig configures the web searcher.
type SearchConfig struct {
	Headless    bool
	ChromePath  string
	MaxResults  int           // result pages to scrape per query
	TokenBudget int           // cap on evidence size, in tokens
	PageTimeout time.Duration // per-page navigation timeout
}

// encodingName is the tokenizer used for the evidence budget.
const encodingName = "cl100k_base"

// WebSearcher scrapes top web results with a headless Chrome instance.
// It queries the DuckDuckGo HTML endpoint for result links, then
// extracts the visible text of each page.
type WebSearcher struct {
	cfg         SearchConfig
	allocCtx    context.Context
	allocCancel context.CancelFunc
	encoder     *tiktoken.Tiktoken
}

// NewWebSearcher creates a searcher. Call Start before Search.
func NewWebSearcher(cfg SearchConfig) *WebSearcher {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 3
	}
	if cfg.TokenBudget <= 0 {
		cfg.TokenBudget = 4000
	}
	if cfg.PageTimeout <= 0 {
		cfg.PageTimeout = 15 * time.Second
	}
	return &WebSearcher{cfg: cfg}
}

// Start launches Chrome.
func (s *WebSearcher) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if s.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.cfg.ChromePath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	s.allocCtx = allocCtx
	s.allocCancel = cancel

	browserCtx, _ := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		return fmt.Errorf("tools: start browser: %w", err)
	}

	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return fmt.Errorf("tools: load tokenizer: %w", err)
	}
	s.encoder = enc
	return nil
}

// Stop shuts Chrome down.
func (s *WebSearcher) Stop() {
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Search fetches result links for the query, extracts each page's
// visible text, and concatenates everything under per-URL headers,
// truncated to the token budget. Returns "" on total failure; partial
// failures just shorten the evidence.
func (s *WebSearcher) Search(ctx context.Context, query string) string {
	if s.allocCtx == nil {
		log.Warn().Msg("search requested but browser not started")
		return ""
	}

	links, err := s.resultLinks(ctx, query)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("search results fetch failed")
		return ""
	}

	var sb strings.Builder
	fetched := 0
	for _, link := range links {
		if fetched >= s.cfg.MaxResults {
			break
		}
		text, err := s.pageText(ctx, link)
		if err != nil {
			log.Debug().Err(err).Str("url", link).Msg("result page fetch failed")
			continue
		}
		fmt.Fprintf(&sb, "--- Result from %s ---\n%s\n\n", link, text)
		fetched++
	}

	log.Info().Str("query", query).Int("pages", fetched).Msg("search complete")
	return s.truncate(sb.String())
}

// resultLinks scrapes the DuckDuckGo HTML results page for result URLs.
func (s *WebSearcher) resultLinks(ctx context.Context, query string) ([]string, error) {
	searchURL := "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)

	runCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, s.cfg.PageTimeout)
	defer cancelTimeout()
	go cancelOnDone(ctx, cancel)

	var links []string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`Array.from(document.querySelectorAll("a.result__a")).map(a => a.href)`, &links),
	)
	if err != nil {
		return nil, err
	}
	return links, nil
}

// pageText navigates to a URL and extracts the body's visible text.
func (s *WebSearcher) pageText(ctx context.Context, pageURL string) (string, error) {
	runCtx, cancel := chromedp.NewContext(s.allocCtx)
	defer cancel()
	runCtx, cancelTimeout := context.WithTimeout(runCtx, s.cfg.PageTimeout)
	defer cancelTimeout()
	go cancelOnDone(ctx, cancel)

	var body string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		chromedp.Text("body", &body, chromedp.ByQuery),
	)
	if err != nil {
		return "", err
	}
	return collapseBlankLines(body), nil
}

// truncate caps the evidence at the configured token budget.
func (s *WebSearcher) truncate(text string) string {
	if s.encoder == nil || text == "" {
		return text
	}
	toks := s.encoder.Encode(text, nil, nil)
	if len(toks) <= s.cfg.TokenBudget {
		return text
	}
	return s.encoder.Decode(toks[:s.cfg.TokenBudget])
}

// cancelOnDone propagates caller cancellation into a chromedp context.
func cancelOnDone(ctx context.Context, cancel context.CancelFunc) {
	<-ctx.Done()
	cancel()
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	clean := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			clean = append(clean, l)
		}
	}
	return strings.Join(clean, "\n")
}

var _ Searcher = (*WebSearcher)(nil)
