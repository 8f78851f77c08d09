// Package extract turns a rates page into a raw JSON table document by
// fetching the page, reducing it to visible text and asking Claude for
// the tables. The result is unvalidated JSON; the normalizer is the
// schema gate.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/ftc-sync/pkg/anthropic"
)

// Extractor converts a page address and an extraction instruction into a
// raw JSON table document.
type Extractor interface {
	ExtractTables(ctx context.Context, pageURL, instruction string) ([]byte, error)
}

// Config configures the Claude-backed extractor.
type Config struct {
	Model      string
	MaxTokens  int64
	UserAgent  string
	Timeout    time.Duration
	RatePerSec float64
}

const systemPrompt = "You extract tabular data from government web pages. " +
	"Reply with a single valid JSON object and nothing else: no prose, no markdown fences."

const promptTemplate = `%s

Page URL: %s
Page text:
%s

Return a JSON object shaped as:
{"Rates for fuel acquired": {"<table name>": {"Period": "<period title>", "Data": [{"Eligible fuel type": "...", "Used in heavy vehicles": "...", "All other business uses": "..."}]}}}`

type claudeExtractor struct {
	ai      anthropic.Client
	http    *resty.Client
	limiter *rate.Limiter
	cfg     Config
}

// New creates a Claude-backed Extractor.
func New(ai anthropic.Client, cfg Config) Extractor {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8192
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("User-Agent", cfg.UserAgent)

	return &claudeExtractor{
		ai:      ai,
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), 1),
		cfg:     cfg,
	}
}

func (e *claudeExtractor) ExtractTables(ctx context.Context, pageURL, instruction string) ([]byte, error) {
	html, err := e.fetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	text, err := pageText(html)
	if err != nil {
		return nil, eris.Wrapf(err, "extract: parse page %s", pageURL)
	}

	resp, err := e.ai.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     e.cfg.Model,
		MaxTokens: e.cfg.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: systemPrompt}},
		Messages: []anthropic.Message{{
			Role:    "user",
			Content: fmt.Sprintf(promptTemplate, instruction, pageURL, text),
		}},
	})
	if err != nil {
		return nil, eris.Wrapf(err, "extract: scrape %s", pageURL)
	}
	resp.Usage.LogCost(e.cfg.Model, "extract")

	raw := []byte(stripFences(resp.Text()))
	if !json.Valid(raw) {
		return nil, eris.Errorf("extract: model reply for %s is not valid JSON", pageURL)
	}

	zap.L().Debug("extract: raw document received",
		zap.String("page_url", pageURL),
		zap.Int("bytes", len(raw)),
	)
	return raw, nil
}

func (e *claudeExtractor) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "extract: rate limiter")
	}

	resp, err := e.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return "", eris.Wrapf(err, "extract: fetch %s", pageURL)
	}
	if resp.StatusCode() != 200 {
		return "", eris.Errorf("extract: fetch %s: status %d", pageURL, resp.StatusCode())
	}

	return resp.String(), nil
}

// pageText reduces an HTML document to the visible text of its body,
// dropping scripts, styles and chrome that only waste tokens.
func pageText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("script, style, noscript, nav, header, footer, iframe").Remove()

	body := doc.Find("body")
	if body.Length() == 0 {
		return collapseWhitespace(doc.Text()), nil
	}
	return collapseWhitespace(body.Text()), nil
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// stripFences removes markdown code fences and any prose around the JSON
// object. Models occasionally wrap replies despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return strings.TrimSpace(s)
}
