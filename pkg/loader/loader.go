package loader

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/bryn/sage/internal/models"
	"golang.org/x/time/rate"
)

type LoaderConfig struct {
	RateLimit float64 // requests per second
	Timeout   time.Duration
}

// Loader fetches web pages and turns them into documents ready for the
// vector store.
type Loader struct {
	config  LoaderConfig
	client  *http.Client
	limiter *rate.Limiter
}

func NewWithConfig(config LoaderConfig) *Loader {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 2 // 2 requests per second by default
	}

	return &Loader{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

func New() *Loader {
	return NewWithConfig(LoaderConfig{})
}

// Load fetches a single URL and extracts its main text content.
func (l *Loader) Load(ctx context.Context, url string) ([]models.Document, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received status code %d for URL: %s", resp.StatusCode, url)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	content := l.extractMainContent(doc)
	title := strings.TrimSpace(doc.Find("title").Text())

	document := models.Document{
		Content: content,
		Metadata: map[string]interface{}{
			"source":       url,
			"title":        title,
			"contentType":  resp.Header.Get("Content-Type"),
			"lastModified": resp.Header.Get("Last-Modified"),
		},
	}

	return []models.Document{document}, nil
}

// LoadAll fetches each URL in turn, respecting the rate limit.
func (l *Loader) LoadAll(ctx context.Context, urls []string) ([]models.Document, error) {
	var documents []models.Document
	for _, url := range urls {
		docs, err := l.Load(ctx, url)
		if err != nil {
			return documents, fmt.Errorf("failed to load %s: %w", url, err)
		}
		documents = append(documents, docs...)
	}
	return documents, nil
}

func (l *Loader) extractMainContent(doc *goquery.Document) string {
	// Try to find main content area
	selectors := []string{
		"main",
		"article",
		".content",
		"#content",
		".documentation",
		"#documentation",
	}

	var content string
	for _, selector := range selectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			content = selected.Text()
			break
		}
	}

	// Fallback to body if no main content found
	if content == "" {
		content = doc.Find("body").Text()
	}

	return l.cleanContent(content)
}

func (l *Loader) cleanContent(content string) string {
	// Remove extra whitespace
	content = strings.Join(strings.Fields(content), " ")

	// Remove common noise
	noisePatterns := []string{
		"Cookie Policy",
		"Accept Cookies",
		"Privacy Policy",
		"Terms of Service",
	}

	for _, pattern := range noisePatterns {
		content = strings.ReplaceAll(content, pattern, "")
	}

	return strings.TrimSpace(content)
}
