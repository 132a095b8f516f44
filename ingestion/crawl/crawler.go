// Package crawl walks a documentation site starting from a root URL and
// renders every reachable page on the same origin as markdown.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/gocolly/colly/v2"
)

const defaultMaxDepth = 5

// Page is a crawled document before normalization. Content holds the page
// body converted to markdown; Metadata carries the provider fields as the
// loader emitted them.
type Page struct {
	Content  string
	Metadata map[string]any
}

// Option customizes a Crawler.
type Option func(c *Crawler)

// WithMaxDepth overrides the link-following depth from the root URL.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		c.maxDepth = depth
	}
}

// WithLogger overrides the crawler logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// Crawler fetches pages breadth-first from a root URL, never leaving the
// origin, and converts each HTML body to markdown.
type Crawler struct {
	maxDepth  int
	logger    *slog.Logger
	converter *md.Converter
}

// NewCrawler creates a Crawler with the supplied options.
func NewCrawler(opts ...Option) *Crawler {
	ret := &Crawler{
		maxDepth:  defaultMaxDepth,
		logger:    slog.Default(),
		converter: md.NewConverter("", true, nil),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Crawl visits root and every same-origin page reachable within the depth
// limit, returning one Page per visited URL. Pages that fail to convert are
// skipped. The error reports a root that could not be visited at all.
func (c *Crawler) Crawl(ctx context.Context, root string) ([]Page, error) {
	parsed, err := url.Parse(root)
	if err != nil {
		return nil, fmt.Errorf("failed to parse root URL %q: %w", root, err)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("root URL %q has no host", root)
	}

	collector := colly.NewCollector(
		colly.MaxDepth(c.maxDepth),
	)

	// Confinement is the full origin: scheme, host and port must all match
	// the root, not just the hostname.
	collector.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if r.URL.Scheme != parsed.Scheme || r.URL.Host != parsed.Host {
			r.Abort()
		}
	})

	var mu sync.Mutex
	var pages []Page

	collector.OnHTML("a[href]", func(e *colly.HTMLElement) {
		if err := e.Request.Visit(e.Attr("href")); err != nil {
			return
		}
	})

	collector.OnHTML("html", func(e *colly.HTMLElement) {
		source := e.Request.URL.String()
		markdown, err := c.converter.ConvertString(string(e.Response.Body))
		if err != nil {
			c.logger.Warn("failed to convert page to markdown", "url", source, "error", err)
			return
		}
		page := Page{
			Content: markdown,
			Metadata: map[string]any{
				"source":       source,
				"content_type": e.Response.Headers.Get("Content-Type"),
			},
		}
		if title := strings.TrimSpace(e.ChildText("title")); title != "" {
			page.Metadata["title"] = title
		}
		if description := e.ChildAttr(`meta[name="description"]`, "content"); description != "" {
			page.Metadata["description"] = description
		}
		if language := e.Attr("lang"); language != "" {
			page.Metadata["language"] = language
		}
		mu.Lock()
		pages = append(pages, page)
		mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		c.logger.Warn("failed to fetch page", "url", r.Request.URL.String(), "error", err)
	})

	if err := collector.Visit(root); err != nil {
		return nil, fmt.Errorf("failed to crawl %q: %w", root, err)
	}
	collector.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Info("crawl completed", "root", root, "pages", len(pages))
	return pages, nil
}
