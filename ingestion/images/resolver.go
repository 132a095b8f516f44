// Package images discovers image references in markdown text, resolves
// them to encoded payloads, and turns them into described image documents.
package images

import (
	"context"
	"encoding/base64"
	"log/slog"
	"path"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/tanimon/multimodal-rag-chatbot/captioning"
	"github.com/tanimon/multimodal-rag-chatbot/schema"
)

// descriptionPayloadLimit is the largest base64 payload the captioning
// capability accepts; payloads at or above this size are excluded from
// description generation.
const descriptionPayloadLimit = 5 * 1024 * 1024

// defaultWorkers bounds concurrent image fetches and captioning calls.
const defaultWorkers = 8

// imagePattern matches markdown image references to https URLs with a
// known image extension.
var imagePattern = regexp.MustCompile(`!\[.*?\]\((https://[^)]+?\.(?:png|jpg|jpeg|gif|webp))\)`)

// mimeTypes maps the supported URL extensions to their MIME types.
var mimeTypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// Fetcher downloads one image payload.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithWorkers bounds the number of concurrent fetches and captioning calls.
func WithWorkers(workers int) Option {
	return func(r *Resolver) {
		if workers > 0 {
			r.workers = workers
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver resolves image URLs found in markdown text to descriptors and
// described documents. The URL cache lives for the lifetime of one
// Resolver; construct a fresh Resolver per preprocessing run so runs stay
// isolated.
type Resolver struct {
	fetcher   Fetcher
	captioner captioning.Captioner
	workers   int
	logger    *slog.Logger

	mu    sync.Mutex
	cache map[string]schema.ImageDescriptor
}

// NewResolver creates a Resolver with a fresh, empty URL cache.
func NewResolver(fetcher Fetcher, captioner captioning.Captioner, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:   fetcher,
		captioner: captioner,
		workers:   defaultWorkers,
		logger:    slog.Default(),
		cache:     make(map[string]schema.ImageDescriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractImageURLs returns the image URLs referenced in text, in order of
// appearance. Repeated references are repeated in the result.
func ExtractImageURLs(text string) []string {
	matches := imagePattern.FindAllStringSubmatch(text, -1)
	urls := make([]string, 0, len(matches))
	for _, match := range matches {
		urls = append(urls, match[1])
	}
	return urls
}

// Resolve discovers image references across texts and resolves each
// distinct URL to one descriptor. Fetches run concurrently, bounded by the
// worker budget; a failure resolving one image is logged and skipped
// without affecting the rest of the batch. The result preserves first-seen
// URL order.
func (r *Resolver) Resolve(ctx context.Context, texts []string) []schema.ImageDescriptor {
	var ordered []string
	seen := make(map[string]bool)
	for _, text := range texts {
		for _, url := range ExtractImageURLs(text) {
			if seen[url] {
				continue
			}
			seen[url] = true
			ordered = append(ordered, url)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)
	for _, url := range ordered {
		if _, ok := r.cached(url); ok {
			continue
		}
		group.Go(func() error {
			r.resolveOne(groupCtx, url)
			return nil
		})
	}
	// Workers never return errors; failures are absorbed per image.
	_ = group.Wait()

	descriptors := make([]schema.ImageDescriptor, 0, len(ordered))
	for _, url := range ordered {
		if descriptor, ok := r.cached(url); ok {
			descriptors = append(descriptors, descriptor)
		}
	}
	return descriptors
}

// resolveOne fetches and caches a single image. First writer wins on a
// cache miss; duplicate concurrent fetches are wasteful but safe.
func (r *Resolver) resolveOne(ctx context.Context, url string) {
	mimeType, ok := mimeTypeFor(url)
	if !ok {
		r.logger.Warn("cannot determine image MIME type, skipping", "url", url)
		return
	}
	data, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		r.logger.Warn("image fetch failed after retries, skipping", "url", url, "error", err)
		return
	}
	descriptor := schema.ImageDescriptor{
		URL:      url,
		MimeType: mimeType,
		Base64:   base64.StdEncoding.EncodeToString(data),
	}
	r.mu.Lock()
	if _, exists := r.cache[url]; !exists {
		r.cache[url] = descriptor
	}
	r.mu.Unlock()
}

func (r *Resolver) cached(url string) (schema.ImageDescriptor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	descriptor, ok := r.cache[url]
	return descriptor, ok
}

// Describe generates one image-modality document per descriptor whose
// payload fits the captioning size limit. Captioning calls run
// concurrently, bounded by the worker budget; a failure describing one
// image is logged and skipped. The result preserves input order.
func (r *Resolver) Describe(ctx context.Context, descriptors []schema.ImageDescriptor) []schema.Document {
	eligible := make([]schema.ImageDescriptor, 0, len(descriptors))
	for _, descriptor := range descriptors {
		if len(descriptor.Base64) >= descriptionPayloadLimit {
			r.logger.Info("image payload too large for captioning, excluded",
				"url", descriptor.URL, "payload_bytes", len(descriptor.Base64))
			continue
		}
		eligible = append(eligible, descriptor)
	}

	described := make([]*schema.Document, len(eligible))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.workers)
	for i, descriptor := range eligible {
		group.Go(func() error {
			description, err := r.captioner.Describe(groupCtx, descriptor)
			if err != nil {
				r.logger.Warn("image description failed, skipping", "url", descriptor.URL, "error", err)
				return nil
			}
			described[i] = &schema.Document{
				PageContent: description,
				Metadata:    schema.ImageMetadataFromDescriptor(descriptor),
			}
			return nil
		})
	}
	_ = group.Wait()

	documents := make([]schema.Document, 0, len(eligible))
	for _, doc := range described {
		if doc != nil {
			documents = append(documents, *doc)
		}
	}
	return documents
}

// mimeTypeFor derives the MIME type from the URL extension.
func mimeTypeFor(url string) (string, bool) {
	mimeType, ok := mimeTypes[strings.ToLower(path.Ext(url))]
	return mimeType, ok
}
