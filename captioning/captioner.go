// Package captioning defines the capability that turns an image into a
// natural-language description.
package captioning

import (
	"context"

	"github.com/tanimon/multimodal-rag-chatbot/schema"
)

// Captioner generates a natural-language description for one image.
// Calls are independent and may be issued concurrently for a batch.
type Captioner interface {
	Describe(ctx context.Context, image schema.ImageDescriptor) (string, error)
}
