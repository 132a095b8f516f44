package schema

import "fmt"

// imageTitle is the placeholder title assigned to image-derived documents,
// which have no title of their own.
const imageTitle = "image"

// ValidationError reports a malformed provider metadata map reaching
// normalization. It indicates an upstream contract violation and is fatal
// for the affected document.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid document metadata: field %q %s", e.Field, e.Reason)
}

// TextMetadataFromPage converts a crawler-provided metadata map into the
// text variant. Required fields are "source" and "content_type"; "title",
// "description" and "language" are optional. The function is pure and
// performs no I/O.
func TextMetadataFromPage(metadata map[string]any) (TextMetadata, error) {
	source, err := requireString(metadata, "source")
	if err != nil {
		return TextMetadata{}, err
	}
	if _, err := requireString(metadata, "content_type"); err != nil {
		return TextMetadata{}, err
	}
	title, err := optionalString(metadata, "title")
	if err != nil {
		return TextMetadata{}, err
	}
	for _, field := range []string{"description", "language"} {
		if _, err := optionalString(metadata, field); err != nil {
			return TextMetadata{}, err
		}
	}
	return TextMetadata{URL: source, Title: title, Kind: ModalityText}, nil
}

// ImageMetadataFromDescriptor converts a resolved image descriptor into the
// image variant with a fixed placeholder title.
func ImageMetadataFromDescriptor(descriptor ImageDescriptor) ImageMetadata {
	return ImageMetadata{
		URL:      descriptor.URL,
		Title:    imageTitle,
		Kind:     ModalityImage,
		MimeType: descriptor.MimeType,
		Base64:   descriptor.Base64,
	}
}

func requireString(metadata map[string]any, field string) (string, error) {
	value, ok := metadata[field]
	if !ok {
		return "", &ValidationError{Field: field, Reason: "is missing"}
	}
	text, ok := value.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("has type %T, expected string", value)}
	}
	return text, nil
}

func optionalString(metadata map[string]any, field string) (string, error) {
	value, ok := metadata[field]
	if !ok || value == nil {
		return "", nil
	}
	text, ok := value.(string)
	if !ok {
		return "", &ValidationError{Field: field, Reason: fmt.Sprintf("has type %T, expected string", value)}
	}
	return text, nil
}
