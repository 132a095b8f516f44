package schema

import (
	"encoding/json"
	"fmt"
)

// Modality distinguishes a text document from an image-derived document.
type Modality string

const (
	ModalityText  Modality = "text"
	ModalityImage Modality = "image"
)

// Metadata key names shared with the vector store payload and the
// persisted document envelope.
const (
	KeyURL      = "url"
	KeyTitle    = "title"
	KeyModality = "modality"
	KeyMimeType = "mime_type"
	KeyBase64   = "base64"
)

// Metadata is a closed union over modality. Every document carries exactly
// one variant; fields absent from a variant are never required elsewhere.
type Metadata interface {
	Modality() Modality
	// Payload renders the metadata as a flat map of vector-store-safe
	// scalar values. The image variant includes the base64 payload; see
	// indexer.Shrink for the size-bounded projection.
	Payload() map[string]any

	isMetadata()
}

// TextMetadata describes a crawled text document.
type TextMetadata struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Kind  Modality `json:"modality"`
}

func (TextMetadata) Modality() Modality { return ModalityText }
func (TextMetadata) isMetadata()        {}

func (m TextMetadata) Payload() map[string]any {
	return map[string]any{
		KeyURL:      m.URL,
		KeyTitle:    m.Title,
		KeyModality: string(ModalityText),
	}
}

// MarshalJSON pins the modality tag regardless of the zero value of Kind.
func (m TextMetadata) MarshalJSON() ([]byte, error) {
	type alias TextMetadata
	m.Kind = ModalityText
	return json.Marshal(alias(m))
}

// ImageMetadata describes an image-derived document. Base64 carries the
// encoded image payload; it is persisted in the document store but stripped
// from the vector store projection.
type ImageMetadata struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	Kind     Modality `json:"modality"`
	MimeType string   `json:"mime_type"`
	Base64   string   `json:"base64"`
}

func (ImageMetadata) Modality() Modality { return ModalityImage }
func (ImageMetadata) isMetadata()        {}

func (m ImageMetadata) Payload() map[string]any {
	return map[string]any{
		KeyURL:      m.URL,
		KeyTitle:    m.Title,
		KeyModality: string(ModalityImage),
		KeyMimeType: m.MimeType,
		KeyBase64:   m.Base64,
	}
}

// MarshalJSON pins the modality tag regardless of the zero value of Kind.
func (m ImageMetadata) MarshalJSON() ([]byte, error) {
	type alias ImageMetadata
	m.Kind = ModalityImage
	return json.Marshal(alias(m))
}

// UnmarshalMetadata decodes a metadata variant from its JSON form,
// dispatching on the modality tag.
func UnmarshalMetadata(data []byte) (Metadata, error) {
	var probe struct {
		Modality Modality `json:"modality"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Modality {
	case ModalityText:
		var m TextMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		m.Kind = ModalityText
		return m, nil
	case ModalityImage:
		var m ImageMetadata
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		m.Kind = ModalityImage
		return m, nil
	default:
		return nil, fmt.Errorf("unknown metadata modality %q", probe.Modality)
	}
}

// ImageDescriptor identifies one fetched image. Descriptors compare by
// value: two descriptors with identical url, mime type and payload are
// interchangeable, which makes the type usable as a map or set key.
type ImageDescriptor struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Base64   string `json:"base64"`
}
