package schema

import (
	"encoding/json"
	"fmt"
)

// Document pairs page content with its typed metadata.
// A Document is immutable once created; splitting produces new Documents
// rather than mutating the source.
type Document struct {
	PageContent string
	Metadata    Metadata
}

// documentEnvelope is the persisted JSON shape of a Document.
type documentEnvelope struct {
	PageContent string          `json:"page_content"`
	Metadata    json.RawMessage `json:"metadata"`
}

// MarshalJSON serializes the document with its modality-tagged metadata.
func (d Document) MarshalJSON() ([]byte, error) {
	if d.Metadata == nil {
		return nil, fmt.Errorf("document has no metadata")
	}
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, err
	}
	return json.Marshal(documentEnvelope{
		PageContent: d.PageContent,
		Metadata:    meta,
	})
}

// UnmarshalJSON deserializes the document, dispatching the metadata variant
// on the modality tag.
func (d *Document) UnmarshalJSON(data []byte) error {
	var envelope documentEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	metadata, err := UnmarshalMetadata(envelope.Metadata)
	if err != nil {
		return err
	}
	d.PageContent = envelope.PageContent
	d.Metadata = metadata
	return nil
}
