package schema

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestDocument_JSONRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{
			name: "text document",
			doc: Document{
				PageContent: "# Welcome\n\nSome markdown content.",
				Metadata:    TextMetadata{URL: "https://docs.example.com/start", Title: "Getting started", Kind: ModalityText},
			},
		},
		{
			name: "image document",
			doc: Document{
				PageContent: "A diagram showing the indexing pipeline.",
				Metadata: ImageMetadata{
					URL:      "https://docs.example.com/pipeline.png",
					Title:    "image",
					Kind:     ModalityImage,
					MimeType: "image/png",
					Base64:   "aGVsbG8=",
				},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			data, err := json.Marshal(tc.doc)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			var got Document
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got.PageContent != tc.doc.PageContent {
				t.Errorf("page content: got %q, want %q", got.PageContent, tc.doc.PageContent)
			}
			if got.Metadata != tc.doc.Metadata {
				t.Errorf("metadata: got %#v, want %#v", got.Metadata, tc.doc.Metadata)
			}
			if got.Metadata.Modality() != tc.doc.Metadata.Modality() {
				t.Errorf("modality: got %q, want %q", got.Metadata.Modality(), tc.doc.Metadata.Modality())
			}
		})
	}
}

func TestDocument_MarshalTagsModality(t *testing.T) {
	doc := Document{PageContent: "x", Metadata: TextMetadata{URL: "https://example.com"}}
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"modality":"text"`) {
		t.Fatalf("expected modality tag in %s", data)
	}
}

func TestUnmarshalMetadata_UnknownModality(t *testing.T) {
	if _, err := UnmarshalMetadata([]byte(`{"modality":"audio"}`)); err == nil {
		t.Fatal("expected error for unknown modality")
	}
}

func TestTextMetadataFromPage(t *testing.T) {
	tests := []struct {
		name      string
		metadata  map[string]any
		want      TextMetadata
		wantField string
	}{
		{
			name: "full metadata",
			metadata: map[string]any{
				"source":       "https://docs.example.com/a",
				"content_type": "text/html; charset=utf-8",
				"title":        "Page A",
				"description":  "About A",
				"language":     "en",
			},
			want: TextMetadata{URL: "https://docs.example.com/a", Title: "Page A", Kind: ModalityText},
		},
		{
			name: "title defaults to empty string",
			metadata: map[string]any{
				"source":       "https://docs.example.com/b",
				"content_type": "text/html",
			},
			want: TextMetadata{URL: "https://docs.example.com/b", Title: "", Kind: ModalityText},
		},
		{
			name:      "missing source",
			metadata:  map[string]any{"content_type": "text/html"},
			wantField: "source",
		},
		{
			name:      "missing content type",
			metadata:  map[string]any{"source": "https://docs.example.com/c"},
			wantField: "content_type",
		},
		{
			name: "source of wrong type",
			metadata: map[string]any{
				"source":       42,
				"content_type": "text/html",
			},
			wantField: "source",
		},
		{
			name: "optional field of wrong type",
			metadata: map[string]any{
				"source":       "https://docs.example.com/d",
				"content_type": "text/html",
				"title":        123,
			},
			wantField: "title",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TextMetadataFromPage(tc.metadata)
			if tc.wantField != "" {
				var vErr *ValidationError
				if !errors.As(err, &vErr) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				if vErr.Field != tc.wantField {
					t.Errorf("field: got %q, want %q", vErr.Field, tc.wantField)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestImageMetadataFromDescriptor(t *testing.T) {
	descriptor := ImageDescriptor{
		URL:      "https://docs.example.com/pipeline.png",
		MimeType: "image/png",
		Base64:   "aGVsbG8=",
	}
	got := ImageMetadataFromDescriptor(descriptor)
	want := ImageMetadata{
		URL:      descriptor.URL,
		Title:    "image",
		Kind:     ModalityImage,
		MimeType: descriptor.MimeType,
		Base64:   descriptor.Base64,
	}
	if got != want {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestImageDescriptor_ValueEquality(t *testing.T) {
	a := ImageDescriptor{URL: "https://e.com/x.png", MimeType: "image/png", Base64: "Zm9v"}
	b := ImageDescriptor{URL: "https://e.com/x.png", MimeType: "image/png", Base64: "Zm9v"}
	set := map[ImageDescriptor]bool{a: true}
	if !set[b] {
		t.Fatal("descriptors with identical content must be interchangeable")
	}
}
