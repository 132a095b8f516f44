package indexer

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tanimon/multimodal-rag-chatbot/docstore"
	"github.com/tanimon/multimodal-rag-chatbot/schema"
	"github.com/tanimon/multimodal-rag-chatbot/vectorstore"
)

type fakeVectorStore struct {
	records []vectorstore.Record
	fail    bool
}

func (s *fakeVectorStore) AddRecords(_ context.Context, records []vectorstore.Record) error {
	if s.fail {
		return errors.New("upsert refused")
	}
	s.records = append(s.records, records...)
	return nil
}

func (s *fakeVectorStore) SimilaritySearch(context.Context, string, int) ([]vectorstore.Match, error) {
	return nil, nil
}

type fakeDocStore struct {
	entries []docstore.Entry
	fail    bool
}

func (s *fakeDocStore) SetMany(_ context.Context, entries []docstore.Entry) error {
	if s.fail {
		return errors.New("bucket unavailable")
	}
	s.entries = append(s.entries, entries...)
	return nil
}

func imageDocument() schema.Document {
	return schema.Document{
		PageContent: "a diagram of the deployment",
		Metadata: schema.ImageMetadata{
			URL: "https://e.com/d.png", Title: "image", Kind: schema.ModalityImage,
			MimeType: "image/png", Base64: "aW1hZ2ViaXRz",
		},
	}
}

func TestShrink(t *testing.T) {
	payload := map[string]any{
		"url":      "https://e.com/d.png",
		"modality": "image",
		"base64":   "aW1hZ2ViaXRz",
	}
	shrunk := Shrink(payload)
	if _, ok := shrunk["base64"]; ok {
		t.Error("shrunk payload still carries raw image data")
	}
	if shrunk["url"] != payload["url"] || shrunk["modality"] != payload["modality"] {
		t.Errorf("shrink dropped unrelated fields: %v", shrunk)
	}
	if _, ok := payload["base64"]; !ok {
		t.Error("shrink mutated its input")
	}
	if again := Shrink(shrunk); !reflect.DeepEqual(again, shrunk) {
		t.Errorf("shrink is not idempotent: %v vs %v", again, shrunk)
	}
}

func TestIndexer_Index_JoinKey(t *testing.T) {
	vectors := &fakeVectorStore{}
	docs := &fakeDocStore{}
	indexer := New(vectors, docs)

	documents := []schema.Document{
		{PageContent: "chunk one", Metadata: schema.TextMetadata{URL: "https://e.com/a", Title: "A", Kind: schema.ModalityText}},
		imageDocument(),
	}
	ids, err := indexer.Index(context.Background(), documents)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(ids) != 2 || len(vectors.records) != 2 || len(docs.entries) != 2 {
		t.Fatalf("counts: ids=%d records=%d entries=%d, want 2 each", len(ids), len(vectors.records), len(docs.entries))
	}

	for n, id := range ids {
		if _, err := uuid.Parse(id); err != nil {
			t.Errorf("id %d is not a UUID: %q", n, id)
		}
		if vectors.records[n].ID != id {
			t.Errorf("record %d id: got %q, want %q", n, vectors.records[n].ID, id)
		}
		if vectors.records[n].Payload[IDKey] != id {
			t.Errorf("record %d payload join key: got %v", n, vectors.records[n].Payload[IDKey])
		}
		if docs.entries[n].Key != id {
			t.Errorf("entry %d key: got %q, want %q", n, docs.entries[n].Key, id)
		}
	}
	if ids[0] == ids[1] {
		t.Error("documents share an id")
	}

	if _, ok := vectors.records[1].Payload[schema.KeyBase64]; ok {
		t.Error("vector payload carries raw image data")
	}
	meta, ok := docs.entries[1].Document.Metadata.(schema.ImageMetadata)
	if !ok {
		t.Fatalf("stored metadata: got %T", docs.entries[1].Document.Metadata)
	}
	if meta.Base64 == "" {
		t.Error("stored document lost its image payload")
	}
}

func TestIndexer_Index_FreshIDsPerCall(t *testing.T) {
	indexer := New(&fakeVectorStore{}, &fakeDocStore{})
	document := []schema.Document{{
		PageContent: "same chunk",
		Metadata:    schema.TextMetadata{URL: "https://e.com/a", Title: "A", Kind: schema.ModalityText},
	}}

	first, err := indexer.Index(context.Background(), document)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	second, err := indexer.Index(context.Background(), document)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if first[0] == second[0] {
		t.Error("re-indexing reused an id")
	}
}

func TestIndexer_Index_EmptyInput(t *testing.T) {
	vectors := &fakeVectorStore{}
	docs := &fakeDocStore{}
	indexer := New(vectors, docs)

	ids, err := indexer.Index(context.Background(), nil)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	if len(ids) != 0 || len(vectors.records) != 0 || len(docs.entries) != 0 {
		t.Error("empty input should write nothing")
	}
}

func TestIndexer_Index_VectorFailureWritesNothing(t *testing.T) {
	docs := &fakeDocStore{}
	indexer := New(&fakeVectorStore{fail: true}, docs)

	_, err := indexer.Index(context.Background(), []schema.Document{{
		PageContent: "chunk",
		Metadata:    schema.TextMetadata{URL: "https://e.com/a", Kind: schema.ModalityText},
	}})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(docs.entries) != 0 {
		t.Error("document store written despite vector store failure")
	}
}

func TestIndexer_Index_DocStoreFailureNamesCommittedIDs(t *testing.T) {
	vectors := &fakeVectorStore{}
	indexer := New(vectors, &fakeDocStore{fail: true})

	_, err := indexer.Index(context.Background(), []schema.Document{{
		PageContent: "chunk",
		Metadata:    schema.TextMetadata{URL: "https://e.com/a", Kind: schema.ModalityText},
	}})
	if err == nil {
		t.Fatal("expected an error")
	}
	if len(vectors.records) != 1 {
		t.Fatalf("vector store records: got %d, want 1", len(vectors.records))
	}
	if !strings.Contains(err.Error(), vectors.records[0].ID) {
		t.Errorf("error %q does not name the already-committed id", err)
	}
}
