package qdrant

import (
	"reflect"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestPayloadToMap_RoundTrip(t *testing.T) {
	original := map[string]any{
		"url":      "https://e.com/a",
		"title":    "Guide",
		"modality": "text",
		"score":    0.5,
		"chunks":   int64(3),
		"nested":   map[string]any{"key": "value"},
		"tags":     []any{"a", "b"},
		"flag":     true,
	}
	got := payloadToMap(qdrant.NewValueMap(original))
	if !reflect.DeepEqual(got, original) {
		t.Errorf("round trip changed payload:\n got %#v\nwant %#v", got, original)
	}
}

func TestPayloadToMap_Nil(t *testing.T) {
	if got := payloadToMap(nil); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
