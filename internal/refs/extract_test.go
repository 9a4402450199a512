package refs

import (
	"encoding/json"
	"testing"

	"github.com/refmend-dev/refmend/internal/document"
)

func docFromJSON(t *testing.T, relPath, content string) *document.Document {
	t.Helper()
	var body any
	if err := json.Unmarshal([]byte(content), &body); err != nil {
		t.Fatalf("test document %s does not parse: %v", relPath, err)
	}
	return &document.Document{Path: relPath, Raw: []byte(content), Body: body}
}

func TestExtractFindsRefsAtAnyDepth(t *testing.T) {
	doc := docFromJSON(t, "database/Message.schema.json", `{
		"title": "Message",
		"properties": {
			"sender_id": {"$ref": "../primitives/UserId.schema.json"},
			"parent_id": {
				"anyOf": [
					{"$ref": "../primitives/MessageId.schema.json"},
					{"type": "null"}
				]
			},
			"tags": {"items": {"$ref": "Tag.schema.json"}}
		},
		"definitions": {
			"inner": {
				"additionalProperties": {"$ref": "#/definitions/leaf"}
			}
		}
	}`)

	records := Extract(doc)
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(records), records)
	}

	// Sorted key order makes record order deterministic.
	expect := []struct {
		pointer string
		raw     string
		context EdgeKind
	}{
		{"/definitions/inner/additionalProperties/$ref", "#/definitions/leaf", EdgeAdditionalProperties},
		{"/properties/parent_id/anyOf/0/$ref", "../primitives/MessageId.schema.json", EdgeAnyOf},
		{"/properties/sender_id/$ref", "../primitives/UserId.schema.json", EdgeProperty},
		{"/properties/tags/items/$ref", "Tag.schema.json", EdgeItems},
	}
	for i, want := range expect {
		got := records[i]
		if got.Pointer.String() != want.pointer || got.Raw != want.raw || got.Context != want.context {
			t.Fatalf("record %d: got (%s, %q, %s), want (%s, %q, %s)",
				i, got.Pointer, got.Raw, got.Context, want.pointer, want.raw, want.context)
		}
	}
}

func TestExtractIgnoresNonStringRefValues(t *testing.T) {
	doc := docFromJSON(t, "a.json", `{"$ref": {"nested": true}, "x": {"$ref": 42}}`)
	if records := Extract(doc); len(records) != 0 {
		t.Fatalf("expected no records for non-string $ref values, got %+v", records)
	}
}

func TestExtractWalksArraysOfObjects(t *testing.T) {
	doc := docFromJSON(t, "a.json", `{"examples": [{"deep": {"$ref": "b.json"}}, [{"$ref": "c.json"}]]}`)
	records := Extract(doc)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Pointer.String() != "/examples/0/deep/$ref" {
		t.Fatalf("unexpected pointer %s", records[0].Pointer)
	}
	if records[1].Pointer.String() != "/examples/1/0/$ref" {
		t.Fatalf("unexpected pointer %s", records[1].Pointer)
	}
	if records[0].Context != EdgeOther || records[1].Context != EdgeOther {
		t.Fatalf("expected other context, got %s and %s", records[0].Context, records[1].Context)
	}
}

func TestPointerEscapesSpecialCharacters(t *testing.T) {
	doc := docFromJSON(t, "a.json", `{"properties": {"weird/name~x": {"$ref": "b.json"}}}`)
	records := Extract(doc)
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if got := records[0].Pointer.String(); got != "/properties/weird~1name~0x/$ref" {
		t.Fatalf("unexpected escaped pointer %q", got)
	}
}
