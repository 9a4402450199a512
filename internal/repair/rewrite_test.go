package repair

import (
	"testing"

	"github.com/refmend-dev/refmend/internal/refs"
)

func TestSpliceValuePreservesEveryOtherByte(t *testing.T) {
	// Deliberately odd formatting: mixed indentation, misordered keys,
	// trailing newline. None of it may change.
	data := []byte("{\n  \"title\": \"X\",\n\t\"allOf\": [ {\"$ref\":   \"../ecs/Y.json\"} ],\n  \"type\": \"object\"\n}\n")
	ptr := refs.Pointer{}.Child("allOf").Element(0).Child("$ref")

	out, err := spliceValue(data, ptr, "../architecture/meta/Y.json")
	if err != nil {
		t.Fatalf("spliceValue: %v", err)
	}

	want := "{\n  \"title\": \"X\",\n\t\"allOf\": [ {\"$ref\":   \"../architecture/meta/Y.json\"} ],\n  \"type\": \"object\"\n}\n"
	if string(out) != want {
		t.Fatalf("rewritten bytes:\n%s\nwant:\n%s", out, want)
	}
}

func TestSpliceValueWithDecoyStringsBeforeTarget(t *testing.T) {
	// Earlier strings contain the same text and escaped quotes; only the
	// addressed value may change.
	data := []byte(`{"description":"see \"old.json\" or old.json","$ref":"old.json"}`)
	ptr := refs.Pointer{}.Child("$ref")

	out, err := spliceValue(data, ptr, "new.json")
	if err != nil {
		t.Fatalf("spliceValue: %v", err)
	}
	want := `{"description":"see \"old.json\" or old.json","$ref":"new.json"}`
	if string(out) != want {
		t.Fatalf("got %s", out)
	}
}

func TestLocateStringErrors(t *testing.T) {
	data := []byte(`{"a":{"b":[{"$ref":"x.json"}]},"n":7}`)

	cases := []struct {
		name string
		ptr  refs.Pointer
	}{
		{"missing key", refs.Pointer{}.Child("a").Child("missing")},
		{"index out of range", refs.Pointer{}.Child("a").Child("b").Element(5).Child("$ref")},
		{"not a string", refs.Pointer{}.Child("n").Child("x")},
		{"empty pointer", refs.Pointer{}},
	}
	for _, tc := range cases {
		if _, _, err := locateString(data, tc.ptr); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestRewriteDocumentAppliesAllActions(t *testing.T) {
	data := []byte(`{
  "properties": {
    "a": {"$ref": "../ecs/A.json"},
    "b": {"$ref": "../ecs/B.json"}
  }
}`)
	actions := []Action{
		{New: "../architecture/meta/A.json", ptr: refs.Pointer{}.Child("properties").Child("a").Child("$ref")},
		{New: "../architecture/meta/B.json", ptr: refs.Pointer{}.Child("properties").Child("b").Child("$ref")},
	}

	out, err := rewriteDocument(data, actions)
	if err != nil {
		t.Fatalf("rewriteDocument: %v", err)
	}
	want := `{
  "properties": {
    "a": {"$ref": "../architecture/meta/A.json"},
    "b": {"$ref": "../architecture/meta/B.json"}
  }
}`
	if string(out) != want {
		t.Fatalf("got:\n%s", out)
	}
}
