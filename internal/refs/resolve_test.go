package refs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/refmend-dev/refmend/internal/document"
)

func scanTree(t *testing.T, files map[string]string) *document.Tree {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	tree, err := document.Scan(root, document.Options{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return tree
}

func TestResolveIsRelativeToSourceDirectoryNotCWD(t *testing.T) {
	// Two documents in different directories reference a sibling by the
	// same relative name; they must resolve to different targets.
	tree := scanTree(t, map[string]string{
		"a/X.json":   `{"$ref": "sibling.json"}`,
		"a/sibling.json": `{}`,
		"b/Y.json":   `{"$ref": "sibling.json"}`,
		"b/sibling.json": `{}`,
	})
	r := NewResolver(tree)

	fromA := r.Resolve(Record{Doc: "a/X.json", Raw: "sibling.json"})
	fromB := r.Resolve(Record{Doc: "b/Y.json", Raw: "sibling.json"})

	if fromA.Target != "a/sibling.json" {
		t.Fatalf("a/X.json resolved to %q", fromA.Target)
	}
	if fromB.Target != "b/sibling.json" {
		t.Fatalf("b/Y.json resolved to %q", fromB.Target)
	}
}

func TestResolveNormalizesDotSegments(t *testing.T) {
	tree := scanTree(t, map[string]string{
		"architecture/meta/Y.json": `{}`,
		"a/X.json":                 `{}`,
	})
	r := NewResolver(tree)

	got := r.Resolve(Record{Doc: "a/X.json", Raw: "./../architecture/./meta/Y.json"})
	if got.Kind != Internal || got.Target != "architecture/meta/Y.json" {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}

func TestResolveClassifications(t *testing.T) {
	tree := scanTree(t, map[string]string{
		"a/X.json":      `{}`,
		"a/exists.json": `{}`,
	})
	r := NewResolver(tree)

	cases := []struct {
		name   string
		raw    string
		kind   Kind
		target string
		broken bool
	}{
		{"external http", "https://example.com/schema.json", External, "", false},
		{"external file scheme", "file:///tmp/schema.json", External, "", false},
		{"existing sibling", "exists.json", Internal, "a/exists.json", false},
		{"missing target", "missing.json", Internal, "", true},
		{"empty value", "", Malformed, "", true},
		{"escapes root", "../../outside.json", Malformed, "", true},
		{"absolute path", "/etc/passwd", Malformed, "", true},
		{"self fragment", "#/definitions/x", Internal, "a/X.json", false},
	}

	for _, tc := range cases {
		got := r.Resolve(Record{Doc: "a/X.json", Raw: tc.raw})
		if got.Kind != tc.kind {
			t.Fatalf("%s: kind %s, want %s", tc.name, got.Kind, tc.kind)
		}
		if got.Target != tc.target {
			t.Fatalf("%s: target %q, want %q", tc.name, got.Target, tc.target)
		}
		if got.Broken() != tc.broken {
			t.Fatalf("%s: broken=%v, want %v", tc.name, got.Broken(), tc.broken)
		}
	}
}

func TestResolveRecordsFragmentAndAttemptedPath(t *testing.T) {
	tree := scanTree(t, map[string]string{"a/X.json": `{}`})
	r := NewResolver(tree)

	got := r.Resolve(Record{Doc: "a/X.json", Raw: "../ecs/Y.json#/definitions/id"})
	if got.Fragment != "/definitions/id" {
		t.Fatalf("fragment %q", got.Fragment)
	}
	if got.Attempted != "ecs/Y.json" {
		t.Fatalf("attempted %q", got.Attempted)
	}
	if !got.Broken() {
		t.Fatalf("expected missing target to be broken")
	}
}

func TestResolveFindsTargetsOutsideExtensionConvention(t *testing.T) {
	tree := scanTree(t, map[string]string{"a/X.json": `{}`})
	// A target that exists on disk but was not scanned (different
	// extension) still counts as existing.
	extra := filepath.Join(tree.Root, "a", "data.txt")
	if err := os.WriteFile(extra, []byte("x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got := NewResolver(tree).Resolve(Record{Doc: "a/X.json", Raw: "data.txt"})
	if got.Broken() || got.Target != "a/data.txt" {
		t.Fatalf("unexpected resolution: %+v", got)
	}
}
