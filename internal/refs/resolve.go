package refs

import (
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/refmend-dev/refmend/internal/document"
)

// schemePattern matches a URI scheme prefix (RFC 3986 scheme grammar).
var schemePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)

// Resolver turns raw reference values into canonical document identities.
// Resolution is always relative to the directory containing the source
// document, never to the process working directory.
type Resolver struct {
	tree *document.Tree
}

func NewResolver(tree *document.Tree) *Resolver {
	return &Resolver{tree: tree}
}

// Resolve classifies a single record. The attempted path is tree-relative
// and lexically normalized, so two runs produce identical identities
// regardless of visit order.
func (r *Resolver) Resolve(rec Record) Resolved {
	resolved := Resolved{Record: rec, Kind: Internal}

	raw := rec.Raw
	if raw == "" {
		resolved.Kind = Malformed
		resolved.Reason = "empty reference"
		return resolved
	}

	if schemePattern.MatchString(raw) {
		resolved.Kind = External
		return resolved
	}

	pathPart := raw
	if i := strings.Index(raw, "#"); i >= 0 {
		pathPart = raw[:i]
		resolved.Fragment = raw[i+1:]
	}

	// A bare fragment points into the containing document itself.
	if pathPart == "" {
		resolved.Target = rec.Doc
		resolved.Attempted = rec.Doc
		return resolved
	}

	if strings.HasPrefix(pathPart, "/") {
		resolved.Kind = Malformed
		resolved.Reason = "absolute path"
		return resolved
	}

	attempted := path.Join(path.Dir(rec.Doc), pathPart)
	if attempted == ".." || strings.HasPrefix(attempted, "../") {
		resolved.Kind = Malformed
		resolved.Reason = "path-escape: resolves outside the tree root"
		return resolved
	}
	resolved.Attempted = attempted

	if r.exists(attempted) {
		resolved.Target = attempted
	}
	return resolved
}

// ResolveAll resolves a batch of records in order.
func (r *Resolver) ResolveAll(records []Record) []Resolved {
	out := make([]Resolved, 0, len(records))
	for _, rec := range records {
		out = append(out, r.Resolve(rec))
	}
	return out
}

// exists checks the scanned tree first, then falls back to the filesystem
// for files outside the extension convention (a target that exists on disk
// is not dangling even if the scan skipped it).
func (r *Resolver) exists(relPath string) bool {
	if r.tree.Lookup(relPath) {
		return true
	}
	info, err := os.Stat(filepath.Join(r.tree.Root, filepath.FromSlash(relPath)))
	return err == nil && !info.IsDir()
}
