// Package document loads a schema document tree from disk. Every scan
// re-reads the filesystem; nothing is cached across invocations, so a tree
// is always a pure function of current on-disk content.
package document

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Document is a single parsed schema file. Path is the tree-relative,
// slash-separated identity used everywhere else in the engine.
type Document struct {
	Path    string
	AbsPath string
	ID      string
	Title   string
	Raw     []byte
	Body    any
}

// Issue captures a non-fatal problem encountered while scanning, typically
// a file that failed to parse. One bad file never aborts the scan.
type Issue struct {
	File     string `json:"file"`
	Severity string `json:"severity"` // warning | error
	Message  string `json:"message"`
}

// Tree is the result of scanning a document tree root.
type Tree struct {
	Root      string
	Documents []Document
	Issues    []Issue
}

// Lookup reports whether a tree-relative path names a scanned document.
func (t *Tree) Lookup(relPath string) bool {
	_, ok := t.Find(relPath)
	return ok
}

// Find returns the scanned document at a tree-relative path.
func (t *Tree) Find(relPath string) (Document, bool) {
	i := sort.Search(len(t.Documents), func(i int) bool {
		return t.Documents[i].Path >= relPath
	})
	if i < len(t.Documents) && t.Documents[i].Path == relPath {
		return t.Documents[i], true
	}
	return Document{}, false
}

// Paths returns the sorted tree-relative paths of all scanned documents.
func (t *Tree) Paths() []string {
	paths := make([]string, len(t.Documents))
	for i, doc := range t.Documents {
		paths[i] = doc.Path
	}
	return paths
}

func parseDocument(relPath, absPath string, raw []byte) (Document, error) {
	var body any
	if err := json.Unmarshal(raw, &body); err != nil {
		return Document{}, fmt.Errorf("parsing %s: %w", relPath, err)
	}

	doc := Document{
		Path:    relPath,
		AbsPath: absPath,
		Raw:     raw,
		Body:    body,
	}
	if obj, ok := body.(map[string]any); ok {
		if id, ok := obj["$id"].(string); ok {
			doc.ID = id
		}
		if title, ok := obj["title"].(string); ok {
			doc.Title = title
		}
	}
	return doc, nil
}
