// Package graph assembles resolved references into a directed dependency
// graph over document identities. The graph is rebuilt fully on each pass
// and is always a pure function of current on-disk content.
package graph

import (
	"sort"

	"github.com/refmend-dev/refmend/internal/refs"
)

// Graph maps each document to the set of documents it references. Edge
// multiplicity across source locations lives in the underlying records;
// adjacency collapses duplicates.
type Graph struct {
	Adjacency map[string][]string
}

// Build constructs the graph from resolved references. Only internal
// references with an existing target contribute edges; self-references are
// legal and recorded. Nodes are created for every document seen as a source
// or a target, so isolated documents still appear.
func Build(documents []string, resolved []refs.Resolved) *Graph {
	g := &Graph{Adjacency: make(map[string][]string, len(documents))}
	for _, doc := range documents {
		g.Adjacency[doc] = nil
	}

	for _, ref := range resolved {
		if ref.Kind != refs.Internal || ref.Target == "" {
			continue
		}
		g.Adjacency[ref.Doc] = append(g.Adjacency[ref.Doc], ref.Target)
		if _, ok := g.Adjacency[ref.Target]; !ok {
			g.Adjacency[ref.Target] = nil
		}
	}

	for doc := range g.Adjacency {
		g.Adjacency[doc] = dedupeAndSort(g.Adjacency[doc])
	}
	return g
}

// Files returns all node identities in lexical order.
func (g *Graph) Files() []string {
	files := make([]string, 0, len(g.Adjacency))
	for file := range g.Adjacency {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}

// Dependents returns the documents that reference target, sorted.
func (g *Graph) Dependents(target string) []string {
	var out []string
	for doc, targets := range g.Adjacency {
		for _, t := range targets {
			if t == target {
				out = append(out, doc)
				break
			}
		}
	}
	sort.Strings(out)
	return out
}

func dedupeAndSort(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, value := range values {
		if seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	sort.Strings(out)
	return out
}
