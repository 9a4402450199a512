package document

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/refmend-dev/refmend/internal/ignore"
)

// DefaultExtension is the document extension convention when the caller
// supplies none.
const DefaultExtension = ".json"

// Options configure a tree scan.
type Options struct {
	// Extensions restricts the scan to files with one of these suffixes.
	// Empty means DefaultExtension.
	Extensions []string
	// Include, when non-empty, keeps only files matching one of these
	// doublestar globs (tree-relative).
	Include []string
	// Exclude drops files matching one of these doublestar globs.
	Exclude []string
	// IgnoreRules are extra gitignore-style lines on top of the defaults.
	IgnoreRules []string
	// Workers caps the read/parse pool; <=0 means GOMAXPROCS.
	Workers int
}

func (o Options) extensions() []string {
	if len(o.Extensions) == 0 {
		return []string{DefaultExtension}
	}
	return o.Extensions
}

// Scan walks root, reads and parses every matching document, and returns a
// Tree with documents sorted by path. Reads and parses run on a worker pool;
// the merge is deterministic regardless of completion order. Unparsable
// files become error Issues and do not abort the scan.
func Scan(root string, opts Options) (*Tree, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving root %q: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", absRoot)
	}

	tree := &Tree{Root: absRoot}
	matcher := ignore.NewMatcher(opts.IgnoreRules)

	var candidates []string
	walkErr := filepath.Walk(absRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			relPath := path
			if rel, relErr := filepath.Rel(absRoot, path); relErr == nil {
				relPath = filepath.ToSlash(rel)
			}
			tree.Issues = append(tree.Issues, Issue{
				File:     relPath,
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			return err
		}
		relPath := filepath.ToSlash(rel)

		if matcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if !matchesFilter(relPath, opts) {
			return nil
		}
		candidates = append(candidates, relPath)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", absRoot, walkErr)
	}

	docs, issues := loadAll(absRoot, candidates, opts.Workers)
	tree.Documents = docs
	tree.Issues = append(tree.Issues, issues...)

	sort.Slice(tree.Documents, func(i, j int) bool {
		return tree.Documents[i].Path < tree.Documents[j].Path
	})
	sort.Slice(tree.Issues, func(i, j int) bool {
		if tree.Issues[i].File == tree.Issues[j].File {
			return tree.Issues[i].Message < tree.Issues[j].Message
		}
		return tree.Issues[i].File < tree.Issues[j].File
	})

	return tree, nil
}

func matchesFilter(relPath string, opts Options) bool {
	matched := false
	for _, ext := range opts.extensions() {
		if strings.HasSuffix(relPath, ext) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	if len(opts.Include) > 0 {
		included := false
		for _, pattern := range opts.Include {
			if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
				included = true
				break
			}
		}
		if !included {
			return false
		}
	}

	for _, pattern := range opts.Exclude {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return false
		}
	}
	return true
}

// loadAll reads and parses candidates on a worker pool. Workers share no
// mutable state; each emits into its own result slot and the caller merges.
func loadAll(absRoot string, candidates []string, workers int) ([]Document, []Issue) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(candidates) {
		workers = len(candidates)
	}

	type slot struct {
		doc   *Document
		issue *Issue
	}
	results := make([]slot, len(candidates))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				relPath := candidates[i]
				absPath := filepath.Join(absRoot, filepath.FromSlash(relPath))
				raw, err := os.ReadFile(absPath)
				if err != nil {
					results[i].issue = &Issue{
						File:     relPath,
						Severity: "error",
						Message:  fmt.Sprintf("read error: %v", err),
					}
					continue
				}
				doc, err := parseDocument(relPath, absPath, raw)
				if err != nil {
					results[i].issue = &Issue{
						File:     relPath,
						Severity: "error",
						Message:  fmt.Sprintf("parse error: %v", err),
					}
					continue
				}
				results[i].doc = &doc
			}
		}()
	}
	for i := range candidates {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	docs := make([]Document, 0, len(candidates))
	var issues []Issue
	for _, r := range results {
		if r.doc != nil {
			docs = append(docs, *r.doc)
		}
		if r.issue != nil {
			issues = append(issues, *r.issue)
		}
	}
	return docs, issues
}
