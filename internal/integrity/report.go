// Package integrity classifies resolved references and aggregates them into
// a report. Every reference lands in exactly one bucket; nothing is
// silently dropped.
package integrity

import (
	"fmt"
	"sort"

	"github.com/refmend-dev/refmend/internal/document"
	"github.com/refmend-dev/refmend/internal/refs"
	"github.com/refmend-dev/refmend/internal/rename"
)

// Broken is one reference that needs attention, with enough context to act
// on without re-deriving resolution.
type Broken struct {
	File      string `json:"file"`
	Title     string `json:"title,omitempty"`
	Pointer   string `json:"pointer"`
	Raw       string `json:"raw"`
	Attempted string `json:"attempted,omitempty"`
	Reason    string `json:"reason"`
}

// Warning flags a raw value that matches a known stale pattern yet still
// resolves to an existing file. After a reorganization that is evidence of
// an unintended path collision, not correctness.
type Warning struct {
	File    string `json:"file"`
	Pointer string `json:"pointer"`
	Raw     string `json:"raw"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Report is the immutable outcome of one integrity pass.
type Report struct {
	TotalReferences int              `json:"total_references"`
	Resolved        int              `json:"resolved"`
	External        int              `json:"external"`
	Broken          []Broken         `json:"broken"`
	Warnings        []Warning        `json:"warnings,omitempty"`
	Issues          []document.Issue `json:"issues,omitempty"`
	TreeHash        string           `json:"tree_hash"`
}

// BrokenCount returns the number of broken references.
func (r *Report) BrokenCount() int {
	return len(r.Broken)
}

// Clean reports whether the tree has no broken references. Scan issues
// (unreadable or unparsable files) are data carried on the report; they
// never flip the verdict.
func (r *Report) Clean() bool {
	return len(r.Broken) == 0
}

// Summary renders the one-line human-readable count contract.
func (r *Report) Summary() string {
	return fmt.Sprintf("total references=%d broken=%d external=%d resolved=%d",
		r.TotalReferences, len(r.Broken), r.External, r.Resolved)
}

// Check classifies every resolved reference. Precedence per reference:
// malformed, then external (excluded from broken entirely), then internal
// without a target (broken, "missing target"), then resolved. Rules, when
// supplied, contribute stale-pattern warnings for resolved references.
func Check(tree *document.Tree, resolved []refs.Resolved, rules *rename.Set) *Report {
	report := &Report{
		TotalReferences: len(resolved),
		Issues:          tree.Issues,
		TreeHash:        Fingerprint(tree),
	}

	titleOf := func(docPath string) string {
		doc, _ := tree.Find(docPath)
		return doc.Title
	}

	for _, ref := range resolved {
		switch {
		case ref.Kind == refs.Malformed:
			reason := "unparsable"
			if ref.Reason != "" {
				reason = ref.Reason
			}
			report.Broken = append(report.Broken, Broken{
				File:    ref.Doc,
				Title:   titleOf(ref.Doc),
				Pointer: ref.Pointer.String(),
				Raw:     ref.Raw,
				Reason:  reason,
			})
		case ref.Kind == refs.External:
			report.External++
		case ref.Target == "":
			report.Broken = append(report.Broken, Broken{
				File:      ref.Doc,
				Title:     titleOf(ref.Doc),
				Pointer:   ref.Pointer.String(),
				Raw:       ref.Raw,
				Attempted: ref.Attempted,
				Reason:    "missing target",
			})
		default:
			report.Resolved++
			if rule, ok := rules.Matches(ref.Raw); ok {
				report.Warnings = append(report.Warnings, Warning{
					File:    ref.Doc,
					Pointer: ref.Pointer.String(),
					Raw:     ref.Raw,
					Rule:    rule.Match,
					Message: "matches stale pattern but resolves; possible path collision",
				})
			}
		}
	}

	sortBroken(report.Broken)
	sort.Slice(report.Warnings, func(i, j int) bool {
		if report.Warnings[i].File == report.Warnings[j].File {
			return report.Warnings[i].Pointer < report.Warnings[j].Pointer
		}
		return report.Warnings[i].File < report.Warnings[j].File
	})
	return report
}

func sortBroken(broken []Broken) {
	sort.Slice(broken, func(i, j int) bool {
		if broken[i].File == broken[j].File {
			return broken[i].Pointer < broken[j].Pointer
		}
		return broken[i].File < broken[j].File
	})
}
