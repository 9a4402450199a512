// Package repair orchestrates the audit/repair state machine:
// Scanning -> Reporting -> (Rewriting -> Reverifying | Done). Repair never
// runs on a read-only audit invocation, and a pass that makes the graph
// worse is surfaced as a failure, never accepted.
package repair

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/refmend-dev/refmend/internal/document"
	"github.com/refmend-dev/refmend/internal/fileutil"
	"github.com/refmend-dev/refmend/internal/graph"
	"github.com/refmend-dev/refmend/internal/integrity"
	"github.com/refmend-dev/refmend/internal/refs"
	"github.com/refmend-dev/refmend/internal/rename"
)

// State names a position in the driver's state machine.
type State string

const (
	StateScanning    State = "scanning"
	StateReporting   State = "reporting"
	StateRewriting   State = "rewriting"
	StateReverifying State = "reverifying"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Driver runs the pipeline over one tree. It holds no cache: every run
// re-reads disk state.
type Driver struct {
	Root  string
	Scan  document.Options
	Rules *rename.Set
}

// Action is one value rewrite, addressed by the exact structural location
// the reference was extracted from.
type Action struct {
	File    string `json:"file"`
	Pointer string `json:"pointer"`
	Old     string `json:"old"`
	New     string `json:"new"`

	ptr refs.Pointer
}

// Outcome is the result of an audit or repair run.
type Outcome struct {
	State State `json:"state"`
	// Documents is the number of documents in the scanned tree.
	Documents int `json:"documents"`
	// Before is the report from the initial pass; After is the
	// post-rewrite report (nil for audits and clean trees).
	Before  *integrity.Report `json:"before"`
	After   *integrity.Report `json:"after,omitempty"`
	Graph   *graph.Graph      `json:"-"`
	Actions []Action          `json:"actions,omitempty"`
	// Residual lists broken references no rule covers; they are reported
	// for manual resolution, never invented.
	Residual []integrity.Broken `json:"residual,omitempty"`
	// Regressions lists references that resolved before rewriting and
	// are broken after. Rewritten files should be treated as suspect.
	Regressions []integrity.Broken `json:"regressions,omitempty"`
	// Suspect lists the files touched by a failed repair.
	Suspect []string `json:"suspect,omitempty"`
}

// RegressionError is returned when a repair pass made the tree worse.
type RegressionError struct {
	Before, After int
	Regressions   []integrity.Broken
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("repair regressed the tree: broken %d -> %d, %d previously-resolved references now broken",
		e.Before, e.After, len(e.Regressions))
}

type pass struct {
	tree     *document.Tree
	resolved []refs.Resolved
	report   *integrity.Report
	graph    *graph.Graph
}

// scan runs the read-only pipeline: extract, resolve, build, check.
func (d *Driver) scan() (*pass, error) {
	tree, err := document.Scan(d.Root, d.Scan)
	if err != nil {
		return nil, err
	}
	records := refs.ExtractAll(tree)
	resolved := refs.NewResolver(tree).ResolveAll(records)
	return &pass{
		tree:     tree,
		resolved: resolved,
		report:   integrity.Check(tree, resolved, d.Rules),
		graph:    graph.Build(tree.Paths(), resolved),
	}, nil
}

// Audit runs Scanning and Reporting only. It never mutates anything.
func (d *Driver) Audit() (*Outcome, error) {
	p, err := d.scan()
	if err != nil {
		return nil, err
	}
	out := &Outcome{Documents: len(p.tree.Documents), Before: p.report, Graph: p.graph}
	if p.report.Clean() {
		out.State = StateDone
	} else {
		out.State = StateFailed
		out.Residual = p.report.Broken
	}
	return out, nil
}

// Plan runs Scanning and Reporting and computes the actions a repair
// would take, without writing anything. Used for the pre-confirmation
// preview.
func (d *Driver) Plan() (*Outcome, error) {
	p, err := d.scan()
	if err != nil {
		return nil, err
	}
	out := &Outcome{State: StateReporting, Documents: len(p.tree.Documents), Before: p.report, Graph: p.graph}
	if p.report.Clean() {
		return out, nil
	}
	out.Actions, out.Residual = d.plan(p)
	return out, nil
}

// Repair runs the full state machine. The caller is responsible for
// operator confirmation before invoking it.
func (d *Driver) Repair() (*Outcome, error) {
	before, err := d.scan()
	if err != nil {
		return nil, err
	}
	out := &Outcome{Documents: len(before.tree.Documents), Before: before.report, Graph: before.graph}

	if before.report.Clean() {
		out.State = StateDone
		return out, nil
	}

	actions, residual := d.plan(before)
	out.Actions = actions
	out.Residual = residual

	if len(actions) == 0 {
		out.State = StateFailed
		return out, fmt.Errorf("no rename rule covers any of the %d broken references", len(before.report.Broken))
	}

	if err := d.rewrite(before.tree, actions); err != nil {
		out.State = StateFailed
		return out, err
	}

	after, err := d.scan()
	if err != nil {
		out.State = StateFailed
		return out, fmt.Errorf("reverification scan: %w", err)
	}
	out.After = after.report
	out.Graph = after.graph

	regressions := findRegressions(before.resolved, after.resolved)
	if len(regressions) > 0 || after.report.BrokenCount() >= before.report.BrokenCount() {
		out.State = StateFailed
		out.Regressions = regressions
		out.Suspect = touchedFiles(actions)
		return out, &RegressionError{
			Before:      before.report.BrokenCount(),
			After:       after.report.BrokenCount(),
			Regressions: regressions,
		}
	}

	if after.report.BrokenCount() > 0 {
		out.State = StateFailed
		out.Residual = after.report.Broken
		return out, nil
	}

	out.State = StateDone
	out.Residual = nil
	return out, nil
}

// plan computes the rewrite for every broken reference a rule covers.
// Broken references outside the rule set stay residual; repair never
// invents a target.
func (d *Driver) plan(p *pass) ([]Action, []integrity.Broken) {
	var actions []Action
	var residual []integrity.Broken

	for _, ref := range p.resolved {
		if !ref.Broken() {
			continue
		}
		rewritten := d.Rules.Apply(ref.Raw)
		if rewritten == ref.Raw {
			residual = append(residual, integrity.Broken{
				File:      ref.Doc,
				Pointer:   ref.Pointer.String(),
				Raw:       ref.Raw,
				Attempted: ref.Attempted,
				Reason:    "no rename rule matches",
			})
			continue
		}
		actions = append(actions, Action{
			File:    ref.Doc,
			Pointer: ref.Pointer.String(),
			Old:     ref.Raw,
			New:     rewritten,
			ptr:     ref.Pointer,
		})
	}

	sort.Slice(actions, func(i, j int) bool {
		if actions[i].File == actions[j].File {
			return actions[i].Pointer < actions[j].Pointer
		}
		return actions[i].File < actions[j].File
	})
	sort.Slice(residual, func(i, j int) bool {
		if residual[i].File == residual[j].File {
			return residual[i].Pointer < residual[j].Pointer
		}
		return residual[i].File < residual[j].File
	})
	return actions, residual
}

// rewrite applies actions grouped per document. Each document has exactly
// one writer; distinct documents rewrite concurrently. Writes are atomic
// per file, so an interrupted run leaves every written document
// individually well-formed.
func (d *Driver) rewrite(tree *document.Tree, actions []Action) error {
	byFile := make(map[string][]Action)
	for _, action := range actions {
		byFile[action.File] = append(byFile[action.File], action)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error

	for _, doc := range tree.Documents {
		fileActions := byFile[doc.Path]
		if len(fileActions) == 0 {
			continue
		}
		wg.Add(1)
		go func(doc document.Document, fileActions []Action) {
			defer wg.Done()
			data, err := rewriteDocument(doc.Raw, fileActions)
			if err == nil {
				err = fileutil.WriteAtomic(doc.AbsPath, data, filePerm(doc.AbsPath))
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("rewriting %s: %w", doc.Path, err))
				mu.Unlock()
			}
		}(doc, fileActions)
	}
	wg.Wait()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// findRegressions returns previously-resolved references that are broken
// after rewriting, keyed by document and structural location.
func findRegressions(before, after []refs.Resolved) []integrity.Broken {
	wasResolved := make(map[string]bool, len(before))
	for _, ref := range before {
		if ref.Kind == refs.Internal && ref.Target != "" {
			wasResolved[ref.Doc+"\x00"+ref.Pointer.String()] = true
		}
	}

	var regressions []integrity.Broken
	for _, ref := range after {
		if !ref.Broken() {
			continue
		}
		if wasResolved[ref.Doc+"\x00"+ref.Pointer.String()] {
			regressions = append(regressions, integrity.Broken{
				File:      ref.Doc,
				Pointer:   ref.Pointer.String(),
				Raw:       ref.Raw,
				Attempted: ref.Attempted,
				Reason:    "regression: resolved before repair",
			})
		}
	}
	sort.Slice(regressions, func(i, j int) bool {
		if regressions[i].File == regressions[j].File {
			return regressions[i].Pointer < regressions[j].Pointer
		}
		return regressions[i].File < regressions[j].File
	})
	return regressions
}

func touchedFiles(actions []Action) []string {
	seen := make(map[string]bool)
	var files []string
	for _, action := range actions {
		if !seen[action.File] {
			seen[action.File] = true
			files = append(files, action.File)
		}
	}
	sort.Strings(files)
	return files
}

func filePerm(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0644
}
