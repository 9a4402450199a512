package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/refmend-dev/refmend/internal/document"
	"github.com/refmend-dev/refmend/internal/fileutil"
	"github.com/refmend-dev/refmend/internal/integrity"
	"github.com/refmend-dev/refmend/internal/repair"
)

type AuditSummary struct {
	Mode      string              `json:"mode"`
	Root      string              `json:"root"`
	Documents int                 `json:"documents"`
	Total     int                 `json:"total_references"`
	Resolved  int                 `json:"resolved"`
	External  int                 `json:"external"`
	Broken    []integrity.Broken  `json:"broken"`
	Warnings  []integrity.Warning `json:"warnings,omitempty"`
	Issues    []document.Issue    `json:"issues,omitempty"`
	TreeHash  string              `json:"tree_hash"`
	Clean     bool                `json:"clean"`
}

type RepairSummary struct {
	Mode         string             `json:"mode"`
	Root         string             `json:"root"`
	State        repair.State       `json:"state"`
	DryRun       bool               `json:"dry_run"`
	BrokenBefore int                `json:"broken_before"`
	BrokenAfter  int                `json:"broken_after"`
	Actions      []repair.Action    `json:"actions,omitempty"`
	Residual     []integrity.Broken `json:"residual,omitempty"`
	Regressions  []integrity.Broken `json:"regressions,omitempty"`
	Suspect      []string           `json:"suspect,omitempty"`
	TreeHash     string             `json:"tree_hash"`
}

func newAuditSummary(root string, out *repair.Outcome) AuditSummary {
	report := out.Before
	return AuditSummary{
		Mode:      "audit",
		Root:      root,
		Documents: out.Documents,
		Total:     report.TotalReferences,
		Resolved:  report.Resolved,
		External:  report.External,
		Broken:    report.Broken,
		Warnings:  report.Warnings,
		Issues:    report.Issues,
		TreeHash:  report.TreeHash,
		Clean:     report.Clean(),
	}
}

func printAuditSummary(w io.Writer, summary AuditSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	fmt.Fprintf(w, "audit: %s\n", summary.Root)
	fmt.Fprintf(w, "documents: %d\n", summary.Documents)
	fmt.Fprintf(w, "total references=%d broken=%d external=%d resolved=%d\n",
		summary.Total, len(summary.Broken), summary.External, summary.Resolved)
	for _, b := range summary.Broken {
		fmt.Fprintf(w, "broken: %s%s %s %q -> %s (%s)\n",
			b.File, titleSuffix(b.Title), b.Pointer, b.Raw, orDash(b.Attempted), b.Reason)
	}
	for _, warning := range summary.Warnings {
		fmt.Fprintf(w, "warning: %s %s %q matches rule %q but resolves\n",
			warning.File, warning.Pointer, warning.Raw, warning.Rule)
	}
	for _, issue := range summary.Issues {
		fmt.Fprintf(w, "%s: %s: %s\n", issue.Severity, issue.File, issue.Message)
	}
	fmt.Fprintf(w, "tree hash: %s\n", summary.TreeHash)
	return nil
}

func newRepairSummary(root string, out *repair.Outcome, dryRun bool) RepairSummary {
	summary := RepairSummary{
		Mode:         "repair",
		Root:         root,
		State:        out.State,
		DryRun:       dryRun,
		BrokenBefore: out.Before.BrokenCount(),
		BrokenAfter:  out.Before.BrokenCount(),
		Actions:      out.Actions,
		Residual:     out.Residual,
		Regressions:  out.Regressions,
		Suspect:      out.Suspect,
		TreeHash:     out.Before.TreeHash,
	}
	if out.After != nil {
		summary.BrokenAfter = out.After.BrokenCount()
		summary.TreeHash = out.After.TreeHash
	}
	return summary
}

func printRepairSummary(w io.Writer, summary RepairSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	mode := "repair"
	if summary.DryRun {
		mode = "repair (dry-run)"
	}
	fmt.Fprintf(w, "%s: %s\n", mode, summary.Root)
	fmt.Fprintf(w, "state: %s broken=%d->%d actions=%d residual=%d\n",
		summary.State, summary.BrokenBefore, summary.BrokenAfter, len(summary.Actions), len(summary.Residual))
	for _, action := range summary.Actions {
		fmt.Fprintf(w, "rewrite: %s %s %q -> %q\n", action.File, action.Pointer, action.Old, action.New)
	}
	for _, b := range summary.Residual {
		fmt.Fprintf(w, "residual: %s%s %s %q (%s)\n", b.File, titleSuffix(b.Title), b.Pointer, b.Raw, b.Reason)
	}
	for _, b := range summary.Regressions {
		fmt.Fprintf(w, "regression: %s %s %q\n", b.File, b.Pointer, b.Raw)
	}
	if len(summary.Suspect) > 0 {
		fmt.Fprintf(w, "suspect files (%d): %s\n", len(summary.Suspect), strings.Join(summary.Suspect, ", "))
	}
	fmt.Fprintf(w, "tree hash: %s\n", summary.TreeHash)
	return nil
}

// titleSuffix renders a document's title next to its path when one was
// declared, e.g. `schemas/X.json ("X Entity")`.
func titleSuffix(title string) string {
	if title == "" {
		return ""
	}
	return fmt.Sprintf(" (%q)", title)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
