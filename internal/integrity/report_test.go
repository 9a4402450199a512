package integrity

import (
	"strings"
	"testing"

	"github.com/refmend-dev/refmend/internal/document"
	"github.com/refmend-dev/refmend/internal/refs"
	"github.com/refmend-dev/refmend/internal/rename"
)

func resolvedRef(doc, raw string, kind refs.Kind, target string) refs.Resolved {
	return refs.Resolved{
		Record:    refs.Record{Doc: doc, Raw: raw, Pointer: refs.Pointer{}.Child("$ref")},
		Kind:      kind,
		Target:    target,
		Attempted: target,
	}
}

func TestCheckBucketsEveryReferenceExactlyOnce(t *testing.T) {
	tree := &document.Tree{}
	resolved := []refs.Resolved{
		resolvedRef("a.json", "b.json", refs.Internal, "b.json"),
		resolvedRef("a.json", "https://example.com/schema.json", refs.External, ""),
		{
			Record:    refs.Record{Doc: "a.json", Raw: "gone.json", Pointer: refs.Pointer{}.Child("$ref")},
			Kind:      refs.Internal,
			Attempted: "gone.json",
		},
		{
			Record: refs.Record{Doc: "a.json", Raw: "", Pointer: refs.Pointer{}.Child("properties").Child("x").Child("$ref")},
			Kind:   refs.Malformed,
			Reason: "empty reference",
		},
	}

	report := Check(tree, resolved, nil)

	if report.TotalReferences != 4 {
		t.Fatalf("total = %d", report.TotalReferences)
	}
	if report.Resolved != 1 || report.External != 1 || len(report.Broken) != 2 {
		t.Fatalf("buckets wrong: resolved=%d external=%d broken=%d",
			report.Resolved, report.External, len(report.Broken))
	}
	if report.Resolved+report.External+len(report.Broken) != report.TotalReferences {
		t.Fatalf("buckets do not partition the references")
	}
}

func TestCheckBrokenEntriesAreActionableAndOrdered(t *testing.T) {
	tree := &document.Tree{}
	resolved := []refs.Resolved{
		{
			Record:    refs.Record{Doc: "z.json", Raw: "../ecs/Y.json", Pointer: refs.Pointer{}.Child("$ref")},
			Kind:      refs.Internal,
			Attempted: "ecs/Y.json",
		},
		{
			Record:    refs.Record{Doc: "a.json", Raw: "missing.json", Pointer: refs.Pointer{}.Child("$ref")},
			Kind:      refs.Internal,
			Attempted: "missing.json",
		},
	}

	report := Check(tree, resolved, nil)
	if len(report.Broken) != 2 {
		t.Fatalf("expected 2 broken, got %d", len(report.Broken))
	}
	if report.Broken[0].File != "a.json" || report.Broken[1].File != "z.json" {
		t.Fatalf("broken list not ordered by file: %+v", report.Broken)
	}
	first := report.Broken[1]
	if first.Raw != "../ecs/Y.json" || first.Attempted != "ecs/Y.json" || first.Reason != "missing target" {
		t.Fatalf("broken entry not actionable: %+v", first)
	}
}

func TestCheckMalformedPrecedesAndReportsReason(t *testing.T) {
	resolved := []refs.Resolved{
		{
			Record: refs.Record{Doc: "a.json", Raw: "../../out.json", Pointer: refs.Pointer{}.Child("$ref")},
			Kind:   refs.Malformed,
			Reason: "path-escape: resolves outside the tree root",
		},
	}

	report := Check(&document.Tree{}, resolved, nil)
	if len(report.Broken) != 1 {
		t.Fatalf("expected 1 broken, got %d", len(report.Broken))
	}
	if !strings.HasPrefix(report.Broken[0].Reason, "path-escape") {
		t.Fatalf("reason = %q", report.Broken[0].Reason)
	}
}

// A stale-looking value that still resolves warns; it never fails the audit
// and is never dropped.
func TestCheckWarnsOnCoincidentalResolveOfStalePattern(t *testing.T) {
	rules, err := rename.NewSet([]rename.Rule{
		{Match: "../ecs/", Replacement: "../architecture/meta/", Anchored: true},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}

	resolved := []refs.Resolved{
		resolvedRef("a/X.json", "../ecs/Y.json", refs.Internal, "ecs/Y.json"),
	}
	report := Check(&document.Tree{}, resolved, rules)

	if len(report.Broken) != 0 {
		t.Fatalf("coincidental resolve must not be broken: %+v", report.Broken)
	}
	if len(report.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(report.Warnings))
	}
	if report.Warnings[0].Rule != "../ecs/" {
		t.Fatalf("warning rule = %q", report.Warnings[0].Rule)
	}
	if !report.Clean() {
		t.Fatalf("warnings alone must not make the tree dirty")
	}
}

// Parse issues are carried on the report as data; the verdict is about
// broken references only.
func TestCleanIgnoresParseIssues(t *testing.T) {
	tree := &document.Tree{Issues: []document.Issue{{File: "bad.json", Severity: "error", Message: "parse error"}}}
	report := Check(tree, nil, nil)
	if !report.Clean() {
		t.Fatalf("parse issues alone must not fail the verdict")
	}
	if len(report.Issues) != 1 {
		t.Fatalf("parse issues must still be reported: %+v", report.Issues)
	}
}

func TestCheckCarriesSourceDocumentTitle(t *testing.T) {
	tree := &document.Tree{Documents: []document.Document{
		{Path: "schemas/X.json", Title: "X Entity"},
	}}
	resolved := []refs.Resolved{
		{
			Record:    refs.Record{Doc: "schemas/X.json", Raw: "../ecs/Y.json", Pointer: refs.Pointer{}.Child("$ref")},
			Kind:      refs.Internal,
			Attempted: "ecs/Y.json",
		},
	}

	report := Check(tree, resolved, nil)
	if len(report.Broken) != 1 {
		t.Fatalf("expected 1 broken, got %d", len(report.Broken))
	}
	if report.Broken[0].Title != "X Entity" {
		t.Fatalf("broken entry missing source title: %+v", report.Broken[0])
	}
}

func TestFingerprintIsStableAndContentSensitive(t *testing.T) {
	tree := &document.Tree{Documents: []document.Document{
		{Path: "a.json", Raw: []byte(`{"x":1}`)},
		{Path: "b.json", Raw: []byte(`{"y":2}`)},
	}}

	first := Fingerprint(tree)
	if first != Fingerprint(tree) {
		t.Fatalf("fingerprint not stable")
	}

	tree.Documents[1].Raw = []byte(`{"y":3}`)
	if first == Fingerprint(tree) {
		t.Fatalf("fingerprint ignored content change")
	}
}

func TestSummaryLine(t *testing.T) {
	report := &Report{TotalReferences: 5, Resolved: 3, External: 1, Broken: []Broken{{File: "a.json"}}}
	want := "total references=5 broken=1 external=1 resolved=3"
	if got := report.Summary(); got != want {
		t.Fatalf("Summary() = %q, want %q", got, want)
	}
}
