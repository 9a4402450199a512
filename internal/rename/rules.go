// Package rename rewrites raw reference values against a declared, ordered
// set of path-rewrite rules. The engine exists to replace ad-hoc global
// substitution, whose chained replacements corrupted paths whenever one
// rule's replacement text contained another rule's match pattern.
package rename

import (
	"fmt"
	"sort"
	"strings"
)

// Rule maps an old path fragment to its replacement. Anchored rules only
// match at path-segment boundaries, so a directory rename cannot fire
// inside an unrelated filename that happens to contain the same substring.
type Rule struct {
	Match       string `yaml:"match" json:"match"`
	Replacement string `yaml:"replacement" json:"replacement"`
	Anchored    bool   `yaml:"anchored" json:"anchored"`
}

// Set is an ordered, immutable rule list loaded once per invocation.
type Set struct {
	Rules []Rule
}

func NewSet(rules []Rule) (*Set, error) {
	for i, rule := range rules {
		if rule.Match == "" {
			return nil, fmt.Errorf("rule %d: empty match pattern", i+1)
		}
		if rule.Replacement == rule.Match {
			return nil, fmt.Errorf("rule %d: replacement equals match %q", i+1, rule.Match)
		}
	}
	return &Set{Rules: rules}, nil
}

// Empty reports whether the set holds no rules.
func (s *Set) Empty() bool {
	return s == nil || len(s.Rules) == 0
}

type span struct {
	start, end  int
	replacement string
}

// Apply rewrites value, giving each rule in order a single pass, always
// matched against the original input. A rule's output is never fed back
// through the chain, and regions of the input equal to any rule's
// replacement text are treated as already rewritten and never matched
// again. Together with boundary anchoring this makes the full set
// idempotent: Apply(Apply(v)) == Apply(v). A value matching no rule is
// returned unchanged.
func (s *Set) Apply(value string) string {
	if s.Empty() || value == "" {
		return value
	}

	claimed := s.replacementSpans(value)
	var edits []span

	// One pass per rule over the original input. Matches never land inside
	// a claimed region or a prior rule's edit, so no character is
	// rewritten twice and no rule ever sees another rule's output.
	for _, rule := range s.Rules {
		from := 0
		for {
			at, ok := findMatch(value, from, rule, claimed, edits)
			if !ok {
				break
			}
			edits = append(edits, span{
				start:       at,
				end:         at + len(rule.Match),
				replacement: rule.Replacement,
			})
			from = at + len(rule.Match)
		}
	}
	if len(edits) == 0 {
		return value
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(value[last:e.start])
		b.WriteString(e.replacement)
		last = e.end
	}
	b.WriteString(value[last:])
	return b.String()
}

// Matches reports the first rule whose pattern fires on value under the
// same matching discipline as Apply. Used to flag stale-looking values and
// to decide which broken references are repairable.
func (s *Set) Matches(value string) (Rule, bool) {
	if s.Empty() || value == "" {
		return Rule{}, false
	}
	claimed := s.replacementSpans(value)
	for _, rule := range s.Rules {
		if _, ok := findMatch(value, 0, rule, claimed, nil); ok {
			return rule, true
		}
	}
	return Rule{}, false
}

// replacementSpans finds every occurrence of any rule's replacement text in
// value. Those regions are evidence of a prior rewrite and are off limits.
// The exception is a replacement found entirely inside an occurrence of the
// same rule's match: that text is part of the unrewritten original, so a
// shortening rule (replacement a substring of its own match) can still fire.
func (s *Set) replacementSpans(value string) []span {
	var spans []span
	for _, rule := range s.Rules {
		if rule.Replacement == "" {
			continue
		}
		matches := occurrences(value, rule.Match)
		for from := 0; ; {
			i := strings.Index(value[from:], rule.Replacement)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(rule.Replacement)
			if !containedAny(start, end, matches) {
				spans = append(spans, span{start: start, end: end})
			}
			from = start + 1
		}
	}
	return spans
}

func occurrences(value, substr string) []span {
	var spans []span
	for from := 0; ; {
		i := strings.Index(value[from:], substr)
		if i < 0 {
			return spans
		}
		start := from + i
		spans = append(spans, span{start: start, end: start + len(substr)})
		from = start + 1
	}
}

func containedAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if start >= s.start && end <= s.end {
			return true
		}
	}
	return false
}

// findMatch locates the first occurrence of rule.Match in value at or
// after from that honors anchoring and overlaps neither a claimed region
// nor an earlier edit.
func findMatch(value string, from int, rule Rule, claimed, edits []span) (int, bool) {
	for {
		i := strings.Index(value[from:], rule.Match)
		if i < 0 {
			return 0, false
		}
		start := from + i
		end := start + len(rule.Match)
		if (!rule.Anchored || anchoredAt(value, start, end)) &&
			!overlapsAny(start, end, claimed) &&
			!overlapsAny(start, end, edits) {
			return start, true
		}
		from = start + 1
	}
}

// anchoredAt reports whether [start,end) sits on path-segment boundaries:
// the match must begin at the start of the value or just after a '/', and
// must end at the end of the value, just before a '/', or with a '/' of
// its own.
func anchoredAt(value string, start, end int) bool {
	if start > 0 && value[start-1] != '/' {
		return false
	}
	if end < len(value) && value[end] != '/' && value[end-1] != '/' {
		return false
	}
	return true
}

func overlapsAny(start, end int, spans []span) bool {
	for _, s := range spans {
		if start < s.end && end > s.start {
			return true
		}
	}
	return false
}
