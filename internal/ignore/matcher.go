package ignore

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type rule struct {
	pattern  string
	negated  bool
	dirOnly  bool
	anchored bool
}

// Matcher applies gitignore-like rules with "last rule wins" behavior.
type Matcher struct {
	rules []rule
}

// NewMatcher builds a matcher from user-provided exclude lines.
// Default excludes cover the directories a schema tree never references into
// (build artifacts, VCS metadata, dependency caches) and can be overridden
// by user negation rules.
func NewMatcher(userRules []string) *Matcher {
	defaultRules := []string{
		".git/",
		".cargo/",
		"node_modules/",
		"target/",
		"artifacts/",
	}

	all := make([]string, 0, len(defaultRules)+len(userRules))
	all = append(all, defaultRules...)
	all = append(all, userRules...)

	rules := make([]rule, 0, len(all))
	for _, line := range all {
		if parsed, ok := parseRule(line); ok {
			rules = append(rules, parsed)
		}
	}

	return &Matcher{rules: rules}
}

// ShouldIgnore returns true when relPath should be excluded.
func (m *Matcher) ShouldIgnore(relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)
	ignored := false
	for _, rule := range m.rules {
		if ruleMatches(rule, relPath, isDir) {
			ignored = !rule.negated
		}
	}
	return ignored
}

func parseRule(line string) (rule, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return rule{}, false
	}

	parsed := rule{}
	if strings.HasPrefix(line, "!") {
		parsed.negated = true
		line = strings.TrimPrefix(line, "!")
	}
	if strings.HasPrefix(line, "/") {
		parsed.anchored = true
		line = strings.TrimPrefix(line, "/")
	}
	if strings.HasSuffix(line, "/") {
		parsed.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}

	line = normalizePath(line)
	if line == "" {
		return rule{}, false
	}
	parsed.pattern = line
	return parsed, true
}

func ruleMatches(rule rule, relPath string, isDir bool) bool {
	relPath = normalizePath(relPath)

	if rule.dirOnly {
		if matchDirectoryPattern(rule, relPath) {
			return true
		}
		if isDir && matchPattern(rule.pattern, filepath.Base(relPath)) {
			return true
		}
		return false
	}

	if rule.anchored {
		return matchPattern(rule.pattern, relPath)
	}

	if strings.Contains(rule.pattern, "/") {
		if matchPattern(rule.pattern, relPath) {
			return true
		}
		parts := strings.Split(relPath, "/")
		for i := 1; i < len(parts); i++ {
			if matchPattern(rule.pattern, strings.Join(parts[i:], "/")) {
				return true
			}
		}
		return false
	}

	if matchPattern(rule.pattern, filepath.Base(relPath)) {
		return true
	}

	for _, segment := range strings.Split(relPath, "/") {
		if matchPattern(rule.pattern, segment) {
			return true
		}
	}
	return false
}

func matchDirectoryPattern(rule rule, relPath string) bool {
	if rule.anchored {
		return relPath == rule.pattern || strings.HasPrefix(relPath, rule.pattern+"/")
	}

	if relPath == rule.pattern || strings.HasPrefix(relPath, rule.pattern+"/") {
		return true
	}

	parts := strings.Split(relPath, "/")
	for i := range parts {
		if strings.Join(parts[:i+1], "/") == rule.pattern {
			return true
		}
	}
	return false
}

func matchPattern(pattern, value string) bool {
	ok, err := doublestar.Match(pattern, value)
	return err == nil && ok
}

func normalizePath(path string) string {
	path = filepath.ToSlash(path)
	path = strings.TrimPrefix(path, "./")
	path = strings.TrimPrefix(path, "/")
	return path
}
