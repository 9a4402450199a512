package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refmend-dev/refmend/internal/fileutil"
	"github.com/refmend-dev/refmend/internal/rename"
)

type RulePreview struct {
	Value     string `json:"value"`
	Rewritten string `json:"rewritten"`
	Changed   bool   `json:"changed"`
}

type RulesSummary struct {
	Mode     string        `json:"mode"`
	File     string        `json:"file"`
	Rules    []rename.Rule `json:"rules"`
	Previews []RulePreview `json:"previews,omitempty"`
}

// RunRules validates a rules file and, for any sample values given as
// arguments, previews what a repair would rewrite them to.
func RunRules(cmd *cobra.Command, args []string) error {
	rulesPath, err := stringFlag(cmd, "rules")
	if err != nil {
		return err
	}
	if rulesPath == "" {
		return errors.New("rules requires --rules")
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}

	set, err := rename.Load(rulesPath)
	if err != nil {
		return err
	}

	summary := RulesSummary{Mode: "rules", File: rulesPath, Rules: set.Rules}
	for _, value := range args {
		rewritten := set.Apply(value)
		summary.Previews = append(summary.Previews, RulePreview{
			Value:     value,
			Rewritten: rewritten,
			Changed:   rewritten != value,
		})
	}

	if asJSON {
		return fileutil.PrintJSON(cmd.OutOrStdout(), summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "rules: %s (%d)\n", rulesPath, len(summary.Rules))
	for i, rule := range summary.Rules {
		anchor := ""
		if rule.Anchored {
			anchor = " (anchored)"
		}
		fmt.Fprintf(w, "%d. %q -> %q%s\n", i+1, rule.Match, rule.Replacement, anchor)
	}
	for _, preview := range summary.Previews {
		if preview.Changed {
			fmt.Fprintf(w, "preview: %q -> %q\n", preview.Value, preview.Rewritten)
		} else {
			fmt.Fprintf(w, "preview: %q unchanged\n", preview.Value)
		}
	}
	return nil
}
