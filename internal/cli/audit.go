package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RunAudit scans the tree and prints the integrity report. It never
// writes; the exit status is the audit verdict.
func RunAudit(cmd *cobra.Command, args []string) error {
	driver, err := buildDriver(cmd, args)
	if err != nil {
		return err
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}

	out, err := driver.Audit()
	if err != nil {
		return err
	}

	summary := newAuditSummary(driver.Root, out)
	if err := printAuditSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
		return err
	}

	// Exit status is the verdict on references alone: non-zero exactly
	// when broken > 0. Parse issues are printed as data above.
	if len(summary.Broken) > 0 {
		return fmt.Errorf("audit: %d broken references", len(summary.Broken))
	}
	return nil
}
