package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/refmend-dev/refmend/internal/repair"
)

// RunRepair rewrites broken references covered by the rules. Without
// --yes it stops after printing the plan, so a bare invocation can never
// modify the tree.
func RunRepair(cmd *cobra.Command, args []string) error {
	driver, err := buildDriver(cmd, args)
	if err != nil {
		return err
	}
	if driver.Rules.Empty() {
		return errors.New("repair requires --rules; refusing to guess rewrites")
	}
	asJSON, err := boolFlag(cmd, "json")
	if err != nil {
		return err
	}
	confirmed, err := boolFlag(cmd, "yes")
	if err != nil {
		return err
	}

	if !confirmed {
		out, err := driver.Plan()
		if err != nil {
			return err
		}
		summary := newRepairSummary(driver.Root, out, true)
		if err := printRepairSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
			return err
		}
		if len(out.Actions) > 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no files written; re-run with --yes to apply")
		}
		return nil
	}

	out, runErr := driver.Repair()
	if out == nil {
		return runErr
	}
	summary := newRepairSummary(driver.Root, out, false)
	if err := printRepairSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	if out.State != repair.StateDone {
		return fmt.Errorf("repair incomplete: %d broken references remain", summary.BrokenAfter)
	}
	return nil
}
