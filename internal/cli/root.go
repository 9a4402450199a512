package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "refmend",
		Short: "Audit and repair $ref links across a JSON document tree",
		Long: `Refmend scans a tree of JSON documents, resolves every $ref relative
to its containing file, and reports references whose targets are
missing. Given a rename rules file it can rewrite stale references
in place, touching only the reference values themselves.`,
		SilenceUsage: true,
	}

	auditCmd := &cobra.Command{
		Use:   "audit [tree]",
		Short: "Scan the tree and report broken references (read-only)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunAudit,
	}
	addScanFlags(auditCmd)

	repairCmd := &cobra.Command{
		Use:   "repair [tree]",
		Short: "Rewrite broken references covered by the rename rules",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunRepair,
	}
	addScanFlags(repairCmd)
	repairCmd.Flags().Bool("yes", false, "Apply the rewrites; without it only the plan is printed")

	graphCmd := &cobra.Command{
		Use:   "graph [tree]",
		Short: "Export the dependency graph and any reference cycles",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunGraph,
	}
	addScanFlags(graphCmd)

	rulesCmd := &cobra.Command{
		Use:   "rules --rules <file> [value...]",
		Short: "Validate a rules file and preview rewrites for sample values",
		RunE:  RunRules,
	}
	rulesCmd.Flags().String("rules", "", "Path to the rename rules file (YAML)")
	rulesCmd.Flags().Bool("json", false, "Print machine-readable output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("refmend %s\n", version)
		},
	}

	rootCmd.AddCommand(
		auditCmd,
		repairCmd,
		graphCmd,
		rulesCmd,
		versionCmd,
	)

	return rootCmd
}
