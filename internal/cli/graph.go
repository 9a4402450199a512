package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refmend-dev/refmend/internal/fileutil"
)

type GraphSummary struct {
	Mode      string              `json:"mode"`
	Root      string              `json:"root"`
	Documents int                 `json:"documents"`
	Edges     int                 `json:"edges"`
	Adjacency map[string][]string `json:"adjacency"`
	Cycles    [][]string          `json:"cycles,omitempty"`
}

// RunGraph exports the dependency graph. Broken references contribute no
// edges, so the export is always a graph over files that exist.
func RunGraph(cmd *cobra.Command, args []string) error {
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
	g := out.Graph

	edges := 0
	for _, targets := range g.Adjacency {
		edges += len(targets)
	}
	summary := GraphSummary{
		Mode:      "graph",
		Root:      driver.Root,
		Documents: out.Documents,
		Edges:     edges,
		Adjacency: g.Adjacency,
		Cycles:    g.CycleGroups(),
	}

	if asJSON {
		return fileutil.PrintJSON(cmd.OutOrStdout(), summary)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "graph: %s\n", summary.Root)
	fmt.Fprintf(w, "nodes=%d edges=%d cycles=%d\n", len(summary.Adjacency), summary.Edges, len(summary.Cycles))
	for _, file := range g.Files() {
		targets := g.Adjacency[file]
		if len(targets) == 0 {
			fmt.Fprintf(w, "%s\n", file)
			continue
		}
		fmt.Fprintf(w, "%s -> %s\n", file, strings.Join(targets, ", "))
	}
	for _, cycle := range summary.Cycles {
		fmt.Fprintf(w, "cycle: %s\n", strings.Join(cycle, " -> "))
	}
	return nil
}
