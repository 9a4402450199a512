package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refmend-dev/refmend/internal/document"
	"github.com/refmend-dev/refmend/internal/rename"
	"github.com/refmend-dev/refmend/internal/repair"
)

// resolveRoot turns the optional positional tree argument into an absolute
// path, defaulting to the current directory.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving tree root %q: %w", root, err)
	}
	return abs, nil
}

func boolFlag(cmd *cobra.Command, name string) (bool, error) {
	value, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false, fmt.Errorf("reading --%s: %w", name, err)
	}
	return value, nil
}

func stringFlag(cmd *cobra.Command, name string) (string, error) {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", fmt.Errorf("reading --%s: %w", name, err)
	}
	return value, nil
}

func stringSliceFlag(cmd *cobra.Command, name string) ([]string, error) {
	value, err := cmd.Flags().GetStringSlice(name)
	if err != nil {
		return nil, fmt.Errorf("reading --%s: %w", name, err)
	}
	return value, nil
}

// buildDriver assembles a repair.Driver from the shared scan and rule
// flags. A missing --rules flag yields an empty rule set; audits work
// without one, repairs do not.
func buildDriver(cmd *cobra.Command, args []string) (*repair.Driver, error) {
	root, err := resolveRoot(args)
	if err != nil {
		return nil, err
	}

	extensions, err := stringSliceFlag(cmd, "ext")
	if err != nil {
		return nil, err
	}
	include, err := stringSliceFlag(cmd, "include")
	if err != nil {
		return nil, err
	}
	exclude, err := stringSliceFlag(cmd, "exclude")
	if err != nil {
		return nil, err
	}
	ignoreRules, err := stringSliceFlag(cmd, "ignore")
	if err != nil {
		return nil, err
	}
	workers, err := cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, fmt.Errorf("reading --workers: %w", err)
	}

	rulesPath, err := stringFlag(cmd, "rules")
	if err != nil {
		return nil, err
	}
	var rules *rename.Set
	if rulesPath != "" {
		rules, err = rename.Load(rulesPath)
		if err != nil {
			return nil, err
		}
	}

	return &repair.Driver{
		Root: root,
		Scan: document.Options{
			Extensions:  normalizeExtensions(extensions),
			Include:     include,
			Exclude:     exclude,
			IgnoreRules: ignoreRules,
			Workers:     workers,
		},
		Rules: rules,
	}, nil
}

func normalizeExtensions(extensions []string) []string {
	out := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimSpace(ext)
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		out = append(out, ext)
	}
	return out
}

// addScanFlags registers the flags shared by every tree-scanning command.
func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("ext", nil, "Document extensions to scan (default: .json)")
	cmd.Flags().StringSlice("include", nil, "Only scan files matching these globs")
	cmd.Flags().StringSlice("exclude", nil, "Skip files matching these globs")
	cmd.Flags().StringSlice("ignore", nil, "Extra ignore rules on top of the defaults")
	cmd.Flags().Int("workers", 0, "Parallel file readers (default: number of CPUs)")
	cmd.Flags().String("rules", "", "Path to the rename rules file (YAML)")
	cmd.Flags().Bool("json", false, "Print machine-readable output")
}
