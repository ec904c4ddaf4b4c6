package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pable/go-scout-metrics/internal/pipeline"
	"github.com/pable/go-scout-metrics/internal/rating"
	"github.com/pable/go-scout-metrics/internal/report"
)

var rolesSliders []string

var rolesCmd = &cobra.Command{
	Use:   "roles [role]",
	Short: "List the role catalog or show one role's metrics and weights",
	Long: `Without arguments, list every role with its positions, indices and groups.
With a role name, print its baseline formulas, index weights and group weights.
--slider shows the effective group weights after applying multipliers.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoles,
}

func init() {
	rolesCmd.Flags().StringArrayVar(&rolesSliders, "slider", nil, "group weight multiplier, e.g. --slider passing=1.5 (repeatable)")
}

func runRoles(cmd *cobra.Command, args []string) error {
	catalog, err := cfg.Catalog()
	if err != nil {
		return fmt.Errorf("load roles: %w", err)
	}
	if len(args) == 0 {
		report.PrintRoles(os.Stdout, catalog)
		return nil
	}

	rc, ok := catalog.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %q (known: %s)", pipeline.ErrUnknownRole, args[0], catalog)
	}
	sliders, err := parseSliders(rolesSliders, cfg.Sliders)
	if err != nil {
		return err
	}
	report.PrintRoleDetail(os.Stdout, rc, rating.NormalizeWeights(rc.Weights, sliders))
	return nil
}
