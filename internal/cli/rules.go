package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codefactory/guard/internal/output"
	"github.com/codefactory/guard/internal/rules"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect the active rule tables",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every active rule, builtin and configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadRuleSet()
		if err != nil {
			return err
		}

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			return out.Write(set.Export())
		case "text":
			printTier("critical", set.Critical())
			printTier("confirm", set.Confirm())
			fmt.Printf("sha256: %s\n", set.Hash())
			return nil
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}
	},
}

var rulesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the rule tables as hash-stamped JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadRuleSet()
		if err != nil {
			return err
		}
		data, err := set.ExportJSON()
		if err != nil {
			return err
		}
		fmt.Println(data)
		return nil
	},
}

var rulesHashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Print the SHA256 of the active rule tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadRuleSet()
		if err != nil {
			return err
		}
		fmt.Println(set.Hash())
		return nil
	},
}

// loadRuleSet builds the builtin tables plus any configured extras.
func loadRuleSet() (*rules.Set, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return rules.Builtin().WithExtra(cfg.Rules.ExtraCritical, cfg.Rules.ExtraConfirm)
}

func printTier(name string, tier []*rules.Rule) {
	fmt.Printf("%s (%d rules)\n", name, len(tier))
	for _, r := range tier {
		fmt.Printf("  %-22s %-18s %s\n", r.ID, r.Category, r.Pattern)
	}
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesExportCmd)
	rulesCmd.AddCommand(rulesHashCmd)

	rootCmd.AddCommand(rulesCmd)
}
