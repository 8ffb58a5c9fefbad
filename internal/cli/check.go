package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codefactory/guard/internal/guard"
	"github.com/codefactory/guard/internal/output"
)

var (
	flagCheckUsers       []string
	flagCheckEnv         []string
	flagCheckFeatures    []string
	flagCheckConstraints []string
	flagCheckThreshold   float64
)

var checkCmd = &cobra.Command{
	Use:   "check <description>...",
	Short: "Evaluate a request and print the safety decision",
	Long: `Check runs one request through the full safety pipeline and prints
the decision. The exit code reflects the outcome: 0 when approved,
1 when blocked or when confirmation is required.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("threshold") {
			cfg.Scoring.Threshold = flagCheckThreshold
		}
		logger := newLogger(cfg)

		engine, cleanup, err := buildEngine(cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		check := engine.Evaluate(guard.Request{
			Description: strings.Join(args, " "),
			TargetUsers: flagCheckUsers,
			Environment: flagCheckEnv,
			Features:    flagCheckFeatures,
			Constraints: flagCheckConstraints,
		})

		switch GetOutput() {
		case "json", "yaml":
			out := output.New(output.Format(GetOutput()))
			if err := out.Write(check); err != nil {
				return err
			}
		case "text":
			fmt.Print(output.RenderCheck(&check))
		default:
			return fmt.Errorf("unsupported format: %s", GetOutput())
		}

		if !check.Approved {
			// The decision is already printed; the error only sets the
			// exit code for scripted callers.
			return ErrNotApproved
		}
		return nil
	},
}

// ErrNotApproved signals a non-approving outcome through the exit code.
var ErrNotApproved = errors.New("request not approved")

func init() {
	checkCmd.Flags().StringSliceVar(&flagCheckUsers, "users", nil, "target users of the request")
	checkCmd.Flags().StringSliceVar(&flagCheckEnv, "env", nil, "deployment environments (e.g. production)")
	checkCmd.Flags().StringSliceVar(&flagCheckFeatures, "feature", nil, "requested features")
	checkCmd.Flags().StringSliceVar(&flagCheckConstraints, "constraint", nil, "stated constraints")
	checkCmd.Flags().Float64Var(&flagCheckThreshold, "threshold", 0.5, "minimum confidence for approval")

	rootCmd.AddCommand(checkCmd)
}
