package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synthtab/synthtab/internal/privacy"
	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/models"
)

func NewDPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dp",
		Short: "Differential privacy operations",
		Long: `Apply calibrated noise to numeric columns, check k-anonymity over
quasi-identifiers, or ask the advisor for an epsilon.`,
	}

	cmd.AddCommand(newDPApplyCmd())
	cmd.AddCommand(newDPCheckKCmd())
	cmd.AddCommand(newDPRecommendCmd())

	return cmd
}

type DPApplyOptions struct {
	InputFile  string
	OutputFile string
	ReportFile string
	Epsilon    float64
	Delta      float64
	Mechanism  string
	Columns    []string
	Seed       int64
	NoClamp    bool
}

func newDPApplyCmd() *cobra.Command {
	opts := &DPApplyOptions{}

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Add calibrated noise to numeric columns",
		Long: `Perturb numeric columns under a single-release privacy budget. The
table epsilon is split evenly across the perturbed columns.`,
		Example: `  # Laplace noise on every numeric column
  synthtab dp apply --input data.csv --output noisy.csv --epsilon 1.0

  # Gaussian noise on selected columns
  synthtab dp apply --input data.csv --output noisy.csv \
    --epsilon 0.5 --delta 1e-5 --mechanism gaussian --columns age,salary`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("epsilon", cmd.Flags().Lookup("epsilon"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Epsilon = viper.GetFloat64("epsilon")
			return runDPApply(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Noisy CSV file (required)")
	cmd.Flags().StringVar(&opts.ReportFile, "report", "-", "Report file (- for stdout)")
	cmd.Flags().Float64Var(&opts.Epsilon, "epsilon", 1.0, "Privacy budget epsilon")
	cmd.Flags().Float64Var(&opts.Delta, "delta", 0, "Privacy budget delta (gaussian only)")
	cmd.Flags().StringVar(&opts.Mechanism, "mechanism", constants.MechanismLaplace, "Noise mechanism (laplace, gaussian)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "Columns to perturb (default: all numeric)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 for time-based)")
	cmd.Flags().BoolVar(&opts.NoClamp, "no-clamp", false, "Do not clamp noisy values to the observed range")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runDPApply(opts *DPApplyOptions) error {
	logger := newLogger()

	table, err := loadTable(opts.InputFile)
	if err != nil {
		return err
	}

	engine := privacy.NewEngine(&privacy.EngineConfig{
		Seed:          opts.Seed,
		ClampToBounds: !opts.NoClamp,
	}, logger)

	budget := models.PrivacyBudget{
		Epsilon:   opts.Epsilon,
		Delta:     opts.Delta,
		Mechanism: opts.Mechanism,
	}

	noisy, report, err := engine.Apply(table, budget, opts.Columns)
	if err != nil {
		return err
	}

	if err := saveTable(noisy, opts.OutputFile); err != nil {
		return err
	}
	return writeJSON(report, opts.ReportFile)
}

type DPCheckKOptions struct {
	InputFile        string
	QuasiIdentifiers []string
	K                int
	OutputFile       string
}

func newDPCheckKCmd() *cobra.Command {
	opts := &DPCheckKOptions{}

	cmd := &cobra.Command{
		Use:   "check-k",
		Short: "Check k-anonymity over quasi-identifier columns",
		Example: `  synthtab dp check-k --input data.csv --quasi-identifiers zip,age,gender --k 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDPCheckK(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringSliceVar(&opts.QuasiIdentifiers, "quasi-identifiers", nil, "Quasi-identifier columns (required)")
	cmd.Flags().IntVar(&opts.K, "k", 5, "Required minimum group size")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("quasi-identifiers")

	return cmd
}

func runDPCheckK(opts *DPCheckKOptions) error {
	logger := newLogger()

	table, err := loadTable(opts.InputFile)
	if err != nil {
		return err
	}

	result, err := privacy.CheckKAnonymity(table, opts.QuasiIdentifiers, opts.K, logger)
	if err != nil {
		return err
	}
	return writeJSON(result, opts.OutputFile)
}

type DPRecommendOptions struct {
	Sensitivity string
	UseCase     string
	OutputFile  string
}

func newDPRecommendCmd() *cobra.Command {
	opts := &DPRecommendOptions{}

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend an epsilon for a sensitivity and use case",
		Example: `  synthtab dp recommend --sensitivity high --use-case public_release`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDPRecommend(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Sensitivity, "sensitivity", constants.SensitivityMedium, "Data sensitivity (low, medium, high)")
	cmd.Flags().StringVar(&opts.UseCase, "use-case", constants.UseCaseResearch, "Use case (research, production, public_release)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	return cmd
}

func runDPRecommend(opts *DPRecommendOptions) error {
	rec, err := privacy.RecommendEpsilon(opts.Sensitivity, opts.UseCase)
	if err != nil {
		return err
	}
	return writeJSON(rec, opts.OutputFile)
}
