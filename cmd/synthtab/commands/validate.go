package commands

import (
	"github.com/spf13/cobra"

	"github.com/synthtab/synthtab/internal/validation"
	"github.com/synthtab/synthtab/pkg/models"
)

func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate synthetic data against the original",
		Long: `Compare a synthetic dataset to the original it was derived from,
either statistically (similarity) or through model transfer (utility).`,
	}

	cmd.AddCommand(newValidateSimilarityCmd())
	cmd.AddCommand(newValidateUtilityCmd())

	return cmd
}

type ValidateSimilarityOptions struct {
	OriginalFile  string
	SyntheticFile string
	OutputFile    string
}

func newValidateSimilarityCmd() *cobra.Command {
	opts := &ValidateSimilarityOptions{}

	cmd := &cobra.Command{
		Use:   "similarity",
		Short: "Score statistical similarity column by column",
		Example: `  synthtab validate similarity --original data.csv --synthetic synth.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateSimilarity(opts)
		},
	}

	cmd.Flags().StringVar(&opts.OriginalFile, "original", "", "Original CSV file (required)")
	cmd.Flags().StringVar(&opts.SyntheticFile, "synthetic", "", "Synthetic CSV file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("original")
	cmd.MarkFlagRequired("synthetic")

	return cmd
}

func runValidateSimilarity(opts *ValidateSimilarityOptions) error {
	logger := newLogger()

	original, synthetic, err := loadPair(opts.OriginalFile, opts.SyntheticFile)
	if err != nil {
		return err
	}

	validator := validation.NewSimilarityValidator(logger)
	report, err := validator.Compare(original, synthetic)
	if err != nil {
		return err
	}
	return writeJSON(report, opts.OutputFile)
}

type ValidateUtilityOptions struct {
	OriginalFile  string
	SyntheticFile string
	TargetColumn  string
	TaskType      string
	Seed          int64
	OutputFile    string
}

func newValidateUtilityCmd() *cobra.Command {
	opts := &ValidateUtilityOptions{}

	cmd := &cobra.Command{
		Use:   "utility",
		Short: "Score how well models trained on synthetic data transfer",
		Long: `Train one reference model per dataset and evaluate both on the same
held-out slice of the original. The closer the synthetic-trained model
gets, the higher the utility score.`,
		Example: `  # Let the task type be detected from the target column
  synthtab validate utility --original data.csv --synthetic synth.csv --target churn

  # Force a regression task
  synthtab validate utility --original data.csv --synthetic synth.csv \
    --target salary --task regression`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidateUtility(opts)
		},
	}

	cmd.Flags().StringVar(&opts.OriginalFile, "original", "", "Original CSV file (required)")
	cmd.Flags().StringVar(&opts.SyntheticFile, "synthetic", "", "Synthetic CSV file (required)")
	cmd.Flags().StringVar(&opts.TargetColumn, "target", "", "Target column (required)")
	cmd.Flags().StringVar(&opts.TaskType, "task", "", "Task type (classification, regression; default: detect)")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 42, "Random seed for the train/test split")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("original")
	cmd.MarkFlagRequired("synthetic")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runValidateUtility(opts *ValidateUtilityOptions) error {
	logger := newLogger()

	original, synthetic, err := loadPair(opts.OriginalFile, opts.SyntheticFile)
	if err != nil {
		return err
	}

	validator := validation.NewUtilityValidator(&validation.UtilityConfig{Seed: opts.Seed}, logger)
	report, err := validator.Assess(original, synthetic, opts.TargetColumn, opts.TaskType)
	if err != nil {
		return err
	}
	return writeJSON(report, opts.OutputFile)
}

func loadPair(originalPath, syntheticPath string) (*models.Table, *models.Table, error) {
	original, err := loadTable(originalPath)
	if err != nil {
		return nil, nil, err
	}
	synthetic, err := loadTable(syntheticPath)
	if err != nil {
		return nil, nil, err
	}
	return original, synthetic, nil
}
