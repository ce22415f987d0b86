package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/synthtab/synthtab/internal/anonymizer"
	"github.com/synthtab/synthtab/internal/profiler"
	"github.com/synthtab/synthtab/pkg/constants"
)

type AnonymizeOptions struct {
	InputFile  string
	OutputFile string
	ReportFile string
	Locale     string
	Consistent bool
	Seed       int64
}

func NewAnonymizeCmd() *cobra.Command {
	opts := &AnonymizeOptions{}

	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Replace detected PII with synthetic look-alikes",
		Long: `Scan the dataset for PII and rewrite every flagged column with
locale-appropriate fake values. In consistent mode equal originals map
to equal replacements, so join keys survive.`,
		Example: `  # Anonymize with Turkish replacement values
  synthtab anonymize --input customers.csv --output clean.csv --locale tr_TR

  # Keep equal values equal across the run
  synthtab anonymize --input customers.csv --output clean.csv --consistent`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("locale", cmd.Flags().Lookup("locale"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Locale = viper.GetString("locale")
			return runAnonymize(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "", "Anonymized CSV file (required)")
	cmd.Flags().StringVar(&opts.ReportFile, "report", "-", "Report file (- for stdout)")
	cmd.Flags().StringVar(&opts.Locale, "locale", constants.DefaultLocale, "Replacement locale (en_US, tr_TR)")
	cmd.Flags().BoolVar(&opts.Consistent, "consistent", false, "Map equal originals to equal replacements")
	cmd.Flags().Int64Var(&opts.Seed, "seed", 0, "Random seed (0 for time-based)")

	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("output")

	return cmd
}

func runAnonymize(opts *AnonymizeOptions) error {
	logger := newLogger()

	table, err := loadTable(opts.InputFile)
	if err != nil {
		return err
	}

	detector := profiler.NewPIIDetector(nil, logger)
	findings, err := detector.Detect(table)
	if err != nil {
		return err
	}

	anon := anonymizer.NewAnonymizer(&anonymizer.AnonymizerConfig{
		Consistent: opts.Consistent,
		Locale:     opts.Locale,
		Seed:       opts.Seed,
	}, logger)

	result, _, report, err := anon.Anonymize(table, findings)
	if err != nil {
		return err
	}

	if err := saveTable(result, opts.OutputFile); err != nil {
		return err
	}
	return writeJSON(report, opts.ReportFile)
}
