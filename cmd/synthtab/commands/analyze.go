package commands

import (
	"github.com/spf13/cobra"

	"github.com/synthtab/synthtab/internal/profiler"
	"github.com/synthtab/synthtab/pkg/models"
)

type AnalyzeOptions struct {
	InputFile  string
	SkipPII    bool
	OutputFile string
}

// analyzeReport is the JSON shape the analyze command emits.
type analyzeReport struct {
	Rows          int                              `json:"rows"`
	Columns       int                              `json:"columns"`
	Profiles      map[string]*models.ColumnProfile `json:"profiles"`
	MissingValues *models.MissingValueReport       `json:"missing_values"`
	Correlations  *models.CorrelationReport        `json:"correlations"`
	PIIFindings   []*models.PIIFinding             `json:"pii_findings,omitempty"`
}

func NewAnalyzeCmd() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Profile a CSV dataset and report detected PII",
		Long: `Classify every column, compute per-column statistics, missing-value
rates and numeric correlations, and scan text columns for PII.`,
		Example: `  # Full profile to stdout
  synthtab analyze --input customers.csv

  # Profile only, no PII scan, written to a file
  synthtab analyze --input customers.csv --skip-pii --output profile.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.InputFile, "input", "i", "", "Input CSV file (required)")
	cmd.Flags().BoolVar(&opts.SkipPII, "skip-pii", false, "Skip the PII scan")
	cmd.Flags().StringVarP(&opts.OutputFile, "output", "o", "-", "Output file (- for stdout)")

	cmd.MarkFlagRequired("input")

	return cmd
}

func runAnalyze(opts *AnalyzeOptions) error {
	logger := newLogger()

	table, err := loadTable(opts.InputFile)
	if err != nil {
		return err
	}

	classifier := profiler.NewClassifier(nil, logger)

	profiles, err := classifier.Classify(table)
	if err != nil {
		return err
	}
	missing, err := classifier.MissingValueReport(table)
	if err != nil {
		return err
	}
	correlations, err := classifier.Correlations(table)
	if err != nil {
		return err
	}

	report := &analyzeReport{
		Rows:          table.Rows(),
		Columns:       len(table.Columns),
		Profiles:      profiles,
		MissingValues: missing,
		Correlations:  correlations,
	}

	if !opts.SkipPII {
		detector := profiler.NewPIIDetector(nil, logger)
		findings, err := detector.Detect(table)
		if err != nil {
			return err
		}
		report.PIIFindings = findings
	}

	return writeJSON(report, opts.OutputFile)
}
