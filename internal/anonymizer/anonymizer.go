package anonymizer

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/models"
)

// AnonymizerConfig contains configuration for PII replacement.
type AnonymizerConfig struct {
	Consistent bool   `json:"consistent"`
	Locale     string `json:"locale"`
	Seed       int64  `json:"seed"`
}

// Anonymizer replaces flagged PII values with synthetic look-alikes. In
// consistent mode equal originals map to equal replacements within one run,
// so join keys survive anonymization.
type Anonymizer struct {
	config *AnonymizerConfig
	logger *logrus.Logger
}

// NewAnonymizer creates a new anonymizer.
func NewAnonymizer(config *AnonymizerConfig, logger *logrus.Logger) *Anonymizer {
	if config == nil {
		config = getDefaultAnonymizerConfig()
	}
	if config.Locale == "" {
		config.Locale = constants.DefaultLocale
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Anonymizer{
		config: config,
		logger: logger,
	}
}

// Anonymize returns a new table with every finding's column rewritten. The
// input table is never mutated. Columns with an unrecognized PII type are
// skipped with a warning rather than corrupted. Null cells pass through
// untouched.
func (a *Anonymizer) Anonymize(table *models.Table, findings []*models.PIIFinding) (*models.Table, *models.AnonymizationMapping, *models.AnonymizationReport, error) {
	return a.AnonymizeWithMapping(table, findings, models.NewAnonymizationMapping())
}

// AnonymizeWithMapping anonymizes with a caller-supplied mapping, letting
// consistent replacements carry across related tables.
func (a *Anonymizer) AnonymizeWithMapping(table *models.Table, findings []*models.PIIFinding, mapping *models.AnonymizationMapping) (*models.Table, *models.AnonymizationMapping, *models.AnonymizationReport, error) {
	if err := table.Validate(); err != nil {
		return nil, nil, nil, err
	}
	if mapping == nil {
		mapping = models.NewAnonymizationMapping()
	}

	out := table.Clone()
	rng := rand.New(rand.NewSource(a.config.Seed))
	report := &models.AnonymizationReport{
		ReplacementStats: make(map[string]*models.ReplacementStats),
		Consistent:       a.config.Consistent,
		Locale:           a.config.Locale,
	}

	for _, finding := range findings {
		col := out.Column(finding.ColumnName)
		if col == nil {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("column %q not found, skipped", finding.ColumnName))
			continue
		}
		if col.Kind != models.KindText && col.Kind != models.KindCategorical {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("column %q is not text-like, skipped", finding.ColumnName))
			continue
		}
		generate, ok := generatorFor(finding.Type, a.config.Locale)
		if !ok {
			a.logger.WithFields(logrus.Fields{
				"column":   finding.ColumnName,
				"pii_type": finding.Type,
			}).Warn("No generator for PII type, column left unchanged")
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("unsupported PII type %q on column %q, skipped", finding.Type, finding.ColumnName))
			continue
		}

		replaced := a.rewriteColumn(col, generate, rng, mapping)
		report.ColumnsProcessed = append(report.ColumnsProcessed, finding.ColumnName)
		report.TotalReplacements += replaced
		report.ReplacementStats[finding.ColumnName] = &models.ReplacementStats{
			PIIType:      finding.Type,
			Replacements: replaced,
		}
	}

	a.logger.WithFields(logrus.Fields{
		"columns":      len(report.ColumnsProcessed),
		"replacements": report.TotalReplacements,
		"consistent":   a.config.Consistent,
		"locale":       a.config.Locale,
	}).Info("Anonymization completed")

	return out, mapping, report, nil
}

func (a *Anonymizer) rewriteColumn(col *models.Column, generate ValueGenerator, rng *rand.Rand, mapping *models.AnonymizationMapping) int {
	replaced := 0
	for i, v := range col.Values {
		original, ok := v.(string)
		if !ok || original == "" {
			continue
		}

		var synthetic string
		if a.config.Consistent {
			if cached, found := mapping.Lookup(col.Name, original); found {
				synthetic = cached
			} else {
				synthetic = generate(rng, original)
				mapping.Record(col.Name, original, synthetic)
			}
		} else {
			synthetic = generate(rng, original)
		}

		col.Values[i] = synthetic
		replaced++
	}
	return replaced
}

// Preview returns up to n before/after pairs per finding without modifying
// the table, for operator review ahead of a full anonymization run.
func (a *Anonymizer) Preview(table *models.Table, findings []*models.PIIFinding, n int) (map[string][]models.SamplePair, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 {
		n = constants.PIIPreviewSamples
	}

	rng := rand.New(rand.NewSource(a.config.Seed))
	preview := make(map[string][]models.SamplePair, len(findings))
	for _, finding := range findings {
		col := table.Column(finding.ColumnName)
		if col == nil {
			continue
		}
		generate, ok := generatorFor(finding.Type, a.config.Locale)
		if !ok {
			continue
		}

		pairs := make([]models.SamplePair, 0, n)
		for _, v := range col.Values {
			original, isStr := v.(string)
			if !isStr || original == "" {
				continue
			}
			pairs = append(pairs, models.SamplePair{
				Original:  original,
				Synthetic: generate(rng, original),
			})
			if len(pairs) >= n {
				break
			}
		}
		preview[finding.ColumnName] = pairs
	}
	return preview, nil
}

func getDefaultAnonymizerConfig() *AnonymizerConfig {
	return &AnonymizerConfig{
		Consistent: true,
		Locale:     constants.DefaultLocale,
		Seed:       1,
	}
}
