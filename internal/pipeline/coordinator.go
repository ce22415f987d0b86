package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/synthtab/synthtab/internal/anonymizer"
	"github.com/synthtab/synthtab/internal/generators"
	"github.com/synthtab/synthtab/internal/privacy"
	"github.com/synthtab/synthtab/internal/profiler"
	"github.com/synthtab/synthtab/internal/validation"
	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/interfaces"
	"github.com/synthtab/synthtab/pkg/models"
)

// RunConfig selects which stages a pipeline run performs. Classification and
// generation always run; anonymization, differential privacy, utility and
// k-anonymity are opt-in.
type RunConfig struct {
	Anonymize        bool                  `json:"anonymize"`
	Locale           string                `json:"locale"`
	Budget           *models.PrivacyBudget `json:"privacy_budget,omitempty"`
	TargetColumn     string                `json:"target_column,omitempty"`
	TaskType         string                `json:"task_type,omitempty"`
	QuasiIdentifiers []string              `json:"quasi_identifiers,omitempty"`
	K                int                   `json:"k,omitempty"`
	SyntheticRows    int                   `json:"synthetic_rows,omitempty"`
	Seed             int64                 `json:"seed"`
}

// RunResult bundles every report produced by one pipeline run.
type RunResult struct {
	RunID          string                            `json:"run_id"`
	Profiles       map[string]*models.ColumnProfile  `json:"profiles"`
	PIIFindings    []*models.PIIFinding              `json:"pii_findings"`
	Anonymization  *models.AnonymizationReport       `json:"anonymization,omitempty"`
	Noise          *models.NoiseReport               `json:"noise,omitempty"`
	Synthetic      *models.Table                     `json:"-"`
	SyntheticRows  int                               `json:"synthetic_rows"`
	Similarity     *models.SimilarityReport          `json:"similarity"`
	Utility        *models.UtilityReport             `json:"utility,omitempty"`
	KAnonymity     *models.KAnonymityResult          `json:"k_anonymity,omitempty"`
	StageDurations map[string]time.Duration          `json:"-"`
}

// Coordinator wires the stages into one sequential run: classify, anonymize,
// privacy, generate, validate. Each stage takes a table and produces a new
// one; the input is never mutated. Context is checked at stage boundaries.
type Coordinator struct {
	classifier  *profiler.Classifier
	piiDetector *profiler.PIIDetector
	generator   interfaces.Generator
	similarity  *validation.SimilarityValidator
	utility     *validation.UtilityValidator
	metrics     *Metrics
	logger      *logrus.Logger
}

// NewCoordinator creates a pipeline coordinator. A nil generator falls back
// to the in-process statistical generator; nil metrics disables recording.
func NewCoordinator(generator interfaces.Generator, metrics *Metrics, logger *logrus.Logger) *Coordinator {
	if logger == nil {
		logger = logrus.New()
	}
	if generator == nil {
		generator = generators.NewStatisticalGenerator(logger)
	}

	return &Coordinator{
		classifier:  profiler.NewClassifier(nil, logger),
		piiDetector: profiler.NewPIIDetector(nil, logger),
		generator:   generator,
		similarity:  validation.NewSimilarityValidator(logger),
		utility:     validation.NewUtilityValidator(nil, logger),
		metrics:     metrics,
		logger:      logger,
	}
}

// Run executes the pipeline over one table. A stage failure aborts the run
// and nothing after the failing stage executes.
func (c *Coordinator) Run(ctx context.Context, table *models.Table, cfg RunConfig) (*RunResult, error) {
	if err := table.Validate(); err != nil {
		c.metrics.recordRun("invalid_input", 0)
		return nil, err
	}

	result := &RunResult{
		RunID:          uuid.New().String(),
		StageDurations: make(map[string]time.Duration),
	}
	log := c.logger.WithFields(logrus.Fields{
		"run_id": result.RunID,
		"rows":   table.Rows(),
	})
	log.Info("Pipeline run started")

	working := table.Clone()

	// Classify
	if err := c.stage(ctx, constants.StageClassify, result, func() error {
		profiles, err := c.classifier.Classify(working)
		if err != nil {
			return err
		}
		result.Profiles = profiles
		for _, col := range working.Columns {
			kind := profiles[col.Name].Kind
			if kind != col.Kind {
				profiler.MaterializeCells(col, kind)
			}
			col.Kind = kind
		}
		findings, err := c.piiDetector.Detect(working)
		if err != nil {
			return err
		}
		result.PIIFindings = findings
		return nil
	}); err != nil {
		return c.fail(err)
	}

	// Anonymize
	if cfg.Anonymize && len(result.PIIFindings) > 0 {
		if err := c.stage(ctx, constants.StageAnonymize, result, func() error {
			anon := anonymizer.NewAnonymizer(&anonymizer.AnonymizerConfig{
				Consistent: true,
				Locale:     cfg.Locale,
				Seed:       cfg.Seed,
			}, c.logger)
			out, _, report, err := anon.Anonymize(working, result.PIIFindings)
			if err != nil {
				return err
			}
			working = out
			result.Anonymization = report
			return nil
		}); err != nil {
			return c.fail(err)
		}
	}

	// Differential privacy
	if cfg.Budget != nil {
		if err := c.stage(ctx, constants.StagePrivacy, result, func() error {
			engine := privacy.NewEngine(&privacy.EngineConfig{
				Seed:          cfg.Seed,
				ClampToBounds: true,
			}, c.logger)
			out, report, err := engine.Apply(working, *cfg.Budget, nil)
			if err != nil {
				return err
			}
			working = out
			result.Noise = report
			return nil
		}); err != nil {
			return c.fail(err)
		}
	}

	// Generate
	rows := cfg.SyntheticRows
	if rows <= 0 {
		rows = working.Rows()
	}
	if err := c.stage(ctx, constants.StageGenerate, result, func() error {
		handle, err := c.generator.Train(ctx, working, interfaces.GenerationParameters{Seed: cfg.Seed})
		if err != nil {
			return err
		}
		synthetic, err := c.generator.Generate(ctx, handle, rows)
		if err != nil {
			return err
		}
		result.Synthetic = synthetic
		result.SyntheticRows = synthetic.Rows()
		return nil
	}); err != nil {
		return c.fail(err)
	}

	// Validate
	if err := c.stage(ctx, constants.StageValidate, result, func() error {
		similarity, err := c.similarity.Compare(working, result.Synthetic)
		if err != nil {
			return err
		}
		result.Similarity = similarity

		if cfg.TargetColumn != "" {
			utility, err := c.utility.Assess(working, result.Synthetic, cfg.TargetColumn, cfg.TaskType)
			if err != nil {
				return err
			}
			result.Utility = utility
		}
		if len(cfg.QuasiIdentifiers) > 0 {
			k := cfg.K
			if k < 2 {
				k = 2
			}
			kanon, err := privacy.CheckKAnonymity(result.Synthetic, cfg.QuasiIdentifiers, k, c.logger)
			if err != nil {
				return err
			}
			result.KAnonymity = kanon
		}
		return nil
	}); err != nil {
		return c.fail(err)
	}

	c.metrics.recordRun("success", table.Rows())
	log.WithFields(logrus.Fields{
		"pii_findings":   len(result.PIIFindings),
		"synthetic_rows": result.SyntheticRows,
		"similarity":     result.Similarity.OverallSimilarity,
	}).Info("Pipeline run completed")

	return result, nil
}

// stage runs one pipeline stage with a context check at its boundary and
// duration bookkeeping.
func (c *Coordinator) stage(ctx context.Context, name string, result *RunResult, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)
	result.StageDurations[name] = elapsed
	c.metrics.observeStage(name, elapsed.Seconds())

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"run_id": result.RunID,
			"stage":  name,
		}).WithError(err).Error("Pipeline stage failed")
	}
	return err
}

func (c *Coordinator) fail(err error) (*RunResult, error) {
	c.metrics.recordRun("failure", 0)
	return nil, err
}
