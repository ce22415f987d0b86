package privacy

import (
	"math"
	"math/rand"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// EngineConfig contains configuration for the differential privacy engine.
type EngineConfig struct {
	Seed          int64 `json:"seed"`
	ClampToBounds bool  `json:"clamp_to_bounds"`
}

// Engine perturbs numeric columns under a single-release privacy budget. The
// table budget is split evenly across perturbed columns; noise is drawn
// independently per cell.
type Engine struct {
	config *EngineConfig
	logger *logrus.Logger
	spent  float64
}

// NewEngine creates a new differential privacy engine.
func NewEngine(config *EngineConfig, logger *logrus.Logger) *Engine {
	if config == nil {
		config = getDefaultEngineConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		config: config,
		logger: logger,
	}
}

// ValidateBudget rejects a malformed budget before any data is touched.
func ValidateBudget(budget models.PrivacyBudget) error {
	if budget.Epsilon <= 0 || math.IsNaN(budget.Epsilon) || math.IsInf(budget.Epsilon, 0) {
		return errors.NewInvalidBudgetError(errors.CodeInvalidEpsilon,
			"epsilon must be a positive finite number")
	}
	if budget.Delta < 0 || budget.Delta >= 1 || math.IsNaN(budget.Delta) {
		return errors.NewInvalidBudgetError(errors.CodeInvalidDelta,
			"delta must be in [0, 1)")
	}
	if _, err := NewMechanism(budget.Mechanism); err != nil {
		return err
	}
	if budget.Mechanism == constants.MechanismGaussian && budget.Delta == 0 {
		return errors.NewInvalidBudgetError(errors.CodeInvalidDelta,
			"gaussian mechanism requires delta > 0")
	}
	return nil
}

// Apply returns a new table whose numeric columns carry calibrated noise,
// plus a per-column noise report. Target columns default to every numeric
// column; non-numeric targets are rejected. The input table is not mutated
// and is never partially noised: budget and targets are validated up front.
func (e *Engine) Apply(table *models.Table, budget models.PrivacyBudget, targetColumns []string) (*models.Table, *models.NoiseReport, error) {
	if err := table.Validate(); err != nil {
		return nil, nil, err
	}
	if err := ValidateBudget(budget); err != nil {
		return nil, nil, err
	}

	if len(targetColumns) == 0 {
		targetColumns = table.NumericColumnNames()
	}
	if len(targetColumns) == 0 {
		return nil, nil, errors.NewValidationInputError(errors.CodeNoTargetColumns,
			"table has no numeric columns to perturb")
	}
	for _, name := range targetColumns {
		col := table.Column(name)
		if col == nil {
			return nil, nil, errors.NewValidationInputError(errors.CodeNoTargetColumns,
				"target column not found: "+name)
		}
		if !col.Kind.IsNumeric() {
			return nil, nil, errors.NewValidationInputError(errors.CodeNoTargetColumns,
				"target column is not numeric: "+name)
		}
	}

	mechanism, err := NewMechanism(budget.Mechanism)
	if err != nil {
		return nil, nil, err
	}

	out := table.Clone()
	rng := rand.New(rand.NewSource(e.config.Seed))
	columnEpsilon := budget.Epsilon / float64(len(targetColumns))

	report := &models.NoiseReport{
		Epsilon:         budget.Epsilon,
		Delta:           budget.Delta,
		Mechanism:       budget.Mechanism,
		PrivacyLevel:    PrivacyLevelForEpsilon(budget.Epsilon),
		NoiseStatistics: make(map[string]*models.ColumnNoise),
		BudgetSpent:     budget.Epsilon,
	}

	for _, name := range targetColumns {
		col := out.Column(name)
		stats, perturbed := e.noiseColumn(col, mechanism, columnEpsilon, budget.Delta, rng)
		if !perturbed {
			// Constant or empty column, nothing to hide in its spread.
			continue
		}
		report.ColumnsProcessed = append(report.ColumnsProcessed, name)
		report.NoiseStatistics[name] = stats
	}

	e.spent += budget.Epsilon

	e.logger.WithFields(logrus.Fields{
		"epsilon":   budget.Epsilon,
		"delta":     budget.Delta,
		"mechanism": budget.Mechanism,
		"columns":   len(report.ColumnsProcessed),
	}).Info("Differential privacy applied")

	return out, report, nil
}

func (e *Engine) noiseColumn(col *models.Column, mechanism Mechanism, epsilon, delta float64, rng *rand.Rand) (*models.ColumnNoise, bool) {
	values, indices := col.Floats()
	if len(values) == 0 {
		return nil, false
	}

	min, max := values[0], values[0]
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	sensitivity := max - min
	if sensitivity == 0 {
		return nil, false
	}

	scale, err := mechanism.Scale(sensitivity, epsilon, delta)
	if err != nil {
		// Budget was validated before any column was touched.
		return nil, false
	}

	originalMean := stat.Mean(values, nil)
	noisy := make([]float64, len(values))
	totalMagnitude := 0.0
	for i, v := range values {
		noise := mechanism.Sample(rng, scale)
		nv := v + noise
		if e.config.ClampToBounds {
			nv = math.Max(min, math.Min(max, nv))
		}
		noisy[i] = nv
		totalMagnitude += math.Abs(nv - v)
		col.Values[indices[i]] = nv
	}
	if col.Kind == models.KindInteger {
		col.Kind = models.KindFloat
	}

	noisyMean := stat.Mean(noisy, nil)
	stats := &models.ColumnNoise{
		OriginalMean:   originalMean,
		NoisyMean:      noisyMean,
		NoiseMagnitude: totalMagnitude / float64(len(values)),
		Sensitivity:    sensitivity,
		NoiseScale:     scale,
		EpsilonUsed:    epsilon,
		Bounds:         [2]float64{min, max},
	}
	if originalMean != 0 {
		stats.RelativeError = math.Abs(noisyMean-originalMean) / math.Abs(originalMean)
	}
	return stats, true
}

// BudgetSpent reports the total epsilon this engine instance has released.
// Releases are summed, not composed; the accounting is informational only.
func (e *Engine) BudgetSpent() float64 {
	return e.spent
}

func getDefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Seed:          1,
		ClampToBounds: true,
	}
}
