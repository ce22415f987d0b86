package generators

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/interfaces"
	"github.com/synthtab/synthtab/pkg/models"
)

// StatisticalGenerator produces synthetic tables by sampling each column's
// fitted marginal distribution independently: Gaussian for numeric columns,
// empirical frequencies for categorical and boolean columns, a uniform range
// for datetimes. It stands in for a heavier external trainer behind the same
// interface.
type StatisticalGenerator struct {
	logger *logrus.Logger

	mu     sync.Mutex
	models map[interfaces.ModelHandle]*tableModel
}

type tableModel struct {
	columns []*columnModel
	seed    int64
}

type columnModel struct {
	name     string
	kind     models.ColumnKind
	nullRate float64

	// numeric
	mean float64
	std  float64
	min  float64
	max  float64

	// categorical / boolean
	levels  []interface{}
	weights []float64

	// datetime
	earliest time.Time
	latest   time.Time
}

// NewStatisticalGenerator creates a new statistical generator.
func NewStatisticalGenerator(logger *logrus.Logger) *StatisticalGenerator {
	if logger == nil {
		logger = logrus.New()
	}
	return &StatisticalGenerator{
		logger: logger,
		models: make(map[interfaces.ModelHandle]*tableModel),
	}
}

// GetName returns a human-readable name for the generator.
func (g *StatisticalGenerator) GetName() string {
	return "Statistical Generator"
}

// GetDescription returns a description of the generator.
func (g *StatisticalGenerator) GetDescription() string {
	return "Generates synthetic tabular data by sampling per-column marginal distributions"
}

// Train fits per-column marginals and returns an opaque model handle.
func (g *StatisticalGenerator) Train(ctx context.Context, table *models.Table, params interfaces.GenerationParameters) (interfaces.ModelHandle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := table.Validate(); err != nil {
		return "", err
	}
	if table.Rows() == 0 {
		return "", errors.NewGenerationError(errors.CodeGenerationFailed,
			"cannot train on an empty table")
	}

	model := &tableModel{
		columns: make([]*columnModel, 0, len(table.Columns)),
		seed:    params.Seed,
	}
	for _, col := range table.Columns {
		model.columns = append(model.columns, fitColumn(col))
	}

	handle := interfaces.ModelHandle(uuid.New().String())
	g.mu.Lock()
	g.models[handle] = model
	g.mu.Unlock()

	g.logger.WithFields(logrus.Fields{
		"handle":  handle,
		"columns": len(model.columns),
		"rows":    table.Rows(),
	}).Info("Statistical model trained")

	return handle, nil
}

// Generate samples a new table of the requested size from a trained model.
func (g *StatisticalGenerator) Generate(ctx context.Context, handle interfaces.ModelHandle, rows int) (*models.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rows <= 0 {
		return nil, errors.NewGenerationError(errors.CodeInvalidRowCount,
			"row count must be positive")
	}

	g.mu.Lock()
	model, ok := g.models[handle]
	g.mu.Unlock()
	if !ok {
		return nil, errors.NewGenerationError(errors.CodeModelNotTrained,
			"unknown model handle: "+string(handle))
	}

	rng := rand.New(rand.NewPCG(uint64(model.seed), 0))
	columns := make([]*models.Column, 0, len(model.columns))
	for _, cm := range model.columns {
		columns = append(columns, cm.sample(rows, rng))
	}

	table, err := models.NewTable(columns)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeGeneration,
			errors.CodeGenerationFailed, "sampled table failed validation")
	}

	g.logger.WithFields(logrus.Fields{
		"handle": handle,
		"rows":   rows,
	}).Info("Synthetic table generated")

	return table, nil
}

// Close releases all trained models.
func (g *StatisticalGenerator) Close() error {
	g.mu.Lock()
	g.models = make(map[interfaces.ModelHandle]*tableModel)
	g.mu.Unlock()
	return nil
}

func fitColumn(col *models.Column) *columnModel {
	cm := &columnModel{
		name: col.Name,
		kind: col.Kind,
	}
	total := len(col.Values)
	if total > 0 {
		cm.nullRate = float64(col.NullCount()) / float64(total)
	}

	switch {
	case col.Kind.IsNumeric():
		values, _ := col.Floats()
		if len(values) > 0 {
			cm.mean = stat.Mean(values, nil)
			cm.min, cm.max = values[0], values[0]
			for _, v := range values {
				if v < cm.min {
					cm.min = v
				}
				if v > cm.max {
					cm.max = v
				}
			}
		}
		if len(values) > 1 {
			cm.std = stat.StdDev(values, nil)
		}
	case col.Kind == models.KindDatetime:
		first := true
		for _, v := range col.Values {
			ts, ok := v.(time.Time)
			if !ok {
				continue
			}
			if first || ts.Before(cm.earliest) {
				cm.earliest = ts
			}
			if first || ts.After(cm.latest) {
				cm.latest = ts
			}
			first = false
		}
	default:
		counts := make(map[interface{}]int)
		nonNull := 0
		for _, v := range col.Values {
			if v == nil {
				continue
			}
			if _, seen := counts[v]; !seen {
				cm.levels = append(cm.levels, v)
			}
			counts[v]++
			nonNull++
		}
		cm.weights = make([]float64, len(cm.levels))
		for i, level := range cm.levels {
			cm.weights[i] = float64(counts[level]) / float64(nonNull)
		}
	}
	return cm
}

func (cm *columnModel) sample(rows int, rng *rand.Rand) *models.Column {
	values := make([]interface{}, rows)
	var normal distuv.Normal
	if cm.kind.IsNumeric() {
		normal = distuv.Normal{Mu: cm.mean, Sigma: cm.std, Src: rng}
	}

	for i := 0; i < rows; i++ {
		if cm.nullRate > 0 && rng.Float64() < cm.nullRate {
			continue
		}

		switch {
		case cm.kind.IsNumeric():
			v := cm.mean
			if cm.std > 0 {
				v = normal.Rand()
			}
			if v < cm.min {
				v = cm.min
			}
			if v > cm.max {
				v = cm.max
			}
			values[i] = v
		case cm.kind == models.KindDatetime:
			if cm.latest.After(cm.earliest) {
				span := cm.latest.Sub(cm.earliest)
				values[i] = cm.earliest.Add(time.Duration(rng.Int64N(int64(span))))
			} else {
				values[i] = cm.earliest
			}
		default:
			if len(cm.levels) == 0 {
				continue
			}
			values[i] = pickWeighted(cm.levels, cm.weights, rng)
		}
	}

	kind := cm.kind
	if kind == models.KindInteger {
		// Gaussian sampling produces fractional values.
		kind = models.KindFloat
	}
	return &models.Column{Name: cm.name, Kind: kind, Values: values}
}

func pickWeighted(levels []interface{}, weights []float64, rng *rand.Rand) interface{} {
	u := rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return levels[i]
		}
	}
	return levels[len(levels)-1]
}
