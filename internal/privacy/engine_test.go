package privacy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

func numericTable(t *testing.T) *models.Table {
	t.Helper()
	ages := make([]interface{}, 0, 100)
	salaries := make([]interface{}, 0, 100)
	depts := make([]interface{}, 0, 100)
	for i := 0; i < 100; i++ {
		ages = append(ages, 20.0+float64(i%40))
		salaries = append(salaries, 40000.0+float64(i)*500)
		depts = append(depts, []string{"eng", "sales", "hr"}[i%3])
	}
	table, err := models.NewTable([]*models.Column{
		{Name: "age", Kind: models.KindFloat, Values: ages},
		{Name: "salary", Kind: models.KindFloat, Values: salaries},
		{Name: "dept", Kind: models.KindCategorical, Values: depts},
	})
	require.NoError(t, err)
	return table
}

func laplaceBudget(epsilon float64) models.PrivacyBudget {
	return models.PrivacyBudget{Epsilon: epsilon, Mechanism: constants.MechanismLaplace}
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, ValidateBudget(laplaceBudget(1.0)))
	assert.NoError(t, ValidateBudget(models.PrivacyBudget{
		Epsilon: 1.0, Delta: 1e-5, Mechanism: constants.MechanismGaussian,
	}))

	tests := []struct {
		name   string
		budget models.PrivacyBudget
		code   string
	}{
		{"zero epsilon", laplaceBudget(0), errors.CodeInvalidEpsilon},
		{"negative epsilon", laplaceBudget(-1), errors.CodeInvalidEpsilon},
		{"nan epsilon", laplaceBudget(math.NaN()), errors.CodeInvalidEpsilon},
		{"delta out of range", models.PrivacyBudget{Epsilon: 1, Delta: 1.5, Mechanism: constants.MechanismLaplace}, errors.CodeInvalidDelta},
		{"gaussian zero delta", models.PrivacyBudget{Epsilon: 1, Delta: 0, Mechanism: constants.MechanismGaussian}, errors.CodeInvalidDelta},
		{"unknown mechanism", models.PrivacyBudget{Epsilon: 1, Mechanism: "exponential"}, errors.CodeUnknownMechanism},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBudget(tt.budget)
			require.Error(t, err)
			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestApplyAddsNoise(t *testing.T) {
	engine := NewEngine(&EngineConfig{Seed: 42, ClampToBounds: true}, nil)
	table := numericTable(t)

	out, report, err := engine.Apply(table, laplaceBudget(1.0), nil)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"age", "salary"}, report.ColumnsProcessed)
	assert.Equal(t, 1.0, report.BudgetSpent)
	assert.Equal(t, constants.PrivacyLevelMedium, report.PrivacyLevel)

	changed := 0
	for i, v := range out.Column("age").Values {
		if v != table.Column("age").Values[i] {
			changed++
		}
	}
	assert.Greater(t, changed, 90)

	// Per-column epsilon is the table budget split across noised columns.
	assert.Equal(t, 0.5, report.NoiseStatistics["age"].EpsilonUsed)
	assert.Equal(t, 39.0, report.NoiseStatistics["age"].Sensitivity)
	assert.Greater(t, report.NoiseStatistics["age"].NoiseMagnitude, 0.0)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	engine := NewEngine(&EngineConfig{Seed: 42}, nil)
	table := numericTable(t)
	original := table.Column("age").Values[0]

	_, _, err := engine.Apply(table, laplaceBudget(1.0), nil)
	require.NoError(t, err)
	assert.Equal(t, original, table.Column("age").Values[0])
}

func TestApplySeedReproducible(t *testing.T) {
	first, _, err := NewEngine(&EngineConfig{Seed: 7, ClampToBounds: true}, nil).
		Apply(numericTable(t), laplaceBudget(1.0), nil)
	require.NoError(t, err)
	second, _, err := NewEngine(&EngineConfig{Seed: 7, ClampToBounds: true}, nil).
		Apply(numericTable(t), laplaceBudget(1.0), nil)
	require.NoError(t, err)

	assert.Equal(t, first.Column("age").Values, second.Column("age").Values)
	assert.Equal(t, first.Column("salary").Values, second.Column("salary").Values)
}

func TestBudgetSpentAccumulates(t *testing.T) {
	engine := NewEngine(&EngineConfig{Seed: 7}, nil)
	assert.Equal(t, 0.0, engine.BudgetSpent())

	_, _, err := engine.Apply(numericTable(t), laplaceBudget(1.0), nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, engine.BudgetSpent())

	_, _, err = engine.Apply(numericTable(t), laplaceBudget(0.5), []string{"age"})
	require.NoError(t, err)
	assert.Equal(t, 1.5, engine.BudgetSpent())

	// A rejected budget spends nothing.
	_, _, err = engine.Apply(numericTable(t), laplaceBudget(-1), nil)
	require.Error(t, err)
	assert.Equal(t, 1.5, engine.BudgetSpent())
}

func TestApplyEpsilonMonotonicity(t *testing.T) {
	// Smaller epsilon must add more noise at a fixed seed.
	strict, strictReport, err := NewEngine(&EngineConfig{Seed: 99}, nil).
		Apply(numericTable(t), laplaceBudget(0.1), []string{"salary"})
	require.NoError(t, err)
	loose, looseReport, err := NewEngine(&EngineConfig{Seed: 99}, nil).
		Apply(numericTable(t), laplaceBudget(5.0), []string{"salary"})
	require.NoError(t, err)

	assert.Greater(t, strictReport.NoiseStatistics["salary"].NoiseScale,
		looseReport.NoiseStatistics["salary"].NoiseScale)
	assert.Greater(t, strictReport.NoiseStatistics["salary"].NoiseMagnitude,
		looseReport.NoiseStatistics["salary"].NoiseMagnitude)
	assert.NotEqual(t, strict.Column("salary").Values, loose.Column("salary").Values)
}

func TestApplyClampsToBounds(t *testing.T) {
	engine := NewEngine(&EngineConfig{Seed: 3, ClampToBounds: true}, nil)
	table := numericTable(t)

	out, report, err := engine.Apply(table, laplaceBudget(0.05), []string{"age"})
	require.NoError(t, err)

	bounds := report.NoiseStatistics["age"].Bounds
	for _, v := range out.Column("age").Values {
		f, ok := v.(float64)
		require.True(t, ok)
		assert.GreaterOrEqual(t, f, bounds[0])
		assert.LessOrEqual(t, f, bounds[1])
	}
}

func TestApplySkipsConstantColumn(t *testing.T) {
	engine := NewEngine(nil, nil)
	table, err := models.NewTable([]*models.Column{
		{Name: "flat", Kind: models.KindFloat, Values: []interface{}{5.0, 5.0, 5.0}},
	})
	require.NoError(t, err)

	out, report, err := engine.Apply(table, laplaceBudget(1.0), nil)
	require.NoError(t, err)
	assert.Empty(t, report.ColumnsProcessed)
	assert.Equal(t, 5.0, out.Column("flat").Values[0])
}

func TestApplyRejectsNonNumericTarget(t *testing.T) {
	engine := NewEngine(nil, nil)

	_, _, err := engine.Apply(numericTable(t), laplaceBudget(1.0), []string{"dept"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidationInput))
}

func TestApplyRejectsBadBudgetBeforeTouchingData(t *testing.T) {
	engine := NewEngine(nil, nil)
	table := numericTable(t)

	_, _, err := engine.Apply(table, laplaceBudget(-1), nil)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeBudget))
}

func TestApplyGaussianMechanism(t *testing.T) {
	engine := NewEngine(&EngineConfig{Seed: 11, ClampToBounds: true}, nil)
	budget := models.PrivacyBudget{
		Epsilon: 1.0, Delta: 1e-5, Mechanism: constants.MechanismGaussian,
	}

	_, report, err := engine.Apply(numericTable(t), budget, []string{"age"})
	require.NoError(t, err)

	// sigma = sqrt(2 ln(1.25/delta)) * sensitivity / epsilon
	want := math.Sqrt(2*math.Log(1.25/1e-5)) * 39.0 / 1.0
	assert.InDelta(t, want, report.NoiseStatistics["age"].NoiseScale, 1e-9)
}

func TestLaplaceSampleSymmetric(t *testing.T) {
	m := &LaplaceMechanism{}
	scale, err := m.Scale(10.0, 2.0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5.0, scale)
}
