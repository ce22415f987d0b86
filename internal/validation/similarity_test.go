package validation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

func mixedTable(t *testing.T, rows int, seed int64) *models.Table {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	ages := make([]interface{}, rows)
	salaries := make([]interface{}, rows)
	depts := make([]interface{}, rows)
	for i := 0; i < rows; i++ {
		age := 22.0 + rng.Float64()*40
		ages[i] = age
		salaries[i] = 30000.0 + age*1000 + rng.NormFloat64()*2000
		depts[i] = []string{"eng", "sales", "hr", "ops"}[rng.Intn(4)]
	}
	table, err := models.NewTable([]*models.Column{
		{Name: "age", Kind: models.KindFloat, Values: ages},
		{Name: "salary", Kind: models.KindFloat, Values: salaries},
		{Name: "dept", Kind: models.KindCategorical, Values: depts},
	})
	require.NoError(t, err)
	return table
}

func TestCompareSelfSimilarityIsOne(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	table := mixedTable(t, 200, 1)

	report, err := validator.Compare(table, table)
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.OverallSimilarity)
	for name, sim := range report.ColumnSimilarities {
		assert.Equal(t, 1.0, sim.Score, name)
	}
	assert.Equal(t, constants.GradeExcellent, report.Assessment.Grade)
	assert.True(t, report.Shape.ColumnsMatch)
}

func TestCompareSelfSimilarityWithAllNullColumn(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	table, err := models.NewTable([]*models.Column{
		{Name: "score", Kind: models.KindFloat, Values: []interface{}{1.0, 2.0, 3.0}},
		{Name: "notes", Kind: models.KindText, Values: []interface{}{nil, nil, nil}},
		{Name: "reading", Kind: models.KindFloat, Values: []interface{}{nil, nil, nil}},
	})
	require.NoError(t, err)

	report, err := validator.Compare(table, table)
	require.NoError(t, err)

	assert.Equal(t, 1.0, report.ColumnSimilarities["notes"].Score)
	assert.Equal(t, 1.0, report.ColumnSimilarities["reading"].Score)
	assert.Equal(t, 1.0, report.OverallSimilarity)
}

func TestCompareOneSidedEmptyColumnScoresZero(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	filled, err := models.NewTable([]*models.Column{
		{Name: "v", Kind: models.KindFloat, Values: []interface{}{1.0, 2.0}},
	})
	require.NoError(t, err)
	empty, err := models.NewTable([]*models.Column{
		{Name: "v", Kind: models.KindFloat, Values: []interface{}{nil, nil}},
	})
	require.NoError(t, err)

	report, err := validator.Compare(filled, empty)
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.ColumnSimilarities["v"].Score)
}

func TestCompareSimilarDistributionsScoreHigh(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	original := mixedTable(t, 500, 1)
	synthetic := mixedTable(t, 500, 2)

	report, err := validator.Compare(original, synthetic)
	require.NoError(t, err)

	assert.Greater(t, report.OverallSimilarity, 0.8)
	assert.LessOrEqual(t, report.OverallSimilarity, 1.0)
}

func TestCompareDisjointDistributionsScoreLow(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	makeTable := func(base float64, category string) *models.Table {
		values := make([]interface{}, 100)
		cats := make([]interface{}, 100)
		for i := range values {
			values[i] = base + float64(i)
			cats[i] = category
		}
		table, err := models.NewTable([]*models.Column{
			{Name: "v", Kind: models.KindFloat, Values: values},
			{Name: "c", Kind: models.KindCategorical, Values: cats},
		})
		require.NoError(t, err)
		return table
	}

	report, err := validator.Compare(makeTable(0, "alpha"), makeTable(1e6, "omega"))
	require.NoError(t, err)

	// No histogram overlap, no category coverage.
	assert.Equal(t, 0.0, report.ColumnSimilarities["v"].Metrics["histogram_overlap"])
	assert.Equal(t, 0.0, report.ColumnSimilarities["c"].Metrics["category_coverage"])
	assert.Less(t, report.OverallSimilarity, 0.4)
}

func TestCompareScoresInUnitInterval(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	report, err := validator.Compare(mixedTable(t, 100, 3), mixedTable(t, 60, 9))
	require.NoError(t, err)

	for name, sim := range report.ColumnSimilarities {
		assert.GreaterOrEqual(t, sim.Score, 0.0, name)
		assert.LessOrEqual(t, sim.Score, 1.0, name)
	}
	assert.GreaterOrEqual(t, report.OverallSimilarity, 0.0)
	assert.LessOrEqual(t, report.OverallSimilarity, 1.0)
}

func TestCompareNoCommonColumns(t *testing.T) {
	validator := NewSimilarityValidator(nil)
	a, err := models.NewTable([]*models.Column{
		{Name: "x", Kind: models.KindFloat, Values: []interface{}{1.0}},
	})
	require.NoError(t, err)
	b, err := models.NewTable([]*models.Column{
		{Name: "y", Kind: models.KindFloat, Values: []interface{}{1.0}},
	})
	require.NoError(t, err)

	_, err = validator.Compare(a, b)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidationInput))
}

func TestCompareCorrelationDivergence(t *testing.T) {
	validator := NewSimilarityValidator(nil)

	rows := 200
	xs := make([]interface{}, rows)
	correlated := make([]interface{}, rows)
	uncorrelated := make([]interface{}, rows)
	third := make([]interface{}, rows)
	rng := rand.New(rand.NewSource(5))
	for i := 0; i < rows; i++ {
		x := rng.Float64() * 100
		xs[i] = x
		correlated[i] = x*2 + rng.NormFloat64()
		uncorrelated[i] = rng.Float64() * 100
		third[i] = rng.NormFloat64() * 10
	}

	original, err := models.NewTable([]*models.Column{
		{Name: "x", Kind: models.KindFloat, Values: xs},
		{Name: "y", Kind: models.KindFloat, Values: correlated},
		{Name: "z", Kind: models.KindFloat, Values: third},
	})
	require.NoError(t, err)
	synthetic, err := models.NewTable([]*models.Column{
		{Name: "x", Kind: models.KindFloat, Values: xs},
		{Name: "y", Kind: models.KindFloat, Values: uncorrelated},
		{Name: "z", Kind: models.KindFloat, Values: third},
	})
	require.NoError(t, err)

	report, err := validator.Compare(original, synthetic)
	require.NoError(t, err)

	require.NotNil(t, report.Correlations)
	require.NotEmpty(t, report.Correlations.DivergentPairs)
	pair := report.Correlations.DivergentPairs[0]
	assert.Equal(t, "x", pair.ColumnA)
	assert.Equal(t, "y", pair.ColumnB)
	assert.Greater(t, pair.Divergence, constants.CorrelationDivergenceThreshold)
	assert.Greater(t, report.Correlations.RMSE, 0.0)
}

func TestSimilarityAssessmentBands(t *testing.T) {
	assert.Equal(t, constants.GradeExcellent, SimilarityAssessment(0.95).Grade)
	assert.Equal(t, constants.GradeExcellent, SimilarityAssessment(0.90).Grade)
	assert.Equal(t, constants.GradeGood, SimilarityAssessment(0.80).Grade)
	assert.Equal(t, constants.GradeFair, SimilarityAssessment(0.65).Grade)
	assert.Equal(t, constants.GradeWeak, SimilarityAssessment(0.45).Grade)
	assert.Equal(t, constants.GradePoor, SimilarityAssessment(0.10).Grade)
}

func TestHistogramOverlapBounds(t *testing.T) {
	same := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	assert.Equal(t, 1.0, histogramOverlap(same, same, 30))

	disjoint := []float64{1000, 1001, 1002}
	overlap := histogramOverlap(same, disjoint, 30)
	assert.Equal(t, 0.0, overlap)
}
