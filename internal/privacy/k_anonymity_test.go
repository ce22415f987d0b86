package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

func quasiTable(t *testing.T) *models.Table {
	t.Helper()
	table, err := models.NewTable([]*models.Column{
		{Name: "zip", Kind: models.KindText, Values: []interface{}{
			"10001", "10001", "10001", "10002", "10002", "10003",
		}},
		{Name: "age_band", Kind: models.KindText, Values: []interface{}{
			"20-30", "20-30", "20-30", "30-40", "30-40", "40-50",
		}},
	})
	require.NoError(t, err)
	return table
}

func TestCheckKAnonymitySatisfied(t *testing.T) {
	result, err := CheckKAnonymity(quasiTable(t), []string{"zip", "age_band"}, 2, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, result.GroupCount)
	assert.Equal(t, 1, result.SmallestGroupSize)
	assert.False(t, result.IsKAnonymous)
	assert.Equal(t, 1, result.VulnerableRecordCount)
	assert.InDelta(t, 16.67, result.VulnerablePercentage, 0.01)
	assert.InDelta(t, 2.0, result.AverageGroupSize, 1e-9)
	assert.NotEmpty(t, result.Recommendation)
}

func TestCheckKAnonymityAllGroupsLargeEnough(t *testing.T) {
	table, err := models.NewTable([]*models.Column{
		{Name: "dept", Kind: models.KindText, Values: []interface{}{
			"eng", "eng", "sales", "sales",
		}},
	})
	require.NoError(t, err)

	result, err := CheckKAnonymity(table, []string{"dept"}, 2, nil)
	require.NoError(t, err)
	assert.True(t, result.IsKAnonymous)
	assert.Equal(t, 0, result.VulnerableRecordCount)
	assert.Equal(t, 0.0, result.VulnerablePercentage)
}

func TestCheckKAnonymityIdempotent(t *testing.T) {
	table := quasiTable(t)

	first, err := CheckKAnonymity(table, []string{"zip"}, 3, nil)
	require.NoError(t, err)
	second, err := CheckKAnonymity(table, []string{"zip"}, 3, nil)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestCheckKAnonymityNullBucket(t *testing.T) {
	table, err := models.NewTable([]*models.Column{
		{Name: "zip", Kind: models.KindText, Values: []interface{}{
			nil, nil, "10001",
		}},
	})
	require.NoError(t, err)

	result, err := CheckKAnonymity(table, []string{"zip"}, 2, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.GroupCount)
	assert.Equal(t, 1, result.SmallestGroupSize)
}

func TestCheckKAnonymityErrors(t *testing.T) {
	table := quasiTable(t)

	_, err := CheckKAnonymity(table, []string{"zip"}, 1, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidationInput))

	_, err = CheckKAnonymity(table, nil, 2, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidationInput))

	_, err = CheckKAnonymity(table, []string{"missing"}, 2, nil)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSchema))
}
