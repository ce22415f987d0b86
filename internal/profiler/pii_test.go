package profiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synthtab/synthtab/pkg/models"
)

func TestClassifyValueEmail(t *testing.T) {
	piiType, ok := ClassifyValue("jane.doe@example.com")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeEmail, piiType)

	_, ok = ClassifyValue("not-an-email")
	assert.False(t, ok)
}

func TestClassifyValuePhone(t *testing.T) {
	for _, value := range []string{"555-123-4567", "(555) 123-4567", "+90 532 123 4567"} {
		piiType, ok := ClassifyValue(value)
		require.True(t, ok, value)
		assert.Equal(t, models.PIITypePhone, piiType, value)
	}
}

func TestClassifyValueNationalID(t *testing.T) {
	piiType, ok := ClassifyValue("123-45-6789")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeNationalID, piiType)

	// Turkish national identity number, 11 digits.
	piiType, ok = ClassifyValue("12345678901")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeNationalID, piiType)
}

func TestClassifyValueCreditCard(t *testing.T) {
	// Valid Luhn checksum.
	piiType, ok := ClassifyValue("4532-0151-1283-0366")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeCreditCard, piiType)

	// Card-shaped but failing Luhn is not reported as a card.
	piiType, _ = ClassifyValue("4532-0151-1283-0367")
	assert.NotEqual(t, models.PIITypeCreditCard, piiType)
}

func TestClassifyValuePersonName(t *testing.T) {
	piiType, ok := ClassifyValue("Mary Johnson")
	require.True(t, ok)
	assert.Equal(t, models.PIITypePersonName, piiType)

	// Capitalized words without a known given name are not names.
	_, ok = ClassifyValue("Quarterly Report")
	assert.False(t, ok)
}

func TestClassifyValueAddress(t *testing.T) {
	piiType, ok := ClassifyValue("742 Evergreen Terrace Street")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeAddress, piiType)

	piiType, ok = ClassifyValue("15 Atatürk Caddesi, Ankara")
	require.True(t, ok)
	assert.Equal(t, models.PIITypeAddress, piiType)
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, luhnValid("4532015112830366"))
	assert.True(t, luhnValid("4532 0151 1283 0366"))
	assert.False(t, luhnValid("4532015112830367"))
	assert.False(t, luhnValid("1234"))
}

func TestDetectFlagsEmailColumn(t *testing.T) {
	detector := NewPIIDetector(nil, nil)

	table, err := models.NewTable([]*models.Column{
		makeColumn("email", models.KindText,
			"a@example.com", "b@example.com", "c@example.com", "d@example.com"),
		makeColumn("dept", models.KindText, "eng", "sales", "eng", "hr"),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	finding := findings[0]
	assert.Equal(t, "email", finding.ColumnName)
	assert.Equal(t, models.PIITypeEmail, finding.Type)
	assert.Equal(t, 1.0, finding.Confidence)
	assert.Equal(t, 4, finding.SampleSize)
	assert.Equal(t, 4, finding.MatchCounts[models.PIITypeEmail])
	assert.NotEmpty(t, finding.Samples)
}

func TestDetectBelowThreshold(t *testing.T) {
	detector := NewPIIDetector(nil, nil)

	// One match in ten values is under the 30% threshold.
	values := []interface{}{"a@example.com"}
	for i := 0; i < 9; i++ {
		values = append(values, "widget")
	}
	table, err := models.NewTable([]*models.Column{
		makeColumn("notes", models.KindText, values...),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDetectMajorityVote(t *testing.T) {
	detector := NewPIIDetector(nil, nil)

	table, err := models.NewTable([]*models.Column{
		makeColumn("contact", models.KindText,
			"a@example.com", "b@example.com", "c@example.com", "555-123-4567"),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	require.Len(t, findings, 1)

	assert.Equal(t, models.PIITypeEmail, findings[0].Type)
	assert.Equal(t, 3, findings[0].MatchCounts[models.PIITypeEmail])
	assert.Equal(t, 1, findings[0].MatchCounts[models.PIITypePhone])
}

func TestDetectSkipsNonTextColumns(t *testing.T) {
	detector := NewPIIDetector(nil, nil)

	table, err := models.NewTable([]*models.Column{
		makeColumn("salary", models.KindFloat, 50000.0, 60000.0, 70000.0),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDetectAllNullColumn(t *testing.T) {
	detector := NewPIIDetector(nil, nil)

	table, err := models.NewTable([]*models.Column{
		makeColumn("ghost", models.KindText, nil, nil, nil),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestDetectSampleBounded(t *testing.T) {
	detector := NewPIIDetector(&PIIDetectorConfig{
		SampleSize:     10,
		MatchThreshold: 0.30,
		PreviewSamples: 3,
	}, nil)

	values := make([]interface{}, 0, 50)
	for i := 0; i < 50; i++ {
		values = append(values, "user@example.com")
	}
	table, err := models.NewTable([]*models.Column{
		makeColumn("email", models.KindText, values...),
	})
	require.NoError(t, err)

	findings, err := detector.Detect(table)
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, 10, findings[0].SampleSize)
	assert.Len(t, findings[0].Samples, 3)
}
