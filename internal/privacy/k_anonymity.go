package privacy

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// CheckKAnonymity groups records by their quasi-identifier tuple and reports
// whether every group reaches size k. The check is read-only and idempotent.
func CheckKAnonymity(table *models.Table, quasiIdentifiers []string, k int, logger *logrus.Logger) (*models.KAnonymityResult, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	if k < 2 {
		return nil, errors.NewValidationInputError(errors.CodeInvalidK,
			"k must be at least 2")
	}
	if len(quasiIdentifiers) == 0 {
		return nil, errors.NewValidationInputError(errors.CodeNoTargetColumns,
			"at least one quasi-identifier column is required")
	}

	columns := make([]*models.Column, 0, len(quasiIdentifiers))
	for _, name := range quasiIdentifiers {
		col := table.Column(name)
		if col == nil {
			return nil, errors.NewSchemaError(errors.CodeColumnNotFound,
				"quasi-identifier column not found: "+name)
		}
		columns = append(columns, col)
	}

	rows := table.Rows()
	groups := make(map[string]int)
	for i := 0; i < rows; i++ {
		groups[groupKey(columns, i)]++
	}

	result := &models.KAnonymityResult{
		K:                 k,
		QuasiIdentifiers:  quasiIdentifiers,
		TotalRecords:      rows,
		GroupCount:        len(groups),
		SmallestGroupSize: rows,
	}
	if len(groups) == 0 {
		result.SmallestGroupSize = 0
		result.IsKAnonymous = false
		result.Recommendation = "dataset is empty, nothing to assess"
		return result, nil
	}

	for _, size := range groups {
		if size < result.SmallestGroupSize {
			result.SmallestGroupSize = size
		}
		if size < k {
			result.VulnerableRecordCount += size
		}
	}
	result.AverageGroupSize = float64(rows) / float64(len(groups))
	result.VulnerablePercentage = float64(result.VulnerableRecordCount) / float64(rows) * 100
	result.IsKAnonymous = result.SmallestGroupSize >= k
	result.Recommendation = kAnonymityRecommendation(result)

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"k":            k,
			"groups":       result.GroupCount,
			"vulnerable":   result.VulnerableRecordCount,
			"k_anonymous":  result.IsKAnonymous,
			"smallest_grp": result.SmallestGroupSize,
		}).Info("K-anonymity check completed")
	}

	return result, nil
}

// groupKey builds a composite key from one row's quasi-identifier cells.
// Nulls are a distinct bucket.
func groupKey(columns []*models.Column, row int) string {
	parts := make([]string, len(columns))
	for i, col := range columns {
		v := col.Values[row]
		if v == nil {
			parts[i] = "\x00null"
			continue
		}
		parts[i] = fmt.Sprintf("%v", v)
	}
	return strings.Join(parts, "\x1f")
}

func kAnonymityRecommendation(result *models.KAnonymityResult) string {
	switch {
	case result.VulnerableRecordCount == 0:
		return fmt.Sprintf("dataset satisfies %d-anonymity for the given quasi-identifiers", result.K)
	case result.VulnerablePercentage < constants.KAnonLowRiskMax:
		return "few records are re-identifiable; consider suppressing the vulnerable rows"
	case result.VulnerablePercentage < constants.KAnonMediumRiskMax:
		return "a notable share of records is re-identifiable; generalize the quasi-identifier columns"
	default:
		return "most records are re-identifiable; reduce quasi-identifier granularity or add noise before release"
	}
}
