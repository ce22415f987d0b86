package privacy

import (
	"fmt"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// epsilonMatrix maps use case then data sensitivity to a recommended
// epsilon. Values tighten as either axis gets more demanding.
var epsilonMatrix = map[string]map[string]float64{
	constants.UseCaseResearch: {
		constants.SensitivityLow:    2.0,
		constants.SensitivityMedium: 1.0,
		constants.SensitivityHigh:   0.5,
	},
	constants.UseCaseProduction: {
		constants.SensitivityLow:    1.0,
		constants.SensitivityMedium: 0.5,
		constants.SensitivityHigh:   0.1,
	},
	constants.UseCasePublicRelease: {
		constants.SensitivityLow:    0.5,
		constants.SensitivityMedium: 0.1,
		constants.SensitivityHigh:   0.05,
	},
}

// RecommendEpsilon returns the advisor's epsilon for a sensitivity and use
// case pairing. The mapping is a fixed deterministic matrix.
func RecommendEpsilon(dataSensitivity, useCase string) (*models.EpsilonRecommendation, error) {
	row, ok := epsilonMatrix[useCase]
	if !ok {
		return nil, errors.NewConfigurationError(errors.CodeUnknownUseCase,
			"unknown use case: "+useCase)
	}
	epsilon, ok := row[dataSensitivity]
	if !ok {
		return nil, errors.NewConfigurationError(errors.CodeUnknownSensitivity,
			"unknown data sensitivity: "+dataSensitivity)
	}

	level := PrivacyLevelForEpsilon(epsilon)
	return &models.EpsilonRecommendation{
		DataSensitivity:    dataSensitivity,
		UseCase:            useCase,
		RecommendedEpsilon: epsilon,
		PrivacyLevel:       level,
		Explanation: fmt.Sprintf(
			"epsilon %g offers %s privacy protection for %s-sensitivity data in a %s setting",
			epsilon, level, dataSensitivity, useCase),
	}, nil
}

// PrivacyLevelForEpsilon maps an epsilon to its qualitative privacy level.
func PrivacyLevelForEpsilon(epsilon float64) string {
	switch {
	case epsilon < constants.EpsilonVeryHighMax:
		return constants.PrivacyLevelVeryHigh
	case epsilon < constants.EpsilonHighMax:
		return constants.PrivacyLevelHigh
	case epsilon < constants.EpsilonMediumMax:
		return constants.PrivacyLevelMedium
	case epsilon < constants.EpsilonLowMax:
		return constants.PrivacyLevelLow
	default:
		return constants.PrivacyLevelVeryLow
	}
}
