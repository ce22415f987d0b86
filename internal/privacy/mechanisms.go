package privacy

import (
	"math"
	"math/rand"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
)

// Mechanism is a calibrated additive noise source. Implementations draw only
// from the *rand.Rand handed to Sample so seeded runs replay exactly.
type Mechanism interface {
	Name() string
	// Scale returns the noise scale for one column given its sensitivity
	// and the epsilon/delta share allotted to it.
	Scale(sensitivity, epsilon, delta float64) (float64, error)
	// Sample draws one noise value at the given scale.
	Sample(rng *rand.Rand, scale float64) float64
}

// LaplaceMechanism provides pure epsilon-differential privacy. Delta is
// ignored.
type LaplaceMechanism struct{}

func (m *LaplaceMechanism) Name() string { return constants.MechanismLaplace }

func (m *LaplaceMechanism) Scale(sensitivity, epsilon, delta float64) (float64, error) {
	if epsilon <= 0 {
		return 0, errors.NewInvalidBudgetError(errors.CodeInvalidEpsilon, "epsilon must be positive")
	}
	return sensitivity / epsilon, nil
}

// Sample draws Laplace noise by inverse transform over a single uniform.
func (m *LaplaceMechanism) Sample(rng *rand.Rand, scale float64) float64 {
	u := rng.Float64()
	if u < 0.5 {
		return scale * math.Log(2*u)
	}
	return -scale * math.Log(2*(1-u))
}

// GaussianMechanism provides (epsilon, delta)-differential privacy and
// requires a strictly positive delta.
type GaussianMechanism struct{}

func (m *GaussianMechanism) Name() string { return constants.MechanismGaussian }

func (m *GaussianMechanism) Scale(sensitivity, epsilon, delta float64) (float64, error) {
	if epsilon <= 0 {
		return 0, errors.NewInvalidBudgetError(errors.CodeInvalidEpsilon, "epsilon must be positive")
	}
	if delta <= 0 || delta >= 1 {
		return 0, errors.NewInvalidBudgetError(errors.CodeInvalidDelta,
			"gaussian mechanism requires delta in (0, 1)")
	}
	return math.Sqrt(2*math.Log(1.25/delta)) * sensitivity / epsilon, nil
}

func (m *GaussianMechanism) Sample(rng *rand.Rand, scale float64) float64 {
	return rng.NormFloat64() * scale
}

// NewMechanism resolves a mechanism by name.
func NewMechanism(name string) (Mechanism, error) {
	switch name {
	case constants.MechanismLaplace:
		return &LaplaceMechanism{}, nil
	case constants.MechanismGaussian:
		return &GaussianMechanism{}, nil
	default:
		return nil, errors.NewInvalidBudgetError(errors.CodeUnknownMechanism,
			"unknown mechanism: "+name)
	}
}
