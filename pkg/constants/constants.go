package constants

// Column kind inference thresholds
const (
	// NumericParseThreshold is the fraction of non-null values that must parse
	// as numbers for a column to be classified numeric.
	NumericParseThreshold = 0.95

	// DatetimeParseThreshold is the fraction of non-null values that must match
	// a known date/time layout for a column to be classified datetime.
	DatetimeParseThreshold = 0.90

	// CategoricalUniqueRatio is the maximum unique/total ratio for a string
	// column to be classified categorical.
	CategoricalUniqueRatio = 0.5

	// CategoricalUniqueCap is the maximum distinct-value count for a string
	// column to be classified categorical regardless of ratio.
	CategoricalUniqueCap = 50

	// TopValuesLimit bounds the top_values map in categorical profiles.
	TopValuesLimit = 10

	// OutlierIQRMultiplier is the IQR fence multiplier for outlier counting.
	OutlierIQRMultiplier = 1.5
)

// PII detection
const (
	// DefaultPIISampleSize bounds how many non-null values per column are
	// scanned for PII patterns.
	DefaultPIISampleSize = 100

	// PIIMatchThreshold is the minimum positive-match rate over the sample for
	// a column to be flagged as PII.
	PIIMatchThreshold = 0.30

	// PIIPreviewSamples is the number of before/after pairs captured per
	// flagged column.
	PIIPreviewSamples = 5
)

// Anonymization
const (
	DefaultLocale = "en_US"
	LocaleTurkish = "tr_TR"
)

// Differential privacy mechanisms
const (
	MechanismLaplace  = "laplace"
	MechanismGaussian = "gaussian"
)

// Privacy levels are a monotonic step function of epsilon alone.
const (
	PrivacyLevelVeryHigh = "very_high"
	PrivacyLevelHigh     = "high"
	PrivacyLevelMedium   = "medium"
	PrivacyLevelLow      = "low"
	PrivacyLevelVeryLow  = "very_low"
)

// Epsilon boundaries for the privacy-level step function.
const (
	EpsilonVeryHighMax = 0.5
	EpsilonHighMax     = 1.0
	EpsilonMediumMax   = 2.0
	EpsilonLowMax      = 5.0
)

// Data sensitivity classes for the epsilon advisor.
const (
	SensitivityLow    = "low"
	SensitivityMedium = "medium"
	SensitivityHigh   = "high"
)

// Use cases for the epsilon advisor.
const (
	UseCaseResearch      = "research"
	UseCaseProduction    = "production"
	UseCasePublicRelease = "public_release"
)

// K-anonymity recommendation bands (percentage of vulnerable records).
const (
	KAnonLowRiskMax    = 5.0
	KAnonMediumRiskMax = 20.0
)

// Similarity scoring
const (
	// SimilarityHistogramBins is the shared bin count for numeric histogram
	// overlap.
	SimilarityHistogramBins = 30

	// Numeric per-column score weights.
	SimilarityWeightMean      = 0.3
	SimilarityWeightStd       = 0.3
	SimilarityWeightHistogram = 0.4

	// Categorical per-column score weights.
	SimilarityWeightTV       = 0.6
	SimilarityWeightCoverage = 0.4

	// CorrelationDivergenceThreshold flags numeric pairs whose correlation
	// differs by more than this between original and synthetic data.
	CorrelationDivergenceThreshold = 0.2

	// HighCorrelationThreshold marks strongly correlated column pairs in
	// dataset profiles.
	HighCorrelationThreshold = 0.7
)

// Similarity and utility grade boundaries.
const (
	GradeExcellentMin = 0.90
	GradeGoodMin      = 0.75
	GradeFairMin      = 0.60
	GradeWeakMin      = 0.40
)

// Grade labels.
const (
	GradeExcellent = "excellent"
	GradeGood      = "good"
	GradeFair      = "fair"
	GradeWeak      = "weak"
	GradePoor      = "poor"
)

// Utility scoring
const (
	// MinUtilityRows is the minimum row count required for a stable utility
	// estimate.
	MinUtilityRows = 20

	// UtilityTestFraction is the held-out fraction of the original dataset.
	UtilityTestFraction = 0.2

	// AutoClassificationUniqueRatio and AutoClassificationUniqueCap resolve
	// task_type "auto": a target below either bound is treated as
	// classification.
	AutoClassificationUniqueRatio = 0.05
	AutoClassificationUniqueCap   = 10

	// Reference model defaults.
	DefaultForestTrees    = 25
	DefaultForestMaxDepth = 10
)

// Task types for utility scoring.
const (
	TaskTypeAuto           = "auto"
	TaskTypeClassification = "classification"
	TaskTypeRegression     = "regression"
)

// Pipeline stage names, in execution order.
const (
	StageClassify  = "classify"
	StageAnonymize = "anonymize"
	StagePrivacy   = "privacy"
	StageGenerate  = "generate"
	StageValidate  = "validate"
)
