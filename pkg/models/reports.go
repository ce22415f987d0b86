package models

// PIIType is a closed set of supported PII kinds. Anonymization generators
// dispatch on it with an exhaustive switch, so adding a kind is a
// compile-time-checked extension.
type PIIType string

const (
	PIITypePersonName PIIType = "person_name"
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeNationalID PIIType = "national_id"
	PIITypeAddress    PIIType = "address"
	PIITypeCreditCard PIIType = "credit_card"
	PIITypeOther      PIIType = "other"
)

// NumericStats holds kind-specific statistics for numeric columns.
type NumericStats struct {
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	Std               float64 `json:"std"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Q1                float64 `json:"q1"`
	Q3                float64 `json:"q3"`
	IQR               float64 `json:"iqr"`
	Skewness          float64 `json:"skewness"`
	Kurtosis          float64 `json:"kurtosis"`
	OutlierCount      int     `json:"outlier_count"`
	OutlierPercentage float64 `json:"outlier_percentage"`
	OutlierLowerBound float64 `json:"outlier_lower_bound"`
	OutlierUpperBound float64 `json:"outlier_upper_bound"`
}

// CategoricalStats holds kind-specific statistics for categorical, text and
// boolean columns.
type CategoricalStats struct {
	UniqueCount int            `json:"unique_count"`
	Mode        string         `json:"mode"`
	TopValues   map[string]int `json:"top_values"`
	Entropy     float64        `json:"entropy"`
}

// ColumnProfile describes one column's shape.
// Invariant: NullPercentage = NullCount / row_count * 100, in [0, 100].
type ColumnProfile struct {
	Name           string            `json:"name"`
	Kind           ColumnKind        `json:"kind"`
	Count          int               `json:"count"`
	NullCount      int               `json:"null_count"`
	NullPercentage float64           `json:"null_percentage"`
	Numeric        *NumericStats     `json:"numeric,omitempty"`
	Categorical    *CategoricalStats `json:"categorical,omitempty"`
}

// SamplePair is one before/after anonymization example.
type SamplePair struct {
	Original  string `json:"original"`
	Synthetic string `json:"synthetic"`
}

// PIIFinding reports a PII-flagged column. Confidence is the observed
// positive-match rate over the scanned sample.
type PIIFinding struct {
	ColumnName  string          `json:"column_name"`
	Type        PIIType         `json:"pii_type"`
	Confidence  float64         `json:"confidence"`
	SampleSize  int             `json:"sample_size"`
	MatchCounts map[PIIType]int `json:"match_counts"`
	Samples     []SamplePair    `json:"samples,omitempty"`
}

// AnonymizationMapping maps original value to synthetic value per column, for
// one run. It is only populated in consistent mode and is never persisted
// unless the caller passes it back into a later call.
type AnonymizationMapping struct {
	Columns map[string]map[string]string `json:"columns"`
}

// NewAnonymizationMapping creates an empty mapping.
func NewAnonymizationMapping() *AnonymizationMapping {
	return &AnonymizationMapping{Columns: make(map[string]map[string]string)}
}

// Lookup returns the synthetic value previously recorded for original in the
// named column.
func (m *AnonymizationMapping) Lookup(column, original string) (string, bool) {
	col, ok := m.Columns[column]
	if !ok {
		return "", false
	}
	synthetic, ok := col[original]
	return synthetic, ok
}

// Record stores a consistent replacement.
func (m *AnonymizationMapping) Record(column, original, synthetic string) {
	col, ok := m.Columns[column]
	if !ok {
		col = make(map[string]string)
		m.Columns[column] = col
	}
	col[original] = synthetic
}

// Size returns the total number of recorded replacements.
func (m *AnonymizationMapping) Size() int {
	total := 0
	for _, col := range m.Columns {
		total += len(col)
	}
	return total
}

// ReplacementStats summarizes anonymization of one column. Nulls are never
// replaced and are not counted.
type ReplacementStats struct {
	PIIType      PIIType `json:"pii_type"`
	Replacements int     `json:"replacements"`
}

// AnonymizationReport aggregates per-column replacement stats plus warnings
// for columns that were skipped (unknown PII type or non-string kind).
type AnonymizationReport struct {
	ColumnsProcessed  []string                     `json:"columns_processed"`
	TotalReplacements int                          `json:"total_replacements"`
	ReplacementStats  map[string]*ReplacementStats `json:"replacement_stats"`
	Warnings          []string                     `json:"warnings,omitempty"`
	Consistent        bool                         `json:"consistent"`
	Locale            string                       `json:"locale"`
}

// PrivacyBudget holds a single-release differential privacy budget.
// Invariant: smaller epsilon means more noise and stronger privacy.
type PrivacyBudget struct {
	Epsilon   float64 `json:"epsilon"`
	Delta     float64 `json:"delta"`
	Mechanism string  `json:"mechanism"`
}

// ColumnNoise holds per-column noise statistics from a DP application.
type ColumnNoise struct {
	OriginalMean   float64    `json:"original_mean"`
	NoisyMean      float64    `json:"noisy_mean"`
	NoiseMagnitude float64    `json:"noise_magnitude"`
	// RelativeError measures the drift of the column mean,
	// |noisy mean - original mean| / |original mean|, not a per-cell
	// noise-to-value ratio; it is 0 when the original mean is 0.
	RelativeError float64    `json:"relative_error"`
	Sensitivity   float64    `json:"sensitivity"`
	NoiseScale    float64    `json:"noise_scale"`
	EpsilonUsed   float64    `json:"epsilon_used"`
	Bounds        [2]float64 `json:"bounds"`
}

// NoiseReport summarizes one DP application over a table.
type NoiseReport struct {
	Epsilon          float64                 `json:"epsilon"`
	Delta            float64                 `json:"delta"`
	Mechanism        string                  `json:"mechanism"`
	PrivacyLevel     string                  `json:"privacy_level"`
	ColumnsProcessed []string                `json:"columns_processed"`
	NoiseStatistics  map[string]*ColumnNoise `json:"noise_statistics"`
	BudgetSpent      float64                 `json:"privacy_budget_spent"`
	Note             string                  `json:"note,omitempty"`
}

// KAnonymityResult reports re-identification risk for a quasi-identifier set.
type KAnonymityResult struct {
	K                     int      `json:"k_requested"`
	QuasiIdentifiers      []string `json:"quasi_identifier_columns"`
	TotalRecords          int      `json:"total_records"`
	GroupCount            int      `json:"group_count"`
	SmallestGroupSize     int      `json:"smallest_group_size"`
	AverageGroupSize      float64  `json:"average_group_size"`
	VulnerableRecordCount int      `json:"vulnerable_record_count"`
	VulnerablePercentage  float64  `json:"vulnerable_percentage"`
	IsKAnonymous          bool     `json:"is_k_anonymous"`
	Recommendation        string   `json:"recommendation"`
}

// EpsilonRecommendation is the deterministic advisor output.
type EpsilonRecommendation struct {
	DataSensitivity    string  `json:"data_sensitivity"`
	UseCase            string  `json:"use_case"`
	RecommendedEpsilon float64 `json:"recommended_epsilon"`
	PrivacyLevel       string  `json:"privacy_level"`
	Explanation        string  `json:"explanation"`
}

// Assessment maps a score in [0,1] to a documented grade band.
type Assessment struct {
	Grade       string `json:"grade"`
	Description string `json:"description"`
}

// ColumnSimilarity is the per-column similarity breakdown.
type ColumnSimilarity struct {
	Kind    ColumnKind         `json:"kind"`
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
}

// CorrelationDivergence records a numeric pair whose correlation differs
// between the original and synthetic datasets beyond the documented
// threshold.
type CorrelationDivergence struct {
	ColumnA              string  `json:"column_a"`
	ColumnB              string  `json:"column_b"`
	CorrelationOriginal  float64 `json:"correlation_original"`
	CorrelationSynthetic float64 `json:"correlation_synthetic"`
	Divergence           float64 `json:"divergence"`
}

// CorrelationComparison compares numeric correlation structure.
type CorrelationComparison struct {
	CorrelationSimilarity float64                 `json:"correlation_similarity"`
	RMSE                  float64                 `json:"rmse"`
	NumericColumns        []string                `json:"numeric_columns"`
	DivergentPairs        []CorrelationDivergence `json:"divergent_pairs"`
}

// ShapeComparison compares table dimensions.
type ShapeComparison struct {
	OriginalRows     int  `json:"original_rows"`
	OriginalColumns  int  `json:"original_columns"`
	SyntheticRows    int  `json:"synthetic_rows"`
	SyntheticColumns int  `json:"synthetic_columns"`
	ColumnsMatch     bool `json:"columns_match"`
}

// SimilarityReport scores how closely a synthetic table tracks the original.
// Scores are in [0,1]; comparing a table with itself yields 1.0.
type SimilarityReport struct {
	OverallSimilarity  float64                      `json:"overall_similarity"`
	ColumnSimilarities map[string]*ColumnSimilarity `json:"column_similarities"`
	Correlations       *CorrelationComparison       `json:"correlation_comparison,omitempty"`
	Shape              ShapeComparison              `json:"shape_comparison"`
	Assessment         Assessment                   `json:"assessment"`
}

// ModelMetrics holds reference-model evaluation metrics on the original
// held-out split.
type ModelMetrics struct {
	Accuracy float64 `json:"accuracy,omitempty"`
	F1Score  float64 `json:"f1_score,omitempty"`
	R2Score  float64 `json:"r2_score,omitempty"`
	RMSE     float64 `json:"rmse,omitempty"`
	MAE      float64 `json:"mae,omitempty"`
}

// UtilityReport compares a model trained on synthetic data against one
// trained on original data, both evaluated on original held-out rows only.
type UtilityReport struct {
	TaskType              string                   `json:"task_type"`
	TargetColumn          string                   `json:"target_column"`
	Models                map[string]*ModelMetrics `json:"models"`
	PerformanceDifference map[string]float64       `json:"performance_difference"`
	UtilityScore          float64                  `json:"utility_score"`
	Assessment            Assessment               `json:"assessment"`
}

// MissingColumnInfo describes the nulls in one column.
type MissingColumnInfo struct {
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// MissingValueReport summarizes dataset completeness.
type MissingValueReport struct {
	TotalMissing       int                          `json:"total_missing_values"`
	ColumnsWithMissing int                          `json:"columns_with_missing"`
	ByColumn           map[string]MissingColumnInfo `json:"missing_by_column"`
	CompletenessScore  float64                      `json:"completeness_score"`
}

// CorrelationPair is a strongly correlated numeric column pair in a profile.
type CorrelationPair struct {
	ColumnA     string  `json:"column_a"`
	ColumnB     string  `json:"column_b"`
	Correlation float64 `json:"correlation"`
}

// CorrelationReport holds the numeric correlation matrix of one table.
type CorrelationReport struct {
	Columns          []string          `json:"columns"`
	Matrix           [][]float64       `json:"matrix"`
	HighCorrelations []CorrelationPair `json:"high_correlations"`
}
