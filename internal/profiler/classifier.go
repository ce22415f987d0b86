package profiler

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/models"
)

// ClassifierConfig contains configuration for column classification.
type ClassifierConfig struct {
	NumericParseThreshold  float64 `json:"numeric_parse_threshold"`
	DatetimeParseThreshold float64 `json:"datetime_parse_threshold"`
	CategoricalUniqueRatio float64 `json:"categorical_unique_ratio"`
	CategoricalUniqueCap   int     `json:"categorical_unique_cap"`
	TopValuesLimit         int     `json:"top_values_limit"`
	OutlierIQRMultiplier   float64 `json:"outlier_iqr_multiplier"`
	PIISampleSize          int     `json:"pii_sample_size"`
	PIIMatchThreshold      float64 `json:"pii_match_threshold"`
}

// Classifier infers column kinds, builds statistical profiles and detects
// PII-likely columns. Classification is deterministic: identical tables
// produce identical profiles.
type Classifier struct {
	config *ClassifierConfig
	logger *logrus.Logger
}

// NewClassifier creates a new classifier.
func NewClassifier(config *ClassifierConfig, logger *logrus.Logger) *Classifier {
	if config == nil {
		config = getDefaultClassifierConfig()
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Classifier{
		config: config,
		logger: logger,
	}
}

// Classify infers each column's semantic kind and builds its profile. A
// ragged table fails the whole call; the table is never partially
// classified.
func (c *Classifier) Classify(table *models.Table) (map[string]*models.ColumnProfile, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"rows":    table.Rows(),
		"columns": len(table.Columns),
	}).Info("Classifying table")

	profiles := make(map[string]*models.ColumnProfile, len(table.Columns))
	for _, col := range table.Columns {
		profiles[col.Name] = c.profileColumn(col, table.Rows())
	}

	return profiles, nil
}

// InferKind resolves the semantic kind of one column. Typed columns keep
// their load-time kind (integer vs float is re-checked); string columns are
// split into numeric, datetime, categorical or text.
func (c *Classifier) InferKind(col *models.Column) models.ColumnKind {
	switch col.Kind {
	case models.KindInteger, models.KindFloat:
		values, _ := col.Floats()
		if allIntegral(values) {
			return models.KindInteger
		}
		return models.KindFloat
	case models.KindBoolean, models.KindDatetime:
		return col.Kind
	}

	strs, _ := col.Strings()
	if len(strs) == 0 {
		// Empty columns classify as text.
		return models.KindText
	}

	numeric, integral := 0, 0
	datetime := 0
	for _, s := range strs {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			numeric++
			if f == math.Trunc(f) && !strings.ContainsAny(s, ".eE") {
				integral++
			}
			continue
		}
		if matchesDatetime(s) {
			datetime++
		}
	}

	total := float64(len(strs))
	if float64(numeric)/total >= c.config.NumericParseThreshold {
		if integral == numeric {
			return models.KindInteger
		}
		return models.KindFloat
	}
	if float64(datetime)/total >= c.config.DatetimeParseThreshold {
		return models.KindDatetime
	}

	unique := len(col.UniqueNonNull())
	ratio := float64(unique) / total
	if ratio <= c.config.CategoricalUniqueRatio && unique <= c.config.CategoricalUniqueCap {
		return models.KindCategorical
	}
	return models.KindText
}

func (c *Classifier) profileColumn(col *models.Column, rows int) *models.ColumnProfile {
	kind := c.InferKind(col)
	nullCount := col.NullCount()

	profile := &models.ColumnProfile{
		Name:      col.Name,
		Kind:      kind,
		Count:     rows - nullCount,
		NullCount: nullCount,
	}
	if rows > 0 {
		profile.NullPercentage = float64(nullCount) / float64(rows) * 100
	}

	switch {
	case kind.IsNumeric():
		profile.Numeric = c.numericStats(col, kind)
	default:
		profile.Categorical = c.categoricalStats(col)
	}

	return profile
}

func (c *Classifier) numericStats(col *models.Column, kind models.ColumnKind) *models.NumericStats {
	values := numericValues(col, kind)
	if len(values) == 0 {
		return &models.NumericStats{}
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.Empirical, sorted, nil)
	q3 := stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := q3 - q1
	lower := q1 - c.config.OutlierIQRMultiplier*iqr
	upper := q3 + c.config.OutlierIQRMultiplier*iqr

	outliers := 0
	for _, v := range values {
		if v < lower || v > upper {
			outliers++
		}
	}

	stats := &models.NumericStats{
		Mean:              stat.Mean(values, nil),
		Median:            stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:               sorted[0],
		Max:               sorted[len(sorted)-1],
		Q1:                q1,
		Q3:                q3,
		IQR:               iqr,
		OutlierCount:      outliers,
		OutlierPercentage: roundTo(float64(outliers)/float64(len(values))*100, 2),
		OutlierLowerBound: lower,
		OutlierUpperBound: upper,
	}
	if len(values) > 1 {
		stats.Std = stat.StdDev(values, nil)
		stats.Skewness = stat.Skew(values, nil)
		stats.Kurtosis = stat.ExKurtosis(values, nil)
	}
	return stats
}

func (c *Classifier) categoricalStats(col *models.Column) *models.CategoricalStats {
	counts := make(map[string]int)
	order := make([]string, 0)
	total := 0
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		s := cellString(v)
		if _, ok := counts[s]; !ok {
			order = append(order, s)
		}
		counts[s]++
		total++
	}

	stats := &models.CategoricalStats{
		UniqueCount: len(counts),
		TopValues:   make(map[string]int),
	}
	if total == 0 {
		return stats
	}

	// Mode with deterministic tie-breaking on first appearance.
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	stats.Mode = order[0]
	for i, value := range order {
		if i >= c.config.TopValuesLimit {
			break
		}
		stats.TopValues[value] = counts[value]
	}

	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / float64(total)
		entropy -= p * math.Log2(p)
	}
	stats.Entropy = entropy

	return stats
}

// MissingValueReport summarizes per-column nulls and dataset completeness.
func (c *Classifier) MissingValueReport(table *models.Table) (*models.MissingValueReport, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	report := &models.MissingValueReport{
		ByColumn: make(map[string]models.MissingColumnInfo),
	}
	rows := table.Rows()
	for _, col := range table.Columns {
		nulls := col.NullCount()
		report.TotalMissing += nulls
		if nulls > 0 {
			report.ColumnsWithMissing++
			report.ByColumn[col.Name] = models.MissingColumnInfo{
				Count:      nulls,
				Percentage: roundTo(float64(nulls)/float64(rows)*100, 2),
			}
		}
	}

	cells := rows * len(table.Columns)
	if cells > 0 {
		report.CompletenessScore = roundTo((1-float64(report.TotalMissing)/float64(cells))*100, 2)
	}
	return report, nil
}

// Correlations computes the numeric correlation matrix and flags strongly
// correlated pairs.
func (c *Classifier) Correlations(table *models.Table) (*models.CorrelationReport, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}

	numeric := make([]*models.Column, 0, len(table.Columns))
	for _, col := range table.Columns {
		if c.InferKind(col).IsNumeric() {
			numeric = append(numeric, col)
		}
	}

	report := &models.CorrelationReport{
		Columns: make([]string, len(numeric)),
		Matrix:  make([][]float64, len(numeric)),
	}
	for i, col := range numeric {
		report.Columns[i] = col.Name
		report.Matrix[i] = make([]float64, len(numeric))
	}
	if len(numeric) < 2 {
		return report, nil
	}

	for i := range numeric {
		report.Matrix[i][i] = 1.0
		for j := i + 1; j < len(numeric); j++ {
			r := pairwiseCorrelation(numeric[i], numeric[j])
			report.Matrix[i][j] = r
			report.Matrix[j][i] = r
			if math.Abs(r) > constants.HighCorrelationThreshold {
				report.HighCorrelations = append(report.HighCorrelations, models.CorrelationPair{
					ColumnA:     numeric[i].Name,
					ColumnB:     numeric[j].Name,
					Correlation: roundTo(r, 3),
				})
			}
		}
	}
	return report, nil
}

// pairwiseCorrelation computes Pearson correlation over rows where both
// cells are non-null numeric.
func pairwiseCorrelation(a, b *models.Column) float64 {
	xs := make([]float64, 0, len(a.Values))
	ys := make([]float64, 0, len(b.Values))
	for i := range a.Values {
		x := numericCell(a, i)
		y := numericCell(b, i)
		if x == nil || y == nil {
			continue
		}
		xs = append(xs, *x)
		ys = append(ys, *y)
	}
	if len(xs) < 2 {
		return 0.0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0.0
	}
	return r
}

// numericValues extracts non-null numeric cell values, parsing string cells
// for columns whose inferred kind outranks their stored representation.
func numericValues(col *models.Column, kind models.ColumnKind) []float64 {
	if !kind.IsNumeric() {
		return nil
	}
	values := make([]float64, 0, len(col.Values))
	for _, v := range col.Values {
		switch cell := v.(type) {
		case float64:
			values = append(values, cell)
		case string:
			if f, err := strconv.ParseFloat(cell, 64); err == nil {
				values = append(values, f)
			}
		}
	}
	return values
}

func numericCell(col *models.Column, i int) *float64 {
	switch cell := col.Values[i].(type) {
	case float64:
		return &cell
	case string:
		if f, err := strconv.ParseFloat(cell, 64); err == nil {
			return &f
		}
	}
	return nil
}

func allIntegral(values []float64) bool {
	for _, v := range values {
		if v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func cellString(v interface{}) string {
	switch cell := v.(type) {
	case string:
		return cell
	case bool:
		return strconv.FormatBool(cell)
	case float64:
		return strconv.FormatFloat(cell, 'g', -1, 64)
	case time.Time:
		return cell.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", cell)
	}
}

var datetimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02", "02/01/2006", "01/02/2006"}

func matchesDatetime(s string) bool {
	_, ok := parseDatetime(s)
	return ok
}

func parseDatetime(s string) (time.Time, bool) {
	for _, layout := range datetimeLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// MaterializeCells rewrites the string cells of a column whose inferred kind
// outranks its stored representation. Numeric kinds parse to float64 and
// datetime to time.Time; cells that do not parse become nulls, so downstream
// stages always see uniformly typed cells.
func MaterializeCells(col *models.Column, kind models.ColumnKind) {
	switch {
	case kind.IsNumeric():
		for i, v := range col.Values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				col.Values[i] = f
			} else {
				col.Values[i] = nil
			}
		}
	case kind == models.KindDatetime:
		for i, v := range col.Values {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if ts, ok := parseDatetime(s); ok {
				col.Values[i] = ts
			} else {
				col.Values[i] = nil
			}
		}
	}
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

func getDefaultClassifierConfig() *ClassifierConfig {
	return &ClassifierConfig{
		NumericParseThreshold:  constants.NumericParseThreshold,
		DatetimeParseThreshold: constants.DatetimeParseThreshold,
		CategoricalUniqueRatio: constants.CategoricalUniqueRatio,
		CategoricalUniqueCap:   constants.CategoricalUniqueCap,
		TopValuesLimit:         constants.TopValuesLimit,
		OutlierIQRMultiplier:   constants.OutlierIQRMultiplier,
		PIISampleSize:          constants.DefaultPIISampleSize,
		PIIMatchThreshold:      constants.PIIMatchThreshold,
	}
}
