package validation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// SimilarityValidator scores how closely a synthetic table tracks the
// statistical shape of the original. All scores land in [0,1] and comparing
// a table with itself yields exactly 1.0 per column.
type SimilarityValidator struct {
	logger *logrus.Logger
}

// NewSimilarityValidator creates a new similarity validator.
func NewSimilarityValidator(logger *logrus.Logger) *SimilarityValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &SimilarityValidator{logger: logger}
}

// Compare builds the full similarity report over the columns the two tables
// share. Columns present in only one table are ignored; no common column is
// an error.
func (v *SimilarityValidator) Compare(original, synthetic *models.Table) (*models.SimilarityReport, error) {
	if err := original.Validate(); err != nil {
		return nil, err
	}
	if err := synthetic.Validate(); err != nil {
		return nil, err
	}

	common := commonColumns(original, synthetic)
	if len(common) == 0 {
		return nil, errors.NewValidationInputError(errors.CodeNoCommonColumns,
			"original and synthetic tables share no columns")
	}

	report := &models.SimilarityReport{
		ColumnSimilarities: make(map[string]*models.ColumnSimilarity, len(common)),
		Shape: models.ShapeComparison{
			OriginalRows:     original.Rows(),
			OriginalColumns:  len(original.Columns),
			SyntheticRows:    synthetic.Rows(),
			SyntheticColumns: len(synthetic.Columns),
			ColumnsMatch:     len(common) == len(original.Columns) && len(common) == len(synthetic.Columns),
		},
	}

	total := 0.0
	for _, name := range common {
		origCol := original.Column(name)
		synthCol := synthetic.Column(name)

		var sim *models.ColumnSimilarity
		if origCol.Kind.IsNumeric() && synthCol.Kind.IsNumeric() {
			sim = numericSimilarity(origCol, synthCol)
		} else {
			sim = categoricalSimilarity(origCol, synthCol)
		}
		report.ColumnSimilarities[name] = sim
		total += sim.Score
	}
	report.OverallSimilarity = total / float64(len(common))
	report.Correlations = compareCorrelations(original, synthetic, common)
	report.Assessment = SimilarityAssessment(report.OverallSimilarity)

	v.logger.WithFields(logrus.Fields{
		"common_columns":     len(common),
		"overall_similarity": report.OverallSimilarity,
		"grade":              report.Assessment.Grade,
	}).Info("Similarity comparison completed")

	return report, nil
}

func commonColumns(a, b *models.Table) []string {
	common := make([]string, 0, len(a.Columns))
	for _, col := range a.Columns {
		if b.HasColumn(col.Name) {
			common = append(common, col.Name)
		}
	}
	return common
}

// numericSimilarity blends mean closeness, spread closeness and histogram
// overlap over shared bins.
func numericSimilarity(origCol, synthCol *models.Column) *models.ColumnSimilarity {
	orig, _ := origCol.Floats()
	synth, _ := synthCol.Floats()
	if len(orig) == 0 && len(synth) == 0 {
		// Two columns with no usable values are trivially identical.
		return &models.ColumnSimilarity{Kind: origCol.Kind, Score: 1.0, Metrics: map[string]float64{}}
	}
	if len(orig) == 0 || len(synth) == 0 {
		return &models.ColumnSimilarity{Kind: origCol.Kind, Metrics: map[string]float64{}}
	}

	origMean := stat.Mean(orig, nil)
	synthMean := stat.Mean(synth, nil)
	meanSim := closeness(origMean, synthMean)

	origStd := stdDev(orig)
	synthStd := stdDev(synth)
	stdSim := closeness(origStd, synthStd)

	histSim := histogramOverlap(orig, synth, constants.SimilarityHistogramBins)

	score := constants.SimilarityWeightMean*meanSim +
		constants.SimilarityWeightStd*stdSim +
		constants.SimilarityWeightHistogram*histSim

	return &models.ColumnSimilarity{
		Kind:  origCol.Kind,
		Score: score,
		Metrics: map[string]float64{
			"mean_original":      origMean,
			"mean_synthetic":     synthMean,
			"mean_similarity":    meanSim,
			"std_original":       origStd,
			"std_synthetic":      synthStd,
			"std_similarity":     stdSim,
			"histogram_overlap":  histSim,
		},
	}
}

// closeness maps two scalars to a [0,1] similarity. The denominator floor
// keeps near-zero statistics from exploding the ratio.
func closeness(a, b float64) float64 {
	diff := math.Abs(a - b)
	scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), 1)
	return math.Max(0, 1-diff/scale)
}

func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// histogramOverlap bins both samples over their combined range and sums the
// per-bin minimum of the two normalized histograms. Identical samples
// overlap completely.
func histogramOverlap(orig, synth []float64, bins int) float64 {
	min, max := orig[0], orig[0]
	for _, v := range orig {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	for _, v := range synth {
		min = math.Min(min, v)
		max = math.Max(max, v)
	}
	if min == max {
		// Both samples are a single point; overlap is total.
		return 1.0
	}

	width := (max - min) / float64(bins)
	origHist := binCounts(orig, min, width, bins)
	synthHist := binCounts(synth, min, width, bins)

	// Single final division keeps identical samples at exactly 1.0.
	no, ns := float64(len(orig)), float64(len(synth))
	sumMin := 0.0
	for i := 0; i < bins; i++ {
		sumMin += math.Min(origHist[i]*ns, synthHist[i]*no)
	}
	return sumMin / (no * ns)
}

func binCounts(values []float64, min, width float64, bins int) []float64 {
	hist := make([]float64, bins)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bins {
			idx = bins - 1
		}
		if idx < 0 {
			idx = 0
		}
		hist[idx]++
	}
	return hist
}

// categoricalSimilarity blends total-variation closeness of the two
// frequency distributions with original-category coverage.
func categoricalSimilarity(origCol, synthCol *models.Column) *models.ColumnSimilarity {
	origFreq, origTotal := frequencies(origCol)
	synthFreq, synthTotal := frequencies(synthCol)
	if origTotal == 0 && synthTotal == 0 {
		// Two columns with no usable values are trivially identical.
		return &models.ColumnSimilarity{Kind: origCol.Kind, Score: 1.0, Metrics: map[string]float64{}}
	}
	if origTotal == 0 || synthTotal == 0 {
		return &models.ColumnSimilarity{Kind: origCol.Kind, Metrics: map[string]float64{}}
	}

	categories := make(map[string]bool, len(origFreq)+len(synthFreq))
	for c := range origFreq {
		categories[c] = true
	}
	for c := range synthFreq {
		categories[c] = true
	}

	// Total variation distance is half the L1 distance between the two
	// distributions, in [0,1].
	tv := 0.0
	for c := range categories {
		po := float64(origFreq[c]) / float64(origTotal)
		ps := float64(synthFreq[c]) / float64(synthTotal)
		tv += math.Abs(po - ps)
	}
	tv /= 2
	tvSim := 1 - tv

	covered := 0
	for c := range origFreq {
		if synthFreq[c] > 0 {
			covered++
		}
	}
	coverage := float64(covered) / float64(len(origFreq))

	score := constants.SimilarityWeightTV*tvSim + constants.SimilarityWeightCoverage*coverage

	return &models.ColumnSimilarity{
		Kind:  origCol.Kind,
		Score: score,
		Metrics: map[string]float64{
			"original_categories":  float64(len(origFreq)),
			"synthetic_categories": float64(len(synthFreq)),
			"total_variation":      tv,
			"tv_similarity":        tvSim,
			"category_coverage":    coverage,
		},
	}
}

func frequencies(col *models.Column) (map[string]int, int) {
	freq := make(map[string]int)
	total := 0
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		freq[renderCell(v)]++
		total++
	}
	return freq, total
}

func renderCell(v interface{}) string {
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

// compareCorrelations checks whether pairwise correlation structure
// survives. Pairs drifting beyond the divergence threshold are listed.
func compareCorrelations(original, synthetic *models.Table, common []string) *models.CorrelationComparison {
	numeric := make([]string, 0, len(common))
	for _, name := range common {
		if original.Column(name).Kind.IsNumeric() && synthetic.Column(name).Kind.IsNumeric() {
			numeric = append(numeric, name)
		}
	}
	sort.Strings(numeric)

	comparison := &models.CorrelationComparison{NumericColumns: numeric}
	if len(numeric) < 2 {
		return comparison
	}

	var origVals, synthVals []float64
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			ro := pairCorrelation(original.Column(numeric[i]), original.Column(numeric[j]))
			rs := pairCorrelation(synthetic.Column(numeric[i]), synthetic.Column(numeric[j]))
			origVals = append(origVals, ro)
			synthVals = append(synthVals, rs)

			if div := math.Abs(ro - rs); div > constants.CorrelationDivergenceThreshold {
				comparison.DivergentPairs = append(comparison.DivergentPairs, models.CorrelationDivergence{
					ColumnA:              numeric[i],
					ColumnB:              numeric[j],
					CorrelationOriginal:  ro,
					CorrelationSynthetic: rs,
					Divergence:           div,
				})
			}
		}
	}

	sum := 0.0
	for i := range origVals {
		d := origVals[i] - synthVals[i]
		sum += d * d
	}
	comparison.RMSE = math.Sqrt(sum / float64(len(origVals)))

	if len(origVals) >= 2 {
		r := stat.Correlation(origVals, synthVals, nil)
		if !math.IsNaN(r) {
			comparison.CorrelationSimilarity = math.Max(0, r)
		}
	} else {
		// One pair only; fall back to closeness of the single correlation.
		comparison.CorrelationSimilarity = math.Max(0, 1-math.Abs(origVals[0]-synthVals[0]))
	}
	return comparison
}

func pairCorrelation(a, b *models.Column) float64 {
	xs := make([]float64, 0, len(a.Values))
	ys := make([]float64, 0, len(b.Values))
	for i := range a.Values {
		x, okA := a.Values[i].(float64)
		y, okB := b.Values[i].(float64)
		if !okA || !okB {
			continue
		}
		xs = append(xs, x)
		ys = append(ys, y)
	}
	if len(xs) < 2 {
		return 0
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// SimilarityAssessment maps an overall score to its documented grade band.
func SimilarityAssessment(score float64) models.Assessment {
	switch {
	case score >= constants.GradeExcellentMin:
		return models.Assessment{
			Grade:       constants.GradeExcellent,
			Description: "synthetic data closely matches the original and can be used with confidence",
		}
	case score >= constants.GradeGoodMin:
		return models.Assessment{
			Grade:       constants.GradeGood,
			Description: "synthetic data is of sufficient quality for most uses",
		}
	case score >= constants.GradeFairMin:
		return models.Assessment{
			Grade:       constants.GradeFair,
			Description: "synthetic data is acceptable but could be improved",
		}
	case score >= constants.GradeWeakMin:
		return models.Assessment{
			Grade:       constants.GradeWeak,
			Description: "synthetic data is low quality, regeneration is recommended",
		}
	default:
		return models.Assessment{
			Grade:       constants.GradePoor,
			Description: "synthetic data diverges heavily from the original and should not be used",
		}
	}
}
