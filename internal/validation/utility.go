package validation

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/synthtab/synthtab/pkg/constants"
	"github.com/synthtab/synthtab/pkg/errors"
	"github.com/synthtab/synthtab/pkg/models"
)

// UtilityConfig contains configuration for utility assessment.
type UtilityConfig struct {
	Seed         int64   `json:"seed"`
	TestFraction float64 `json:"test_fraction"`
	NumTrees     int     `json:"num_trees"`
	MaxDepth     int     `json:"max_depth"`
}

// UtilityValidator measures how well models trained on synthetic data
// transfer to real data. Two reference forests are trained, one per
// dataset, and both are scored on the same held-out slice of the original.
type UtilityValidator struct {
	config *UtilityConfig
	logger *logrus.Logger
}

// NewUtilityValidator creates a new utility validator.
func NewUtilityValidator(config *UtilityConfig, logger *logrus.Logger) *UtilityValidator {
	if config == nil {
		config = getDefaultUtilityConfig()
	}
	if config.TestFraction <= 0 {
		config.TestFraction = constants.UtilityTestFraction
	}
	if config.NumTrees <= 0 {
		config.NumTrees = constants.DefaultForestTrees
	}
	if config.MaxDepth <= 0 {
		config.MaxDepth = constants.DefaultForestMaxDepth
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &UtilityValidator{
		config: config,
		logger: logger,
	}
}

// Assess runs the train-synthetic-test-real comparison for one target
// column. TaskType may be "classification", "regression" or "auto".
func (v *UtilityValidator) Assess(original, synthetic *models.Table, targetColumn, taskType string) (*models.UtilityReport, error) {
	if err := original.Validate(); err != nil {
		return nil, err
	}
	if err := synthetic.Validate(); err != nil {
		return nil, err
	}
	if !original.HasColumn(targetColumn) || !synthetic.HasColumn(targetColumn) {
		return nil, errors.NewValidationInputError(errors.CodeMissingTarget,
			"target column not present in both tables: "+targetColumn)
	}
	if original.Rows() < constants.MinUtilityRows || synthetic.Rows() < constants.MinUtilityRows {
		return nil, errors.NewInsufficientDataError(errors.CodeInsufficientData,
			"utility assessment needs at least 20 rows in each table")
	}

	featureCols := commonFeatureColumns(original, synthetic, targetColumn)
	if len(featureCols) == 0 {
		return nil, errors.NewValidationInputError(errors.CodeNoCommonColumns,
			"no shared feature columns besides the target")
	}

	if taskType == constants.TaskTypeAuto || taskType == "" {
		taskType = detectTaskType(original.Column(targetColumn))
	}
	if taskType != constants.TaskTypeClassification && taskType != constants.TaskTypeRegression {
		return nil, errors.NewValidationInputError(errors.CodeInvalidTaskType,
			"unknown task type: "+taskType)
	}

	classification := taskType == constants.TaskTypeClassification
	enc := newEncoder(original, synthetic, featureCols, targetColumn, classification)
	if enc == nil {
		return nil, errors.NewValidationInputError(errors.CodeInvalidTaskType,
			"regression target must be numeric: "+targetColumn)
	}

	origX, origY := enc.encode(original)
	synthX, synthY := enc.encode(synthetic)

	rng := rand.New(rand.NewSource(v.config.Seed))
	origTrainX, origTrainY, testX, testY := split(origX, origY, v.config.TestFraction, rng)
	synthTrainX, synthTrainY, _, _ := split(synthX, synthY, v.config.TestFraction, rng)

	cfg := forestConfig{
		numTrees:    v.config.NumTrees,
		maxDepth:    v.config.MaxDepth,
		minLeafSize: 2,
		maxBuckets:  16,
	}
	origModel := newRandomForest(cfg, classification, enc.numClasses)
	origModel.fit(origTrainX, origTrainY, rng)
	synthModel := newRandomForest(cfg, classification, enc.numClasses)
	synthModel.fit(synthTrainX, synthTrainY, rng)

	origPred := predictAll(origModel, testX)
	synthPred := predictAll(synthModel, testX)

	report := &models.UtilityReport{
		TaskType:              taskType,
		TargetColumn:          targetColumn,
		Models:                make(map[string]*models.ModelMetrics, 2),
		PerformanceDifference: make(map[string]float64),
	}
	if classification {
		report.Models["trained_on_original"] = classificationMetrics(testY, origPred, enc.numClasses)
		report.Models["trained_on_synthetic"] = classificationMetrics(testY, synthPred, enc.numClasses)

		accDiff := math.Abs(report.Models["trained_on_original"].Accuracy -
			report.Models["trained_on_synthetic"].Accuracy)
		f1Diff := math.Abs(report.Models["trained_on_original"].F1Score -
			report.Models["trained_on_synthetic"].F1Score)
		report.PerformanceDifference["accuracy_diff"] = accDiff
		report.PerformanceDifference["f1_diff"] = f1Diff
		report.UtilityScore = clamp01(0.5*(1-accDiff) + 0.5*(1-f1Diff))
	} else {
		report.Models["trained_on_original"] = regressionMetrics(testY, origPred)
		report.Models["trained_on_synthetic"] = regressionMetrics(testY, synthPred)

		r2Diff := math.Abs(report.Models["trained_on_original"].R2Score -
			report.Models["trained_on_synthetic"].R2Score)
		report.PerformanceDifference["r2_diff"] = r2Diff
		report.UtilityScore = clamp01(1 - r2Diff)
	}
	report.Assessment = SimilarityAssessment(report.UtilityScore)

	v.logger.WithFields(logrus.Fields{
		"target":        targetColumn,
		"task_type":     taskType,
		"utility_score": report.UtilityScore,
		"grade":         report.Assessment.Grade,
	}).Info("Utility assessment completed")

	return report, nil
}

func commonFeatureColumns(original, synthetic *models.Table, target string) []string {
	cols := make([]string, 0, len(original.Columns))
	for _, col := range original.Columns {
		if col.Name == target {
			continue
		}
		if synthetic.HasColumn(col.Name) {
			cols = append(cols, col.Name)
		}
	}
	return cols
}

// detectTaskType treats low-cardinality targets as classification.
func detectTaskType(target *models.Column) string {
	unique := len(target.UniqueNonNull())
	total := len(target.Values) - target.NullCount()
	if total == 0 {
		return constants.TaskTypeClassification
	}
	if float64(unique)/float64(total) < constants.AutoClassificationUniqueRatio ||
		unique < constants.AutoClassificationUniqueCap {
		return constants.TaskTypeClassification
	}
	return constants.TaskTypeRegression
}

// encoder turns table rows into numeric feature matrices. Categorical
// levels are indexed over both datasets so the two matrices agree; numeric
// nulls are median-imputed, categorical nulls take the dataset mode.
type encoder struct {
	featureCols []string
	target      string
	categorical map[string]map[string]float64
	targetIdx   map[string]float64
	numClasses  int
	classTarget bool
}

func newEncoder(original, synthetic *models.Table, featureCols []string, target string, classification bool) *encoder {
	enc := &encoder{
		featureCols: featureCols,
		target:      target,
		categorical: make(map[string]map[string]float64),
		classTarget: classification,
	}

	for _, name := range featureCols {
		if !original.Column(name).Kind.IsNumeric() || !synthetic.Column(name).Kind.IsNumeric() {
			enc.categorical[name] = levelIndex(original.Column(name), synthetic.Column(name))
		}
	}

	origTarget := original.Column(target)
	synthTarget := synthetic.Column(target)
	if classification {
		enc.targetIdx = levelIndex(origTarget, synthTarget)
		enc.numClasses = len(enc.targetIdx)
		if enc.numClasses == 0 {
			enc.numClasses = 1
		}
	} else if !origTarget.Kind.IsNumeric() || !synthTarget.Kind.IsNumeric() {
		return nil
	}
	return enc
}

// levelIndex assigns stable indices to every level seen in either column,
// sorted lexicographically for determinism.
func levelIndex(a, b *models.Column) map[string]float64 {
	levels := make(map[string]bool)
	for _, col := range []*models.Column{a, b} {
		for _, v := range col.Values {
			if v == nil {
				continue
			}
			levels[renderCell(v)] = true
		}
	}
	sorted := make([]string, 0, len(levels))
	for level := range levels {
		sorted = append(sorted, level)
	}
	sort.Strings(sorted)

	idx := make(map[string]float64, len(sorted))
	for i, level := range sorted {
		idx[level] = float64(i)
	}
	return idx
}

func (e *encoder) encode(table *models.Table) ([][]float64, []float64) {
	rows := table.Rows()
	features := make([][]float64, rows)
	for i := range features {
		features[i] = make([]float64, len(e.featureCols))
	}

	for j, name := range e.featureCols {
		col := table.Column(name)
		if levels, ok := e.categorical[name]; ok {
			fill := modeLevel(col, levels)
			for i, v := range col.Values {
				if v == nil {
					features[i][j] = fill
					continue
				}
				features[i][j] = levels[renderCell(v)]
			}
			continue
		}

		values, _ := col.Floats()
		fill := medianOf(values)
		for i, v := range col.Values {
			if f, ok := v.(float64); ok {
				features[i][j] = f
			} else {
				features[i][j] = fill
			}
		}
	}

	labels := make([]float64, rows)
	targetCol := table.Column(e.target)
	if e.classTarget {
		fill := modeLevel(targetCol, e.targetIdx)
		for i, v := range targetCol.Values {
			if v == nil {
				labels[i] = fill
				continue
			}
			labels[i] = e.targetIdx[renderCell(v)]
		}
	} else {
		values, _ := targetCol.Floats()
		fill := medianOf(values)
		for i, v := range targetCol.Values {
			if f, ok := v.(float64); ok {
				labels[i] = f
			} else {
				labels[i] = fill
			}
		}
	}
	return features, labels
}

func modeLevel(col *models.Column, levels map[string]float64) float64 {
	counts := make(map[float64]int, len(levels))
	for _, v := range col.Values {
		if v == nil {
			continue
		}
		counts[levels[renderCell(v)]]++
	}
	best, bestCount := 0.0, -1
	for level, count := range counts {
		if count > bestCount || (count == bestCount && level < best) {
			best, bestCount = level, count
		}
	}
	return best
}

func medianOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// split shuffles rows and carves off the trailing fraction as the test set.
func split(features [][]float64, labels []float64, testFraction float64, rng *rand.Rand) ([][]float64, []float64, [][]float64, []float64) {
	n := len(labels)
	perm := rng.Perm(n)

	testSize := int(float64(n) * testFraction)
	if testSize < 1 {
		testSize = 1
	}
	trainSize := n - testSize

	trainX := make([][]float64, 0, trainSize)
	trainY := make([]float64, 0, trainSize)
	testX := make([][]float64, 0, testSize)
	testY := make([]float64, 0, testSize)
	for i, idx := range perm {
		if i < trainSize {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, labels[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, labels[idx])
		}
	}
	return trainX, trainY, testX, testY
}

func predictAll(model *randomForest, features [][]float64) []float64 {
	preds := make([]float64, len(features))
	for i, row := range features {
		preds[i] = model.predict(row)
	}
	return preds
}

func classificationMetrics(truth, preds []float64, numClasses int) *models.ModelMetrics {
	correct := 0
	for i := range truth {
		if truth[i] == preds[i] {
			correct++
		}
	}
	return &models.ModelMetrics{
		Accuracy: float64(correct) / float64(len(truth)),
		F1Score:  weightedF1(truth, preds, numClasses),
	}
}

// weightedF1 averages per-class F1 weighted by true-class support.
func weightedF1(truth, preds []float64, numClasses int) float64 {
	tp := make([]int, numClasses)
	fp := make([]int, numClasses)
	fn := make([]int, numClasses)
	support := make([]int, numClasses)
	for i := range truth {
		t, p := int(truth[i]), int(preds[i])
		support[t]++
		if t == p {
			tp[t]++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	weighted := 0.0
	for c := 0; c < numClasses; c++ {
		if support[c] == 0 {
			continue
		}
		var f1 float64
		denom := 2*tp[c] + fp[c] + fn[c]
		if denom > 0 {
			f1 = 2 * float64(tp[c]) / float64(denom)
		}
		weighted += f1 * float64(support[c])
	}
	return weighted / float64(len(truth))
}

func regressionMetrics(truth, preds []float64) *models.ModelMetrics {
	n := float64(len(truth))
	mse, mae := 0.0, 0.0
	for i := range truth {
		d := truth[i] - preds[i]
		mse += d * d
		mae += math.Abs(d)
	}
	mse /= n
	mae /= n

	truthMean := mean(truth)
	ssTot := 0.0
	for _, v := range truth {
		d := v - truthMean
		ssTot += d * d
	}
	r2 := 0.0
	if ssTot > 0 {
		r2 = 1 - mse*n/ssTot
	}
	return &models.ModelMetrics{
		R2Score: r2,
		RMSE:    math.Sqrt(mse),
		MAE:     mae,
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func getDefaultUtilityConfig() *UtilityConfig {
	return &UtilityConfig{
		Seed:         42,
		TestFraction: constants.UtilityTestFraction,
		NumTrees:     constants.DefaultForestTrees,
		MaxDepth:     constants.DefaultForestMaxDepth,
	}
}
