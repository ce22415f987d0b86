package validation

import (
	"math"
	"math/rand"
	"sort"
)

// forestConfig controls the reference random forest used for utility
// scoring. The model is intentionally small; it only has to rank two
// training sets against each other, not win benchmarks.
type forestConfig struct {
	numTrees    int
	maxDepth    int
	minLeafSize int
	maxBuckets  int
}

type randomForest struct {
	config         forestConfig
	classification bool
	numClasses     int
	trees          []*treeNode
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *treeNode
	right     *treeNode
}

func defaultForestConfig() forestConfig {
	return forestConfig{
		numTrees:    25,
		maxDepth:    10,
		minLeafSize: 2,
		maxBuckets:  16,
	}
}

func newRandomForest(config forestConfig, classification bool, numClasses int) *randomForest {
	return &randomForest{
		config:         config,
		classification: classification,
		numClasses:     numClasses,
	}
}

// fit trains the forest on bootstrap samples of the rows. All randomness
// comes from the caller's source.
func (f *randomForest) fit(features [][]float64, labels []float64, rng *rand.Rand) {
	n := len(features)
	f.trees = make([]*treeNode, f.config.numTrees)

	featuresPerSplit := len(features[0])
	if f.config.numTrees > 1 {
		featuresPerSplit = int(math.Max(1, math.Sqrt(float64(len(features[0])))))
	}

	for t := 0; t < f.config.numTrees; t++ {
		sampleX := make([][]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			sampleX[i] = features[j]
			sampleY[i] = labels[j]
		}
		f.trees[t] = f.buildTree(sampleX, sampleY, 0, featuresPerSplit, rng)
	}
}

func (f *randomForest) buildTree(features [][]float64, labels []float64, depth, featuresPerSplit int, rng *rand.Rand) *treeNode {
	if depth >= f.config.maxDepth || len(labels) <= f.config.minLeafSize || isPure(labels) {
		return &treeNode{leaf: true, value: f.leafValue(labels)}
	}

	feature, threshold, ok := f.bestSplit(features, labels, featuresPerSplit, rng)
	if !ok {
		return &treeNode{leaf: true, value: f.leafValue(labels)}
	}

	var leftX, rightX [][]float64
	var leftY, rightY []float64
	for i, row := range features {
		if row[feature] <= threshold {
			leftX = append(leftX, row)
			leftY = append(leftY, labels[i])
		} else {
			rightX = append(rightX, row)
			rightY = append(rightY, labels[i])
		}
	}
	if len(leftY) == 0 || len(rightY) == 0 {
		return &treeNode{leaf: true, value: f.leafValue(labels)}
	}

	return &treeNode{
		feature:   feature,
		threshold: threshold,
		left:      f.buildTree(leftX, leftY, depth+1, featuresPerSplit, rng),
		right:     f.buildTree(rightX, rightY, depth+1, featuresPerSplit, rng),
	}
}

// bestSplit scans a random feature subset, trying a bounded set of
// candidate thresholds per feature.
func (f *randomForest) bestSplit(features [][]float64, labels []float64, featuresPerSplit int, rng *rand.Rand) (int, float64, bool) {
	numFeatures := len(features[0])
	candidates := rng.Perm(numFeatures)
	if featuresPerSplit < numFeatures {
		candidates = candidates[:featuresPerSplit]
	}

	bestImpurity := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0
	parent := f.impurity(labels)

	for _, feature := range candidates {
		for _, threshold := range f.thresholds(features, feature) {
			var leftY, rightY []float64
			for i, row := range features {
				if row[feature] <= threshold {
					leftY = append(leftY, labels[i])
				} else {
					rightY = append(rightY, labels[i])
				}
			}
			if len(leftY) == 0 || len(rightY) == 0 {
				continue
			}

			total := float64(len(labels))
			weighted := float64(len(leftY))/total*f.impurity(leftY) +
				float64(len(rightY))/total*f.impurity(rightY)
			if weighted < bestImpurity && weighted < parent {
				bestImpurity = weighted
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

// thresholds picks up to maxBuckets midpoints between consecutive distinct
// feature values.
func (f *randomForest) thresholds(features [][]float64, feature int) []float64 {
	values := make([]float64, 0, len(features))
	for _, row := range features {
		values = append(values, row[feature])
	}
	sort.Float64s(values)

	distinct := values[:0]
	for i, v := range values {
		if i == 0 || v != distinct[len(distinct)-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	step := 1
	if len(distinct)-1 > f.config.maxBuckets {
		step = (len(distinct) - 1) / f.config.maxBuckets
	}
	mids := make([]float64, 0, f.config.maxBuckets)
	for i := 0; i+1 < len(distinct); i += step {
		mids = append(mids, (distinct[i]+distinct[i+1])/2)
	}
	return mids
}

func (f *randomForest) impurity(labels []float64) float64 {
	if f.classification {
		return gini(labels, f.numClasses)
	}
	return variance(labels)
}

func (f *randomForest) leafValue(labels []float64) float64 {
	if f.classification {
		return majorityClass(labels, f.numClasses)
	}
	return mean(labels)
}

// predict returns the ensemble prediction for one row: majority vote for
// classification, mean for regression.
func (f *randomForest) predict(row []float64) float64 {
	if f.classification {
		votes := make([]int, f.numClasses)
		for _, tree := range f.trees {
			votes[int(tree.predict(row))]++
		}
		best, bestVotes := 0, -1
		for class, v := range votes {
			if v > bestVotes {
				best, bestVotes = class, v
			}
		}
		return float64(best)
	}

	sum := 0.0
	for _, tree := range f.trees {
		sum += tree.predict(row)
	}
	return sum / float64(len(f.trees))
}

func (n *treeNode) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

func isPure(labels []float64) bool {
	for _, v := range labels[1:] {
		if v != labels[0] {
			return false
		}
	}
	return true
}

func gini(labels []float64, numClasses int) float64 {
	counts := make([]int, numClasses)
	for _, v := range labels {
		counts[int(v)]++
	}
	g := 1.0
	total := float64(len(labels))
	for _, c := range counts {
		p := float64(c) / total
		g -= p * p
	}
	return g
}

func variance(labels []float64) float64 {
	m := mean(labels)
	sum := 0.0
	for _, v := range labels {
		d := v - m
		sum += d * d
	}
	return sum / float64(len(labels))
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func majorityClass(labels []float64, numClasses int) float64 {
	counts := make([]int, numClasses)
	for _, v := range labels {
		counts[int(v)]++
	}
	best, bestCount := 0, -1
	for class, c := range counts {
		if c > bestCount {
			best, bestCount = class, c
		}
	}
	return float64(best)
}
