// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"errors"
	"fmt"
)

// ErrNoProbabilities is returned by PredictProba when a predictor can only
// produce hard labels. Callers fall back to the neutral confidence default.
var ErrNoProbabilities = errors.New("predictor has no probability output")

// Predictor is an already-fitted classifier. Predict maps an ordered feature
// vector to a class index into the artifact's label list. Implementations are
// immutable after decoding and safe for concurrent use.
type Predictor interface {
	Predict(vector []float64) (int, error)
}

// ProbabilityPredictor is a Predictor that also exposes per-class
// probabilities aligned with the artifact's label list.
type ProbabilityPredictor interface {
	Predictor
	PredictProba(vector []float64) ([]float64, error)
}

// TreeNode is one node in a flattened decision tree. Interior nodes split on
// Feature at Threshold (<= goes Left); leaves carry Feature == -1, the
// predicted Class, and optionally the per-class training Counts that back
// probability output.
type TreeNode struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Class     int
	Counts    []float64
}

// DecisionTree is a fitted classification tree stored as an index-linked node
// array with the root at index 0.
type DecisionTree struct {
	NumClasses int
	Nodes      []TreeNode
}

// leaf walks the tree for a vector. The hop bound rejects artifacts whose
// node links form a cycle instead of looping forever on them.
func (t *DecisionTree) leaf(vector []float64) (*TreeNode, error) {
	if len(t.Nodes) == 0 {
		return nil, errors.New("decision tree has no nodes")
	}

	idx := 0
	for hops := 0; hops <= len(t.Nodes); hops++ {
		n := &t.Nodes[idx]
		if n.Feature < 0 {
			return n, nil
		}
		if n.Feature >= len(vector) {
			return nil, fmt.Errorf("split on feature %d but vector has %d features", n.Feature, len(vector))
		}

		if vector[n.Feature] <= n.Threshold {
			idx = n.Left
		} else {
			idx = n.Right
		}
		if idx < 0 || idx >= len(t.Nodes) {
			return nil, fmt.Errorf("node index %d out of range", idx)
		}
	}

	return nil, errors.New("decision tree traversal did not terminate")
}

// Predict returns the class index of the leaf the vector lands in.
func (t *DecisionTree) Predict(vector []float64) (int, error) {
	n, err := t.leaf(vector)
	if err != nil {
		return 0, err
	}
	return n.Class, nil
}

// PredictProba returns the normalized training counts of the matched leaf.
// Trees exported without leaf counts return ErrNoProbabilities.
func (t *DecisionTree) PredictProba(vector []float64) ([]float64, error) {
	n, err := t.leaf(vector)
	if err != nil {
		return nil, err
	}
	if len(n.Counts) == 0 {
		return nil, ErrNoProbabilities
	}

	total := 0.0
	for _, c := range n.Counts {
		total += c
	}
	if total <= 0 {
		return nil, ErrNoProbabilities
	}

	probs := make([]float64, len(n.Counts))
	for i, c := range n.Counts {
		probs[i] = c / total
	}
	return probs, nil
}

// KNN is a fitted k-nearest-neighbor classifier carrying its training set.
// Labels holds the class index of each sample.
type KNN struct {
	K          int
	NumClasses int
	Samples    [][]float64
	Labels     []int
}

// votes returns per-class vote counts among the k nearest samples and the
// effective k. Distance ties keep the earlier sample, so results are
// deterministic for a fixed training set.
func (k *KNN) votes(vector []float64) ([]float64, int, error) {
	if len(k.Samples) == 0 {
		return nil, 0, errors.New("knn has no training samples")
	}
	if len(k.Labels) != len(k.Samples) {
		return nil, 0, fmt.Errorf("knn has %d labels for %d samples", len(k.Labels), len(k.Samples))
	}
	if len(vector) != len(k.Samples[0]) {
		return nil, 0, fmt.Errorf("vector has %d features, samples have %d", len(vector), len(k.Samples[0]))
	}

	kk := k.K
	if kk <= 0 {
		kk = 1
	}
	if kk > len(k.Samples) {
		kk = len(k.Samples)
	}

	dists := make([]float64, len(k.Samples))
	order := make([]int, len(k.Samples))
	for i, sample := range k.Samples {
		d := 0.0
		for j := range sample {
			diff := vector[j] - sample[j]
			d += diff * diff
		}
		dists[i] = d
		order[i] = i
	}

	// Partial selection of the kk nearest; strict less keeps earlier
	// samples on equal distance.
	for i := 0; i < kk; i++ {
		best := i
		for j := i + 1; j < len(order); j++ {
			if dists[order[j]] < dists[order[best]] {
				best = j
			}
		}
		order[i], order[best] = order[best], order[i]
	}

	numClasses := k.NumClasses
	if numClasses <= 0 {
		for _, label := range k.Labels {
			if label+1 > numClasses {
				numClasses = label + 1
			}
		}
	}

	counts := make([]float64, numClasses)
	for i := 0; i < kk; i++ {
		label := k.Labels[order[i]]
		if label < 0 || label >= numClasses {
			return nil, 0, fmt.Errorf("sample label %d out of range", label)
		}
		counts[label]++
	}

	return counts, kk, nil
}

// Predict returns the majority class among the k nearest training samples.
// Vote ties resolve to the lowest class index.
func (k *KNN) Predict(vector []float64) (int, error) {
	counts, _, err := k.votes(vector)
	if err != nil {
		return 0, err
	}
	return argmax(counts), nil
}

// PredictProba returns the neighbor vote share per class.
func (k *KNN) PredictProba(vector []float64) ([]float64, error) {
	counts, kk, err := k.votes(vector)
	if err != nil {
		return nil, err
	}
	for i := range counts {
		counts[i] /= float64(kk)
	}
	return counts, nil
}

// Forest is a fitted tree ensemble combined by majority vote.
type Forest struct {
	NumClasses int
	Trees      []DecisionTree
}

// votes returns per-class vote counts across the member trees.
func (f *Forest) votes(vector []float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("forest has no trees")
	}

	preds := make([]int, len(f.Trees))
	numClasses := f.NumClasses
	for i := range f.Trees {
		p, err := f.Trees[i].Predict(vector)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		preds[i] = p
		if p+1 > numClasses {
			numClasses = p + 1
		}
	}

	counts := make([]float64, numClasses)
	for _, p := range preds {
		if p < 0 {
			return nil, fmt.Errorf("tree predicted class %d", p)
		}
		counts[p]++
	}
	return counts, nil
}

// Predict returns the class most member trees voted for. Vote ties resolve
// to the lowest class index.
func (f *Forest) Predict(vector []float64) (int, error) {
	counts, err := f.votes(vector)
	if err != nil {
		return 0, err
	}
	return argmax(counts), nil
}

// PredictProba returns the tree vote share per class.
func (f *Forest) PredictProba(vector []float64) ([]float64, error) {
	counts, err := f.votes(vector)
	if err != nil {
		return nil, err
	}
	for i := range counts {
		counts[i] /= float64(len(f.Trees))
	}
	return counts, nil
}

// LinearMargin is a fitted binary linear classifier. A positive margin
// predicts class 1, otherwise class 0. Margins are not calibrated, so there
// is no probability output.
type LinearMargin struct {
	Weights []float64
	Bias    float64
}

// Predict returns 1 when the decision function is positive, else 0.
func (m *LinearMargin) Predict(vector []float64) (int, error) {
	if len(vector) != len(m.Weights) {
		return 0, fmt.Errorf("vector has %d features, weights have %d", len(vector), len(m.Weights))
	}

	margin := m.Bias
	for i, w := range m.Weights {
		margin += w * vector[i]
	}
	if margin > 0 {
		return 1, nil
	}
	return 0, nil
}

// ScalerPipeline standardizes the vector with fitted per-feature mean and
// scale before delegating to the wrapped predictor. Probability output is
// available exactly when the inner predictor provides it.
type ScalerPipeline struct {
	Mean  []float64
	Scale []float64
	Inner Predictor
}

func (p *ScalerPipeline) transform(vector []float64) ([]float64, error) {
	if p.Inner == nil {
		return nil, errors.New("pipeline has no inner predictor")
	}
	if len(p.Mean) != len(p.Scale) {
		return nil, fmt.Errorf("pipeline has %d means for %d scales", len(p.Mean), len(p.Scale))
	}
	if len(vector) != len(p.Mean) {
		return nil, fmt.Errorf("vector has %d features, scaler has %d", len(vector), len(p.Mean))
	}

	out := make([]float64, len(vector))
	for i := range vector {
		scale := p.Scale[i]
		if scale == 0 {
			// Zero-variance training features pass through centered.
			scale = 1
		}
		out[i] = (vector[i] - p.Mean[i]) / scale
	}
	return out, nil
}

// Predict standardizes and delegates to the inner predictor.
func (p *ScalerPipeline) Predict(vector []float64) (int, error) {
	z, err := p.transform(vector)
	if err != nil {
		return 0, err
	}
	return p.Inner.Predict(z)
}

// PredictProba standardizes and delegates when the inner predictor exposes
// probabilities, else returns ErrNoProbabilities.
func (p *ScalerPipeline) PredictProba(vector []float64) ([]float64, error) {
	pp, ok := p.Inner.(ProbabilityPredictor)
	if !ok {
		return nil, ErrNoProbabilities
	}
	z, err := p.transform(vector)
	if err != nil {
		return nil, err
	}
	return pp.PredictProba(z)
}

// argmax returns the index of the largest value; ties resolve to the lowest
// index. Returns 0 for empty input.
func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}
