// Flowsentry - Real-Time Ensemble Network Intrusion Detection
// Copyright 2026 The Flowsentry Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/flowsentry/flowsentry

package detector

import (
	"math"

	"github.com/flowsentry/flowsentry/internal/logging"
	"github.com/flowsentry/flowsentry/internal/metrics"
)

// collectVotes queries every model independently for a label and a
// confidence. A failing model contributes "unknown"/0.0 and never aborts the
// remaining models; its outcome is indistinguishable from that model being
// absent. Both returned maps carry one entry per model.
func collectVotes(mods []*Model, features map[string]float64) (map[string]string, map[string]float64) {
	preds := make(map[string]string, len(mods))
	confs := make(map[string]float64, len(mods))

	for _, m := range mods {
		label, confidence, err := m.PredictWithConfidence(m.Vector(features))
		if err != nil {
			logging.Warn().
				Err(err).
				Str("model", m.Name()).
				Msg("model prediction failed, excluding vote")
			metrics.RecordModelPredictionFailure(m.Name())
			preds[m.Name()] = LabelUnknown
			confs[m.Name()] = 0.0
			continue
		}
		preds[m.Name()] = label
		confs[m.Name()] = confidence
	}

	return preds, confs
}

// combineVotes reduces per-model votes to the ensemble prediction via
// weighted voting: each non-"unknown" vote adds confidence*weight to its
// label's total, the label with the largest total wins, and the ensemble
// confidence is that total's share of all weighted votes. Ties keep the
// label seen first in model order, which is stable (registry sorts by
// name), so the outcome is reproducible for fixed inputs. No usable votes
// yields "unknown"/0.0.
func combineVotes(mods []*Model, preds map[string]string, confs map[string]float64) (string, float64) {
	totals := make(map[string]float64)
	var labelOrder []string
	var totalConfidence float64

	for _, m := range mods {
		label := preds[m.Name()]
		if label == "" || label == LabelUnknown {
			continue
		}
		weighted := confs[m.Name()] * m.Weight()
		if _, seen := totals[label]; !seen {
			labelOrder = append(labelOrder, label)
		}
		totals[label] += weighted
		totalConfidence += weighted
	}

	if len(totals) == 0 {
		return LabelUnknown, 0.0
	}

	best := labelOrder[0]
	for _, label := range labelOrder[1:] {
		if totals[label] > totals[best] {
			best = label
		}
	}

	if totalConfidence <= 0 {
		return best, 0.0
	}
	return best, clamp01(totals[best] / totalConfidence)
}

// computeThreatScore derives a bounded threat score from model agreement
// plus anomaly heuristics. The base is the weighted confidence mass behind
// the positive class averaged over the models that produced a usable label;
// the label "1" also counts as positive for artifacts trained on numeric
// class encodings. The result is always within [0,1].
func computeThreatScore(mods []*Model, preds map[string]string, confs map[string]float64, features map[string]float64, positiveLabel string) float64 {
	var indicators float64
	voted := 0

	for _, m := range mods {
		label := preds[m.Name()]
		if label == "" || label == LabelUnknown {
			continue
		}
		voted++
		if label == positiveLabel || label == "1" {
			indicators += confs[m.Name()] * m.Weight()
		}
	}

	base := 0.0
	if voted > 0 {
		base = indicators / float64(voted)
	}

	return math.Min(1.0, base+anomalyScore(features)*0.2)
}

// anomalyScore checks the sanitized feature values against fixed thresholds
// that indicate scanning or flooding regardless of what the models say. The
// increment is clamped to at most 1.0 before the caller scales it in.
func anomalyScore(features map[string]float64) float64 {
	var score float64
	if features["suspicious_flags"] > 5 {
		score += 0.3
	}
	if features["packets_per_second"] > 100 {
		score += 0.2
	}
	if features["tcp_syn_ratio"] > 0.8 {
		score += 0.2
	}
	return math.Min(1.0, score)
}
