package monitor

import (
	"github.com/vigilml/vigil/internal/domain/monitoring"
)

const (
	DefaultSignificance = 0.05
	DefaultDriftShare   = 0.5
)

// Detector compares the current window's feature distributions against the
// reference snapshot. It performs no I/O and cannot fail: degenerate inputs
// produce a defined verdict instead of an error.
type Detector struct {
	features     []monitoring.FeatureSpec
	significance float64
	driftShare   float64
}

func NewDetector(features []monitoring.FeatureSpec, significance, driftShare float64) *Detector {
	if len(features) == 0 {
		features = monitoring.DefaultFeatures()
	}
	if significance <= 0 || significance >= 1 {
		significance = DefaultSignificance
	}
	if driftShare <= 0 || driftShare >= 1 {
		driftShare = DefaultDriftShare
	}
	return &Detector{features: features, significance: significance, driftShare: driftShare}
}

// Compare tests every declared feature and aggregates the dataset verdict.
// A feature with no values on either side is marked not drifted and excluded
// from the aggregation denominator. Dataset drift holds iff the drifted
// fraction among tested features exceeds the drift share.
func (d *Detector) Compare(reference, current []monitoring.FeatureRecord) monitoring.DatasetDriftSummary {
	results := make([]monitoring.FeatureDriftResult, 0, len(d.features))
	tested := 0
	drifted := 0

	for _, spec := range d.features {
		res := monitoring.FeatureDriftResult{Feature: spec.Name, PValue: 1}

		switch spec.Kind {
		case monitoring.FeatureCategorical:
			ref := categoryValues(reference, spec.Name)
			cur := categoryValues(current, spec.Name)
			if len(ref) > 0 && len(cur) > 0 {
				res.Tested = true
				res.Statistic, res.PValue = chiSquareTest(ref, cur)
			}
		default:
			ref := numericValues(reference, spec.Name)
			cur := numericValues(current, spec.Name)
			if len(ref) > 0 && len(cur) > 0 {
				res.Tested = true
				res.Statistic, res.PValue = ksTest(ref, cur)
			}
		}

		if res.Tested {
			tested++
			res.Drifted = res.PValue < d.significance
			if res.Drifted {
				drifted++
			}
		}
		results = append(results, res)
	}

	datasetDrift := tested > 0 && float64(drifted)/float64(tested) > d.driftShare

	return monitoring.DatasetDriftSummary{
		DatasetDrift:       datasetDrift,
		NumDriftedFeatures: drifted,
		NumTestedFeatures:  tested,
		RowCount:           len(current),
		Results:            results,
	}
}

func numericValues(records []monitoring.FeatureRecord, feature string) []float64 {
	out := make([]float64, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Features[feature]; ok {
			out = append(out, v)
		}
	}
	return out
}

func categoryValues(records []monitoring.FeatureRecord, feature string) []string {
	out := make([]string, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.Categories[feature]; ok {
			out = append(out, v)
		}
	}
	return out
}
