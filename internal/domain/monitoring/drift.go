package monitoring

import "time"

// FeatureRecord is the in-memory, column-oriented view of one observation.
// A feature absent from both maps is a missing value for that row. The
// reference snapshot uses the same shape with Prediction/Target left nil.
type FeatureRecord struct {
	Features   map[string]float64
	Categories map[string]string

	Prediction *int
	Target     *int

	Timestamp    time.Time
	ModelVersion string
}

// FeatureDriftResult is the per-feature outcome of one detector run. It is
// never persisted; the summary row carries only the aggregate counts.
type FeatureDriftResult struct {
	Feature   string
	Statistic float64
	PValue    float64
	Drifted   bool

	// Tested is false when either sample had no values for this feature.
	// Untested features never count as drifted and are excluded from the
	// aggregation denominator.
	Tested bool
}

// DatasetDriftSummary is the aggregate verdict for one cycle.
type DatasetDriftSummary struct {
	DatasetDrift       bool
	NumDriftedFeatures int
	NumTestedFeatures  int
	RowCount           int

	Results []FeatureDriftResult
}

// Score maps the boolean verdict onto the 0.0/1.0 scale stored in
// data_drift_score.
func (s DatasetDriftSummary) Score() float64 {
	if s.DatasetDrift {
		return 1.0
	}
	return 0.0
}
