package monitoring

type FeatureKind string

const (
	FeatureNumeric     FeatureKind = "numeric"
	FeatureCategorical FeatureKind = "categorical"
)

// FeatureSpec declares one input feature participating in drift testing.
// Prediction and label columns are never part of the declared set.
type FeatureSpec struct {
	Name string      `yaml:"name"`
	Kind FeatureKind `yaml:"kind"`
}

// DefaultFeatures matches the serving layer's schema.
func DefaultFeatures() []FeatureSpec {
	return []FeatureSpec{
		{Name: "feature_1", Kind: FeatureNumeric},
		{Name: "feature_2", Kind: FeatureNumeric},
	}
}
