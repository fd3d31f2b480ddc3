package monitor

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vigilml/vigil/internal/domain/monitoring"
	"github.com/vigilml/vigil/internal/platform/envutil"
)

// Config is the pipeline's environment-style configuration surface. It is
// read once at process start; there is no hot reload.
type Config struct {
	ReferencePath       string
	FeaturesPath        string
	ModelVersion        string
	LookbackHours       int
	Significance        float64
	DriftShare          float64
	DriftThreshold      int
	StartupDelaySeconds int
}

func ConfigFromEnv() Config {
	return Config{
		ReferencePath:       envutil.String("REFERENCE_DATA_PATH", "/data/reference_data.csv"),
		FeaturesPath:        envutil.String("FEATURES_PATH", ""),
		ModelVersion:        envutil.String("MODEL_VERSION", "v1.0"),
		LookbackHours:       envutil.Int("BATCH_HOURS", 24),
		Significance:        envutil.Float("DRIFT_SIGNIFICANCE", DefaultSignificance),
		DriftShare:          envutil.Float("DRIFT_SHARE", DefaultDriftShare),
		DriftThreshold:      envutil.Int("DRIFT_THRESHOLD", 0),
		StartupDelaySeconds: envutil.Int("STARTUP_DELAY_SECONDS", 0),
	}
}

func (c Config) Lookback() time.Duration {
	hours := c.LookbackHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// LoadFeatures reads the declared feature set from a YAML file. An empty
// path falls back to the serving layer's default schema. Undeclared kinds
// are rejected rather than passed through.
func LoadFeatures(path string) ([]monitoring.FeatureSpec, error) {
	if strings.TrimSpace(path) == "" {
		return monitoring.DefaultFeatures(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read features file %s: %w", path, err)
	}

	var doc struct {
		Features []monitoring.FeatureSpec `yaml:"features"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse features file %s: %w", path, err)
	}
	if len(doc.Features) == 0 {
		return nil, fmt.Errorf("features file %s declares no features", path)
	}

	seen := map[string]struct{}{}
	for i := range doc.Features {
		spec := &doc.Features[i]
		spec.Name = strings.TrimSpace(spec.Name)
		if spec.Name == "" {
			return nil, fmt.Errorf("features file %s: entry %d has no name", path, i)
		}
		if _, dup := seen[spec.Name]; dup {
			return nil, fmt.Errorf("features file %s: duplicate feature %q", path, spec.Name)
		}
		seen[spec.Name] = struct{}{}
		switch spec.Kind {
		case "":
			spec.Kind = monitoring.FeatureNumeric
		case monitoring.FeatureNumeric, monitoring.FeatureCategorical:
		default:
			return nil, fmt.Errorf("features file %s: feature %q has unknown kind %q", path, spec.Name, spec.Kind)
		}
	}
	return doc.Features, nil
}
