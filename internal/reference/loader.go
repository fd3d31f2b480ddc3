// Package reference loads the training-time baseline snapshot that every
// monitoring cycle compares production data against.
package reference

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vigilml/vigil/internal/domain/monitoring"
)

type Loader interface {
	Load() ([]monitoring.FeatureRecord, error)
}

// CSVLoader reads a header-first CSV snapshot. Only declared feature columns
// are extracted; empty or unparseable cells become missing values for that
// row rather than errors.
type CSVLoader struct {
	Path     string
	Features []monitoring.FeatureSpec
}

func NewCSVLoader(path string, features []monitoring.FeatureSpec) *CSVLoader {
	return &CSVLoader{Path: path, Features: features}
}

func (l *CSVLoader) Load() ([]monitoring.FeatureRecord, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("reference data unreadable at %s: %w", l.Path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reference data malformed at %s: %w", l.Path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("reference data empty at %s", l.Path)
	}

	header := rows[0]
	columns := map[string]int{}
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}

	records := make([]monitoring.FeatureRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := monitoring.FeatureRecord{
			Features:   map[string]float64{},
			Categories: map[string]string{},
		}
		for _, spec := range l.Features {
			idx, ok := columns[spec.Name]
			if !ok || idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				continue
			}
			switch spec.Kind {
			case monitoring.FeatureCategorical:
				rec.Categories[spec.Name] = cell
			default:
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					continue
				}
				rec.Features[spec.Name] = v
			}
		}
		records = append(records, rec)
	}
	return records, nil
}
