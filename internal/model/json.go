package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrScanJSONColumn = errors.New("failed to scan JSON column")

// JSONMap is an opaque string-keyed configuration map stored as jsonb.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return json.Marshal(JSONMap{})
	}

	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, m)
}

// FeatureSet maps a feature name to its enabled flag, stored as jsonb.
type FeatureSet map[string]bool

func (f FeatureSet) Value() (driver.Value, error) {
	if f == nil {
		return json.Marshal(FeatureSet{})
	}

	return json.Marshal(f)
}

func (f *FeatureSet) Scan(value any) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}

	return json.Unmarshal(raw, f)
}

// Enabled reports whether the given feature is switched on.
func (f FeatureSet) Enabled(feature string) bool {
	return f[feature]
}

func jsonBytes(value any) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return []byte("{}"), nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("%w: unsupported source type %T", ErrScanJSONColumn, value)
	}
}
