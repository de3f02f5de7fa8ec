package engine

import (
	"encoding/json"
	"os"
)

// loadInitialValor reads the persisted first-seen valores. A missing file
// yields an empty map.
func loadInitialValor(path string) (map[string]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]float64), nil
		}
		return nil, err
	}
	m := make(map[string]float64)
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// saveInitialValor writes the map back to disk.
func saveInitialValor(path string, m map[string]float64) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
