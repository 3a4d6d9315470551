package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional YAML overlay for settings that do not fit in
// environment variables.
type FileConfig struct {
	// Extensions forces an extension gate on or off regardless of detection
	Extensions map[string]bool `yaml:"extensions"`
	// DisabledCheckers lists checker ids to leave unregistered
	DisabledCheckers []string `yaml:"disabledCheckers"`
	Scan             struct {
		Workers int `yaml:"workers"`
	} `yaml:"scan"`
	Batch struct {
		MaxSize int `yaml:"maxSize"`
	} `yaml:"batch"`
}

// LoadFile parses the YAML overlay at path. A missing file yields an empty
// overlay and no error.
func LoadFile(path string) (*FileConfig, error) {
	fc := &FileConfig{}
	if path == "" {
		return fc, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fc, nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, fc); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// Apply overlays the numeric settings onto the package variables
func (fc *FileConfig) Apply() {
	if fc.Scan.Workers > 0 {
		ScanWorkers = fc.Scan.Workers
	}
	if fc.Batch.MaxSize > 0 {
		BatchMaxSize = fc.Batch.MaxSize
	}
}

// CheckerDisabled reports whether id is listed in disabledCheckers
func (fc *FileConfig) CheckerDisabled(id string) bool {
	for _, d := range fc.DisabledCheckers {
		if d == id {
			return true
		}
	}
	return false
}
