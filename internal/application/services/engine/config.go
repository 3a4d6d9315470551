// Package engine orchestrates scans and deletions over the reachability classifier
package engine

import (
	"time"

	"github.com/GarethCitcom/orphaned-acf-media/pkg/config"
)

// Config holds engine tuning, sourced from pkg/config
type Config struct {
	CacheTTL         time.Duration
	ScanPageSize     int
	ScanWorkers      int
	BatchDefaultSize int
	BatchMaxSize     int
	DefaultPerPage   int
	MaxPerPage       int
}

// ConfigFromEnv reads the already-initialized values in pkg/config
func ConfigFromEnv() Config {
	return Config{
		CacheTTL:         config.EngineCacheTTL,
		ScanPageSize:     config.ScanPageSize,
		ScanWorkers:      config.ScanWorkers,
		BatchDefaultSize: config.BatchDefaultSize,
		BatchMaxSize:     config.BatchMaxSize,
		DefaultPerPage:   config.DefaultPerPage,
		MaxPerPage:       config.MaxPerPage,
	}
}

// WithDefaults fills unset fields with the built-in defaults
func (c Config) WithDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 5 * time.Minute
	}
	if c.ScanPageSize <= 0 {
		c.ScanPageSize = 100
	}
	if c.ScanWorkers <= 0 {
		c.ScanWorkers = 4
	}
	if c.BatchDefaultSize <= 0 {
		c.BatchDefaultSize = 10
	}
	if c.BatchMaxSize <= 0 {
		c.BatchMaxSize = 100
	}
	if c.DefaultPerPage <= 0 {
		c.DefaultPerPage = 50
	}
	if c.MaxPerPage <= 0 {
		c.MaxPerPage = 500
	}
	return c
}
