// Package config holds configuration for the crawler and dashboard binaries.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds all tunables. One struct serves both binaries; each reads the
// fields it cares about.
type Config struct {
	// Crawler
	BaseURL      string
	MaxPages     int
	Timeout      time.Duration
	UserAgent    string
	OutputFile   string
	OutputFormat string // csv, json, or dual
	MetricsAddr  string
	Verbose      bool

	// Pipeline. With one worker the sink preserves document order; more
	// workers batch independently and may interleave rows.
	PipelineWorkers    int
	PipelineBufferSize int
	BatchSize          int
	DedupeMaxSize      int

	// Dashboard
	DashboardAddr  string
	DashboardInput string
	CatalogueRoot  string
}

// DefaultConfig returns conservative defaults for the demo target.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:            "https://books.toscrape.com/catalogue/page-1.html",
		MaxPages:           50,
		Timeout:            10 * time.Second,
		UserAgent:          "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		OutputFile:         "output/books_info.csv",
		OutputFormat:       "csv",
		MetricsAddr:        "",
		Verbose:            false,
		PipelineWorkers:    1,
		PipelineBufferSize: 512,
		BatchSize:          64,
		DedupeMaxSize:      4096,
		DashboardAddr:      ":8080",
		DashboardInput:     "output/books_info.csv",
		CatalogueRoot:      "https://books.toscrape.com/",
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}
	if c.MaxPages <= 0 {
		return fmt.Errorf("max pages must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "csv" && c.OutputFormat != "json" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be csv, json, or dual")
	}
	if c.PipelineWorkers <= 0 {
		return fmt.Errorf("pipeline workers must be positive")
	}
	if c.PipelineBufferSize <= 0 {
		return fmt.Errorf("pipeline buffer size must be positive")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.CatalogueRoot != "" {
		root, err := url.Parse(c.CatalogueRoot)
		if err != nil || root.Host == "" {
			return fmt.Errorf("catalogue root must be an absolute URL")
		}
	}
	return nil
}

// EnvString reads a string environment override.
func EnvString(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// EnvInt reads an integer environment override.
func EnvInt(key string) (int, bool, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return 0, false, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, true, nil
}
