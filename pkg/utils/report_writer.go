/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_writer.go
Description: Utility for writing parse reports. Summarizes parse results per source and
writes them as timestamped, versioned JSON files in a report directory.
*/

package utils

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/kleascm/datatool/pkg/inference"
	"github.com/spf13/afero"
)

// ParseReport summarizes one CLI run
type ParseReport struct {
	Version   string         `json:"version"`
	Generated time.Time      `json:"generated"`
	Sources   []SourceReport `json:"sources"`
}

// SourceReport describes the outcome for a single source
type SourceReport struct {
	Source     string           `json:"source"`
	ParseID    string           `json:"parse_id,omitempty"`
	Delimiter  string           `json:"delimiter,omitempty"`
	MultiTrack bool             `json:"multi_track,omitempty"`
	Datasets   []DatasetSummary `json:"datasets,omitempty"`
	Error      string           `json:"error,omitempty"`
	Duration   time.Duration    `json:"duration"`
}

// DatasetSummary lists the shape of one dataset
type DatasetSummary struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
}

// NewSourceReport builds the report entry for a parse outcome
func NewSourceReport(source string, result *inference.Result, err error, duration time.Duration) SourceReport {
	report := SourceReport{Source: source, Duration: duration}
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.ParseID = result.ID
	report.Delimiter = result.Delimiter.Name()
	report.MultiTrack = result.MultiTrack
	for _, ds := range result.Datasets {
		report.Datasets = append(report.Datasets, DatasetSummary{
			Name:    ds.Name,
			Rows:    ds.Rows(),
			Columns: ds.ColumnNames(),
		})
	}
	return report
}

// WriteReport writes a report with timestamp, kind and version in its file name
func WriteReport(fs afero.Fs, dir, kind, version string, report interface{}) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	// 2024-06-11_01-30-00_parse_v1.0.0.json
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("%s_%s_v%s.json", timestamp, kind, version)
	filePath := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	if err := afero.WriteFile(fs, filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}

	return filePath, nil
}
