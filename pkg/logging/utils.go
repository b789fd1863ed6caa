/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Log file retention for datatool. Prunes old timestamped log files and reports
simple statistics about the log directory.
*/

package logging

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
)

// LogManager applies the retention policy to a log directory
type LogManager struct {
	fs       afero.Fs
	logDir   string
	maxFiles int
}

// NewLogManager creates a new log manager
func NewLogManager(fs afero.Fs, logDir string, maxFiles int) *LogManager {
	return &LogManager{fs: fs, logDir: logDir, maxFiles: maxFiles}
}

func (lm *LogManager) logFiles() ([]string, error) {
	files, err := afero.Glob(lm.fs, filepath.Join(lm.logDir, logFilePrefix+"*.log"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob log files: %w", err)
	}
	return files, nil
}

// CleanupOldLogs removes the oldest log files beyond maxFiles
func (lm *LogManager) CleanupOldLogs() error {
	if lm.maxFiles <= 0 {
		return nil
	}
	files, err := lm.logFiles()
	if err != nil {
		return err
	}
	if len(files) <= lm.maxFiles {
		return nil
	}

	modTimes := make(map[string]time.Time, len(files))
	for _, file := range files {
		if stat, err := lm.fs.Stat(file); err == nil {
			modTimes[file] = stat.ModTime()
		}
	}
	// oldest first, names break ties since they embed the start time
	sort.Slice(files, func(i, j int) bool {
		ti, tj := modTimes[files[i]], modTimes[files[j]]
		if ti.Equal(tj) {
			return files[i] < files[j]
		}
		return ti.Before(tj)
	})

	for _, file := range files[:len(files)-lm.maxFiles] {
		if err := lm.fs.Remove(file); err != nil {
			return fmt.Errorf("failed to remove file %s: %w", file, err)
		}
	}
	return nil
}

// LogStats holds statistics about log files
type LogStats struct {
	TotalFiles int       `json:"total_files"`
	TotalSize  int64     `json:"total_size"`
	OldestFile time.Time `json:"oldest_file"`
	NewestFile time.Time `json:"newest_file"`
}

// GetLogStats returns statistics about log files
func (lm *LogManager) GetLogStats() (*LogStats, error) {
	files, err := lm.logFiles()
	if err != nil {
		return nil, err
	}

	stats := &LogStats{TotalFiles: len(files)}
	for _, file := range files {
		stat, err := lm.fs.Stat(file)
		if err != nil {
			continue
		}
		stats.TotalSize += stat.Size()
		if stats.OldestFile.IsZero() || stat.ModTime().Before(stats.OldestFile) {
			stats.OldestFile = stat.ModTime()
		}
		if stat.ModTime().After(stats.NewestFile) {
			stats.NewestFile = stat.ModTime()
		}
	}
	return stats, nil
}
