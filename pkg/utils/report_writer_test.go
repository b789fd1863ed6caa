/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: report_writer_test.go
Description: Tests for parse report construction and file naming.
*/

package utils_test

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/kleascm/datatool/pkg/inference"
	"github.com/kleascm/datatool/pkg/utils"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSourceReport(t *testing.T) {
	opts := inference.DefaultOptions()
	opts.Fs = afero.NewMemMapFs()
	result, err := inference.Parse(inference.RawText{Text: "#name: Run1\nx,y\n1,2\n2,4\n"}, opts)
	require.NoError(t, err)

	report := utils.NewSourceReport("run.csv", result, nil, time.Millisecond)
	assert.Equal(t, result.ID, report.ParseID)
	assert.Equal(t, "comma", report.Delimiter)
	require.Len(t, report.Datasets, 1)
	assert.Equal(t, utils.DatasetSummary{Name: "Run1", Rows: 2, Columns: []string{"x", "y"}}, report.Datasets[0])
	assert.Empty(t, report.Error)

	failed := utils.NewSourceReport("junk.txt", nil, inference.ErrNoValidData, 0)
	assert.Equal(t, inference.ErrNoValidData.Error(), failed.Error)
	assert.Empty(t, failed.Datasets)
}

func TestWriteReport(t *testing.T) {
	fs := afero.NewMemMapFs()
	report := utils.ParseReport{
		Version: "1.0.0",
		Sources: []utils.SourceReport{{Source: "a.csv", Delimiter: "tab"}},
	}

	path, err := utils.WriteReport(fs, "/reports", "parse", "1.0.0", report)
	require.NoError(t, err)
	assert.Equal(t, "/reports", filepath.Dir(path))
	assert.Regexp(t, regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}_parse_v1\.0\.0\.json$`), filepath.Base(path))

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	var decoded utils.ParseReport
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "a.csv", decoded.Sources[0].Source)
	assert.Equal(t, "tab", decoded.Sources[0].Delimiter)
}
