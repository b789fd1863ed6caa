/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: engine_test.go
Description: End-to-end tests for the structural inference engine: delimiter trials,
directives, title and header inference, row validation, multi-track splitting and the
rejection paths.
*/

package inference_test

import (
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/kleascm/datatool/pkg/inference"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() inference.Options {
	opts := inference.DefaultOptions()
	opts.Fs = afero.NewMemMapFs()
	return opts
}

func mustParse(t *testing.T, text, source string, opts inference.Options) *inference.Result {
	t.Helper()
	result, err := inference.Parse(inference.RawText{Text: text, Source: source}, opts)
	require.NoError(t, err)
	require.NotNil(t, result)
	require.NotEmpty(t, result.Datasets)
	return result
}

// assertValues compares float slices treating NaN as equal to NaN
func assertValues(t *testing.T, want, got []float64, msgAndArgs ...interface{}) {
	t.Helper()
	require.Len(t, got, len(want), msgAndArgs...)
	for i := range want {
		if math.IsNaN(want[i]) {
			assert.True(t, math.IsNaN(got[i]), "index %d: want NaN, got %v", i, got[i])
			continue
		}
		assert.Equal(t, want[i], got[i], "index %d", i)
	}
}

func column(t *testing.T, ds *inference.Dataset, name string) inference.Column {
	t.Helper()
	c, ok := ds.Column(name)
	require.True(t, ok, "column %q missing, have %v", name, ds.ColumnNames())
	return c
}

func TestParseNamedHeader(t *testing.T) {
	result := mustParse(t, "#name: Run1\nx,y\n1,2\n2,4\n3,6\n", "", testOptions())

	assert.Equal(t, inference.Comma, result.Delimiter)
	require.Len(t, result.Datasets, 1)
	ds := result.Datasets[0]
	assert.Equal(t, "Run1", ds.Name)
	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())

	require.Len(t, ds.Columns, 3)
	assert.True(t, ds.Columns[0].Synthetic)
	assert.Equal(t, inference.RowIndexName, ds.Columns[0].Name)
	assertValues(t, []float64{0, 1, 2}, ds.Columns[0].Values)
	assertValues(t, []float64{1, 2, 3}, column(t, ds, "x").Values)
	assertValues(t, []float64{2, 4, 6}, column(t, ds, "y").Values)
	assert.NotEmpty(t, result.ID)
}

func TestParseMultiTrack(t *testing.T) {
	text := "#multi: t1,a1,b1,t2,a2,b2\n0,1,2,0,3,4\n1,2,3,1,4,5\n"
	result := mustParse(t, text, "", testOptions())

	assert.True(t, result.MultiTrack)
	require.Len(t, result.Datasets, 2)

	first, second := result.Datasets[0], result.Datasets[1]
	assert.Equal(t, "t1", first.Name)
	assert.Equal(t, "t2", second.Name)

	require.Len(t, first.Columns, 3)
	assert.True(t, first.Columns[0].Synthetic)
	assertValues(t, []float64{0, 1}, first.Columns[0].Values)
	assert.Equal(t, []string{"a1", "b1"}, first.ColumnNames())
	assertValues(t, []float64{1, 2}, column(t, first, "a1").Values)
	assertValues(t, []float64{2, 3}, column(t, first, "b1").Values)

	require.Len(t, second.Columns, 3)
	assert.True(t, second.Columns[0].Synthetic)
	assert.Equal(t, []string{"a2", "b2"}, second.ColumnNames())
	assertValues(t, []float64{3, 4}, column(t, second, "a2").Values)
	assertValues(t, []float64{4, 5}, column(t, second, "b2").Values)
}

func TestParseMultiTrackInSingleDataset(t *testing.T) {
	opts := testOptions()
	opts.PreferSingleTabForMultiTrack = true
	text := "#multi: t1,a1,b1,t2,a2,b2\n0,1,2,0,3,4\n1,2,3,1,4,5\n"
	result := mustParse(t, text, "", opts)

	assert.False(t, result.MultiTrack)
	require.Len(t, result.Datasets, 1)
	ds := result.Datasets[0]
	assert.Equal(t, "t1+1", ds.Name)
	assert.Equal(t, []string{"t1", "a1", "b1", "t2", "a2", "b2"}, ds.ColumnNames())
	assertValues(t, []float64{3, 4}, column(t, ds, "a2").Values)
}

func TestParseMultiTrackTrimsRaggedTracks(t *testing.T) {
	text := strings.Join([]string{
		"#multi:",
		"Run 1,,,Run 2,,",
		"t,x,v,t,x,v",
		"0,1,2,0,5,6",
		"0.5,1.5,2.5,0.5,5.5,6.5",
		"1,2,3,,,",
	}, "\n")
	result := mustParse(t, text, "cart.txt", testOptions())

	require.Len(t, result.Datasets, 2)
	run1, run2 := result.Datasets[0], result.Datasets[1]
	assert.Equal(t, "Run 1", run1.Name)
	assert.Equal(t, "Run 2", run2.Name)

	// header-named primary columns stay data
	assert.Equal(t, []string{"t", "x", "v"}, run1.ColumnNames())
	assert.Equal(t, 3, run1.Rows())
	assertValues(t, []float64{0, 0.5, 1}, column(t, run1, "t").Values)

	assert.Equal(t, 2, run2.Rows())
	assertValues(t, []float64{0, 1}, run2.Columns[0].Values)
	assertValues(t, []float64{5, 5.5}, column(t, run2, "x").Values)
	assertValues(t, []float64{6, 6.5}, column(t, run2, "v").Values)
}

func TestParseMultiTrackDropsTitleColumnsInEveryTrack(t *testing.T) {
	result := mustParse(t, "#multi: t1,a1,t2,a2\n0,1,5,3\n1,2,6,4\n", "", testOptions())
	require.Len(t, result.Datasets, 2)
	assert.Equal(t, []string{"a1"}, result.Datasets[0].ColumnNames())
	assert.Equal(t, []string{"a2"}, result.Datasets[1].ColumnNames())
	assertValues(t, []float64{3, 4}, column(t, result.Datasets[1], "a2").Values)
}

func TestParseMultiTrackKeepsHeaderNamedPrimaryColumns(t *testing.T) {
	text := "#multi:\nRun 1,,Run 2,\nt,x,t,x\n0,1,0,5\n1,2,1,6\n2,3,2,7\n"
	result := mustParse(t, text, "", testOptions())
	require.Len(t, result.Datasets, 2)
	for _, ds := range result.Datasets {
		assert.Equal(t, []string{"t", "x"}, ds.ColumnNames(), ds.Name)
		assertValues(t, []float64{0, 1, 2}, column(t, ds, "t").Values)
	}
	assertValues(t, []float64{5, 6, 7}, column(t, result.Datasets[1], "x").Values)
}

// Blank "?" columns are dropped from a single dataset but kept per track.
func TestParseBlankColumnsOnlyDroppedInSingleDataset(t *testing.T) {
	text := "#multi: t1,a1,,t2,a2,\n0,1,,0,3,\n1,2,,1,4,\n"

	tracks := mustParse(t, text, "", testOptions())
	require.Len(t, tracks.Datasets, 2)
	assert.Equal(t, []string{"a1", inference.UnnamedColumn}, tracks.Datasets[0].ColumnNames())
	blank := tracks.Datasets[0].Columns[2]
	assertValues(t, []float64{math.NaN(), math.NaN()}, blank.Values)

	opts := testOptions()
	opts.PreferSingleTabForMultiTrack = true
	single := mustParse(t, text, "", opts)
	require.Len(t, single.Datasets, 1)
	assert.Equal(t, []string{"t1", "a1", "t2", "a2"}, single.Datasets[0].ColumnNames())
}

func TestParseDropsBlankUnnamedColumns(t *testing.T) {
	result := mustParse(t, "x,y,\n1,2,\n3,4,\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())
}

func TestParseKeepsNamedEmptyColumns(t *testing.T) {
	result := mustParse(t, "x,y,z\n1,2,\n3,4,\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, []string{"x", "y", "z"}, ds.ColumnNames())
	assertValues(t, []float64{math.NaN(), math.NaN()}, column(t, ds, "z").Values)
}

func TestParseTabDelimited(t *testing.T) {
	result := mustParse(t, "time\tpos\n0\t1.5\n1\t2.5\n", "", testOptions())
	assert.Equal(t, inference.Tab, result.Delimiter)
	ds := result.Datasets[0]
	assert.Equal(t, []string{"time", "pos"}, ds.ColumnNames())
	assertValues(t, []float64{1.5, 2.5}, column(t, ds, "pos").Values)
}

func TestParseSemicolonWithDecimalComma(t *testing.T) {
	result := mustParse(t, "x;y\n1,5;2,5\n3,5;4,5\n", "", testOptions())
	assert.Equal(t, inference.Semicolon, result.Delimiter)
	ds := result.Datasets[0]
	assertValues(t, []float64{1.5, 3.5}, column(t, ds, "x").Values)
	assertValues(t, []float64{2.5, 4.5}, column(t, ds, "y").Values)
}

func TestParseSpaceDelimited(t *testing.T) {
	result := mustParse(t, "1   2\n3 4\n", "run.txt", testOptions())
	assert.Equal(t, inference.Space, result.Delimiter)
	ds := result.Datasets[0]
	assert.Equal(t, "run.txt", ds.Name)
	assert.Equal(t, []string{inference.UnnamedColumn, inference.UnnamedColumn}, ds.ColumnNames())
	assertValues(t, []float64{1, 3}, ds.Columns[1].Values)
	assertValues(t, []float64{2, 4}, ds.Columns[2].Values)
}

func TestParseTitleLine(t *testing.T) {
	result := mustParse(t, "Falling Ball\nt,y\n0,0\n1,4.9\n", "", testOptions())
	assert.Equal(t, inference.Comma, result.Delimiter)
	ds := result.Datasets[0]
	assert.Equal(t, "Falling Ball", ds.Name)
	assertValues(t, []float64{0, 4.9}, column(t, ds, "y").Values)
}

func TestParseSingleColumnUsesTitle(t *testing.T) {
	result := mustParse(t, "Temperature\n20.5\n\n21.0\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, "Temperature", ds.Name)
	assert.Equal(t, []string{"Temperature"}, ds.ColumnNames())
	assertValues(t, []float64{20.5, math.NaN(), 21}, column(t, ds, "Temperature").Values)
}

func TestParseSkipsCommentsAndVendorLines(t *testing.T) {
	text := "// exported by logger\nVernier Format 2\ncart.cmbl 3\n#name: Cart\nx,v\n0,1\n1,2\n"
	result := mustParse(t, text, "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, "Cart", ds.Name)
	assert.Equal(t, []string{"x", "v"}, ds.ColumnNames())
	assert.Equal(t, 2, ds.Rows())
}

func TestParseColumnNamesDirective(t *testing.T) {
	result := mustParse(t, "#columnNames: a,b\n1,2\n3,4\n", "src.csv", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, "src.csv", ds.Name)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
	assertValues(t, []float64{2, 4}, column(t, ds, "b").Values)
}

func TestParseFirstNameDirectiveWins(t *testing.T) {
	text := "#name: A\n#name: B\nx,y\n1.5,2\n"
	result := mustParse(t, text, "", testOptions())
	assert.Equal(t, "A", result.Datasets[0].Name)
}

func TestParseNameDirectiveStopsAtNextMarker(t *testing.T) {
	text := "#name: Pendulum columnNames: angle,omega\n0.1,0\n0.2,0.5\n"
	result := mustParse(t, text, "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, "Pendulum", ds.Name)
	assert.Equal(t, []string{"angle", "omega"}, ds.ColumnNames())
}

func TestParsePlaceholderName(t *testing.T) {
	result := mustParse(t, "1.5,2.5\n3.5,4.5\n", "", testOptions())
	assert.Equal(t, inference.PlaceholderName, result.Datasets[0].Name)
}

func TestParseLeadingBlankLines(t *testing.T) {
	result := mustParse(t, "\n\n1.5,2.5\n3.5,4.5\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, 2, ds.Rows())
	assertValues(t, []float64{1.5, 3.5}, ds.Columns[1].Values)
}

func TestParseBlankLineInsideDataIsMissingRow(t *testing.T) {
	for _, text := range []string{"x,y\n1,2\n\n3,4\n", "#name: Run\nx,y\n1,2\n\n3,4\n"} {
		result := mustParse(t, text, "", testOptions())
		ds := result.Datasets[0]
		assert.Equal(t, inference.Comma, result.Delimiter, "%q", text)
		assert.Equal(t, 3, ds.Rows(), "%q", text)
		assertValues(t, []float64{1, math.NaN(), 3}, column(t, ds, "x").Values)
		assertValues(t, []float64{2, math.NaN(), 4}, column(t, ds, "y").Values)
	}
}

func TestParseBlankLinesAfterTitle(t *testing.T) {
	// a header after the blank line still names the columns
	result := mustParse(t, "#name: Run\n\nx,y\n1,2\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())
	assert.Equal(t, 1, ds.Rows())

	// without a header the blank line is a missing row
	result = mustParse(t, "#name: Run\n\n1.5,2\n", "", testOptions())
	ds = result.Datasets[0]
	assert.Equal(t, 2, ds.Rows())
	assertValues(t, []float64{math.NaN(), 1.5}, ds.Columns[1].Values)
	assertValues(t, []float64{math.NaN(), 2}, ds.Columns[2].Values)
}

func TestParseInfinityHeaderAndOverflow(t *testing.T) {
	result := mustParse(t, "x,Inf\n1,2\n", "", testOptions())
	assert.Equal(t, []string{"x", "Inf"}, result.Datasets[0].ColumnNames())

	result = mustParse(t, "x,y\n1,2\n1e400,3\n-Infinity,4\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, 3, ds.Rows())
	assertValues(t, []float64{1, math.Inf(1), math.Inf(-1)}, column(t, ds, "x").Values)
}

func TestParseWindowsLineEndings(t *testing.T) {
	result := mustParse(t, "x,y\r\n1.5,2\r\n3.5,4\r\n", "", testOptions())
	ds := result.Datasets[0]
	assert.Equal(t, []string{"x", "y"}, ds.ColumnNames())
	assertValues(t, []float64{2, 4}, column(t, ds, "y").Values)
}

// Without a header, two comma separated integers read as one decimal-comma value.
func TestParseHeaderlessCommaPairsReadAsDecimals(t *testing.T) {
	result := mustParse(t, "1,2\n3,4\n", "", testOptions())
	assert.Equal(t, inference.Tab, result.Delimiter)
	assertValues(t, []float64{1.2, 3.4}, result.Datasets[0].Columns[1].Values)
}

func TestParseRejectsMixedGarbageRows(t *testing.T) {
	result := mustParse(t, "x,y\n1,2\n3,oops\n5,6\n", "", testOptions())
	ds := result.Datasets[0]
	assertValues(t, []float64{1, 5}, column(t, ds, "x").Values)
}

func TestParseAbortsAfterRejectedLines(t *testing.T) {
	text := strings.Repeat("1,x\n", 12) + "1.5,2.5\n3.5,4.5\n"

	_, err := inference.Parse(inference.RawText{Text: text}, testOptions())
	assert.ErrorIs(t, err, inference.ErrNoValidData)

	opts := testOptions()
	opts.MaxAttemptsWithoutData = 20
	result := mustParse(t, text, "", opts)
	assert.Equal(t, inference.Comma, result.Delimiter)
	assert.Equal(t, 2, result.Datasets[0].Rows())
}

func TestParseRestrictedDelimiters(t *testing.T) {
	opts := testOptions()
	opts.Delimiters = []inference.Delimiter{inference.Comma}
	result := mustParse(t, "1,2\n3,4\n", "", opts)
	assert.Equal(t, inference.Comma, result.Delimiter)
	assert.Len(t, result.Datasets[0].DataColumns(), 2)
}

func TestParseRejectsXML(t *testing.T) {
	for _, text := range []string{
		`<?xml version="1.0" encoding="UTF-8"?><object class="Dataset"/>`,
		"  <object class=\"org.opensourcephysics.display.Dataset\">\n</object>",
	} {
		_, err := inference.Parse(inference.RawText{Text: text}, testOptions())
		assert.ErrorIs(t, err, inference.ErrNotDelimitedText)
	}
}

func TestParseRejectsExistingPath(t *testing.T) {
	opts := testOptions()
	require.NoError(t, afero.WriteFile(opts.Fs, "/data/run.txt", []byte("1,2\n"), 0644))

	_, err := inference.Parse(inference.RawText{Text: "/data/run.txt\n"}, opts)
	assert.ErrorIs(t, err, inference.ErrNotDelimitedText)

	_, err = inference.Parse(inference.RawText{Text: "/data/missing.txt"}, opts)
	assert.ErrorIs(t, err, inference.ErrNoValidData)
}

func TestParseNoValidData(t *testing.T) {
	for _, text := range []string{"", "hello world\nfoo bar\n", "#name: empty\n"} {
		_, err := inference.Parse(inference.RawText{Text: text}, testOptions())
		assert.ErrorIs(t, err, inference.ErrNoValidData, "%q", text)
	}
}

func TestParseConcurrentCalls(t *testing.T) {
	text := "#multi: t1,a1,b1,t2,a2,b2\n0,1,2,0,3,4\n1,2,3,1,4,5\n"
	var wg sync.WaitGroup
	counts := make([]int, 16)
	for i := range counts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			opts := testOptions()
			opts.PreferSingleTabForMultiTrack = i%2 == 0
			result, err := inference.Parse(inference.RawText{Text: text}, opts)
			if err == nil {
				counts[i] = len(result.Datasets)
			}
		}(i)
	}
	wg.Wait()
	for i, n := range counts {
		if i%2 == 0 {
			assert.Equal(t, 1, n)
		} else {
			assert.Equal(t, 2, n)
		}
	}
}

func TestEngineFactory(t *testing.T) {
	engine := inference.NewEngine("delimited", testOptions())
	require.NotNil(t, engine)
	assert.Equal(t, "delimited", engine.Format())

	result, err := engine.Infer(inference.RawText{Text: "x\ty\n1\t2\n"})
	require.NoError(t, err)
	assert.Equal(t, inference.Tab, result.Delimiter)

	assert.Nil(t, inference.NewEngine("xml", testOptions()))
}
