/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: export.go
Description: Export command implementation for datatool. Parses one source and writes its
datasets as CSV, Parquet, JSON or YAML files.
*/

package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/kleascm/datatool/pkg/config"
	"github.com/kleascm/datatool/pkg/export"
	"github.com/kleascm/datatool/pkg/inference"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunExport parses a single source and writes its datasets
func RunExport(cmd *cobra.Command, args []string) error {
	return runExport(cmd, args, DefaultEnv())
}

func runExport(cmd *cobra.Command, args []string, env Env) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogging(cfg, env)
	if err != nil {
		return err
	}
	defer logger.Close()

	result, err := parseSingle(cmd.Context(), args[0], cfg, env, logger)
	if err != nil {
		return err
	}

	paths, err := writeExport(env.Fs, result, cfg, viper.GetString("out"))
	if err != nil {
		return err
	}
	for _, p := range paths {
		logger.LogExport(p, cfg.Export.Format, len(result.Datasets), nil)
		fmt.Fprintf(cmd.OutOrStdout(), "💾 %s\n", p)
	}
	return nil
}

// writeExport writes result in the configured format and returns the files written.
// JSON and YAML hold the whole result; CSV and Parquet write one file per dataset.
func writeExport(fs afero.Fs, result *inference.Result, cfg *config.Config, out string) ([]string, error) {
	format, err := export.ParseFormat(cfg.Export.Format)
	if err != nil {
		return nil, err
	}
	if out == "" {
		out = defaultStem(result) + format.Extension()
	}

	switch format {
	case export.FormatJSON:
		return []string{out}, writeFile(fs, out, func(w io.Writer) error { return export.WriteJSON(w, result) })
	case export.FormatYAML:
		return []string{out}, writeFile(fs, out, func(w io.Writer) error { return export.WriteYAML(w, result) })
	}

	d, err := cfg.Export.TextDelimiter()
	if err != nil {
		return nil, err
	}
	var paths []string
	for i, ds := range result.Datasets {
		path := out
		if len(result.Datasets) > 1 {
			ext := filepath.Ext(out)
			path = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(out, ext), i+1, ext)
		}
		err := writeFile(fs, path, func(w io.Writer) error {
			if format == export.FormatParquet {
				return export.WriteParquet(w, ds)
			}
			return export.WriteCSV(w, ds, d)
		})
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// defaultStem names output after the source, falling back to the first dataset
func defaultStem(result *inference.Result) string {
	name := result.Source
	if name == "" {
		name = result.Datasets[0].Name
	}
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." || name == "/" {
		return inference.PlaceholderName
	}
	return name
}

func writeFile(fs afero.Fs, path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
