/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for datatool. Wires the parse, export and merge
commands, their flags and the viper bindings that feed the configuration layer.
*/

package main

import (
	"fmt"
	"os"

	"github.com/kleascm/datatool/cmd/datatool/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "datatool",
		Short: "datatool - recover named numeric columns from messy delimited text",
		Long: `datatool reads text of unknown layout (tab, comma, semicolon or space separated,
with or without titles, headers and interleaved tracks) from files, stdin, URLs or
HTML pages and turns it into named numeric datasets for printing, merging and export.`,
		Version:       commands.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().String("config", "", "Configuration file path")
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().String("log-dir", "", "Log output directory (empty disables the log file)")
	rootCmd.PersistentFlags().Int("log-max-files", 10, "Maximum number of log files to keep")

	// Add parser flags
	rootCmd.PersistentFlags().Bool("single-tab", false, "Keep multi-track input in a single dataset")
	rootCmd.PersistentFlags().StringSlice("delimiters", []string{"tab", "comma", "semicolon", "space"}, "Delimiters to try, in order")
	rootCmd.PersistentFlags().Int("max-attempts", 10, "Rejected lines before a delimiter is abandoned")
	rootCmd.PersistentFlags().Int("workers", 4, "Sources parsed concurrently")

	// Add source flags
	rootCmd.PersistentFlags().Duration("timeout", 0, "Timeout for remote sources (0 uses the config value)")
	rootCmd.PersistentFlags().StringToString("header", map[string]string{}, "HTTP headers for remote sources (key=value)")
	rootCmd.PersistentFlags().Bool("render", false, "Fetch URLs through headless Chrome")

	// Bind flags to viper
	bindFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	bindFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	bindFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	bindFlag("logging.output_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	bindFlag("logging.max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	bindFlag("parse.single_tab", rootCmd.PersistentFlags().Lookup("single-tab"))
	bindFlag("parse.delimiters", rootCmd.PersistentFlags().Lookup("delimiters"))
	bindFlag("parse.max_attempts", rootCmd.PersistentFlags().Lookup("max-attempts"))
	bindFlag("parse.workers", rootCmd.PersistentFlags().Lookup("workers"))
	bindFlag("source.headers", rootCmd.PersistentFlags().Lookup("header"))
	bindFlag("source.render", rootCmd.PersistentFlags().Lookup("render"))

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// a zero timeout keeps the config file or default value
		if timeout, _ := cmd.Flags().GetDuration("timeout"); timeout > 0 {
			viper.Set("source.timeout", timeout)
		}
		return nil
	}

	// Add parse command
	parseCmd := &cobra.Command{
		Use:   "parse [sources...]",
		Short: "Parse sources and print the datasets found",
		Long: `Load each source (a path, an http(s) URL or "-" for stdin), infer its delimiter,
title, header and tracks, and print a summary or the full result as JSON or YAML.`,
		RunE: commands.RunParse,
	}
	parseCmd.Flags().StringP("output", "o", "text", "Output format (text, json, yaml)")
	parseCmd.Flags().String("report-dir", "", "Directory for a JSON parse report")
	bindFlag("output", parseCmd.Flags().Lookup("output"))
	bindFlag("export.report_dir", parseCmd.Flags().Lookup("report-dir"))
	rootCmd.AddCommand(parseCmd)

	// Add export command
	exportCmd := &cobra.Command{
		Use:   "export <source>",
		Short: "Parse a source and write its datasets to files",
		Long: `Parse a single source and export the result. CSV and Parquet write one file per
dataset; JSON and YAML write the whole result to one file.`,
		Args: cobra.ExactArgs(1),
		RunE: commands.RunExport,
	}
	exportCmd.Flags().StringP("format", "f", "csv", "Export format (csv, parquet, json, yaml)")
	exportCmd.Flags().String("out", "", "Output file (defaults to the source name)")
	exportCmd.Flags().String("delimiter", "comma", "Delimiter for csv output (comma, tab, semicolon)")
	bindFlag("export.format", exportCmd.Flags().Lookup("format"))
	bindFlag("export.delimiter", exportCmd.Flags().Lookup("delimiter"))
	bindFlag("out", exportCmd.Flags().Lookup("out"))
	rootCmd.AddCommand(exportCmd)

	// Add merge command
	mergeCmd := &cobra.Command{
		Use:   "merge <base> <addition>",
		Short: "Merge the rows of one source into another on a key column",
		Long: `Parse both sources and merge the first dataset of the addition into the first
dataset of the base. Rows with a matching key are updated, new keys are inserted in key
order and new columns are appended. The merged dataset is printed as delimited text.`,
		Args: cobra.ExactArgs(2),
		RunE: commands.RunMerge,
	}
	mergeCmd.Flags().String("key", "", "Key column shared by both datasets (required)")
	mergeCmd.MarkFlagRequired("key")
	bindFlag("key", mergeCmd.Flags().Lookup("key"))
	rootCmd.AddCommand(mergeCmd)

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bindFlag binds a flag to a viper key, panicking on a programming error
func bindFlag(key string, flag *pflag.Flag) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(fmt.Sprintf("binding %s: %v", key, err))
	}
}
