/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: parse.go
Description: Parse command implementation for datatool. Loads each source, infers its
datasets and prints a summary, JSON or YAML, with an optional JSON report per run.
*/

package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kleascm/datatool/pkg/config"
	"github.com/kleascm/datatool/pkg/export"
	"github.com/kleascm/datatool/pkg/utils"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunParse parses every source named on the command line ("-" or none reads stdin)
func RunParse(cmd *cobra.Command, args []string) error {
	return runParse(cmd, args, DefaultEnv())
}

func runParse(cmd *cobra.Command, args []string, env Env) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogging(cfg, env)
	if err != nil {
		return err
	}
	defer logger.Close()

	if len(args) == 0 {
		args = []string{"-"}
	}
	output := viper.GetString("output")

	outcomes, err := parseSources(cmd.Context(), args, cfg, env, logger)
	if err != nil {
		return err
	}

	if err := printOutcomes(cmd.OutOrStdout(), outcomes, output); err != nil {
		return err
	}

	if cfg.Export.ReportDir != "" {
		path, err := writeReport(env.Fs, cfg, outcomes)
		if err != nil {
			return err
		}
		logger.Info("Parse report written", map[string]interface{}{"path": path})
	}

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	if failed == len(outcomes) {
		return fmt.Errorf("no source produced data (%d failed)", failed)
	}
	return nil
}

// printOutcomes renders the outcomes as text, json or yaml
func printOutcomes(w io.Writer, outcomes []outcome, output string) error {
	switch output {
	case "", "text":
		for _, o := range outcomes {
			printSummary(w, o)
		}
		return nil
	case string(export.FormatJSON), string(export.FormatYAML), "yml":
		for _, o := range outcomes {
			if o.Err != nil {
				continue
			}
			var err error
			if output == string(export.FormatJSON) {
				err = export.WriteJSON(w, o.Result)
			} else {
				err = export.WriteYAML(w, o.Result)
			}
			if err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported output: %s", output)
	}
}

func printSummary(w io.Writer, o outcome) {
	if o.Err != nil {
		fmt.Fprintf(w, "❌ %s: %v\n", o.Ref, o.Err)
		return
	}
	r := o.Result
	fmt.Fprintf(w, "📄 %s: %d dataset(s), %s-delimited", o.Ref, len(r.Datasets), r.Delimiter.Name())
	if r.MultiTrack {
		fmt.Fprint(w, ", multi-track")
	}
	fmt.Fprintf(w, " (%v)\n", o.Duration.Round(time.Microsecond))
	for _, ds := range r.Datasets {
		fmt.Fprintf(w, "   %s: %d rows, columns: %s\n", ds.Name, ds.Rows(), strings.Join(ds.ColumnNames(), ", "))
	}
}

func writeReport(fs afero.Fs, cfg *config.Config, outcomes []outcome) (string, error) {
	report := utils.ParseReport{Version: Version, Generated: time.Now()}
	for _, o := range outcomes {
		report.Sources = append(report.Sources, utils.NewSourceReport(o.Ref, o.Result, o.Err, o.Duration))
	}
	return utils.WriteReport(fs, cfg.Export.ReportDir, "parse", Version, report)
}
