/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: merge.go
Description: Merge command implementation for datatool. Merges the rows of one parsed
source into another on a shared key column and prints the merged dataset as text.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/datatool/pkg/export"
	"github.com/kleascm/datatool/pkg/inference"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunMerge merges the addition source into the base source on --key
func RunMerge(cmd *cobra.Command, args []string) error {
	return runMerge(cmd, args, DefaultEnv())
}

func runMerge(cmd *cobra.Command, args []string, env Env) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	logger, err := SetupLogging(cfg, env)
	if err != nil {
		return err
	}
	defer logger.Close()

	key := viper.GetString("key")
	if key == "" {
		return fmt.Errorf("--key is required")
	}
	d, err := cfg.Export.TextDelimiter()
	if err != nil {
		return err
	}

	// one loader per input so identical files still merge
	results := make([]*inference.Result, 2)
	for i, ref := range args[:2] {
		if results[i], err = parseSingle(cmd.Context(), ref, cfg, env, logger); err != nil {
			return err
		}
	}
	base := results[0].Datasets[0]
	addition := results[1].Datasets[0]

	merged, err := inference.MergeRows(base, addition, key)
	if err != nil {
		return err
	}
	logger.LogMerge(base.Name, addition.Name, key, merged.Rows(), map[string]interface{}{
		"added": merged.Rows() - base.Rows(),
	})
	return export.WriteCSV(cmd.OutOrStdout(), merged, d)
}
