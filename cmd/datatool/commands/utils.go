/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: utils.go
Description: Shared utilities for the datatool commands. Provides configuration loading,
logging setup and the concurrent load-and-parse pipeline used by every command.
*/

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kleascm/datatool/pkg/config"
	"github.com/kleascm/datatool/pkg/inference"
	"github.com/kleascm/datatool/pkg/logging"
	"github.com/kleascm/datatool/pkg/source"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
)

// Version is reported by --version and stamped into parse reports
const Version = "1.0.0"

// Env is the filesystem and standard input the commands work against
type Env struct {
	Fs    afero.Fs
	Stdin io.Reader
}

// DefaultEnv uses the OS filesystem and os.Stdin
func DefaultEnv() Env {
	return Env{Fs: afero.NewOsFs(), Stdin: os.Stdin}
}

// LoadConfig loads configuration from files, environment and bound flags
func LoadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SetupLogging configures the logging system
func SetupLogging(cfg *config.Config, env Env) (*logging.Logger, error) {
	logger, err := logging.NewLoggerWithFs(&cfg.Logging, env.Fs, os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return logger, nil
}

// outcome is the result of loading and parsing one source
type outcome struct {
	Ref      string
	Raw      inference.RawText
	Result   *inference.Result
	Err      error
	Duration time.Duration
}

// parseSources loads and parses refs with at most cfg.Parse.Workers in flight.
// Per-source failures are recorded in the outcome; only cancellation aborts.
func parseSources(ctx context.Context, refs []string, cfg *config.Config, env Env, logger *logging.Logger) ([]outcome, error) {
	opts, err := cfg.ParseOptions(env.Fs, logger.GetLogger())
	if err != nil {
		return nil, err
	}
	srcCfg := cfg.SourceOptions(env.Fs, env.Stdin)
	loader := source.NewLoader()

	outcomes := make([]outcome, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Parse.Workers)
	for i, ref := range refs {
		g.Go(func() error {
			outcomes[i] = parseOne(gctx, ref, loader, srcCfg, opts, logger)
			if errors.Is(outcomes[i].Err, context.Canceled) {
				return outcomes[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

func parseOne(ctx context.Context, ref string, loader *source.Loader, srcCfg source.Config, opts inference.Options, logger *logging.Logger) outcome {
	start := time.Now()
	out := outcome{Ref: ref}

	src := source.Open(ref, srcCfg)
	raw, err := loader.Load(ctx, src)
	if err != nil {
		out.Err = err
		out.Duration = time.Since(start)
		logger.LogParseFailure(ref, err, nil)
		return out
	}
	logger.LogSource(src.Name(), len(raw.Text), time.Since(start), nil)
	out.Raw = raw

	result, err := inference.Parse(raw, opts)
	out.Duration = time.Since(start)
	if err != nil {
		out.Err = err
		logger.LogParseFailure(ref, err, nil)
		return out
	}
	out.Result = result
	logger.LogParse(ref, result.ID, result.Delimiter.Name(), len(result.Datasets), map[string]interface{}{"duration": out.Duration})
	return out
}

// parseSingle loads and parses one source, failing on any error
func parseSingle(ctx context.Context, ref string, cfg *config.Config, env Env, logger *logging.Logger) (*inference.Result, error) {
	outcomes, err := parseSources(ctx, []string{ref}, cfg, env, logger)
	if err != nil {
		return nil, err
	}
	if outcomes[0].Err != nil {
		return nil, fmt.Errorf("%s: %w", ref, outcomes[0].Err)
	}
	return outcomes[0].Result, nil
}
