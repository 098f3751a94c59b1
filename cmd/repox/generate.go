package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/syssam/repox/compiler"
	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/load"
	"github.com/syssam/repox/internal/config"
	"github.com/syssam/repox/internal/report"
)

var (
	verify bool
	watch  bool
)

// generateCmd generates the implementations of the interfaces found in
// the packages matching its arguments.
var generateCmd = &cobra.Command{
	Use:   "generate [patterns]",
	Short: "Generate repository implementations",
	Long: `Generate the implementation of every //repox:repository interface in the
packages matching the given patterns, or the patterns of the configuration
file when none are given.

Example:
  repox generate ./internal/store/...
  repox generate --verify
  repox generate --watch`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&verify, "verify", false, "fail if the generated files are missing or out of date")
	generateCmd.Flags().BoolVarP(&watch, "watch", "w", false, "generate again when the Go files of the packages change")
	generateCmd.MarkFlagsMutuallyExclusive("verify", "watch")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if len(args) > 0 {
		cfg.Patterns = args
	}
	log, err := cfg.Log.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	gc, err := gen.NewConfig(append(cfg.Options(), gen.WithLogger(log))...)
	if err != nil {
		return err
	}
	r := &runner{
		cfg:    cfg,
		gen:    gc,
		load:   cfg.LoadConfig(log),
		out:    report.New(cmd.OutOrStdout(), verbose),
		log:    log,
		verify: verify,
	}
	if watch {
		return r.watch(cmd.Context())
	}
	_, err = r.run(cmd.Context())
	return err
}

// runner runs generation with a fixed configuration.
type runner struct {
	cfg    *config.Config
	gen    *gen.Config
	load   *load.Config
	out    *report.Reporter
	log    *zap.Logger
	verify bool
}

// run generates once, then writes or verifies the output tree.
func (r *runner) run(ctx context.Context) (*compiler.Report, error) {
	rep, err := compiler.Generate(ctx, r.load, r.gen, r.cfg.Patterns...)
	if err != nil {
		return nil, err
	}
	failed := r.out.Results(rep.Results)
	if r.verify {
		err = compiler.Verify(ctx, r.gen, rep)
	} else {
		err = compiler.Write(ctx, r.gen, rep)
	}
	if err != nil {
		return rep, err
	}
	r.out.Files(rep.Files, r.verify)
	if failed > 0 {
		return rep, fmt.Errorf("%d interface(s) not fully generated", failed)
	}
	return rep, nil
}
