package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/syssam/lightdao/compiler/gen"
	"github.com/syssam/lightdao/schema"
)

// GenResult is the output of the gen command.
type GenResult struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// NewGenCommand returns the gen command.
func NewGenCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		pkg     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "gen <out-dir>",
		Short: "Generate field tables for the configured entities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd, rootOpts, args[0], pkg, workers)
		},
	}
	cmd.Flags().StringVarP(&pkg, "package", "p", "", "package name (default: base name of out-dir)")
	cmd.Flags().IntVar(&workers, "workers", 0, "files generated in parallel (default: GOMAXPROCS)")
	return cmd
}

func runGen(cmd *cobra.Command, rootOpts *RootOptions, dir, pkg string, workers int) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	var opts []gen.Option
	if pkg != "" {
		opts = append(opts, gen.WithPackage(pkg))
	}
	if workers > 0 {
		opts = append(opts, gen.WithWorkers(workers))
	}
	cfg, err := gen.NewConfig(dir, opts...)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	byName := e.cfg.Schema()
	if len(byName) == 0 {
		return WrapExitError(ExitCommandError, "gen", fmt.Errorf("no entities configured"))
	}
	entities := make([]*schema.Entity, 0, len(byName))
	for _, ent := range byName {
		entities = append(entities, ent)
	}
	if err := gen.Generate(cmd.Context(), cfg, entities); err != nil {
		return e.out.fail(ExitFailure, "gen", err)
	}
	res := GenResult{Dir: dir, Files: []string{"entities.go"}}
	for _, ent := range entities {
		res.Files = append(res.Files, gen.FileName(ent))
	}
	slices.Sort(res.Files)
	e.logger.Info("generated field tables", "dir", dir, "entities", len(entities))
	return e.out.success(res, func(w io.Writer) {
		for _, f := range res.Files {
			fmt.Fprintln(w, filepath.Join(dir, f))
		}
	})
}

