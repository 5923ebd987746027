package cli

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// CheckResult is the output of the check command.
type CheckResult struct {
	Templates []string `json:"templates"`
}

// NewCheckCommand returns the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Parse every template of the configured directories",
		Long: `Parse every template file of the configured template directories.

With --watch, or watch: true in the configuration, the directories are
watched after the first pass and changed files are parsed again until the
command is interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, rootOpts, watch)
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep watching the template directories")
	return cmd
}

func runCheck(cmd *cobra.Command, rootOpts *RootOptions, watch bool) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	if len(e.cfg.Templates) == 0 {
		return WrapExitError(ExitCommandError, "check", fmt.Errorf("no template directories configured"))
	}
	reg, err := e.registry(cmd.Context())
	if err != nil {
		return e.out.fail(ExitFailure, "check", err)
	}
	res := CheckResult{Templates: reg.Keys()}
	if err := e.out.success(res, func(w io.Writer) {
		for _, k := range res.Templates {
			fmt.Fprintln(w, k)
		}
		fmt.Fprintf(w, "%d template(s) ok\n", len(res.Templates))
	}); err != nil {
		return err
	}
	if !watch && !e.cfg.Watch {
		return nil
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	e.logger.Info("watching templates", "dirs", e.cfg.Templates)
	return reg.Watch(ctx)
}
