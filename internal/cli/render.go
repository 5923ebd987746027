package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/lightdao/dialect/sql"
	"github.com/syssam/lightdao/template"
)

// RenderOptions holds the flags of the render command.
type RenderOptions struct {
	Bindings string
	Page     string
}

// RenderedStatement is one statement of a rendered template.
type RenderedStatement struct {
	SQL      string `json:"sql"`
	Args     []any  `json:"args"`
	CountSQL string `json:"count_sql,omitempty"`
}

// NewRenderCommand returns the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}
	cmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Compile an SQL template file with bindings",
		Long: `Compile an SQL template file with the given bindings and print the
resulting statements. A union template prints one statement per segment.`,
		Example: `  lightdao render find_users.sql --bindings '{name: bo, ids: [1, 2]}' --page 0,20`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, rootOpts, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.Bindings, "bindings", "b", "", "template bindings as a yaml mapping")
	cmd.Flags().StringVar(&opts.Page, "page", "", "paginate each statement as start,size")
	return cmd
}

func runRender(cmd *cobra.Command, rootOpts *RootOptions, opts *RenderOptions, path string) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	bindings, err := parseBindings(opts.Bindings)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	page, err := parseWindow(opts.Page)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	text, err := os.ReadFile(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "read template", err)
	}
	d, err := e.dialect()
	if err != nil {
		return err
	}
	res, err := template.Compile(path, string(text), bindings)
	if err != nil {
		return e.out.fail(ExitFailure, "render "+path, err)
	}
	var out []RenderedStatement
	for _, st := range res.Statements() {
		rs := RenderedStatement{SQL: st.SQL, Args: st.Args}
		if page.set {
			rs.CountSQL = d.Count(st.SQL)
			rs.SQL = d.Paginate(st.SQL, page.start, page.size)
			rs.Args = sql.PageArgs(st.SQL, st.Args)
		}
		out = append(out, rs)
	}
	e.logger.Debug("template rendered", "file", path, "statements", len(out))
	return e.out.success(out, func(w io.Writer) {
		for i, st := range out {
			if i > 0 {
				fmt.Fprintln(w, "--union--")
			}
			fmt.Fprintln(w, st.SQL)
			fmt.Fprintf(w, "-- args: %v\n", st.Args)
			if st.CountSQL != "" {
				fmt.Fprintf(w, "-- count: %s\n", st.CountSQL)
			}
		}
	})
}
