package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/syssam/lightdao/dao"
	"github.com/syssam/lightdao/query/planner"
	"github.com/syssam/lightdao/schema"
)

// PlanOptions holds the flags of the plan command.
type PlanOptions struct {
	Args   string
	Fields []string
	Return string
	Page   string
	Exec   bool
}

// PlanResult is the output of the plan command.
type PlanResult struct {
	Method   string `json:"method"`
	Strategy string `json:"strategy"`
	Table    string `json:"table"`
	SQL      string `json:"sql"`
	Args     []any  `json:"args"`
	Return   string `json:"return"`
	CountSQL string `json:"count_sql,omitempty"`
	Result   any    `json:"result,omitempty"`
}

// NewPlanCommand returns the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{}
	cmd := &cobra.Command{
		Use:   "plan <entity> <method>",
		Short: "Compile a DAO method name into SQL",
		Long: `Compile a DAO method name into SQL for the configured dialect.

With --exec the statement runs against the configured database and the
mapped result is printed.`,
		Example: `  lightdao plan User findByNameLikeOrderByIdDesc --args '["bo"]'
  lightdao plan User findAnyByStatus --fields id,name --args '[1]' --page 0,10`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(cmd, rootOpts, opts, args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&opts.Args, "args", "a", "", "positional arguments as a yaml list")
	cmd.Flags().StringSliceVar(&opts.Fields, "fields", nil, "selected fields for findAny and projection methods")
	cmd.Flags().StringVar(&opts.Return, "return", "", "declared return (list|one|scalar|scalars)")
	cmd.Flags().StringVar(&opts.Page, "page", "", "paginate as start,size")
	cmd.Flags().BoolVar(&opts.Exec, "exec", false, "run the statement against the configured database")
	return cmd
}

func runPlan(cmd *cobra.Command, rootOpts *RootOptions, opts *PlanOptions, entity, name string) error {
	e, err := newEnv(rootOpts, cmd)
	if err != nil {
		return err
	}
	args, err := parseArgs(opts.Args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	page, err := parseWindow(opts.Page)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	m := &schema.Method{
		DAO:    entity + "Dao",
		Name:   name,
		Entity: e.entity(entity),
		Fields: opts.Fields,
		Params: schema.Types(args...),
	}
	if opts.Return != "" {
		kind, ok := schema.ParseReturnKind(opts.Return)
		if !ok {
			return WrapExitError(ExitCommandError, "invalid flags", fmt.Errorf("unknown return %q", opts.Return))
		}
		m.Return = schema.Return{Kind: kind}
	}
	d, err := e.dialect()
	if err != nil {
		return err
	}
	p := planner.New(planner.WithDialect(d), planner.WithLogger(e.logger))
	plan, err := p.Compile(m, args...)
	if err != nil {
		return e.out.fail(ExitFailure, "plan "+m.Signature(), err)
	}
	res := PlanResult{
		Method:   m.Signature(),
		Strategy: plan.Strategy,
		Table:    plan.Table,
		SQL:      plan.SQL,
		Args:     plan.Args,
		Return:   plan.Return.Kind.String(),
	}
	if page.set {
		res.CountSQL = d.Count(plan.SQL)
		res.SQL = d.Paginate(plan.SQL, page.start, page.size)
	}

	if opts.Exec {
		client, closeDB, err := e.client(cmd.Context())
		if err != nil {
			return err
		}
		defer closeDB()
		if page.set {
			res.Result, err = client.Page(cmd.Context(), m, page.start, page.size, args...)
		} else {
			res.Result, err = client.Invoke(cmd.Context(), m, args...)
		}
		if err != nil {
			return e.out.fail(ExitCommandError, "execute "+m.Signature(), err)
		}
	}
	return e.out.success(res, func(w io.Writer) {
		fmt.Fprintf(w, "strategy: %s\n", res.Strategy)
		fmt.Fprintf(w, "sql:      %s\n", res.SQL)
		fmt.Fprintf(w, "args:     %v\n", res.Args)
		if res.CountSQL != "" {
			fmt.Fprintf(w, "count:    %s\n", res.CountSQL)
		}
		if opts.Exec {
			printResult(w, res.Result)
		}
	})
}

func printResult(w io.Writer, v any) {
	switch v := v.(type) {
	case *dao.Page:
		fmt.Fprintf(w, "total:    %d\n", v.Total)
		printResult(w, v.Rows)
	case []map[string]any:
		for _, row := range v {
			fmt.Fprintln(w, row)
		}
	case []any:
		for _, x := range v {
			fmt.Fprintln(w, x)
		}
	default:
		fmt.Fprintln(w, v)
	}
}
