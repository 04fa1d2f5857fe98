package cli

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-odata/core/query"
	"github.com/spf13/cobra"
)

// BuildOptions holds flags for the build command.
type BuildOptions struct {
	*RootOptions
	Base    string
	Select  []string
	Filter  string
	Search  string
	OrderBy []string
	Top     int
	Skip    int
	Count   bool
	Expand  []string
	Params  []string
	URI     bool
}

// rawQuery is pre-built subquery text supplied on the command line.
type rawQuery string

func (r rawQuery) Build() (string, error) {
	return string(r), nil
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build an OData query from flags",
		Long: `Build an OData query string from individual query options.

Options are written in a fixed order: select, expand, filter, search,
orderby, top, skip, count, then parameter aliases.

Examples:
  odataq build --base https://example.com/odata/Customers --select Name,Age --top 10
  odataq build --expand 'Orders($select=Id;$top=5)' --orderby Name:desc --param @p=1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Base, "base", "", "resource URI to continue")
	cmd.Flags().StringSliceVar(&opts.Select, "select", nil, "properties to select (comma separated)")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "$filter expression")
	cmd.Flags().StringVar(&opts.Search, "search", "", "$search expression")
	cmd.Flags().StringArrayVar(&opts.OrderBy, "orderby", nil, "sort key as field[:asc|desc] (repeatable)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "maximum number of entities")
	cmd.Flags().IntVar(&opts.Skip, "skip", 0, "number of entities to skip")
	cmd.Flags().BoolVar(&opts.Count, "count", false, "request the total count")
	cmd.Flags().StringArrayVar(&opts.Expand, "expand", nil, "navigation property, optionally with options in parentheses (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "parameter alias as @name=value (repeatable)")
	cmd.Flags().BoolVar(&opts.URI, "uri", false, "validate the result as a URI")

	return cmd
}

func runBuild(opts *BuildOptions, cmd *cobra.Command) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	qb := query.ForResource[any](opts.Base, query.WithLogger(logger))

	if len(opts.Select) > 0 {
		qb.Select(opts.Select...)
	}
	for _, expand := range opts.Expand {
		navigation, sub, ok := splitExpand(expand)
		if ok {
			qb.ExpandWith(navigation, sub)
		} else {
			qb.Expand(expand)
		}
	}
	if opts.Filter != "" {
		qb.Filter(opts.Filter)
	}
	if opts.Search != "" {
		qb.Search(opts.Search)
	}
	for i, key := range opts.OrderBy {
		field, direction, _ := strings.Cut(key, ":")
		if i == 0 {
			qb.OrderBy(field, query.SortDirection(direction))
		} else {
			qb.ThenBy(field, query.SortDirection(direction))
		}
	}
	if cmd.Flags().Changed("top") {
		qb.Top(opts.Top)
	}
	if cmd.Flags().Changed("skip") {
		qb.Skip(opts.Skip)
	}
	if cmd.Flags().Changed("count") {
		qb.Count(opts.Count)
	}
	for _, param := range opts.Params {
		alias, value, found := strings.Cut(param, "=")
		if !found {
			return fmt.Errorf("invalid --param %q: expected @name=value", param)
		}
		qb.Param(alias, value)
	}

	text, err := qb.Build()
	if err != nil {
		return err
	}
	return writeQuery(cmd, text, opts.URI)
}

// splitExpand splits "Orders($select=Id)" into its navigation property and
// subquery text.
func splitExpand(expand string) (string, query.Builder, bool) {
	open := strings.IndexByte(expand, query.OpenSubquery)
	if open <= 0 || !strings.HasSuffix(expand, string(query.CloseSubquery)) {
		return "", nil, false
	}
	return expand[:open], rawQuery(expand[open+1 : len(expand)-1]), true
}

// writeQuery prints built query text, parsed as a URI when asURI is set.
func writeQuery(cmd *cobra.Command, text string, asURI bool) error {
	if asURI {
		u, err := query.ParseURI(text)
		if err != nil {
			return err
		}
		text = u.String()
	}
	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
