package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/asaidimu/go-odata/core/query"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "explain <query>",
		Short: "Break a query into its top-level options",
		Long: `Split an OData query string (or full URI) into its top-level query
options and print them as a table. The options are then replayed through the
query builder, so duplicated options and names without a '$' or '@' marker
are reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runExplain(opts *RootOptions, text string, cmd *cobra.Command) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	segments := query.SplitSegments(text)
	if len(segments) == 0 {
		return fmt.Errorf("no query options found")
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatSegments(segments))

	if _, err := query.FromSegments[any](segments, query.WithLogger(logger)).Build(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%s %d option(s)\n", color.GreenString("valid:"), len(segments))
	return nil
}

// formatSegments renders segments as a markdown table.
func formatSegments(segments []query.Segment) string {
	tableString := &strings.Builder{}

	table := tablewriter.NewTable(tableString,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"#", "Option", "Kind", "Value"})
	for i, segment := range segments {
		table.Append([]string{strconv.Itoa(i + 1), segment.Name, segmentKind(segment), segment.Value})
	}
	table.Render()

	return tableString.String()
}

func segmentKind(segment query.Segment) string {
	switch {
	case strings.HasPrefix(segment.Name, string(query.AliasMarker)):
		return "alias"
	case strings.HasPrefix(segment.Name, string(query.OperationMarker)):
		if strings.ContainsRune(segment.Value, query.OpenSubquery) && segment.Name == query.OperationExpand {
			return "expand with options"
		}
		return "operation"
	default:
		return "unknown"
	}
}
