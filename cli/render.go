package cli

import (
	"encoding/json"
	"fmt"

	"github.com/asaidimu/go-odata/core/query"
	"github.com/asaidimu/go-odata/core/schema"
	"github.com/spf13/cobra"
)

// RenderOptions holds flags for the render command.
type RenderOptions struct {
	*RootOptions
	URI      bool
	Validate bool
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "render <definition-file>",
		Short: "Render a YAML or JSON query definition",
		Long: `Render a declarative query definition to an OData query string.

With --validate the definition is only checked, and the issues found are
printed as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.URI, "uri", false, "validate the result as a URI")
	cmd.Flags().BoolVar(&opts.Validate, "validate", false, "only validate the definition")

	return cmd
}

func runRender(opts *RenderOptions, path string, cmd *cobra.Command) error {
	logger, err := opts.Logger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	def, err := schema.LoadDefinition(path)
	if err != nil {
		return err
	}

	if opts.Validate {
		result := def.Validate()
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return fmt.Errorf("failed to encode validation result: %w", err)
		}
		if !result.Valid {
			return fmt.Errorf("%s: %d issue(s) found", path, len(result.Issues))
		}
		return nil
	}

	text, err := def.Render(query.WithLogger(logger))
	if err != nil {
		return err
	}
	return writeQuery(cmd, text, opts.URI)
}
