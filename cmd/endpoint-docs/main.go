// endpoint-docs regenerates the endpoints_by_subscription markdown files
// from the OpenAPI document. Each tier's file lists every endpoint
// available at that tier (cumulative over cheaper tiers). Output is fully
// rewritten on each run; an unchanged document yields byte-identical files.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/thetadata/thetadata-mcp/pkg/docgen"
	"github.com/thetadata/thetadata-mcp/pkg/spec"
	"github.com/thetadata/thetadata-mcp/pkg/subscription"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var (
		specPath  string
		outputDir string
		tierNames []string
	)

	cmd := &cobra.Command{
		Use:           "endpoint-docs",
		Short:         "Generate per-subscription-tier endpoint listings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := spec.Load(cmd.Context(), specPath)
			if err != nil {
				return err
			}

			tiers := make([]subscription.Tier, 0, len(tierNames))
			for _, name := range tierNames {
				tier, err := subscription.Parse(name)
				if err != nil {
					return err
				}
				tiers = append(tiers, tier)
			}

			gen := &docgen.Generator{OutputDir: outputDir, Tiers: tiers}
			counts, err := gen.Run(doc)
			if err != nil {
				return err
			}

			total := 0
			for _, tier := range subscription.Tiers() {
				count, ok := counts[tier]
				if !ok {
					continue
				}
				cmd.Printf("Generated %s/%s (%d total endpoints)\n", outputDir, docgen.FileName(tier), count)
				total = count
			}
			cmd.Printf("\nEndpoints available at the highest generated tier: %d\n", total)
			return nil
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "path to an OpenAPI document overriding the bundled one")
	cmd.Flags().StringVar(&outputDir, "output-dir", "endpoints_by_subscription", "output directory for markdown files")
	cmd.Flags().StringSliceVar(&tierNames, "tiers", nil, "tiers to generate (default: all)")

	return cmd
}
