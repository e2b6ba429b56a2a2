package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowscope/pkg/coordinator"
	"github.com/matzehuels/flowscope/pkg/layout"
)

// Export formats.
const (
	formatFrame = "frame"
	formatDOT   = "dot"
)

// exportCommand creates the export command for one-shot pipeline output.
func (c *CLI) exportCommand() *cobra.Command {
	var (
		output  string
		format  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "export <graph.json>",
		Short: "Run the pipeline once and write the result",
		Long: `Export loads a graph document, runs smart collapse, layout, and
render once, and writes either the display frame as JSON or the
generated DOT source. Useful for scripting and for debugging layouts.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatFrame && format != formatDOT {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatFrame, formatDOT)
			}

			s, err := c.loadGraph(args[0])
			if err != nil {
				return err
			}

			coord, err := c.newCoordinator(cmd.Context(), s, noCache)
			if err != nil {
				return err
			}
			defer coord.Close()

			// Run the pipeline so smart collapse shapes the output.
			spin := newSpinnerWithContext(cmd.Context(), "Laying out graph...")
			spin.Start()
			frame, err := coord.ExecuteLayoutAndRenderPipeline(cmd.Context(),
				coordinator.PipelineOptions{}, coordinator.Options{})
			spin.Stop()
			if err != nil {
				return err
			}

			var data []byte
			if format == formatDOT {
				data = []byte(layout.BuildDOT(s))
			} else {
				data, err = json.MarshalIndent(frame, "", "  ")
				if err != nil {
					return err
				}
				data = append(data, '\n')
			}

			if output == "" || output == "-" {
				_, err := os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return err
			}
			printSuccess("Exported %s", format)
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVarP(&format, "format", "f", formatFrame, "output format: frame or dot")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}
