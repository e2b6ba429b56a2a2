package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// exploreCommand creates the explore command for interactive exploration.
func (c *CLI) exploreCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "explore <graph.json>",
		Short: "Explore a graph interactively in the terminal",
		Long: `Explore opens a graph document in a terminal explorer. Containers
collapse and expand in place, search reveals hidden entities, and the
current view can be saved as a snapshot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadGraph(args[0])
			if err != nil {
				return err
			}
			coord, err := c.newCoordinator(cmd.Context(), s, noCache)
			if err != nil {
				return err
			}
			defer coord.Close()

			snaps, err := c.newSnapshotStore(cmd.Context())
			if err != nil {
				c.Logger.Warn("snapshot store unavailable", "error", err)
				snaps = nil
			}
			if snaps != nil {
				defer snaps.Close(cmd.Context())
			}

			model := NewExplorerModel(coord, snaps)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the layout cache")
	return cmd
}
