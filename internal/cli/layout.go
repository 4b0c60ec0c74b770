package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/goal"
)

// newLayoutCmd creates the layout command for inspecting computed positions.
func newLayoutCmd() *cobra.Command {
	var (
		graph    string
		asJSON   bool
		listSubs bool
	)

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print computed positions for a sub-view",
		Long: `Print the computed layout.

Large graphs are partitioned into nested sub-views so that no view shows more
than the configured number of active columns. By default the main view is
printed; use --graph to drill into a nested sub-view, or --list to see which
sub-views exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			timer := newProgressTimer(logger)

			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				if graph != "" {
					c.SetActiveGraph(goal.GraphID(graph))
				}
				v := c.View()
				timer.done(fmt.Sprintf("Computed layout for %d nodes", len(v.Positions)))

				if listSubs {
					return printSubViews(v)
				}
				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(v)
				}
				return printPositions(c, v)
			})
		},
	}

	cmd.Flags().StringVarP(&graph, "graph", "g", "", "sub-view to lay out (default: main)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw view as JSON")
	cmd.Flags().BoolVar(&listSubs, "list", false, "list sub-views instead of positions")

	return cmd
}

func printPositions(c *coordinator.Coordinator, v coordinator.View) error {
	doc := c.Document()

	ids := make([]goal.NodeID, 0, len(v.Positions))
	for id := range v.Positions {
		ids = append(ids, id)
	}
	// Reading order: top-to-bottom, then left-to-right.
	sort.Slice(ids, func(i, j int) bool {
		a, b := v.Positions[ids[i]], v.Positions[ids[j]]
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})

	fmt.Println(StyleTitle.Render("Layout: " + string(v.ActiveGraph)))
	printNewline()
	for _, id := range ids {
		n, ok := doc.Node(id)
		if !ok {
			continue
		}
		pos := v.Positions[id]
		label := n.Label
		if n.Completed() {
			label = StyleDim.Render(label + " " + iconSuccess)
		} else {
			label = StyleValue.Render(label)
		}
		fmt.Printf("  %s %s\n", StyleDim.Render(fmt.Sprintf("(%7.1f, %7.1f)", pos.X, pos.Y)), label)
	}
	return nil
}

func printSubViews(v coordinator.View) error {
	counts := make(map[goal.GraphID]int)
	for _, g := range v.Graphs {
		counts[g]++
	}
	gids := make([]goal.GraphID, 0, len(counts))
	for g := range counts {
		gids = append(gids, g)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })

	fmt.Println(StyleTitle.Render("Sub-views"))
	printNewline()
	for _, g := range gids {
		marker := "  "
		if g == v.ActiveGraph {
			marker = StyleHighlight.Render("▸ ")
		}
		fmt.Printf("%s%s %s\n", marker, StyleValue.Render(string(g)), StyleDim.Render(fmt.Sprintf("(%d nodes)", counts[g])))
	}
	printNewline()
	printNextStep("Drill down", "goalgraph layout --graph <id>")
	return nil
}
