package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/goal"
)

// newProgressCmd creates the progress command for the daily history.
func newProgressCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Print the daily progress history",
		Long: `Print the progress history.

Each day from the first completion to today gets one row: cumulative
completion percentage, the gain over the previous day, and how many tasks
were finished. Days without completions carry the previous total forward.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				v := c.View()
				if len(v.History) == 0 {
					printInfo("No completions yet")
					printNextStep("Complete a task", "goalgraph done <node>")
					return nil
				}

				keys := make([]goal.DayKey, 0, len(v.History))
				for k := range v.History {
					keys = append(keys, k)
				}
				sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
				if days > 0 && len(keys) > days {
					keys = keys[len(keys)-days:]
				}

				fmt.Println(StyleTitle.Render("Progress"))
				printNewline()
				for _, k := range keys {
					s := v.History[k]
					gain := StyleDim.Render(fmt.Sprintf("%+6.1f", s.DailyGain))
					if s.DailyGain > 0 {
						gain = StyleSuccess.Render(fmt.Sprintf("%+6.1f", s.DailyGain))
					}
					fmt.Printf("  %s  %s %s %s\n",
						StyleDim.Render(string(k)),
						renderBar(s.TotalPercentageComplete, 24),
						StyleValue.Render(fmt.Sprintf("%5.1f%%", s.TotalPercentageComplete)),
						gain,
					)
				}

				last := v.History[keys[len(keys)-1]]
				printNewline()
				printKeyValue("total", fmt.Sprintf("%.1f%%", last.TotalPercentageComplete))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&days, "days", "n", 0, "show only the most recent N days")
	return cmd
}
