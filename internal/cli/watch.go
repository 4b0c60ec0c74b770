package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/goal"
)

// newWatchCmd creates the watch command, a live terminal dashboard.
func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Live dashboard following document changes",
		Long: `Watch the goal graph live.

The dashboard shows node counts, overall progress, and the recent history,
and repaints whenever the document changes. With the mongo backend this
includes changes made by other clients.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				m := newWatchModel(snapshotFor(c))
				p := tea.NewProgram(m, tea.WithContext(ctx))

				c.OnUpdate(func(coordinator.View) {
					p.Send(watchUpdateMsg{snapshot: snapshotFor(c)})
				})
				defer c.OnUpdate(nil)

				_, err := p.Run()
				return err
			})
		},
	}
}

// watchSnapshot is everything the dashboard renders, captured outside the
// bubbletea loop.
type watchSnapshot struct {
	Total      int
	Completed  int
	InProgress int
	SubViews   int
	History    map[goal.DayKey]goal.DayStats
	At         time.Time
}

// watchUpdateMsg carries a fresh snapshot into the bubbletea loop.
type watchUpdateMsg struct {
	snapshot watchSnapshot
}

func snapshotFor(c *coordinator.Coordinator) watchSnapshot {
	doc := c.Document()
	v := c.View()

	s := watchSnapshot{
		Total:   len(doc.Nodes),
		History: v.History,
		At:      time.Now(),
	}
	for _, n := range doc.Nodes {
		switch n.Status {
		case goal.StatusCompleted:
			s.Completed++
		case goal.StatusInProgress:
			s.InProgress++
		}
	}
	views := make(map[goal.GraphID]bool)
	for _, g := range v.Graphs {
		views[g] = true
	}
	s.SubViews = len(views)
	return s
}

// watchModel is the bubbletea model for the watch dashboard.
type watchModel struct {
	snapshot watchSnapshot
	updates  int
}

func newWatchModel(s watchSnapshot) watchModel {
	return watchModel{snapshot: s}
}

func (m watchModel) Init() tea.Cmd {
	return nil
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case watchUpdateMsg:
		m.snapshot = msg.snapshot
		m.updates++
	}
	return m, nil
}

func (m watchModel) View() string {
	s := m.snapshot
	var b strings.Builder

	b.WriteString(StyleTitle.Render("GoalGraph"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("q quit"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  %s %s  %s %s  %s %s\n",
		StyleDim.Render("nodes"), StyleValue.Render(fmt.Sprintf("%d", s.Total)),
		StyleDim.Render("in progress"), StyleWarning.Render(fmt.Sprintf("%d", s.InProgress)),
		StyleDim.Render("completed"), StyleSuccess.Render(fmt.Sprintf("%d", s.Completed)),
	))
	if s.SubViews > 1 {
		b.WriteString("  " + StyleDim.Render(fmt.Sprintf("%d sub-views", s.SubViews)) + "\n")
	}
	b.WriteString("\n")

	keys := make([]goal.DayKey, 0, len(s.History))
	for k := range s.History {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	if len(keys) > 7 {
		keys = keys[len(keys)-7:]
	}

	if len(keys) == 0 {
		b.WriteString("  " + StyleDim.Render("no completions yet") + "\n")
	}
	for _, k := range keys {
		d := s.History[k]
		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			StyleDim.Render(string(k)),
			renderBar(d.TotalPercentageComplete, 20),
			StyleValue.Render(fmt.Sprintf("%5.1f%%", d.TotalPercentageComplete)),
		))
	}

	if m.updates > 0 {
		b.WriteString("\n" + StyleDim.Render(fmt.Sprintf("updated %s", s.At.Format("15:04:05"))) + "\n")
	}
	return b.String()
}
