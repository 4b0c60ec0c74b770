package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/goalgraph/pkg/coordinator"
	"github.com/matzehuels/goalgraph/pkg/errors"
	"github.com/matzehuels/goalgraph/pkg/goal"
)

// newAddCmd creates the add command for creating nodes.
func newAddCmd() *cobra.Command {
	var (
		nodeType string
		weight   float64
		parents  []string
	)

	cmd := &cobra.Command{
		Use:   "add <label>",
		Short: "Create a goal, milestone, or task node",
		Long: `Create a node in the goal graph.

The node starts as not_started. Use --parent to make it depend on existing
nodes (repeatable); parents may be given as full IDs, unique ID prefixes, or
exact labels. The --weight flag sets the node's share of each parent's
progress, in percent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				doc := c.Document()
				parentIDs := make([]goal.NodeID, 0, len(parents))
				for _, p := range parents {
					id, err := resolveNodeID(doc, p)
					if err != nil {
						return err
					}
					parentIDs = append(parentIDs, id)
				}

				id, err := c.AddNode(ctx, args[0], nodeType, weight, parentIDs)
				if err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}

				printSuccess("Added %s %q", nodeType, args[0])
				printDetail("id: %s", id)
				if len(parentIDs) > 0 {
					printDetail("parents: %d", len(parentIDs))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&nodeType, "type", "t", "task", "node type: goal, milestone, or task")
	cmd.Flags().Float64VarP(&weight, "weight", "w", 100, "share of each parent's progress, in percent")
	cmd.Flags().StringArrayVarP(&parents, "parent", "p", nil, "parent node (ID, unique prefix, or exact label; repeatable)")

	return cmd
}

// newDoneCmd creates the done command for completing nodes.
func newDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <node>",
		Short: "Mark a node and all its descendants completed",
		Long: `Mark a node completed.

Completion cascades: every task that depends on the completed node, directly
or transitively, is completed in the same operation with the same timestamp.
Already-completed descendants keep their original completion time.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetStatus(cmd, args[0], goal.StatusCompleted)
		},
	}
}

// newUndoCmd creates the undo command for reverting completions.
func newUndoCmd() *cobra.Command {
	var reset bool

	cmd := &cobra.Command{
		Use:   "undo <node>",
		Short: "Revert a node's completion",
		Long: `Revert a node's completion.

Unlike done, undo never cascades: only the named node changes. It moves back
to in_progress by default, or to not_started with --reset. Past history days
are recomputed, so the node's contribution disappears from the day it was
completed on.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := goal.StatusInProgress
			if reset {
				target = goal.StatusNotStarted
			}
			return runSetStatus(cmd, args[0], target)
		},
	}

	cmd.Flags().BoolVar(&reset, "reset", false, "revert to not_started instead of in_progress")
	return cmd
}

func runSetStatus(cmd *cobra.Command, arg string, target goal.Status) error {
	ctx := cmd.Context()
	return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
		doc := c.Document()
		id, err := resolveNodeID(doc, arg)
		if err != nil {
			return err
		}
		before := completedCount(doc)

		if err := c.SetNodeStatus(ctx, id, target); err != nil {
			printError("%s", errors.UserMessage(err))
			return err
		}

		n, _ := c.Document().Node(id)
		after := completedCount(c.Document())
		printSuccess("%s is now %s", n.Label, target)
		if cascaded := after - before - 1; target == goal.StatusCompleted && cascaded > 0 {
			printDetail("completed %d dependent tasks", cascaded)
		}
		return nil
	})
}

// newRmCmd creates the rm command for deleting subtrees.
func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <node>",
		Short: "Delete a node and its whole subtree",
		Long: `Delete a node.

Every node that depends on the deleted node, directly or transitively, is
deleted with it. References to deleted nodes are removed from the surviving
nodes' parent lists.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				doc := c.Document()
				id, err := resolveNodeID(doc, args[0])
				if err != nil {
					return err
				}
				n, _ := doc.Node(id)
				before := len(doc.Nodes)

				if err := c.DeleteNode(ctx, id); err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}

				removed := before - len(c.Document().Nodes)
				printSuccess("Deleted %q", n.Label)
				if removed > 1 {
					printDetail("removed %d nodes in total", removed)
				}
				return nil
			})
		},
	}
}

// newLinkCmd creates the link command for adding relationships.
func newLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <source> <target>",
		Short: "Make target depend on source",
		Long: `Add a prerequisite relationship: source becomes a parent of target.

Linking is idempotent; an existing relationship is left alone. Relationships
that would create a dependency cycle are refused.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withCoordinator(ctx, func(c *coordinator.Coordinator) error {
				doc := c.Document()
				source, err := resolveNodeID(doc, args[0])
				if err != nil {
					return err
				}
				target, err := resolveNodeID(doc, args[1])
				if err != nil {
					return err
				}

				if err := c.AddRelationship(ctx, source, target); err != nil {
					printError("%s", errors.UserMessage(err))
					return err
				}

				src, _ := doc.Node(source)
				tgt, _ := doc.Node(target)
				printSuccess("%s %s %s", src.Label, iconArrow, tgt.Label)
				return nil
			})
		},
	}
}

// resolveNodeID finds a node by full ID, unique ID prefix, or exact label.
func resolveNodeID(doc *goal.Document, arg string) (goal.NodeID, error) {
	if _, ok := doc.Node(goal.NodeID(arg)); ok {
		return goal.NodeID(arg), nil
	}

	var matches []goal.NodeID
	for _, n := range doc.OrderedNodes() {
		if strings.HasPrefix(string(n.ID), arg) || n.Label == arg {
			matches = append(matches, n.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no node matches %q", arg)
	default:
		return "", fmt.Errorf("%q is ambiguous: matches %d nodes", arg, len(matches))
	}
}

func completedCount(doc *goal.Document) int {
	n := 0
	for _, node := range doc.Nodes {
		if node.Completed() {
			n++
		}
	}
	return n
}
