// Package layout derives screen geometry from a goal document.
//
// The pipeline has three stages, each a pure function of its inputs:
//
//  1. BuildHierarchy assigns every node in a graph slice to an integer level
//     (a vertical column) via sink-anchored longest path.
//  2. PositionSlices converts levels into concrete top-left coordinates using
//     measured or estimated node box sizes.
//  3. PartitionGraph splits the document into bounded sub-views so that no
//     view ever spans more than a fixed number of active columns.
//
// Sizes come from a Measurer. First-pass layouts run on estimates; once real
// rendered sizes are observed the caller is expected to run a second,
// corrective pass with the same inputs.
package layout
