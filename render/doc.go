// Package render turns a finished run's vertex statuses into a
// human-readable report for the CLI (SPEC_FULL.md §9 "CLI / status
// rendering"). It is a thin generalization of the teacher's
// graph/visualization.go: where that package walked a StateGraph's node
// names into a Mermaid/DOT/ASCII diagram, this package walks a
// graph.Collection's Nodes/Groups into an ASCII status tree, colored by
// terminal status with github.com/charmbracelet/lipgloss.
package render
