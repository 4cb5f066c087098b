// Package canvas turns a raw canvas (nodes with geometry/color/text,
// edges between them) into a graph.Collection ready for graph.Compile.
// The raw canvas file format itself is out of scope (spec.md §1); Loader
// is the narrow injected boundary a host application implements to hand
// Cannoli whatever on-disk or database format it actually uses.
// JSONLoader is the one concrete implementation this module ships, for
// tests and cmd/cannoli's demo mode — grounded on the teacher's
// rag/loader pattern (a Loader interface with one swappable concrete
// source, see rag/loader/static.go and rag/loader/text.go).
package canvas
