// Package graph implements Cannoli's graph execution engine: the typed
// object model (Node, Edge, Group), structural validation, the
// dependency resolver, the per-vertex state machine, edge transport, and
// the Repeat/While/ForEach/Basic group iteration controllers.
//
// A canvas is classified into typed vertices by package canvas, then
// handed to Compile, which validates it and returns a RunContext ready to
// Start. Node behaviors (Call, Content, Reference, HTTP, Formatter) live
// in package node and are attached to a Node's Behavior field before
// compilation; Floating nodes have no behavior and are marked Complete by
// Compile.
package graph
