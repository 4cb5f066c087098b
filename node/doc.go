// Package node implements graph.NodeBehavior for the concrete node
// subtypes (spec.md §4.7): Call (standard/form/choose/accumulate) and
// Content (standard/reference/HTTP/formatter). Floating nodes have no
// behavior. It depends on package graph, package llm, and package
// httpcap, but none of those import it back — behaviors are attached to a
// graph.Node's Behavior field by the caller composing a run, not
// resolved by package graph itself.
package node
