// Package httpcap is the HTTP capability a graph.NodeContentHTTP node's
// behavior (package node) uses to issue its request. It hardens the
// underlying transport with retry and backoff below node granularity:
// a node itself sees at most one RuntimeError per spec.md §7 ("a
// transient LLM/HTTP error immediately terminates the node"), but the
// connection underneath can recover from a dropped socket or a 503
// without that fatal contract ever being exercised.
package httpcap
