// Package llm adapts large-language-model providers to the completion
// contract Cannoli's Call-node behaviors (package node) depend on. It
// never imports package graph: a Completion is a plain struct of text,
// an optional function call, and usage counters, kept provider-neutral so
// graph.ChatMessage conversion happens once, at the call site in node.
package llm
