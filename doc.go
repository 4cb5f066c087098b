// Package cannoli is a graph-based execution engine for LLM
// orchestration, built around a closed-set node/edge/group canvas
// rather than an open-ended agent framework.
//
// # Quick start
//
// Install the package:
//
//	go get github.com/cannoliai/cannoli
//
// Compile a canvas and run it:
//
//	package main
//
//	import (
//		"context"
//		"os"
//
//		"github.com/cannoliai/cannoli/canvas"
//		"github.com/cannoliai/cannoli/graph"
//	)
//
//	func main() {
//		f, _ := os.Open("workflow.canvas")
//		loader, _ := canvas.NewJSONLoader(f)
//		coll, _ := loader.Load()
//
//		rc, _ := graph.Compile(coll)
//		rc.Start(context.Background(), func(graph.FinishReason, error) {})
//	}
//
// # Package layout
//
//   - graph: the core object model (Node/Edge/Group), the dependency
//     resolver, and the single-scheduler event loop that drives a run.
//   - canvas: loads a JSON canvas into a graph.Collection, classifying
//     node and edge subtypes from shape/color/label conventions.
//   - node: NodeBehavior implementations (Call, Content, Reference,
//     HTTP, Formatter) a caller composing a run attaches to nodes.
//   - llm: the Provider seam between graph/node and an LLM backend,
//     including an OpenAI-backed provider, a deterministic mock, and a
//     tmc/langchaingo-compatible adapter.
//   - llms/ernie: an alternative llms.Model implementation pluggable
//     into llm.LangChainProvider.
//   - vault: an in-memory note store backing note references.
//   - httpcap: a retrying HTTP client and the template executor backing
//     node.HTTPBehavior.
//   - history: run-history recording (memory, SQLite, Postgres, Redis).
//   - render: ASCII status-tree rendering of a finished or in-flight run.
//   - cmd/cannoli: a CLI that loads a canvas, runs it, and prints the
//     status tree and usage totals.
//
// # License
//
// This project is licensed under the MIT License.
package cannoli // import "github.com/cannoliai/cannoli"
