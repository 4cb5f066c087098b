// Command cannoli loads a canvas fixture, runs it against an LLM
// provider (Ernie if -ernie-key is set, else OpenAI if -openai-key is
// set, else a deterministic mock), and prints the finished run's
// status tree and usage totals.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/cannoliai/cannoli/canvas"
	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/history"
	"github.com/cannoliai/cannoli/httpcap"
	"github.com/cannoliai/cannoli/llm"
	"github.com/cannoliai/cannoli/llms/ernie"
	"github.com/cannoliai/cannoli/log"
	"github.com/cannoliai/cannoli/node"
	"github.com/cannoliai/cannoli/render"
	"github.com/cannoliai/cannoli/vault"
)

func main() {
	canvasPath := flag.String("canvas", "", "path to a JSON canvas fixture; a built-in sample is used when unset")
	openaiKey := flag.String("openai-key", "", "OpenAI API key; when unset the run uses a deterministic mock provider")
	ernieKey := flag.String("ernie-key", "", "Baidu Qianfan (Ernie) API key; takes precedence over -openai-key when set")
	flag.Parse()

	if err := run(*canvasPath, *openaiKey, *ernieKey); err != nil {
		fmt.Fprintln(os.Stderr, "cannoli:", err)
		os.Exit(1)
	}
}

func run(canvasPath, openaiKey, ernieKey string) error {
	logger := log.NewDefaultLogger(log.LogLevelInfo)

	loader, err := openLoader(canvasPath)
	if err != nil {
		return fmt.Errorf("loading canvas: %w", err)
	}
	coll, err := loader.Load()
	if err != nil {
		return fmt.Errorf("classifying canvas: %w", err)
	}

	provider, err := providerFor(openaiKey, ernieKey)
	if err != nil {
		return fmt.Errorf("selecting LLM provider: %w", err)
	}
	wireBehaviors(coll, provider)

	recorder := history.NewMemoryRecorder(50)
	rc, err := graph.Compile(coll,
		graph.WithLogger(logger),
		graph.WithVault(vault.NewMemoryVault()),
		graph.WithHistoryRecorder(recorder),
	)
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}

	done := make(chan struct{})
	var reason graph.FinishReason
	var runErr error
	rc.Start(context.Background(), func(r graph.FinishReason, e error) {
		reason, runErr = r, e
		close(done)
	})
	<-done

	fmt.Println(render.StatusTree(coll, rc))

	usage := rc.Usage()
	fmt.Printf("finish=%s prompt_tokens=%d completion_tokens=%d calls=%d cost=%.4f\n",
		reason, usage.PromptTokens, usage.CompletionTokens, usage.Calls, usage.TotalCost)
	if runErr != nil {
		fmt.Printf("error: %v\n", runErr)
	}

	if recent := recorder.Recent(); len(recent) > 0 {
		last := recent[len(recent)-1]
		fmt.Printf("history: run %s recorded (%s)\n", last.RunID, last.Reason)
	}

	return nil
}

func openLoader(path string) (canvas.Loader, error) {
	if path == "" {
		return canvas.NewJSONLoaderFromCanvas(sampleCanvas()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return canvas.NewJSONLoader(f)
}

// providerFor picks the LLM backend: an Ernie client wrapped in
// llm.LangChainProvider takes precedence when -ernie-key is set, then
// OpenAI, falling back to a deterministic mock so the sample run works
// without any credentials.
func providerFor(openaiKey, ernieKey string) (llm.Provider, error) {
	if ernieKey != "" {
		model, err := ernie.New(ernie.WithAPIKey(ernieKey))
		if err != nil {
			return nil, fmt.Errorf("building ernie client: %w", err)
		}
		return llm.NewLangChainProvider(model), nil
	}
	if openaiKey != "" {
		return llm.NewOpenAIProvider(openaiKey), nil
	}
	return llm.NewMockProvider(
		llm.Completion{Text: "Paris.", PromptTokens: 9, CompletionTokens: 2},
		llm.Completion{Text: "One word: Paris.", PromptTokens: 14, CompletionTokens: 3},
	), nil
}

// wireBehaviors attaches each node's NodeBehavior by subtype; package
// graph never resolves this itself (package node's doc.go: "behaviors
// are attached... by the caller composing a run").
func wireBehaviors(coll *graph.Collection, provider llm.Provider) {
	httpExec := httpcap.NewTemplateClient(httpTemplates(), httpcap.NewClient())
	for _, n := range coll.Nodes {
		switch {
		case n.Subtype.IsCall():
			n.Behavior = &node.CallBehavior{Provider: provider}
		case n.Subtype == graph.NodeContentHTTP:
			n.Behavior = node.HTTPBehavior{Executor: httpExec}
		case n.Subtype == graph.NodeContentReference:
			n.Behavior = node.ReferenceBehavior{}
		case n.Subtype == graph.NodeContentStandard, n.Subtype == graph.NodeContentFormatter:
			n.Behavior = node.ContentBehavior{}
		}
	}
}

// httpTemplates is the fixture run's template registry. A real
// deployment loads these from the host application's settings; §6
// treats template execution as an injected capability the core never
// defines the registry format for.
func httpTemplates() httpcap.TemplateSet {
	return httpcap.TemplateSet{
		"echo": {Method: "POST", URL: "https://httpbin.org/post", Body: "{{text}}"},
	}
}

// sampleCanvas is a minimal linear fixture: two Call nodes chained by a
// Chat edge, terminating in a Content node — enough to exercise
// dependency resolution, bounded concurrency, and usage accounting
// end-to-end without a real LLM key.
func sampleCanvas() canvas.RawCanvas {
	return canvas.RawCanvas{
		Nodes: []canvas.RawNode{
			{ID: "n1", Color: "2", Width: 200, Height: 80, Text: "What is the capital of France?"},
			{ID: "n2", Color: "2", Width: 200, Height: 80, Text: strings.TrimSpace("Summarize the previous answer in one word:")},
			{ID: "n3", Color: "6", Width: 200, Height: 80, Text: "Done."},
		},
		Edges: []canvas.RawEdge{
			{ID: "e1", FromNode: "n1", ToNode: "n2"},
			{ID: "e2", FromNode: "n2", ToNode: "n3"},
		},
	}
}
