package node

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/cannoliai/cannoli/graph"
	"github.com/cannoliai/cannoli/llm"
)

// CallBehavior drives every Call-subtype node: it assembles the chat
// history from incoming message edges and the node's own text, issues
// one request through the bounded concurrency limiter, and routes the
// result to the node's outgoing edges according to its subtype
// (spec.md §4.7, §4.9).
type CallBehavior struct {
	Provider llm.Provider
}

var _ graph.NodeBehavior = (*CallBehavior)(nil)

// Reset is a no-op: a Call node carries no state between loop iterations
// beyond what its edges already hold, and those are reset separately.
func (b *CallBehavior) Reset() {}

func (b *CallBehavior) Execute(ctx context.Context, rc *graph.RunContext, n *graph.Node) error {
	limiter := rc.Limiter()
	if err := limiter.Acquire(ctx); err != nil {
		return err
	}
	defer limiter.Release()

	cfg, err := rc.ConfigFor(n)
	if err != nil {
		return err
	}
	opts := buildOptions(cfg)

	messages := buildMessages(ctx, rc, n)

	if noteEdges := noteModifierEdges(rc, n); len(noteEdges) > 0 {
		if candidates := noteSelectCandidates(messages); len(candidates) > 0 {
			opts.Functions = append(opts.Functions, noteSelectFunctionSpec(candidates))
		}
	}

	var completion llm.Completion
	switch n.Subtype {
	case graph.NodeCallForm:
		opts.Functions = append(opts.Functions, formFunctionSpec(rc, n))
		opts.ForceFunction = "form"
		completion, err = b.Provider.Complete(ctx, messages, opts)
	case graph.NodeCallChoose:
		opts.Functions = append(opts.Functions, chooseFunctionSpec(rc, n))
		opts.ForceFunction = "choice"
		completion, err = b.Provider.Complete(ctx, messages, opts)
	default: // NodeCallStandard, NodeCallAccumulate
		completion, err = b.runStandard(ctx, rc, n, messages, opts)
	}
	if err != nil {
		return err
	}

	rc.RecordUsage(completion.PromptTokens, completion.CompletionTokens, cost(rc, cfg["model"], completion))

	return route(rc, n, completion)
}

func (b *CallBehavior) runStandard(ctx context.Context, rc *graph.RunContext, n *graph.Node, messages []llm.Message, opts llm.Options) (llm.Completion, error) {
	edges := chatResponseEdges(rc, n)
	if len(edges) == 0 {
		return b.Provider.Complete(ctx, messages, opts)
	}
	sink := graph.NewStreamSink(edges, rc.PublishStream)
	return b.Provider.Stream(ctx, messages, opts, func(delta string) {
		sink.Publish(graph.StreamChunk{Delta: delta})
	})
}

func cost(rc *graph.RunContext, model string, c llm.Completion) float64 {
	fn := rc.CostFunc()
	if fn == nil {
		return 0
	}
	return fn(model, c.PromptTokens, c.CompletionTokens)
}

// buildOptions translates a Call node's resolved Config map into llm.Options.
func buildOptions(cfg map[string]string) llm.Options {
	opts := llm.Options{Model: cfg["model"]}
	if v, ok := cfg["temperature"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.Temperature, opts.HasTemperature = f, true
		}
	}
	if v, ok := cfg["top_p"]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			opts.TopP, opts.HasTopP = f, true
		}
	}
	if v, ok := cfg["max_tokens"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			opts.MaxTokens = i
		}
	}
	return opts
}

// buildMessages assembles the prompt in spec.md §4.7's order: (1) every
// loaded direct incoming Chat/SystemMessage edge's message history; (2)
// if no direct edge supplied any messages, the loaded incoming edges of
// every enclosing group whose AddMessages flag is set; (3) the node's
// own resolved text as a final user message if it is non-empty (§4.8).
func buildMessages(ctx context.Context, rc *graph.RunContext, n *graph.Node) []llm.Message {
	out := messagesFromEdges(n.Incoming, rc, nil)
	if len(out) == 0 {
		for _, gid := range n.Enclosing {
			g := rc.Group(gid)
			if g == nil {
				continue
			}
			out = append(out, messagesFromEdges(g.Incoming, rc, func(e *graph.Edge) bool { return e.AddMessages })...)
		}
	}
	if text := rc.ResolveReferences(ctx, n, n.Text); text != "" {
		out = append(out, llm.Message{Role: "user", Content: text})
	}
	return out
}

// messagesFromEdges collects message-history contributions from ids,
// in order, skipping edges that aren't loaded, don't carry messages, or
// fail the optional filter.
func messagesFromEdges(ids []graph.ID, rc *graph.RunContext, filter func(*graph.Edge) bool) []llm.Message {
	var out []llm.Message
	for _, eid := range ids {
		e := rc.Edge(eid)
		if e == nil || !e.Loaded() || !e.Subtype.CarriesMessages() {
			continue
		}
		if filter != nil && !filter(e) {
			continue
		}
		for _, m := range e.Messages() {
			out = append(out, llm.Message{Role: m.Role, Content: m.Content, Name: m.Name})
		}
		if s := e.ContentString(); s != "" {
			out = append(out, llm.Message{Role: roleFor(e.Subtype), Content: s})
		}
	}
	return out
}

func roleFor(st graph.EdgeSubtype) string {
	if st == graph.EdgeSystemMessage {
		return "system"
	}
	return "user"
}

func chatResponseEdges(rc *graph.RunContext, n *graph.Node) []graph.ID {
	var ids []graph.ID
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil && e.Subtype == graph.EdgeChatResponse {
			ids = append(ids, eid)
		}
	}
	return ids
}

// route writes completion onto n's outgoing edges, dispatching by edge
// subtype. Choice/Category/Field edges only load when their name
// matches the function-call result that selected/populated them; a
// note-modifier edge loads the note_select result instead, regardless
// of subtype; everything else loads the full response text.
func route(rc *graph.RunContext, n *graph.Node, completion llm.Completion) error {
	var fields map[string]string
	var chosen, selectedNote string
	if completion.FunctionCall != nil {
		var args map[string]any
		if err := json.Unmarshal([]byte(completion.FunctionCall.Arguments), &args); err != nil {
			return fmt.Errorf("call node %s: decoding function arguments: %w", n.ID, err)
		}
		if completion.FunctionCall.Name == "note_select" {
			if v, ok := args["note"]; ok {
				selectedNote = fmt.Sprintf("%v", v)
			}
		} else {
			fields = map[string]string{}
			for k, v := range args {
				fields[k] = fmt.Sprintf("%v", v)
			}
			if v, ok := args["choice"]; ok {
				chosen = fmt.Sprintf("%v", v)
			}
		}
	}

	for _, eid := range n.Outgoing {
		e := rc.Edge(eid)
		if e == nil {
			continue
		}
		if e.Modifier == graph.ModifierNote {
			if selectedNote != "" {
				e.Load(selectedNote, nil)
			}
			continue
		}
		switch e.Subtype {
		case graph.EdgeChatResponse:
			e.Load(completion.Text, nil)
		case graph.EdgeChat:
			e.Load(completion.Text, []graph.ChatMessage{{Role: "assistant", Content: completion.Text}})
		case graph.EdgeLogging:
			e.Load(completion.Text, nil)
		case graph.EdgeField:
			if v, ok := fields[e.Name()]; ok {
				e.Load(v, nil)
			}
		case graph.EdgeChoice, graph.EdgeCategory:
			if e.Name() == chosen {
				e.Load(completion.Text, nil)
			}
		}
	}
	return nil
}

var noteBracket = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// noteSelectCandidates extracts the distinct `[[Name]]` occurrences in
// the assembled messages, in first-seen order — the enum offered to the
// note_select function (spec.md §4.7).
func noteSelectCandidates(messages []llm.Message) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range messages {
		for _, match := range noteBracket.FindAllStringSubmatch(m.Content, -1) {
			name := match[1]
			if !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	return out
}

func noteModifierEdges(rc *graph.RunContext, n *graph.Node) []graph.ID {
	var ids []graph.ID
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil && e.Modifier == graph.ModifierNote {
			ids = append(ids, eid)
		}
	}
	return ids
}

func noteSelectFunctionSpec(candidates []string) llm.FunctionSpec {
	return llm.FunctionSpec{
		Name:        "note_select",
		Description: "Select the note, among those referenced in the conversation, that this node's outgoing edge should carry.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"note": map[string]any{"type": "string", "enum": candidates},
			},
			"required": []string{"note"},
		},
	}
}

func formFunctionSpec(rc *graph.RunContext, n *graph.Node) llm.FunctionSpec {
	props := map[string]any{}
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil && e.Subtype == graph.EdgeField {
			props[e.Name()] = map[string]any{"type": "string"}
		}
	}
	return llm.FunctionSpec{
		Name:        "form",
		Description: "Populate the named fields extracted from the response.",
		Parameters:  map[string]any{"type": "object", "properties": props},
	}
}

func chooseFunctionSpec(rc *graph.RunContext, n *graph.Node) llm.FunctionSpec {
	var options []string
	for _, eid := range n.Outgoing {
		if e := rc.Edge(eid); e != nil && (e.Subtype == graph.EdgeChoice || e.Subtype == graph.EdgeCategory) {
			options = append(options, e.Name())
		}
	}
	return llm.FunctionSpec{
		Name:        "choice",
		Description: "Select exactly one of the offered branches.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"choice": map[string]any{"type": "string", "enum": options},
			},
			"required": []string{"choice"},
		},
	}
}
