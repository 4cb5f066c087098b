package llm

import (
	"context"
	"encoding/json"

	"github.com/tmc/langchaingo/llms"
)

// LangChainProvider adapts any github.com/tmc/langchaingo/llms.Model —
// OpenAI, Anthropic, Ollama, Ernie, and the rest of that ecosystem's
// bindings — to Provider, so a canvas can point at whichever backend the
// caller already wired up for langchaingo.
type LangChainProvider struct {
	model llms.Model
}

var _ Provider = (*LangChainProvider)(nil)

// NewLangChainProvider wraps an existing langchaingo model.
func NewLangChainProvider(model llms.Model) *LangChainProvider {
	return &LangChainProvider{model: model}
}

func (p *LangChainProvider) Complete(ctx context.Context, messages []Message, opts Options) (Completion, error) {
	return p.generate(ctx, messages, opts, nil)
}

func (p *LangChainProvider) Stream(ctx context.Context, messages []Message, opts Options, onDelta StreamFunc) (Completion, error) {
	streamFn := func(_ context.Context, chunk []byte) error {
		if onDelta != nil {
			onDelta(string(chunk))
		}
		return nil
	}
	return p.generate(ctx, messages, opts, streamFn)
}

func (p *LangChainProvider) generate(ctx context.Context, messages []Message, opts Options, streamFn func(context.Context, []byte) error) (Completion, error) {
	content := toLangChainMessages(messages)
	callOpts := toCallOptions(opts, streamFn)

	resp, err := p.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyResponse
	}
	choice := resp.Choices[0]

	out := Completion{Text: choice.Content}
	if choice.FuncCall != nil {
		out.FunctionCall = &FunctionCall{Name: choice.FuncCall.Name, Arguments: choice.FuncCall.Arguments}
	}
	if choice.GenerationInfo != nil {
		if v, ok := choice.GenerationInfo["PromptTokens"].(int); ok {
			out.PromptTokens = v
		}
		if v, ok := choice.GenerationInfo["CompletionTokens"].(int); ok {
			out.CompletionTokens = v
		}
	}
	return out, nil
}

func toLangChainMessages(messages []Message) []llms.MessageContent {
	out := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		var role llms.ChatMessageType
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		case "function":
			role = llms.ChatMessageTypeFunction
		default:
			role = llms.ChatMessageTypeHuman
		}
		out = append(out, llms.TextParts(role, m.Content))
	}
	return out
}

func toCallOptions(opts Options, streamFn func(context.Context, []byte) error) []llms.CallOption {
	var callOpts []llms.CallOption
	if opts.Model != "" {
		callOpts = append(callOpts, llms.WithModel(opts.Model))
	}
	if opts.HasTemperature {
		callOpts = append(callOpts, llms.WithTemperature(opts.Temperature))
	}
	if opts.HasTopP {
		callOpts = append(callOpts, llms.WithTopP(opts.TopP))
	}
	if opts.MaxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(opts.MaxTokens))
	}
	if len(opts.Stop) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(opts.Stop))
	}
	if streamFn != nil {
		callOpts = append(callOpts, llms.WithStreamingFunc(streamFn))
	}
	if len(opts.Functions) > 0 {
		tools := make([]llms.Tool, 0, len(opts.Functions))
		for _, fn := range opts.Functions {
			raw, _ := json.Marshal(fn.Parameters)
			tools = append(tools, llms.Tool{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        fn.Name,
					Description: fn.Description,
					Parameters:  json.RawMessage(raw),
				},
			})
		}
		callOpts = append(callOpts, llms.WithTools(tools))
	}
	if opts.ForceFunction != "" {
		callOpts = append(callOpts, llms.WithToolChoice(opts.ForceFunction))
	}
	return callOpts
}
