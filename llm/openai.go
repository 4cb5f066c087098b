package llm

import (
	"context"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider talks to the OpenAI chat completions API directly via
// go-openai, bypassing langchaingo, for callers who want the raw
// binding's lower overhead or its finer-grained token-usage reporting
// (spec.md §2.2 domain stack: "alternate binding").
type OpenAIProvider struct {
	client *openai.Client
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider builds a provider over an API key.
func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{client: openai.NewClient(apiKey)}
}

// NewOpenAIProviderWithClient wraps an already-configured client (e.g.
// pointed at an Azure or self-hosted OpenAI-compatible endpoint).
func NewOpenAIProviderWithClient(client *openai.Client) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

func (p *OpenAIProvider) Complete(ctx context.Context, messages []Message, opts Options) (Completion, error) {
	req := toOpenAIRequest(messages, opts)
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, err
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyResponse
	}
	return fromOpenAIChoice(resp.Choices[0].Message, resp.Usage), nil
}

func (p *OpenAIProvider) Stream(ctx context.Context, messages []Message, opts Options, onDelta StreamFunc) (Completion, error) {
	req := toOpenAIRequest(messages, opts)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return Completion{}, err
	}
	defer stream.Close()

	var out Completion
	var fnName, fnArgs string
	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Completion{}, err
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta
		if delta.Content != "" {
			out.Text += delta.Content
			if onDelta != nil {
				onDelta(delta.Content)
			}
		}
		if delta.FunctionCall != nil {
			fnName = delta.FunctionCall.Name
			fnArgs += delta.FunctionCall.Arguments
		}
	}
	if fnName != "" {
		out.FunctionCall = &FunctionCall{Name: fnName, Arguments: fnArgs}
	}
	return out, nil
}

func toOpenAIRequest(messages []Message, opts Options) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    opts.Model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		})
	}
	if opts.HasTemperature {
		req.Temperature = float32(opts.Temperature)
	}
	if opts.HasTopP {
		req.TopP = float32(opts.TopP)
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if len(opts.Stop) > 0 {
		req.Stop = opts.Stop
	}
	for _, fn := range opts.Functions {
		req.Functions = append(req.Functions, openai.FunctionDefinition{
			Name:        fn.Name,
			Description: fn.Description,
			Parameters:  fn.Parameters,
		})
	}
	if opts.ForceFunction != "" {
		req.FunctionCall = map[string]string{"name": opts.ForceFunction}
	}
	return req
}

func fromOpenAIChoice(msg openai.ChatCompletionMessage, usage openai.Usage) Completion {
	out := Completion{
		Text:             msg.Content,
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
	}
	if msg.FunctionCall != nil {
		out.FunctionCall = &FunctionCall{Name: msg.FunctionCall.Name, Arguments: msg.FunctionCall.Arguments}
	}
	return out
}
