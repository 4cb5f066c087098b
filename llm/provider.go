package llm

import "context"

// Message is a provider-neutral chat message.
type Message struct {
	Role    string // "system", "user", "assistant", "function"
	Content string
	Name    string // set for function-role messages
}

// FunctionSpec describes one callable function offered to the model for
// Call-Choose/Call-Form/note_select coercion (spec.md §4.9).
type FunctionSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema
}

// FunctionCall is the model's decision to invoke one FunctionSpec.
type FunctionCall struct {
	Name      string
	Arguments string // raw JSON
}

// Options configures one completion request.
type Options struct {
	Model          string
	Temperature    float64
	HasTemperature bool
	TopP           float64
	HasTopP        bool
	MaxTokens      int
	Stop           []string
	Functions      []FunctionSpec
	ForceFunction  string // non-empty pins the model to one FunctionSpec by name
}

// Completion is the provider-neutral result of one request.
type Completion struct {
	Text             string
	FunctionCall     *FunctionCall
	PromptTokens     int
	CompletionTokens int
}

// StreamFunc receives one incremental text delta.
type StreamFunc func(delta string)

// Provider is the completion contract every LLM backend implements
// (spec.md §6). Call-node behaviors depend only on this interface, never
// on a concrete SDK type.
type Provider interface {
	Complete(ctx context.Context, messages []Message, opts Options) (Completion, error)
	Stream(ctx context.Context, messages []Message, opts Options, onDelta StreamFunc) (Completion, error)
}
