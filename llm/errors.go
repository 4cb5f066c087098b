package llm

import "errors"

// ErrEmptyResponse is returned when a provider responds with zero choices.
var ErrEmptyResponse = errors.New("llm: provider returned no choices")
