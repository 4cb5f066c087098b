package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockProviderRepeatsLastResponse(t *testing.T) {
	p := NewMockProvider(Completion{Text: "first"}, Completion{Text: "second"})

	c1, err := p.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "first", c1.Text)

	c2, _ := p.Complete(context.Background(), nil, Options{})
	assert.Equal(t, "second", c2.Text)

	c3, _ := p.Complete(context.Background(), nil, Options{})
	assert.Equal(t, "second", c3.Text, "exhausted mock repeats its last scripted response")

	assert.Len(t, p.Calls(), 3)
}

func TestMockProviderFailNext(t *testing.T) {
	p := NewMockProvider(Completion{Text: "ok"})
	p.FailNext(assert.AnError)

	_, err := p.Complete(context.Background(), nil, Options{})
	assert.ErrorIs(t, err, assert.AnError)

	c, err := p.Complete(context.Background(), nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, "ok", c.Text)
}

func TestMockProviderStreamInvokesCallback(t *testing.T) {
	p := NewMockProvider(Completion{Text: "streamed"})
	var got string
	c, err := p.Stream(context.Background(), nil, Options{}, func(delta string) { got += delta })
	require.NoError(t, err)
	assert.Equal(t, "streamed", c.Text)
	assert.Equal(t, "streamed", got)
}
