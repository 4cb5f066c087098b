package graph

// StreamChunk is one increment of an in-progress Call node response,
// broadcast to every ChatResponse outgoing edge as it arrives (spec.md
// §4.7: "each chunk is broadcast to every ChatResponse edge as it
// arrives").
type StreamChunk struct {
	Delta string
	Done  bool
}

// StreamSink receives chunks for a single Call node's streaming response.
// A Call node with at least one ChatResponse outgoing edge runs in
// streaming mode; the node behavior (package node) constructs one Sink
// per run and forwards provider chunks to it as they arrive, then applies
// the final aggregated text to each ChatResponse edge's payload on
// end-of-stream.
type StreamSink struct {
	edges []ID
	fn    func(edgeID ID, chunk StreamChunk)
}

// NewStreamSink creates a sink that calls fn once per (edge, chunk) pair
// for every id in edges, in edges' order, for each chunk received.
func NewStreamSink(edges []ID, fn func(edgeID ID, chunk StreamChunk)) *StreamSink {
	return &StreamSink{edges: edges, fn: fn}
}

// Publish broadcasts chunk to every edge registered with the sink.
func (s *StreamSink) Publish(chunk StreamChunk) {
	if s == nil || s.fn == nil {
		return
	}
	for _, e := range s.edges {
		s.fn(e, chunk)
	}
}

// StreamListener observes in-progress Call node output as it streams,
// independent of the final UpdateEvent emitted when the edge loads
// (spec.md §4.7). Used by CLI/canvas rendering; the scheduler never
// depends on it.
type StreamListener interface {
	OnStream(edgeID ID, chunk StreamChunk)
}

// WithStreamListener registers l for every streamed chunk a run produces.
func WithStreamListener(l StreamListener) CompileOption {
	return func(rc *RunContext) { rc.streamListeners = append(rc.streamListeners, l) }
}

// PublishStream forwards chunk on edgeID to every registered StreamListener.
func (rc *RunContext) PublishStream(edgeID ID, chunk StreamChunk) {
	for _, l := range rc.streamListeners {
		l.OnStream(edgeID, chunk)
	}
}
