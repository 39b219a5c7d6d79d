package model

import (
	"context"
	"fmt"
	"sync"

	"github.com/viktorbezdek/sw4rm/core"
)

// MockProvider is a lightweight in-memory Provider useful for tests and
// examples. Completions and chunk scripts are consumed in FIFO order; every
// received request is recorded for assertions.
type MockProvider struct {
	mu          sync.Mutex
	completions []queuedCompletion
	streams     []queuedStream
	requests    []Request
}

type queuedCompletion struct {
	completion *Completion
	err        error
}

type queuedStream struct {
	chunks []Chunk
	err    error
}

// NewMockProvider constructs an empty MockProvider.
func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

// QueueCompletion registers the next non-streaming response.
func (p *MockProvider) QueueCompletion(msg core.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions = append(p.completions, queuedCompletion{completion: &Completion{Message: msg}})
}

// QueueError registers the next non-streaming call to fail with err.
func (p *MockProvider) QueueError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.completions = append(p.completions, queuedCompletion{err: err})
}

// QueueStream registers the next streaming response as a fixed chunk script.
func (p *MockProvider) QueueStream(chunks ...Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streams = append(p.streams, queuedStream{chunks: chunks})
}

// QueueStreamError registers the next streaming call to fail after its
// chunks are exhausted.
func (p *MockProvider) QueueStreamError(err error, chunks ...Chunk) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.streams = append(p.streams, queuedStream{chunks: chunks, err: err})
}

// Requests returns the requests observed so far, in order.
func (p *MockProvider) Requests() []Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Request, len(p.requests))
	copy(out, p.requests)
	return out
}

// CreateChatCompletion implements Provider from the queued script.
func (p *MockProvider) CreateChatCompletion(_ context.Context, req Request) (*Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.completions) == 0 {
		return nil, fmt.Errorf("mock provider: no completion queued")
	}
	next := p.completions[0]
	p.completions = p.completions[1:]
	if next.err != nil {
		return nil, next.err
	}
	return next.completion, nil
}

// CreateChatCompletionStream implements Provider from the queued script.
func (p *MockProvider) CreateChatCompletionStream(_ context.Context, req Request) (Stream, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if len(p.streams) == 0 {
		return nil, fmt.Errorf("mock provider: no stream queued")
	}
	next := p.streams[0]
	p.streams = p.streams[1:]
	return &mockStream{chunks: next.chunks, err: next.err}, nil
}

// mockStream replays a fixed chunk script.
type mockStream struct {
	chunks []Chunk
	pos    int
	err    error
}

func (s *mockStream) Next() bool {
	if s.pos >= len(s.chunks) {
		return false
	}
	s.pos++
	return true
}

func (s *mockStream) Current() Chunk { return s.chunks[s.pos-1] }

func (s *mockStream) Err() error {
	if s.pos >= len(s.chunks) {
		return s.err
	}
	return nil
}

func (s *mockStream) Close() error { return nil }
