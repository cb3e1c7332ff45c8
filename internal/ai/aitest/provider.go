// Package aitest provides a scripted ai.Provider for tests.
package aitest

import (
	"context"
	"sync"

	"tripgenie/internal/ai"
)

// Reply is one scripted provider answer.
type Reply struct {
	Text  string
	Err   error
	Usage ai.Usage
	// Block makes the call wait for ctx to finish.
	Block bool
}

// Text returns a successful reply with a small fixed token usage.
func Text(s string) Reply {
	return Reply{Text: s, Usage: ai.Usage{InputTokens: 100, OutputTokens: 50}}
}

// Provider replays replies in order; the last reply repeats once the script runs out.
type Provider struct {
	mu       sync.Mutex
	replies  []Reply
	requests []ai.Request
}

func NewProvider(replies ...Reply) *Provider {
	return &Provider{replies: replies}
}

func (p *Provider) Name() string { return "scripted" }

func (p *Provider) Generate(ctx context.Context, req ai.Request) (*ai.Response, error) {
	p.mu.Lock()
	idx := len(p.requests)
	p.requests = append(p.requests, req)
	var r Reply
	switch {
	case len(p.replies) == 0:
		r = Reply{Text: "{}"}
	case idx < len(p.replies):
		r = p.replies[idx]
	default:
		r = p.replies[len(p.replies)-1]
	}
	p.mu.Unlock()

	if r.Block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if r.Err != nil {
		return nil, r.Err
	}
	return &ai.Response{Text: r.Text, Model: req.Model, Usage: r.Usage}, nil
}

// Calls is the number of Generate invocations so far.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of every request received.
func (p *Provider) Requests() []ai.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ai.Request(nil), p.requests...)
}
