// Package fake provides in-memory implementations of the core capabilities for tests.
package fake

import (
	"context"
	"errors"
	"sync"

	"github.com/sandevgo/hashia/internal/core"
)

var ErrFake = errors.New("fake failure")

// Completer returns Reply (or Err) and records every request.
type Completer struct {
	mu       sync.Mutex
	Reply    string
	Err      error
	Requests []core.CompletionRequest
	// OnComplete, when set, runs before the reply is returned.
	OnComplete func(ctx context.Context)
}

func (c *Completer) Complete(ctx context.Context, req core.CompletionRequest) (string, error) {
	if c.OnComplete != nil {
		c.OnComplete(ctx)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Requests = append(c.Requests, req)
	return c.Reply, c.Err
}

func (c *Completer) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Requests)
}

// Downloader returns Image (or Err).
type Downloader struct {
	mu    sync.Mutex
	Image core.InlineImage
	Err   error
	URLs  []string
}

func (d *Downloader) DownloadImage(ctx context.Context, url string) (core.InlineImage, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.URLs = append(d.URLs, url)
	return d.Image, d.Err
}

// Searcher returns URLs (or Err).
type Searcher struct {
	mu      sync.Mutex
	URLs    []string
	Err     error
	Queries []string
}

func (s *Searcher) Search(ctx context.Context, query string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Queries = append(s.Queries, query)
	return s.URLs, s.Err
}

// Call is one outbound Messenger call.
type Call struct {
	Kind        string // text, images, typing_on, typing_off
	RecipientID string
	Text        string
	URLs        []string
}

// Messenger records outbound calls. Errors can be injected per call kind.
type Messenger struct {
	mu    sync.Mutex
	calls []Call
	Fail  map[string]error
}

func (m *Messenger) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.Fail[c.Kind]; err != nil {
		return err
	}
	m.calls = append(m.calls, c)
	return nil
}

func (m *Messenger) SendText(ctx context.Context, recipientID, text string) error {
	return m.record(Call{Kind: "text", RecipientID: recipientID, Text: text})
}

func (m *Messenger) SendImages(ctx context.Context, recipientID string, urls []string) error {
	return m.record(Call{Kind: "images", RecipientID: recipientID, URLs: append([]string(nil), urls...)})
}

func (m *Messenger) TypingOn(ctx context.Context, recipientID string) error {
	return m.record(Call{Kind: "typing_on", RecipientID: recipientID})
}

func (m *Messenger) TypingOff(ctx context.Context, recipientID string) error {
	return m.record(Call{Kind: "typing_off", RecipientID: recipientID})
}

// Calls returns the successful calls in order.
func (m *Messenger) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Texts returns the delivered texts in order.
func (m *Messenger) Texts() []string {
	var texts []string
	for _, c := range m.Calls() {
		if c.Kind == "text" {
			texts = append(texts, c.Text)
		}
	}
	return texts
}
