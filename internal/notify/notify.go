// Package notify delivers best-effort marketplace notifications. Delivery is
// fire-and-forget by contract: a failed send is logged and never fails or
// rolls back the operation that triggered it.
package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// Message is one outbound notification
type Message struct {
	ID      string       `json:"id"`
	To      []domain.DID `json:"to"`
	CC      []domain.DID `json:"cc,omitempty"`
	Subject string       `json:"subject"`
	Body    string       `json:"body"`
	Created time.Time    `json:"created"`
}

// Notifier creates and sends notification messages
//
//go:generate mockgen -source=notify.go -destination=../mocks/notifier.go -package=mocks -mock_names=Notifier=MockNotifier
type Notifier interface {
	// CreateMessage stages a message and returns its id
	CreateMessage(to, cc []domain.DID, subject, body string) (string, error)
	// Send delivers a previously created message by id
	Send(ctx context.Context, id string) error
}

// pending tracks staged messages between CreateMessage and Send
type pending struct {
	mu       sync.Mutex
	messages map[string]*Message
}

func newPending() *pending {
	return &pending{messages: make(map[string]*Message)}
}

func (p *pending) add(msg *Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages[msg.ID] = msg
}

func (p *pending) take(id string) (*Message, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg, ok := p.messages[id]
	if !ok {
		return nil, fmt.Errorf("message %s: %w", id, domain.ErrNotFound)
	}
	delete(p.messages, id)
	return msg, nil
}

func newMessage(to, cc []domain.DID, subject, body string) *Message {
	return &Message{
		ID:      ulid.Make().String(),
		To:      to,
		CC:      cc,
		Subject: subject,
		Body:    body,
		Created: time.Now().UTC(),
	}
}

// Noop is a Notifier that discards everything; used when no broker is
// configured
type Noop struct{}

func (Noop) CreateMessage(_, _ []domain.DID, _, _ string) (string, error) {
	return ulid.Make().String(), nil
}

func (Noop) Send(context.Context, string) error {
	return nil
}
