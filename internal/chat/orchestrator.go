// Package chat keeps an append-only conversation transcript with the
// assistant endpoint.
package chat

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlpilot/internal/api"
)

// Role identifies the author of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the transcript. IDs are monotonic within a
// conversation; entries are never edited or removed once appended.
type Message struct {
	ID   uint64
	Role Role
	Text string
	At   time.Time
}

const (
	// Greeting seeds every new conversation.
	Greeting = "Hi! I'm your SQL assistant. Ask me anything about your data."

	emptyReply = "Sorry, I couldn't process that. Please try again."
	errorReply = "Sorry, I encountered an error. Please try again later."
)

// Orchestrator owns the transcript. The user message is appended before
// the request goes out, so a failed exchange still shows what was asked,
// answered by the apology reply.
type Orchestrator struct {
	client *api.Client
	logger *slog.Logger
	now    func() time.Time

	nextID   uint64
	messages []Message
	busy     bool
}

func New(client *api.Client, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	o := &Orchestrator{client: client, logger: logger, now: time.Now}
	o.append(RoleAssistant, Greeting)
	return o
}

// Messages returns the transcript in append order.
func (o *Orchestrator) Messages() []Message {
	out := make([]Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// Busy reports whether an exchange is in flight.
func (o *Orchestrator) Busy() bool { return o.busy }

// Send appends text as a user message and the assistant's reply after it.
// Blank input and calls made while an exchange is in flight are ignored.
// The returned slice holds the messages this call appended.
func (o *Orchestrator) Send(ctx context.Context, text string) []Message {
	text = strings.TrimSpace(text)
	if text == "" || o.busy {
		return nil
	}

	o.busy = true
	defer func() { o.busy = false }()

	user := o.append(RoleUser, text)

	reply, err := o.client.Chat(ctx, text)
	if err != nil {
		o.logger.Warn("chat request failed", "error", err)
		return []Message{user, o.append(RoleAssistant, errorReply)}
	}
	if strings.TrimSpace(reply) == "" {
		reply = emptyReply
	}
	return []Message{user, o.append(RoleAssistant, reply)}
}

func (o *Orchestrator) append(role Role, text string) Message {
	o.nextID++
	m := Message{ID: o.nextID, Role: role, Text: text, At: o.now()}
	o.messages = append(o.messages, m)
	return m
}
