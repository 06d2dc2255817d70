package chat

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrBlankInput        = errors.New("question is blank")
	ErrExchangeInFlight  = errors.New("an answer is still pending")
	ErrNoPendingExchange = errors.New("no exchange is pending")
)

// State is the exchange status of a conversation.
type State int

const (
	StateIdle State = iota
	StateAwaitingResponse
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingResponse:
		return "awaiting_response"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Conversation is an append-only transcript with at most one exchange in
// flight. It is not safe for concurrent use; owners serialise access.
type Conversation struct {
	messages []Message
	nextID   int
	state    State
	pending  string
	now      func() time.Time
}

// NewConversation starts a transcript holding the greeting message.
func NewConversation() *Conversation {
	return newConversation(func() time.Time { return time.Now().UTC() })
}

func newConversation(now func() time.Time) *Conversation {
	c := &Conversation{
		messages: make([]Message, 0, 16),
		nextID:   1,
		now:      now,
	}
	c.append(RoleSystem, Greeting, false)
	return c
}

// Submit records a user question and moves to awaiting_response. Blank
// input and submissions during a pending exchange leave the conversation
// untouched.
func (c *Conversation) Submit(input string) (Message, error) {
	if strings.TrimSpace(input) == "" {
		return Message{}, ErrBlankInput
	}
	if c.state == StateAwaitingResponse {
		return Message{}, ErrExchangeInFlight
	}

	msg := c.append(RoleUser, input, false)
	c.state = StateAwaitingResponse
	c.pending = input
	return msg, nil
}

// Resolve appends the answer to the pending question.
func (c *Conversation) Resolve(answer string) (Message, error) {
	if c.state != StateAwaitingResponse {
		return Message{}, ErrNoPendingExchange
	}

	msg := c.append(RoleSystem, answer, false)
	c.finish()
	return msg, nil
}

// Fail appends a flagged error entry for the pending question.
func (c *Conversation) Fail(reason string) (Message, error) {
	if c.state != StateAwaitingResponse {
		return Message{}, ErrNoPendingExchange
	}

	msg := c.append(RoleSystem, FormatError(reason), true)
	c.finish()
	return msg, nil
}

// Abandon drops the pending exchange without recording a reply.
func (c *Conversation) Abandon() {
	c.finish()
}

// FormatError renders a failed exchange the way the transcript shows it.
func FormatError(reason string) string {
	return fmt.Sprintf("Error: %s. Please try again.", reason)
}

// State returns the current exchange state.
func (c *Conversation) State() State {
	return c.state
}

// Pending returns the question awaiting an answer, if any.
func (c *Conversation) Pending() (string, bool) {
	return c.pending, c.state == StateAwaitingResponse
}

// Len returns the number of transcript entries.
func (c *Conversation) Len() int {
	return len(c.messages)
}

// Messages returns a copy of the transcript, oldest first.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *Conversation) append(role Role, content string, isError bool) Message {
	msg := Message{
		ID:        c.nextID,
		Role:      role,
		Content:   content,
		IsError:   isError,
		CreatedAt: c.now(),
	}
	c.nextID++
	c.messages = append(c.messages, msg)
	return msg
}

func (c *Conversation) finish() {
	c.state = StateIdle
	c.pending = ""
}
