// Package chat holds the conversation state of the chat view: the draft, the
// append-only history and the awaiting-response flag. It knows nothing about the
// terminal; internal/tui drives it from the bubbletea update loop.
package chat

import (
	"context"
	"strings"

	"recipechat/internal/models"
)

// ErrorReply is the bot message appended when a request fails for any reason.
const ErrorReply = "Error: Could not connect to the chatbot. Make sure the backend is running."

// KeySubmit is the key that submits the draft when pressed without the modifier.
const KeySubmit = "enter"

// Sender performs the outbound chat request.
type Sender interface {
	Send(ctx context.Context, query string) (string, error)
}

// Request is a submission waiting for its reply.
type Request struct {
	Query string
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Draft    string
	History  []models.Message
	Awaiting bool
}

// Session is the state holder of the chat view. It is not safe for concurrent use;
// all mutations happen on the UI event loop.
type Session struct {
	draft    string
	history  []models.Message
	awaiting bool
	hooks    []func(Snapshot)
}

func NewSession() *Session {
	return &Session{}
}

// OnCommit registers a hook that runs synchronously after every committed mutation.
func (s *Session) OnCommit(hook func(Snapshot)) {
	if hook == nil {
		return
	}
	s.hooks = append(s.hooks, hook)
}

// UpdateDraft replaces the draft text.
func (s *Session) UpdateDraft(text string) {
	if s.draft == text {
		return
	}
	s.draft = text
	s.commit()
}

func (s *Session) Draft() string  { return s.draft }
func (s *Session) Awaiting() bool { return s.awaiting }
func (s *Session) Len() int       { return len(s.history) }

// CanSubmit reports whether Submit would start a request.
func (s *Session) CanSubmit() bool {
	return !s.awaiting && strings.TrimSpace(s.draft) != ""
}

// Submit appends the draft as a user message and marks the session as awaiting.
// It is a no-op returning false for a blank draft or while a request is in flight.
// The draft itself is kept until Resolve.
func (s *Session) Submit() (*Request, bool) {
	if !s.CanSubmit() {
		return nil, false
	}
	query := s.draft
	s.history = append(s.history, models.Message{Role: models.RoleUser, Content: query})
	s.awaiting = true
	s.commit()
	return &Request{Query: query}, true
}

// Resolve settles the in-flight request: the reply, or ErrorReply when err is set,
// becomes a bot message, the draft is cleared and the session becomes idle.
// Without a pending request it does nothing.
func (s *Session) Resolve(reply string, err error) {
	if !s.awaiting {
		return
	}
	content := reply
	if err != nil {
		content = ErrorReply
	}
	s.history = append(s.history, models.Message{Role: models.RoleBot, Content: content})
	s.draft = ""
	s.awaiting = false
	s.commit()
}

// KeyPress handles a key event. The submit key without the modifier submits the
// draft; suppress reports that the default newline insertion must be skipped.
func (s *Session) KeyPress(key string, modifier bool) (req *Request, suppress bool) {
	if key != KeySubmit || modifier {
		return nil, false
	}
	req, _ = s.Submit()
	return req, true
}

// Exchange runs a whole submission synchronously against sender.
func (s *Session) Exchange(ctx context.Context, sender Sender) bool {
	req, ok := s.Submit()
	if !ok {
		return false
	}
	reply, err := sender.Send(ctx, req.Query)
	s.Resolve(reply, err)
	return true
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	history := make([]models.Message, len(s.history))
	copy(history, s.history)
	return Snapshot{Draft: s.draft, History: history, Awaiting: s.awaiting}
}

func (s *Session) commit() {
	if len(s.hooks) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, hook := range s.hooks {
		hook(snap)
	}
}
