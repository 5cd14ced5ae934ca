// Package session wraps one persona-scoped chat exchange with the text
// provider and applies directive extraction to every reply.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lumenworks/sage/internal/directive"
	"github.com/lumenworks/sage/internal/genai"
	"github.com/lumenworks/sage/internal/persona"
)

// ErrNotStarted is returned when Send is called before Start. It signals
// a caller bug, not a runtime condition, so it is not converted to
// apology text.
var ErrNotStarted = errors.New("session not started: select a persona first")

// apologyText stands in for a reply when the provider fails mid-turn.
// The session stays usable; the next send proceeds normally.
const apologyText = "I'm sorry, my thoughts escaped me for a moment there. Could you ask me that again?"

// Chat is one provider-side multi-turn exchange.
type Chat interface {
	Send(ctx context.Context, text string) (string, error)
}

// ChatProvider opens chats bound to a system instruction.
type ChatProvider interface {
	NewChat(systemInstruction string) Chat
}

// GeminiProvider adapts the concrete Gemini client to ChatProvider.
type GeminiProvider struct {
	Client *genai.GeminiClient
}

func (p GeminiProvider) NewChat(systemInstruction string) Chat {
	return p.Client.NewChat(systemInstruction)
}

// Reply is the processed result of one agent turn.
type Reply struct {
	CleanText string
	Directive string // extracted video prompt, empty when none was embedded
}

// Session is a single-persona conversation with the provider. Sends are
// serialized by the orchestrator's busy guard; the mutex only protects
// the chat binding, which Start may replace while an abandoned send from
// a previous persona is still in flight.
type Session struct {
	provider ChatProvider
	log      *slog.Logger

	mu   sync.Mutex
	chat Chat
}

func New(provider ChatProvider, logger *slog.Logger) *Session {
	return &Session{provider: provider, log: logger}
}

// Start binds the session to a persona, discarding any prior exchange.
func (s *Session) Start(p persona.Persona) {
	chat := s.provider.NewChat(p.SystemInstruction)
	s.mu.Lock()
	s.chat = chat
	s.mu.Unlock()
}

// Send delivers one user turn and returns the cleaned reply. Provider
// failures are logged and degraded to apology text rather than returned,
// so one bad turn never leaves the session unusable.
func (s *Session) Send(ctx context.Context, text string) (Reply, error) {
	s.mu.Lock()
	chat := s.chat
	s.mu.Unlock()
	if chat == nil {
		return Reply{}, ErrNotStarted
	}

	raw, err := chat.Send(ctx, text)
	if err != nil {
		s.log.WarnContext(ctx, "Chat send failed, returning apology", "error", err)
		return Reply{CleanText: apologyText}, nil
	}

	clean, prompt, ok := directive.Extract(raw)
	if !ok {
		return Reply{CleanText: clean}, nil
	}
	return Reply{CleanText: clean, Directive: prompt}, nil
}
