package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/persona"
)

type fakeChat struct {
	replies []string
	err     error
	sent    []string
	system  string
}

func (f *fakeChat) Send(_ context.Context, text string) (string, error) {
	f.sent = append(f.sent, text)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return reply, nil
}

type fakeProvider struct {
	chat *fakeChat
}

func (f *fakeProvider) NewChat(systemInstruction string) Chat {
	f.chat.system = systemInstruction
	return f.chat
}

func newTestSession(chat *fakeChat) *Session {
	return New(&fakeProvider{chat: chat}, slog.New(slog.DiscardHandler))
}

func TestSendBeforeStart(t *testing.T) {
	s := newTestSession(&fakeChat{replies: []string{"hi"}})

	_, err := s.Send(context.Background(), "hello")
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestStartBindsSystemInstruction(t *testing.T) {
	chat := &fakeChat{replies: []string{"hi"}}
	s := newTestSession(chat)

	s.Start(persona.Persona{Name: "Ada", SystemInstruction: "You are Ada."})
	assert.Equal(t, "You are Ada.", chat.system)
}

func TestSendExtractsDirective(t *testing.T) {
	chat := &fakeChat{replies: []string{
		"Light bends near mass.<VIDEO_PROMPT>\nA glowing orb warps a grid of light.\n</VIDEO_PROMPT>",
	}}
	s := newTestSession(chat)
	s.Start(persona.AlbertEinstein)

	reply, err := s.Send(context.Background(), "does light bend?")
	require.NoError(t, err)
	assert.Equal(t, "Light bends near mass.", reply.CleanText)
	assert.Equal(t, "A glowing orb warps a grid of light.", reply.Directive)
}

func TestSendWithoutDirective(t *testing.T) {
	chat := &fakeChat{replies: []string{"  Plain answer.  "}}
	s := newTestSession(chat)
	s.Start(persona.AdaLovelace)

	reply, err := s.Send(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, "Plain answer.", reply.CleanText)
	assert.Empty(t, reply.Directive)
}

func TestSendProviderFailureDegradesToApology(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	s := newTestSession(chat)
	s.Start(persona.GraceHopper)

	reply, err := s.Send(context.Background(), "first")
	require.NoError(t, err, "provider failures must not propagate")
	assert.NotEmpty(t, reply.CleanText)
	assert.Empty(t, reply.Directive)

	// The session stays usable for the next turn.
	chat.err = nil
	chat.replies = []string{"recovered"}
	reply, err = s.Send(context.Background(), "second")
	require.NoError(t, err)
	assert.Equal(t, "recovered", reply.CleanText)
}
