package mcpserver

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/persona"
	"github.com/lumenworks/sage/internal/session"
)

type echoChat struct {
	system string
}

func (c *echoChat) Send(ctx context.Context, text string) (string, error) {
	return "echo: " + text, nil
}

type echoProvider struct {
	lastSystem string
}

func (p *echoProvider) NewChat(systemInstruction string) session.Chat {
	p.lastSystem = systemInstruction
	return &echoChat{system: systemInstruction}
}

func TestConvStoreOpenAndGet(t *testing.T) {
	provider := &echoProvider{}
	store := NewConvStore(provider, slog.New(slog.DiscardHandler))

	p, ok := persona.ByID("marie-curie")
	require.True(t, ok)

	conv, err := store.Open(p)
	require.NoError(t, err)
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "marie-curie", conv.Persona.ID)
	assert.Contains(t, provider.lastSystem, "Marie Curie")

	got, ok := store.Get(conv.ID)
	require.True(t, ok)
	assert.Same(t, conv, got)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConversationSend(t *testing.T) {
	store := NewConvStore(&echoProvider{}, slog.New(slog.DiscardHandler))
	p, _ := persona.ByID("richard-feynman")

	conv, err := store.Open(p)
	require.NoError(t, err)

	reply, err := conv.Send(context.Background(), "why do mirrors flip left and right?")
	require.NoError(t, err)
	assert.Equal(t, "echo: why do mirrors flip left and right?", reply.CleanText)
	assert.Empty(t, reply.Directive)
}
