package router

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenworks/sage/internal/persona"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func testCandidates() []persona.Persona {
	return []persona.Persona{
		{Name: "Ada", Summary: "Mathematics and early computing."},
		{Name: "Grace", Summary: "Compilers and software engineering."},
	}
}

func TestFindBest(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		err      error
		wantName string
		wantOK   bool
	}{
		{name: "exact match", reply: "Grace", wantName: "Grace", wantOK: true},
		{name: "case-insensitive match", reply: "grace", wantName: "Grace", wantOK: true},
		{name: "match with surrounding noise", reply: "  \"Ada\".\n", wantName: "Ada", wantOK: true},
		{name: "quote inside trailing period", reply: "'Grace.'", wantName: "Grace", wantOK: true},
		{name: "literal none", reply: "none"},
		{name: "uppercase none", reply: "None"},
		{name: "unknown persona is never fabricated", reply: "Napoleon"},
		{name: "empty reply", reply: "   "},
		{name: "provider failure fails open", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{reply: tt.reply, err: tt.err}
			r := New(gen, slog.New(slog.DiscardHandler))

			got, ok := r.FindBest(context.Background(), "who invented the compiler?", testCandidates())
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantName, got.Name)
		})
	}
}

func TestFindBestPromptEnumeratesCandidates(t *testing.T) {
	gen := &fakeGenerator{reply: "none"}
	r := New(gen, slog.New(slog.DiscardHandler))

	_, ok := r.FindBest(context.Background(), "why is the sky blue?", testCandidates())
	require.False(t, ok)

	assert.Contains(t, gen.lastPrompt, "- Ada: Mathematics and early computing.")
	assert.Contains(t, gen.lastPrompt, "- Grace: Compilers and software engineering.")
	assert.Contains(t, gen.lastPrompt, "why is the sky blue?")
	assert.True(t, strings.Contains(gen.lastPrompt, "none"))
}

func TestFindBestEmptyCandidates(t *testing.T) {
	gen := &fakeGenerator{reply: "Ada"}
	r := New(gen, slog.New(slog.DiscardHandler))

	_, ok := r.FindBest(context.Background(), "anything", nil)
	assert.False(t, ok)
	assert.Empty(t, gen.lastPrompt, "no provider call should be made without candidates")
}
