// Package router picks the persona best suited to answer a free-form
// question by asking a text model to classify it. Routing is advisory:
// any provider failure degrades to "no suggestion" rather than an error.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/lumenworks/sage/internal/genai"
	"github.com/lumenworks/sage/internal/persona"
)

const routePromptHeader = `You are a routing classifier. A user asked a question and you must pick
which of the listed experts is best suited to answer it.

EXPERTS:
`

const routePromptFooter = `
RULES:
1. Answer with EXACTLY one expert's name from the list, spelled as shown
2. If no expert is a reasonable fit, answer with the single word: none
3. Output nothing else — no punctuation, no explanation

QUESTION:
%s`

// Router classifies questions against a persona candidate list.
type Router struct {
	gen genai.TextGenerator
	log *slog.Logger
}

func New(gen genai.TextGenerator, logger *slog.Logger) *Router {
	return &Router{gen: gen, log: logger}
}

// FindBest returns the candidate whose name the model answered with, or
// ok=false when the model answered "none", answered with an unknown name,
// or the provider call failed. The result is always a member of
// candidates, never a fabricated persona.
func (r *Router) FindBest(ctx context.Context, question string, candidates []persona.Persona) (persona.Persona, bool) {
	if len(candidates) == 0 {
		return persona.Persona{}, false
	}

	reply, err := r.gen.GenerateText(ctx, buildRoutePrompt(question, candidates))
	if err != nil {
		r.log.WarnContext(ctx, "Routing call failed, no suggestion", "error", err)
		return persona.Persona{}, false
	}

	answer := normalizeAnswer(reply)
	if answer == "" || strings.EqualFold(answer, "none") {
		return persona.Persona{}, false
	}

	for _, p := range candidates {
		if strings.EqualFold(p.Name, answer) {
			return p, true
		}
	}

	r.log.WarnContext(ctx, "Router answered with unknown persona", "answer", answer)
	return persona.Persona{}, false
}

func buildRoutePrompt(question string, candidates []persona.Persona) string {
	var b strings.Builder
	b.WriteString(routePromptHeader)
	for _, p := range candidates {
		fmt.Fprintf(&b, "- %s: %s\n", p.Name, p.Summary)
	}
	fmt.Fprintf(&b, routePromptFooter, question)
	return b.String()
}

// normalizeAnswer strips whitespace, surrounding quotes, and trailing
// periods so a slightly chatty model reply still matches. The trims
// repeat until stable because the decorations nest in either order
// (`"Ada".` as well as `"Ada."`).
func normalizeAnswer(reply string) string {
	answer := strings.TrimSpace(reply)
	for {
		trimmed := strings.TrimSpace(strings.Trim(answer, `"'.`))
		if trimmed == answer {
			return answer
		}
		answer = trimmed
	}
}
