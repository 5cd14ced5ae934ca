package persona

import "strings"

// Persona defines a conversational character: identity, routing summary,
// and the system instruction that shapes every reply.
type Persona struct {
	ID                string // stable identifier, e.g. "ada-lovelace"
	Name              string // display name shown in the turn list and used by the router
	Summary           string // one-line capability summary fed to the routing prompt
	SystemInstruction string // full persona-defining instruction for the chat session
	Greeting          string // optional opening line, seeded as the first agent turn
}

// All returns the built-in persona catalog. The slice is rebuilt on each
// call so callers can reorder it freely; the Persona values themselves are
// shared and must be treated as read-only.
func All() []Persona {
	return []Persona{AdaLovelace, GraceHopper, AlbertEinstein, MarieCurie, RichardFeynman}
}

// ByID looks up a persona by its identifier.
func ByID(id string) (Persona, bool) {
	for _, p := range All() {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// ByName looks up a persona by display name, case-insensitively.
func ByName(name string) (Persona, bool) {
	name = strings.TrimSpace(name)
	for _, p := range All() {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return Persona{}, false
}
