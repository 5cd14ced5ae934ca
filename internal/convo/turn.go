// Package convo holds conversation state and the orchestrator that turns
// user input into routed, persona-scoped exchanges with optional video
// generation.
package convo

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/lumenworks/sage/internal/persona"
)

// Sender identifies who produced a turn.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderAgent Sender = "agent"
)

// VideoStatus is the per-turn video lifecycle. It is monotonic:
// idle → generating → done|error, never backwards.
type VideoStatus string

const (
	VideoIdle       VideoStatus = "idle"
	VideoGenerating VideoStatus = "generating"
	VideoDone       VideoStatus = "done"
	VideoError      VideoStatus = "error"
)

// Turn is one message in a conversation. Agent turns may carry an
// extracted directive and the state of the video job it spawned.
type Turn struct {
	ID          string
	Sender      Sender
	Text        string
	Pending     bool // agent placeholder awaiting the provider reply
	Directive   string
	JobID       string
	VideoStatus VideoStatus
	VideoHandle string // local path or URL once the job is done
	VideoErr    string
}

// Conversation is an append-only turn sequence bound to one persona for
// its lifetime. The orchestrator owns all mutation.
type Conversation struct {
	Persona persona.Persona
	turns   []*Turn
}

func (c *Conversation) append(t *Turn) { c.turns = append(c.turns, t) }

func (c *Conversation) byID(id string) *Turn {
	for _, t := range c.turns {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// NewID generates a ULID for turns and jobs.
func NewID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate ulid: %w", err)
	}
	return id.String(), nil
}

// EventKind tags what changed.
type EventKind string

const (
	// EventReset fires when a conversation starts or is discarded.
	EventReset EventKind = "reset"
	// EventTurnAppended fires for every new turn, user and agent alike.
	EventTurnAppended EventKind = "turn_appended"
	// EventTurnUpdated fires when an existing turn's text or video state
	// changes; the turn is identified by Turn.ID.
	EventTurnUpdated EventKind = "turn_updated"
	// EventRouting carries the advisory routing status message.
	EventRouting EventKind = "routing"
)

// Event is delivered to subscribers. Turn is a copy; mutating it has no
// effect on conversation state.
type Event struct {
	Kind    EventKind
	Turn    Turn
	Persona persona.Persona // set on EventReset and routing matches
	Message string          // routing status text
}
