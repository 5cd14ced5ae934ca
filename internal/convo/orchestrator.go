package convo

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/lumenworks/sage/internal/job"
	"github.com/lumenworks/sage/internal/persona"
	"github.com/lumenworks/sage/internal/session"
)

// Session is the persona-scoped exchange the orchestrator drives.
type Session interface {
	Start(p persona.Persona)
	Send(ctx context.Context, text string) (session.Reply, error)
}

// Router picks the best persona for a free-form question.
type Router interface {
	FindBest(ctx context.Context, question string, candidates []persona.Persona) (persona.Persona, bool)
}

// JobRunner tracks one video generation job to a terminal result.
type JobRunner interface {
	Submit(ctx context.Context, prompt string) error
	Await(ctx context.Context) job.Result
}

// JobFactory creates a fresh runner per directive; each runner owns
// exactly one job.
type JobFactory func(jobID string) JobRunner

// Orchestrator coordinates the session, router, and job trackers, and is
// the sole mutator of conversation state. UI surfaces subscribe to its
// event stream and submit input through SelectPersona, Ask, and
// FindBestPersona.
type Orchestrator struct {
	session  Session
	router   Router
	newJob   JobFactory
	personas []persona.Persona
	log      *slog.Logger
	baseCtx  context.Context // outlives individual requests; cancelled on shutdown

	mu         sync.Mutex
	conv       *Conversation
	convCtx    context.Context
	convCancel context.CancelFunc
	busy       bool
	subs       []func(Event)

	videoWG sync.WaitGroup
}

// New wires an orchestrator. baseCtx bounds the lifetime of all video
// polling goroutines; cancel it on shutdown.
func New(baseCtx context.Context, sess Session, rtr Router, newJob JobFactory, personas []persona.Persona, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		session:  sess,
		router:   rtr,
		newJob:   newJob,
		personas: personas,
		log:      logger,
		baseCtx:  baseCtx,
	}
}

// Subscribe registers a listener for conversation events. Listeners are
// invoked outside the orchestrator lock, in registration order.
func (o *Orchestrator) Subscribe(fn func(Event)) {
	o.mu.Lock()
	o.subs = append(o.subs, fn)
	o.mu.Unlock()
}

func (o *Orchestrator) emit(e Event) {
	o.mu.Lock()
	subs := make([]func(Event), len(o.subs))
	copy(subs, o.subs)
	o.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

// Personas returns the routing candidate list.
func (o *Orchestrator) Personas() []persona.Persona { return o.personas }

// Snapshot returns a copy of the current turn list.
func (o *Orchestrator) Snapshot() []Turn {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.conv == nil {
		return nil
	}
	out := make([]Turn, len(o.conv.turns))
	for i, t := range o.conv.turns {
		out[i] = *t
	}
	return out
}

// SelectPersona discards any current conversation, starts a fresh session
// bound to p, and seeds the greeting turn. A non-blank seedQuestion is
// immediately driven through Ask.
func (o *Orchestrator) SelectPersona(ctx context.Context, p persona.Persona, seedQuestion string) error {
	o.mu.Lock()
	if o.convCancel != nil {
		o.convCancel() // stops polling owned by the abandoned conversation
	}
	o.convCtx, o.convCancel = context.WithCancel(o.baseCtx)
	o.conv = &Conversation{Persona: p}
	o.busy = false
	o.session.Start(p)

	var greeting *Turn
	if p.Greeting != "" {
		id, err := NewID()
		if err != nil {
			o.mu.Unlock()
			return err
		}
		greeting = &Turn{ID: id, Sender: SenderAgent, Text: p.Greeting, VideoStatus: VideoIdle}
		o.conv.append(greeting)
	}
	o.mu.Unlock()

	o.log.InfoContext(ctx, "Persona selected", "persona", p.ID)
	o.emit(Event{Kind: EventReset, Persona: p})
	if greeting != nil {
		o.emit(Event{Kind: EventTurnAppended, Turn: *greeting})
	}

	if strings.TrimSpace(seedQuestion) != "" {
		return o.Ask(ctx, seedQuestion)
	}
	return nil
}

// Reset discards the conversation, as when the user returns to persona
// selection. Owned polling tasks are cancelled; no further events for
// their turns are delivered.
func (o *Orchestrator) Reset() {
	o.mu.Lock()
	if o.convCancel != nil {
		o.convCancel()
		o.convCancel = nil
	}
	o.conv = nil
	o.busy = false
	o.mu.Unlock()
	o.emit(Event{Kind: EventReset})
}

// Close cancels all owned work and waits for video goroutines to exit.
func (o *Orchestrator) Close() {
	o.Reset()
	o.videoWG.Wait()
}

// Ask appends the user turn and a pending agent turn, sends the text to
// the session, and resolves the agent turn with the reply. A blank input
// is a no-op, as is an Ask issued while another is still pending (the
// overlapping call is dropped, matching the busy-guard contract). When
// the reply carries a directive, a video job is spawned; its completion
// later updates the same agent turn by ID, regardless of how many turns
// were appended meanwhile.
func (o *Orchestrator) Ask(ctx context.Context, userText string) error {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return nil
	}

	o.mu.Lock()
	if o.conv == nil {
		o.mu.Unlock()
		return session.ErrNotStarted
	}
	if o.busy {
		o.mu.Unlock()
		o.log.InfoContext(ctx, "Ask dropped: previous ask still pending")
		return nil
	}
	o.busy = true

	userID, err := NewID()
	if err != nil {
		o.busy = false
		o.mu.Unlock()
		return err
	}
	agentID, err := NewID()
	if err != nil {
		o.busy = false
		o.mu.Unlock()
		return err
	}

	userTurn := &Turn{ID: userID, Sender: SenderUser, Text: userText, VideoStatus: VideoIdle}
	agentTurn := &Turn{ID: agentID, Sender: SenderAgent, Pending: true, VideoStatus: VideoIdle}
	o.conv.append(userTurn)
	o.conv.append(agentTurn)
	conv := o.conv
	convCtx := o.convCtx
	o.mu.Unlock()

	o.emit(Event{Kind: EventTurnAppended, Turn: *userTurn})
	o.emit(Event{Kind: EventTurnAppended, Turn: *agentTurn})
	return o.resolve(ctx, convCtx, conv, agentID, userText)
}

// resolve performs the session send and finalizes the pending agent turn.
// The busy guard is released only if conv is still current: a send that
// outlives its conversation must not unlock asks that belong to a
// successor conversation.
func (o *Orchestrator) resolve(ctx, convCtx context.Context, conv *Conversation, agentID, userText string) error {
	reply, err := o.session.Send(ctx, userText)

	o.mu.Lock()
	if o.conv == conv {
		o.busy = false
	}
	t := o.turnByIDLocked(agentID)
	if t == nil {
		// Conversation was discarded mid-send; nothing left to update.
		o.mu.Unlock()
		return err
	}
	if err != nil {
		t.Pending = false
		t.Text = "Something went wrong before I could answer."
		updated := *t
		o.mu.Unlock()
		o.emit(Event{Kind: EventTurnUpdated, Turn: updated})
		return err
	}

	t.Pending = false
	t.Text = reply.CleanText

	var jobID string
	if reply.Directive != "" {
		id, idErr := NewID()
		if idErr != nil {
			o.log.Warn("Dropping directive, could not generate job id", "error", idErr)
		} else {
			jobID = id
			t.Directive = reply.Directive
			t.JobID = jobID
			t.VideoStatus = VideoGenerating
		}
	}
	updated := *t
	o.mu.Unlock()

	o.emit(Event{Kind: EventTurnUpdated, Turn: updated})

	if jobID != "" {
		o.videoWG.Add(1)
		go o.runVideoJob(convCtx, jobID, agentID, updated.Directive)
	}
	return nil
}

// runVideoJob drives one tracker and reconciles the terminal result back
// into the originating turn. It runs on the conversation context, so
// discarding the conversation stops polling without touching state.
func (o *Orchestrator) runVideoJob(ctx context.Context, jobID, turnID, prompt string) {
	defer o.videoWG.Done()

	tracker := o.newJob(jobID)
	if err := tracker.Submit(ctx, prompt); err != nil {
		o.log.WarnContext(ctx, "Video job submit failed", "job_id", jobID, "error", err)
		o.completeVideo(turnID, "", err.Error())
		return
	}

	res := tracker.Await(ctx)
	if ctx.Err() != nil {
		return // conversation discarded; no partial artifact is exposed
	}
	if res.Err != nil {
		o.log.WarnContext(ctx, "Video job failed", "job_id", jobID, "error", res.Err)
		o.completeVideo(turnID, "", res.Err.Error())
		return
	}
	o.completeVideo(turnID, res.Handle, "")
}

// completeVideo moves a turn from generating to its terminal video state.
// The turn is located by ID so later appends cannot misdirect the update,
// and the transition is ignored unless the turn is still generating.
func (o *Orchestrator) completeVideo(turnID, handle, errMsg string) {
	o.mu.Lock()
	t := o.turnByIDLocked(turnID)
	if t == nil || t.VideoStatus != VideoGenerating {
		o.mu.Unlock()
		return
	}
	if errMsg != "" {
		t.VideoStatus = VideoError
		t.VideoErr = errMsg
	} else {
		t.VideoStatus = VideoDone
		t.VideoHandle = handle
	}
	updated := *t
	o.mu.Unlock()
	o.emit(Event{Kind: EventTurnUpdated, Turn: updated})
}

func (o *Orchestrator) turnByIDLocked(id string) *Turn {
	if o.conv == nil {
		return nil
	}
	return o.conv.byID(id)
}

// FindBestPersona routes a free-form question. On a match it reports the
// choice and immediately selects the persona with the question as seed;
// on no match it reports an advisory message and leaves state untouched.
func (o *Orchestrator) FindBestPersona(ctx context.Context, question string) (persona.Persona, bool, error) {
	p, ok := o.router.FindBest(ctx, question, o.personas)
	if !ok {
		o.emit(Event{Kind: EventRouting, Message: "No single persona stands out for that one. Pick whoever you like."})
		return persona.Persona{}, false, nil
	}

	o.emit(Event{Kind: EventRouting, Persona: p, Message: p.Name + " looks like the right fit. Connecting you..."})
	if err := o.SelectPersona(ctx, p, question); err != nil {
		return persona.Persona{}, false, err
	}
	return p, true, nil
}
