package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lumenworks/sage/internal/convo"
	"github.com/lumenworks/sage/internal/persona"
	"github.com/lumenworks/sage/internal/session"
)

// Conversation is one persona-scoped exchange owned by an MCP client.
// Sends are serialized per conversation; clients that fire overlapping
// ask_persona calls for the same conversation simply queue.
type Conversation struct {
	ID      string
	Persona persona.Persona

	mu         sync.Mutex
	sess       *session.Session
	lastActive time.Time
}

// Send delivers one user turn through the underlying session.
func (c *Conversation) Send(ctx context.Context, text string) (session.Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActive = time.Now()
	return c.sess.Send(ctx, text)
}

// ConvStore tracks open conversations by ID.
type ConvStore struct {
	provider session.ChatProvider
	log      *slog.Logger

	mu    sync.Mutex
	convs map[string]*Conversation
}

func NewConvStore(provider session.ChatProvider, logger *slog.Logger) *ConvStore {
	return &ConvStore{
		provider: provider,
		log:      logger,
		convs:    make(map[string]*Conversation),
	}
}

// Open starts a new conversation bound to the persona.
func (s *ConvStore) Open(p persona.Persona) (*Conversation, error) {
	id, err := convo.NewID()
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	sess := session.New(s.provider, s.log)
	sess.Start(p)

	c := &Conversation{ID: id, Persona: p, sess: sess, lastActive: time.Now()}
	s.mu.Lock()
	s.convs[id] = c
	s.mu.Unlock()
	return c, nil
}

func (s *ConvStore) Get(id string) (*Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	return c, ok
}
