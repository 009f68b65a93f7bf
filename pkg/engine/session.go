package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/germanamz/kata/pkg/agent"
	"github.com/germanamz/kata/pkg/chats/chat"
)

type sessionKey struct{}

func withSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey{}, id)
}

func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// Session represents one interactive conversation. It owns an agent instance
// whose chat is kept between turns. Only one Send call may be active at a time.
type Session struct {
	id     string
	agent  *agent.Agent
	events *EventBus

	mu     sync.Mutex
	active bool
}

// newSession creates a session with the given ID, agent, and event bus.
func newSession(id string, a *agent.Agent, events *EventBus) *Session {
	return &Session{
		id:     id,
		agent:  a,
		events: events,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// AgentName returns the name of the agent the session talks to.
func (s *Session) AgentName() string { return s.agent.Name() }

// Chat returns the underlying chat for direct observation.
func (s *Session) Chat() *chat.Chat { return s.agent.Chat() }

// Send appends a text message from the user and runs the agent's ReAct loop.
// It returns the agent's result. Only one Send may be active per session.
func (s *Session) Send(ctx context.Context, text string) (agent.Result, error) {
	if err := s.acquire(); err != nil {
		return agent.Result{}, err
	}
	defer s.release()

	ctx = withSessionID(ctx, s.id)
	s.publish(EventAgentStart, nil)

	res, err := s.agent.Invoke(ctx, text)
	if err != nil {
		s.publish(EventError, err)
		s.publish(EventAgentEnd, nil)
		return res, err
	}

	s.publish(EventMessageAdded, res.Message)
	s.publish(EventAgentEnd, res.Metrics)

	return res, nil
}

func (s *Session) publish(kind EventKind, data any) {
	s.events.Publish(Event{
		Kind:      kind,
		SessionID: s.id,
		Agent:     s.agent.Name(),
		Timestamp: time.Now(),
		Data:      data,
	})
}

func (s *Session) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active {
		return fmt.Errorf("engine: session %s: another Send is already active", s.id)
	}
	s.active = true
	return nil
}

func (s *Session) release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = false
}
