package a2a

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2asrv"
	"github.com/a2aproject/a2a-go/a2asrv/eventqueue"
	"github.com/germanamz/kata/pkg/agent"
)

// DefaultVersion is advertised in agent cards when ServerOptions.Version is empty.
const DefaultVersion = "0.1.0"

// ServerOptions configure a Server.
type ServerOptions struct {
	Name        string // Card name. Required.
	Description string
	URL         string // Public base URL of the JSON-RPC endpoint. Required.
	Version     string
	Logger      *slog.Logger
}

// Server exposes one agent over A2A. Every request runs in a fresh agent.
type Server struct {
	card    *a2a.AgentCard
	handler http.Handler
	log     *slog.Logger
}

// NewServer creates a Server for agents built by factory.
func NewServer(factory agent.Factory, opts ServerOptions) (*Server, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("a2a: server name is required")
	}
	if opts.URL == "" {
		return nil, fmt.Errorf("a2a: server %s: url is required", opts.Name)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	card := buildCard(opts)

	mux := http.NewServeMux()
	mux.Handle(a2asrv.WellKnownAgentCardPath, a2asrv.NewStaticAgentCardHandler(card))
	mux.Handle("/", a2asrv.NewJSONRPCHandler(a2asrv.NewHandler(&executor{factory: factory, log: log})))

	return &Server{card: card, handler: mux, log: log}, nil
}

func buildCard(opts ServerOptions) *a2a.AgentCard {
	version := opts.Version
	if version == "" {
		version = DefaultVersion
	}

	return &a2a.AgentCard{
		Name:               opts.Name,
		Description:        opts.Description,
		URL:                strings.TrimSuffix(opts.URL, "/") + "/",
		Version:            version,
		ProtocolVersion:    "0.3.0",
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills: []a2a.AgentSkill{{
			ID:          opts.Name,
			Name:        opts.Name,
			Description: opts.Description,
			Tags:        []string{"kata"},
		}},
		Capabilities:       a2a.AgentCapabilities{},
		PreferredTransport: a2a.TransportProtocolJSONRPC,
	}
}

// Card returns the agent card served at the well-known path.
func (s *Server) Card() *a2a.AgentCard { return s.card }

// Handler serves the agent card and the JSON-RPC endpoint.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	s.log.InfoContext(ctx, "a2a server listening", "agent", s.card.Name, "addr", addr)

	select {
	case err := <-errc:
		return fmt.Errorf("a2a: serve %s: %w", s.card.Name, err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("a2a: shutdown %s: %w", s.card.Name, err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// executor answers each message with the reply of a freshly spawned agent.
type executor struct {
	factory agent.Factory
	log     *slog.Logger
}

func (x *executor) Execute(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	if reqCtx.Message == nil {
		return fmt.Errorf("a2a: message not provided")
	}

	text := messageText(reqCtx.Message)
	if strings.TrimSpace(text) == "" {
		return x.fail(ctx, reqCtx, queue, errors.New("message has no text"))
	}

	a := x.factory()
	res, err := a.Invoke(ctx, text)
	if err != nil {
		x.log.ErrorContext(ctx, "a2a request failed", "agent", a.Name(), "error", err)
		return x.fail(ctx, reqCtx, queue, err)
	}

	x.log.DebugContext(ctx, "a2a request served", "agent", a.Name(), "tokens", res.Metrics.Usage.Total())

	return queue.Write(ctx, a2a.NewMessage(a2a.MessageRoleAgent, a2a.TextPart{Text: res.Text()}))
}

func (x *executor) Cancel(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue) error {
	event := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateCanceled, nil)
	event.Final = true
	return queue.Write(ctx, event)
}

// fail reports cause as a failed task, submitting the task first when the
// request did not continue an existing one.
func (x *executor) fail(ctx context.Context, reqCtx *a2asrv.RequestContext, queue eventqueue.Queue, cause error) error {
	if reqCtx.StoredTask == nil {
		if err := queue.Write(ctx, a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateSubmitted, nil)); err != nil {
			return err
		}
	}

	msg := a2a.NewMessageForTask(a2a.MessageRoleAgent, reqCtx, a2a.TextPart{Text: cause.Error()})
	ev := a2a.NewStatusUpdateEvent(reqCtx, a2a.TaskStateFailed, msg)
	ev.Final = true
	return queue.Write(ctx, ev)
}

// messageText joins the text parts of msg.
func messageText(msg *a2a.Message) string {
	if msg == nil {
		return ""
	}
	return partsText(msg.Parts)
}

func partsText(parts []a2a.Part) string {
	var texts []string
	for _, p := range parts {
		switch tp := p.(type) {
		case a2a.TextPart:
			texts = append(texts, tp.Text)
		case *a2a.TextPart:
			texts = append(texts, tp.Text)
		}
	}
	return strings.Join(texts, "\n")
}

var _ a2asrv.AgentExecutor = (*executor)(nil)
