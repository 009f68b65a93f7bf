package a2a

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"
	"github.com/a2aproject/a2a-go/a2aclient"
	"github.com/a2aproject/a2a-go/a2aclient/agentcard"
	"github.com/germanamz/kata/pkg/tools/toolbox"
)

// StaffPorts are the local ports the subject assistants are served on.
var StaffPorts = map[string]int{
	"english_assistant":          9000,
	"math_assistant":             9001,
	"computer_science_assistant": 9002,
	"language_assistant":         9003,
	"general_assistant":          9004,
}

// StaffURLs returns the localhost URLs of the subject assistants in port order.
func StaffURLs() []string {
	urls := make([]string, 0, len(StaffPorts))
	for port := 9000; port < 9000+len(StaffPorts); port++ {
		urls = append(urls, fmt.Sprintf("http://localhost:%d", port))
	}
	return urls
}

// ProviderOptions configure a ToolProvider.
type ProviderOptions struct {
	HTTPClient *http.Client // Used to fetch agent cards.
	Logger     *slog.Logger
}

// RemoteAgent is a discovered A2A agent.
type RemoteAgent struct {
	URL    string
	Card   *a2a.AgentCard
	client *a2aclient.Client
}

// ToolProvider exposes remote A2A agents as tools.
type ToolProvider struct {
	urls     []string
	resolver *agentcard.Resolver
	log      *slog.Logger

	mu     sync.Mutex
	agents []*RemoteAgent
}

// NewToolProvider creates a provider for the agents served at urls.
func NewToolProvider(urls []string, opts ProviderOptions) *ToolProvider {
	resolver := agentcard.DefaultResolver
	if opts.HTTPClient != nil {
		resolver = agentcard.NewResolver(opts.HTTPClient)
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &ToolProvider{urls: urls, resolver: resolver, log: log}
}

// Discover resolves the agent card of every known URL. Unreachable agents are
// logged and skipped; it fails only when no agent could be discovered.
func (p *ToolProvider) Discover(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closeLocked()

	var firstErr error
	for _, u := range p.urls {
		ra, err := p.connect(ctx, u)
		if err != nil {
			p.log.WarnContext(ctx, "a2a agent unavailable", "url", u, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		p.log.DebugContext(ctx, "a2a agent discovered", "url", u, "name", ra.Card.Name)
		p.agents = append(p.agents, ra)
	}

	if len(p.agents) == 0 && firstErr != nil {
		return fmt.Errorf("a2a: no agents discovered: %w", firstErr)
	}
	return nil
}

func (p *ToolProvider) connect(ctx context.Context, u string) (*RemoteAgent, error) {
	card, err := p.resolver.Resolve(ctx, strings.TrimSuffix(u, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolve agent card: %w", err)
	}

	client, err := a2aclient.NewFromCard(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	return &RemoteAgent{URL: u, Card: card, client: client}, nil
}

// Agents returns the discovered agents.
func (p *ToolProvider) Agents() []*RemoteAgent {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]*RemoteAgent(nil), p.agents...)
}

// Tools returns one tool per discovered agent.
func (p *ToolProvider) Tools() *toolbox.ToolBox {
	tb := toolbox.New()
	for _, ra := range p.Agents() {
		tb.Register(ra.Tool())
	}
	return tb
}

// Close releases the clients of all discovered agents.
func (p *ToolProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closeLocked()
}

func (p *ToolProvider) closeLocked() error {
	var firstErr error
	for _, ra := range p.agents {
		if err := ra.client.Destroy(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.agents = nil
	return firstErr
}

// ToolName derives a tool name from an agent card name.
func ToolName(cardName string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(cardName) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return "a2a_" + strings.TrimSuffix(b.String(), "_")
}

type sendInput struct {
	Message string `json:"message"`
}

// Tool sends the "message" input to the agent and returns its reply text.
func (ra *RemoteAgent) Tool() toolbox.Tool {
	name := ToolName(ra.Card.Name)
	desc := ra.Card.Description
	if desc == "" {
		desc = "Remote A2A agent " + ra.Card.Name
	}

	return toolbox.Tool{
		Name:        name,
		Description: desc,
		InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string","description":"The message to send to the agent"}},"required":["message"]}`),
		Handler: toolbox.Typed(name, func(ctx context.Context, in sendInput) (string, error) {
			if strings.TrimSpace(in.Message) == "" {
				return "", fmt.Errorf("%s: message is required", name)
			}
			return ra.Send(ctx, in.Message)
		}),
	}
}

// Send sends text to the agent and returns the text of its reply.
func (ra *RemoteAgent) Send(ctx context.Context, text string) (string, error) {
	result, err := ra.client.SendMessage(ctx, &a2a.MessageSendParams{
		Message: a2a.NewMessage(a2a.MessageRoleUser, a2a.TextPart{Text: text}),
	})
	if err != nil {
		return "", fmt.Errorf("a2a: send to %s: %w", ra.Card.Name, err)
	}

	return resultText(ra.Card.Name, result)
}

// resultText extracts the reply of a message result, or of a task result
// from its artifacts and then its status message.
func resultText(agentName string, result a2a.SendMessageResult) (string, error) {
	switch r := result.(type) {
	case *a2a.Message:
		return messageText(r), nil
	case *a2a.Task:
		var texts []string
		for _, art := range r.Artifacts {
			if t := partsText(art.Parts); t != "" {
				texts = append(texts, t)
			}
		}
		status := messageText(r.Status.Message)

		if r.Status.State == a2a.TaskStateFailed {
			return "", fmt.Errorf("a2a: %s failed: %s", agentName, status)
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n"), nil
		}
		return status, nil
	default:
		return "", fmt.Errorf("a2a: %s: unexpected result %T", agentName, result)
	}
}
