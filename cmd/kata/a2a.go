package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/germanamz/kata/pkg/a2a"
	"github.com/germanamz/kata/pkg/agent"
)

// A2ACmd groups the A2A commands.
type A2ACmd struct {
	Serve A2AServeCmd `cmd:"" help:"Expose one agent as an A2A server."`
	Chat  A2AChatCmd  `cmd:"" help:"Chat with an orchestrator whose staff are remote A2A agents."`
}

// A2AServeCmd serves one agent.
type A2AServeCmd struct {
	Agent string `arg:"" help:"Agent to serve."`
	Host  string `help:"Host to bind and advertise." default:"localhost"`
	Port  int    `help:"Port to listen on (default: the agent's staff port, else 9000)."`
}

func (c *A2AServeCmd) Run(ctx context.Context, cli *CLI) error {
	eng, err := cli.newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	factory, ok := eng.Registry().Get(c.Agent)
	if !ok {
		return fmt.Errorf("agent %q is not configured", c.Agent)
	}
	entry, _ := eng.Registry().Describe(c.Agent)

	port := c.Port
	if port == 0 {
		port = a2a.StaffPorts[c.Agent]
	}
	if port == 0 {
		port = 9000
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(port))

	srv, err := a2a.NewServer(factory, a2a.ServerOptions{
		Name:        entry.Name,
		Description: entry.Description,
		URL:         "http://" + addr,
		Version:     version(),
		Logger:      cli.log,
	})
	if err != nil {
		return err
	}

	fmt.Println(banner(fmt.Sprintf("%s on http://%s", entry.Name, addr)))
	return srv.ListenAndServe(ctx, addr)
}

// A2AChatCmd chats with an orchestrator using remote agents as tools.
type A2AChatCmd struct {
	URL   []string `name:"url" help:"Base URLs of the remote agents (default: local staff ports)."`
	Agent string   `help:"Configured agent whose instructions the orchestrator uses." default:"teacher_assistant"`
}

func (c *A2AChatCmd) Run(ctx context.Context, cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}
	ac, ok := cfg.Agent(c.Agent)
	if !ok {
		return fmt.Errorf("agent %q is not configured", c.Agent)
	}

	eng, err := cli.newEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	urls := c.URL
	if len(urls) == 0 {
		urls = a2a.StaffURLs()
	}

	provider := a2a.NewToolProvider(urls, a2a.ProviderOptions{Logger: cli.log})
	if err := provider.Discover(ctx); err != nil {
		return err
	}
	defer func() { _ = provider.Close() }()

	orchestrator := agent.New(ac.Name, ac.Description, ac.Instructions, eng.Model(), agent.Options{
		MaxIterations: ac.Options.MaxIterations,
		WindowSize:    10,
		Middleware:    []agent.Middleware{agent.Recovery(), agent.Logger(cli.log, ac.Name)},
		Logger:        cli.log,
	})
	orchestrator.AddToolBoxes(provider.Tools())

	fmt.Println(banner(fmt.Sprintf("kata · %s · %d remote agents", ac.Name, len(provider.Agents()))))
	return chatLoop(ctx, os.Stdin, os.Stdout, ac.Name, orchestrator.Invoke)
}
