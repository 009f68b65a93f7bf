package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/germanamz/kata/pkg/mcpdemo"
	"github.com/germanamz/kata/pkg/tools/mcpclient"
	"github.com/germanamz/kata/pkg/tools/mcpserver"
)

// mcpPath is where the streamable HTTP endpoint is mounted.
const mcpPath = "/mcp"

// MCPCmd groups the MCP demo commands.
type MCPCmd struct {
	HelloServer MCPHelloServerCmd `cmd:"" help:"Run the hello MCP server (stdio unless --http is set)."`
	HelloClient MCPHelloClientCmd `cmd:"" help:"Call the hello MCP server over streamable HTTP."`
	DocsServer  MCPDocsServerCmd  `cmd:"" help:"Serve the documentation vector store over MCP."`
}

// MCPHelloServerCmd runs the hello server.
type MCPHelloServerCmd struct {
	HTTP string `name:"http" help:"Serve streamable HTTP on this address instead of stdio (e.g. :8000)."`
}

func (c *MCPHelloServerCmd) Run(ctx context.Context, cli *CLI) error {
	return serveMCP(ctx, cli.log, mcpdemo.NewHelloServer(), c.HTTP)
}

// MCPHelloClientCmd talks to a running hello server.
type MCPHelloClientCmd struct {
	URL string `help:"Streamable HTTP endpoint of the hello server." default:"http://localhost:8000/mcp"`
}

func (c *MCPHelloClientCmd) Run(ctx context.Context, cli *CLI) error {
	client, err := mcpclient.NewStreamable(ctx, c.URL, nil)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	report, err := mcpdemo.Interact(ctx, client)
	if err != nil {
		return err
	}
	report.Print(os.Stdout)
	return nil
}

// MCPDocsServerCmd serves the vector store built by "docs index".
type MCPDocsServerCmd struct {
	StoreFlags `embed:""`
	HTTP string `name:"http" help:"Serve streamable HTTP on this address instead of stdio (e.g. :8000)."`
}

func (c *MCPDocsServerCmd) Run(ctx context.Context, cli *CLI) error {
	helper, err := c.open()
	if err != nil {
		return err
	}
	cli.log.Info("docs store opened", "work_dir", c.WorkDir, "chunks", helper.Count())

	return serveMCP(ctx, cli.log, mcpdemo.NewDocsServer(helper), c.HTTP)
}

// serveMCP serves s on stdio, or on addr over streamable HTTP when addr is set.
func serveMCP(ctx context.Context, log *slog.Logger, s *mcpserver.MCPServer, addr string) error {
	if addr == "" {
		return s.ServeStdio(ctx)
	}

	mux := http.NewServeMux()
	mux.Handle(mcpPath, s.Handler())

	fmt.Fprintln(os.Stderr, banner(fmt.Sprintf("MCP on http://%s%s", displayAddr(addr), mcpPath)))
	return serveHTTP(ctx, log, addr, mux)
}

// serveHTTP serves h on addr until ctx is cancelled.
func serveHTTP(ctx context.Context, log *slog.Logger, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("listening", "addr", addr)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
