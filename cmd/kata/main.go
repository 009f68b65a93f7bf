// Command kata runs the configured agent roster from the terminal and exposes
// agents and documentation over MCP and A2A.
//
// Usage:
//
//	kata ask math_assistant "Solve 2x + 3 = 7"
//	kata chat
//	kata a2a serve math_assistant --port 9001
//	kata mcp hello-server --http :8000
//	kata docs index --work-dir vector_store_data
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/germanamz/kata/pkg/engine"
)

// CLI defines the command-line interface.
type CLI struct {
	Ask     AskCmd     `cmd:"" help:"Send one prompt to an agent and print the reply with run metrics."`
	Chat    ChatCmd    `cmd:"" help:"Chat with an agent interactively. Type exit to quit."`
	A2A     A2ACmd     `cmd:"" name:"a2a" help:"Serve agents over A2A or chat with remote ones."`
	MCP     MCPCmd     `cmd:"" name:"mcp" help:"Run the demo MCP servers and client."`
	Docs    DocsCmd    `cmd:"" help:"Build and query the documentation vector store."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config  string `short:"c" help:"Path to the agent roster (default: embedded roster)." type:"path"`
	Env     string `help:"Path to .env file (ignored if missing)." default:".env"`
	Verbose bool   `short:"v" help:"Log debug output to stderr."`

	log *slog.Logger
}

func main() {
	cli := CLI{}
	kctx := kong.Parse(&cli,
		kong.Name("kata"),
		kong.Description("Multi-agent assistants over OpenAI-compatible models, MCP and A2A."),
		kong.UsageOnError(),
	)

	if err := loadDotEnv(cli.Env); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cli.log = newLogger(cli.Verbose)
	slog.SetDefault(cli.log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&cli)
	kctx.FatalIfErrorf(err)
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// loadConfig reads the roster from --config or falls back to the embedded one.
func (c *CLI) loadConfig() (engine.Config, error) {
	if c.Config == "" {
		return engine.DefaultConfig()
	}
	return engine.LoadConfig(c.Config)
}

// newEngine builds an engine over the configured roster.
func (c *CLI) newEngine(ctx context.Context) (*engine.Engine, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return engine.New(ctx, cfg, engine.Options{Logger: c.log})
}
