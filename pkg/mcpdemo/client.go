package mcpdemo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// HelloClient is the subset of mcpclient.MCPClient used by Interact.
type HelloClient interface {
	CallTool(ctx context.Context, name string, arguments json.RawMessage) (string, error)
	ReadResource(ctx context.Context, uri string) (string, error)
}

// HelloReport holds what Interact retrieved from the hello server.
type HelloReport struct {
	Greeting string
	Config   string
	Profile  string
}

// Interact greets the server, then reads its config and the profile of user 102.
func Interact(ctx context.Context, c HelloClient) (HelloReport, error) {
	var r HelloReport
	var err error

	if r.Greeting, err = c.CallTool(ctx, "greet", json.RawMessage(`{"name":"Remote Client"}`)); err != nil {
		return r, fmt.Errorf("mcpdemo: greet: %w", err)
	}
	if r.Config, err = c.ReadResource(ctx, ConfigURI); err != nil {
		return r, fmt.Errorf("mcpdemo: read config: %w", err)
	}
	if r.Profile, err = c.ReadResource(ctx, "users://102/profile"); err != nil {
		return r, fmt.Errorf("mcpdemo: read profile: %w", err)
	}

	return r, nil
}

// Print writes the report in the order it was retrieved.
func (r HelloReport) Print(w io.Writer) {
	fmt.Fprintf(w, "greet result: %s\n", r.Greeting)
	fmt.Fprintf(w, "config resource: %s\n", r.Config)
	fmt.Fprintf(w, "User 102 profile: %s\n", r.Profile)
}
