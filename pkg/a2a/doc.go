// Package a2a connects kata agents over the Agent2Agent protocol.
//
// Server exposes one agent as a JSON-RPC A2A endpoint with a static agent
// card; ToolProvider discovers remote agents from their cards and turns each
// into a tool an orchestrating agent can call.
package a2a
