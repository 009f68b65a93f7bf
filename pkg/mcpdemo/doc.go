// Package mcpdemo contains small MCP servers and a client that exercise the
// mcpserver and mcpclient packages end to end: a "hello" server with tools,
// resources, a resource template and a prompt, a client that talks to it over
// streamable HTTP, and a documentation server backed by the vector store.
package mcpdemo
