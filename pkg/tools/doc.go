// Package tools provides tool execution and MCP (Model Context Protocol) integration.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/kata/pkg/tools/toolbox] — Tool type and ToolBox orchestrator for registering, listing, and calling tools
//   - [github.com/germanamz/kata/pkg/tools/mcpclient] — MCP client for tools, resources and prompts of external MCP servers
//   - [github.com/germanamz/kata/pkg/tools/mcpserver] — MCP server exposing tools, resources and prompts over stdio or HTTP
//   - [github.com/germanamz/kata/pkg/tools/httprequest] — http_request tool for fetching web resources
//
// The toolbox sub-package is the foundation layer. The other packages depend
// on toolbox for the Tool type but are independent of each other.
package tools
