// Package chats provides the provider-agnostic conversation model shared by
// model adapters and agents.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/kata/pkg/chats/role] — conversation roles (system, user, assistant, tool)
//   - [github.com/germanamz/kata/pkg/chats/content] — content parts (text, tool call, tool result)
//   - [github.com/germanamz/kata/pkg/chats/message] — messages composed of a role, sender, and parts
//   - [github.com/germanamz/kata/pkg/chats/chat] — append-only conversation with window trimming
package chats
