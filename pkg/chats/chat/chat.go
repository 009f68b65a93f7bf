// Package chat provides a conversation container for LLM interactions.
package chat

import (
	"github.com/germanamz/kata/pkg/chats/message"
	"github.com/germanamz/kata/pkg/chats/role"
)

// Chat is an ordered conversation. The zero value is ready to use.
// Chat is not safe for concurrent use; callers must synchronize externally.
type Chat struct {
	messages []message.Message
}

// New creates a Chat pre-populated with the given messages.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Append adds one or more messages to the conversation.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the number of messages in the conversation.
func (c *Chat) Len() int {
	return len(c.messages)
}

// Last returns the most recent message and true, or a zero Message and false
// if the conversation is empty.
func (c *Chat) Last() (message.Message, bool) {
	if len(c.messages) == 0 {
		return message.Message{}, false
	}
	return c.messages[len(c.messages)-1], true
}

// Messages returns a copy of all messages in the conversation.
func (c *Chat) Messages() []message.Message {
	cp := make([]message.Message, len(c.messages))
	copy(cp, c.messages)
	return cp
}

// SystemPrompt returns the text of the first system message, or "" if none.
func (c *Chat) SystemPrompt() string {
	for _, m := range c.messages {
		if m.Role == role.System {
			return m.TextContent()
		}
	}
	return ""
}

// TrimTo keeps the system messages plus the last n other messages. Tool
// results are never kept without the assistant message that requested them:
// leading orphans are dropped, unless the window would hold nothing but tool
// results, in which case it grows back to their assistant message. A
// non-positive n is a no-op. It returns the number of messages removed.
func (c *Chat) TrimTo(n int) int {
	if n <= 0 {
		return 0
	}

	var system, rest []message.Message
	for _, m := range c.messages {
		if m.Role == role.System {
			system = append(system, m)
			continue
		}
		rest = append(rest, m)
	}

	if len(rest) <= n {
		return 0
	}

	first := len(rest) - n
	start := first
	for start < len(rest) && rest[start].Role == role.Tool {
		start++
	}
	if start == len(rest) {
		start = first
		for start > 0 && rest[start].Role == role.Tool {
			start--
		}
	}

	kept := make([]message.Message, 0, len(system)+len(rest)-start)
	kept = append(kept, system...)
	kept = append(kept, rest[start:]...)

	removed := len(c.messages) - len(kept)
	c.messages = kept

	return removed
}
