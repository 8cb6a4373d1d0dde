package types

import (
	"fmt"
	"strings"
	"time"
)

// Role represents the role of a message author.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents one entry in a conversation transcript.
// Transcripts are append-only; the only destructive operation is
// compaction, which replaces the transcript wholesale.
type Message struct {
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name,omitempty"`
	Timestamp  time.Time `json:"timestamp,omitempty"`
}

// NewMessage creates a new message with the given role, author and content.
func NewMessage(role Role, author, content string) Message {
	return Message{
		Role:       role,
		Content:    content,
		AuthorName: author,
		Timestamp:  time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(author, content string) Message {
	return NewMessage(RoleUser, author, content)
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(author, content string) Message {
	return NewMessage(RoleAssistant, author, content)
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) Message {
	return NewMessage(RoleSystem, "", content)
}

// Transcript is an ordered sequence of messages.
type Transcript []Message

// Last returns the most recent message and true, or a zero message and
// false when the transcript is empty.
func (t Transcript) Last() (Message, bool) {
	if len(t) == 0 {
		return Message{}, false
	}
	return t[len(t)-1], true
}

// Join renders the transcript as a single string, one message per line.
// Used for size estimation and for oracle prompts.
func (t Transcript) Join() string {
	var b strings.Builder
	for _, m := range t {
		if m.AuthorName != "" {
			fmt.Fprintf(&b, "%s (%s): %s\n", m.AuthorName, m.Role, m.Content)
		} else {
			fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
		}
	}
	return b.String()
}

// Clone returns a copy of the transcript safe to hand across a snapshot
// boundary.
func (t Transcript) Clone() Transcript {
	if t == nil {
		return nil
	}
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}
