package prompts

import (
	"fmt"
	"strings"

	"github.com/effective-security/miniagent/pkg/llms"
)

// ChatPromptValue is a prompt value that is a list of chat messages.
type ChatPromptValue []llms.Message

// String returns the chat message slice as a buffer string.
func (v ChatPromptValue) String() string {
	var buf strings.Builder
	for _, m := range v {
		fmt.Fprintf(&buf, "%s: %s\n", roleTitle(m.Role), m.Text)
	}
	return buf.String()
}

// Messages returns the ChatMessage slice.
func (v ChatPromptValue) Messages() []llms.Message {
	return v
}

func roleTitle(r llms.Role) string {
	switch r {
	case llms.RoleSystem:
		return "System"
	case llms.RoleHuman:
		return "Human"
	case llms.RoleAI:
		return "AI"
	}
	return string(r)
}
