package llms

import "strings"

// Role is the type of chat message.
type Role string

const (
	// RoleAI is a message sent by an AI.
	RoleAI Role = "ai"
	// RoleHuman is a message sent by a human.
	RoleHuman Role = "human"
	// RoleSystem is a message sent by the system.
	RoleSystem Role = "system"
)

// Message is a text message sent to a model
type Message struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// SystemMessage returns a system message
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Text: text}
}

// HumanMessage returns a human message
func HumanMessage(text string) Message {
	return Message{Role: RoleHuman, Text: text}
}

// AIMessage returns an AI message
func AIMessage(text string) Message {
	return Message{Role: RoleAI, Text: text}
}

// SplitSystem joins all system messages into one prompt,
// and returns the rest of the conversation.
// Providers with a dedicated system field use it.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Text)
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
