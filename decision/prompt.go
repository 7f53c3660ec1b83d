package decision

import (
	"github.com/effective-security/miniagent/pkg/prompts"
)

// SystemPrompt instructs the model to reply with a Choice
const SystemPrompt = "You are an agent controller. Return ONLY valid JSON for ToolChoice. " +
	"Schema: {action: 'tool'|'final', tool_call?: {tool_name, arguments}, final?: string}."

const userPrompt = `User message: {{ .message }}

Plan: {{ .plan }}

Observation: {{ .observation }}

Available tools (specs): {{ .specs | toJson }}

Decide the next action.`

var chatPrompt = prompts.NewChatPromptTemplate([]prompts.MessageFormatter{
	prompts.NewSystemMessagePromptTemplate("{{ .system }}\n{{ .format }}", []string{"system", "format"}),
	prompts.NewHumanMessagePromptTemplate(userPrompt, []string{"message", "plan", "observation", "specs"}),
})

// Prompt returns the messages asking for a Choice JSON
func Prompt(req *Request) (prompts.ChatPromptValue, error) {
	return defaultCodec.Prompt(req)
}
