package prompts

import (
	"bytes"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/miniagent/pkg/llms"
)

// ErrMissingVariable is returned when a template input variable is not provided
var ErrMissingVariable = errors.New("missing template variable")

// MessageFormatter renders one chat message from the values
type MessageFormatter interface {
	FormatMessage(values map[string]any) (llms.Message, error)
	InputVariables() []string
}

// MessagePromptTemplate is a text/template with sprig functions
// that produces a message with the given role.
type MessagePromptTemplate struct {
	role      llms.Role
	tmpl      *template.Template
	variables []string
}

// NewMessagePromptTemplate parses the template text.
// It panics if the template is invalid, the templates are compiled in.
func NewMessagePromptTemplate(role llms.Role, text string, inputVariables []string) *MessagePromptTemplate {
	return &MessagePromptTemplate{
		role: role,
		tmpl: template.Must(template.New(string(role)).
			Option("missingkey=error").
			Funcs(sprig.TxtFuncMap()).
			Parse(text)),
		variables: inputVariables,
	}
}

// NewSystemMessagePromptTemplate returns a template for the system message
func NewSystemMessagePromptTemplate(text string, inputVariables []string) *MessagePromptTemplate {
	return NewMessagePromptTemplate(llms.RoleSystem, text, inputVariables)
}

// NewHumanMessagePromptTemplate returns a template for the human message
func NewHumanMessagePromptTemplate(text string, inputVariables []string) *MessagePromptTemplate {
	return NewMessagePromptTemplate(llms.RoleHuman, text, inputVariables)
}

// InputVariables returns the variables the template requires
func (t *MessagePromptTemplate) InputVariables() []string {
	return t.variables
}

// FormatMessage renders the message
func (t *MessagePromptTemplate) FormatMessage(values map[string]any) (llms.Message, error) {
	for _, v := range t.variables {
		if _, ok := values[v]; !ok {
			return llms.Message{}, errors.Mark(errors.Newf("%s message: %q is not provided", t.role, v), ErrMissingVariable)
		}
	}

	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, values); err != nil {
		return llms.Message{}, errors.Wrapf(err, "failed to render %s message", t.role)
	}
	return llms.Message{Role: t.role, Text: buf.String()}, nil
}

// ChatPromptTemplate is a list of message templates
type ChatPromptTemplate struct {
	messages []MessageFormatter
}

// NewChatPromptTemplate returns a chat template
func NewChatPromptTemplate(messages []MessageFormatter) ChatPromptTemplate {
	return ChatPromptTemplate{messages: messages}
}

// FormatPrompt renders all messages
func (p ChatPromptTemplate) FormatPrompt(values map[string]any) (ChatPromptValue, error) {
	res := make(ChatPromptValue, 0, len(p.messages))
	for _, m := range p.messages {
		msg, err := m.FormatMessage(values)
		if err != nil {
			return nil, err
		}
		res = append(res, msg)
	}
	return res, nil
}

// InputVariables returns the union of the message variables, in order
func (p ChatPromptTemplate) InputVariables() []string {
	seen := map[string]bool{}
	var vars []string
	for _, m := range p.messages {
		for _, v := range m.InputVariables() {
			if !seen[v] {
				seen[v] = true
				vars = append(vars, v)
			}
		}
	}
	return vars
}
