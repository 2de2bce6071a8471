package domain

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleBot       = "bot"
	RoleSystem    = "system"
)

// ChatMessage is the provider-agnostic chat message shape used by the handler
// and LLM integrations.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// IsUser reports whether the turn was authored by the end user.
func (m ChatMessage) IsUser() bool {
	return strings.EqualFold(strings.TrimSpace(m.Role), RoleUser)
}

// PromptRole maps the client role vocabulary onto the two roles the model expects.
func (m ChatMessage) PromptRole() string {
	switch strings.ToLower(strings.TrimSpace(m.Role)) {
	case RoleBot, RoleAssistant:
		return RoleAssistant
	default:
		return RoleUser
	}
}
