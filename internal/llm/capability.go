// Package llm wraps generative model providers behind one Capability port
// and runs tool-using workers on top of it.
package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrTimeout           = errors.New("model call timed out")
	ErrMalformedResponse = errors.New("malformed model response")
	ErrDisabled          = errors.New("model provider disabled")
	ErrStepBudget        = errors.New("worker exceeded its step budget")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a conversation. Assistant turns that asked for a
// tool carry ToolCall; tool turns carry the result in Content and the call
// they answer in ToolCallID and ToolName.
type Message struct {
	Role       Role
	Content    string
	ToolCall   *ToolCall
	ToolCallID string
	ToolName   string
}

type ToolParam struct {
	Name        string
	Type        string // string, integer, number, boolean
	Description string
	Required    bool
}

type ToolDefinition struct {
	Name        string
	Description string
	Params      []ToolParam
}

type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

type Request struct {
	Instructions string
	Messages     []Message
	Tools        []ToolDefinition
}

// Response holds either free text or a single tool call.
type Response struct {
	Text     string
	ToolCall *ToolCall
}

type Capability interface {
	Invoke(ctx context.Context, req Request) (Response, error)
}

// contextError maps a finished context onto ErrTimeout.
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func jsonSchema(params []ToolParam) map[string]any {
	props := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		props[p.Name] = map[string]any{"type": p.Type, "description": p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{"type": "object", "properties": props, "required": required}
}
