package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentGenerator is satisfied by (*genai.Client).Models.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiCapability uses the Google GenAI SDK with function calling.
type GeminiCapability struct {
	models contentGenerator
	model  string
	log    *zap.Logger
}

func NewGeminiCapability(ctx context.Context, apiKey, model string, log *zap.Logger) (*GeminiCapability, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &GeminiCapability{models: client.Models, model: model, log: log.Named("gemini")}, nil
}

func (g *GeminiCapability) Invoke(ctx context.Context, req Request) (Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.1),
	}
	if req.Instructions != "" {
		config.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		config.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiFunctions(req.Tools)}}
	}

	resp, err := g.models.GenerateContent(ctx, g.model, toGeminiContents(req.Messages), config)
	if err != nil {
		return Response{}, contextError(ctx, fmt.Errorf("GenAI generate failed: %w", err))
	}
	return fromGeminiResponse(resp)
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (Response, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("%w: no candidates", ErrMalformedResponse)
	}
	if calls := resp.FunctionCalls(); len(calls) > 0 {
		fc := calls[0]
		if fc.Name == "" {
			return Response{}, fmt.Errorf("%w: function call without name", ErrMalformedResponse)
		}
		args := fc.Args
		if args == nil {
			args = map[string]any{}
		}
		return Response{ToolCall: &ToolCall{ID: fc.ID, Name: fc.Name, Args: args}}, nil
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return Response{}, fmt.Errorf("%w: empty text", ErrMalformedResponse)
	}
	return Response{Text: text}, nil
}

func toGeminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Role == RoleAssistant && m.ToolCall != nil:
			part := genai.NewPartFromFunctionCall(m.ToolCall.Name, m.ToolCall.Args)
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleModel))
		case m.Role == RoleTool:
			part := genai.NewPartFromFunctionResponse(m.ToolName, map[string]any{"output": m.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		case m.Role == RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	return contents
}

func toGeminiFunctions(tools []ToolDefinition) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		schema := &genai.Schema{
			Type:       genai.TypeObject,
			Properties: make(map[string]*genai.Schema, len(t.Params)),
		}
		for _, p := range t.Params {
			schema.Properties[p.Name] = &genai.Schema{Type: geminiType(p.Type), Description: p.Description}
			if p.Required {
				schema.Required = append(schema.Required, p.Name)
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schema,
		})
	}
	return decls
}

func geminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
