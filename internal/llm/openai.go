package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// OpenAICapability talks to any OpenAI-compatible chat completions API.
type OpenAICapability struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	maxRetries int
	backoff    time.Duration
	log        *zap.Logger
}

type OpenAIConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

func NewOpenAICapability(cfg OpenAIConfig, log *zap.Logger) *OpenAICapability {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	return &OpenAICapability{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		log:        log.Named("openai"),
	}
}

type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature float64         `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *OpenAICapability) Invoke(ctx context.Context, req Request) (Response, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return Response{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return Response{}, contextError(ctx, ctx.Err())
			case <-time.After(c.backoff * time.Duration(1<<uint(attempt-1))):
			}
		}

		resp, retry, err := c.do(ctx, body)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil {
			return Response{}, contextError(ctx, err)
		}
		lastErr = err
		if !retry {
			return Response{}, err
		}
		c.log.Warn("retrying model call", zap.Int("attempt", attempt+1), zap.Error(err))
	}
	return Response{}, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *OpenAICapability) do(ctx context.Context, body []byte) (Response, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Response{}, false, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, true, fmt.Errorf("request failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return Response{}, true, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode == http.StatusTooManyRequests || httpResp.StatusCode >= 500 {
		return Response{}, true, fmt.Errorf("API request failed with status %d", httpResp.StatusCode)
	}
	if httpResp.StatusCode != http.StatusOK {
		return Response{}, false, fmt.Errorf("API request failed with status %d: %s", httpResp.StatusCode, string(raw))
	}

	resp, err := parseOpenAIResponse(raw)
	return resp, false, err
}

func (c *OpenAICapability) buildRequest(req Request) openAIRequest {
	out := openAIRequest{Model: c.model, Temperature: 0.1}
	if req.Instructions != "" {
		out.Messages = append(out.Messages, openAIMessage{Role: "system", Content: strPtr(req.Instructions)})
	}
	for _, m := range req.Messages {
		switch {
		case m.Role == RoleAssistant && m.ToolCall != nil:
			args, _ := json.Marshal(m.ToolCall.Args)
			tc := openAIToolCall{ID: m.ToolCall.ID, Type: "function"}
			tc.Function.Name = m.ToolCall.Name
			tc.Function.Arguments = string(args)
			out.Messages = append(out.Messages, openAIMessage{Role: "assistant", ToolCalls: []openAIToolCall{tc}})
		case m.Role == RoleTool:
			out.Messages = append(out.Messages, openAIMessage{Role: "tool", Content: strPtr(m.Content), ToolCallID: m.ToolCallID})
		default:
			out.Messages = append(out.Messages, openAIMessage{Role: string(m.Role), Content: strPtr(m.Content)})
		}
	}
	for _, t := range req.Tools {
		out.Tools = append(out.Tools, openAITool{
			Type:     "function",
			Function: openAIFunction{Name: t.Name, Description: t.Description, Parameters: jsonSchema(t.Params)},
		})
	}
	return out
}

func parseOpenAIResponse(raw []byte) (Response, error) {
	var resp openAIResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Error != nil {
		return Response{}, fmt.Errorf("API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: no choices", ErrMalformedResponse)
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		tc := msg.ToolCalls[0]
		args := map[string]any{}
		if strings.TrimSpace(tc.Function.Arguments) != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return Response{}, fmt.Errorf("%w: tool arguments: %v", ErrMalformedResponse, err)
			}
		}
		if tc.Function.Name == "" {
			return Response{}, errors.Join(ErrMalformedResponse, errors.New("tool call without name"))
		}
		return Response{ToolCall: &ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: args}}, nil
	}
	if msg.Content == nil {
		return Response{}, fmt.Errorf("%w: empty message", ErrMalformedResponse)
	}
	return Response{Text: strings.TrimSpace(*msg.Content)}, nil
}

func strPtr(s string) *string { return &s }
