package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// scriptedCapability replays canned responses and records requests.
type scriptedCapability struct {
	mu        sync.Mutex
	responses []Response
	errs      []error
	requests  []Request
}

func (s *scriptedCapability) Invoke(ctx context.Context, req Request) (Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i < len(s.errs) && s.errs[i] != nil {
		return Response{}, s.errs[i]
	}
	if i >= len(s.responses) {
		return Response{}, errors.New("script exhausted")
	}
	return s.responses[i], nil
}

// blockingCapability waits for the context to end.
type blockingCapability struct{}

func (blockingCapability) Invoke(ctx context.Context, _ Request) (Response, error) {
	<-ctx.Done()
	return Response{}, ctx.Err()
}

func stockTool(calls *[]map[string]any) Tool {
	return Tool{
		Definition: ToolDefinition{
			Name:        "check_stock",
			Description: "Current stock of an item",
			Params:      []ToolParam{{Name: "item_name", Type: "string", Required: true}},
		},
		Run: func(_ context.Context, args map[string]any) (string, error) {
			*calls = append(*calls, args)
			name, err := StringArg(args, "item_name")
			if err != nil {
				return "", err
			}
			return name + ": 500", nil
		},
	}
}

func TestWorker_ToolLoop(t *testing.T) {
	var calls []map[string]any
	capability := &scriptedCapability{responses: []Response{
		{ToolCall: &ToolCall{ID: "c1", Name: "check_stock", Args: map[string]any{"item_name": "A4 paper"}}},
		{Text: "  A4 paper has 500 units  "},
	}}
	w := NewWorker(capability, WorkerConfig{
		Name:         "inventory",
		Instructions: "answer stock questions",
		Tools:        []Tool{stockTool(&calls)},
		Timeout:      time.Second,
	}, zap.NewNop())

	out, err := w.Run(context.Background(), "how much A4?")
	require.NoError(t, err)
	assert.Equal(t, "A4 paper has 500 units", out)
	require.Len(t, calls, 1)

	require.Len(t, capability.requests, 2)
	second := capability.requests[1]
	assert.Equal(t, "answer stock questions", second.Instructions)
	require.Len(t, second.Messages, 3)
	assert.Equal(t, RoleTool, second.Messages[2].Role)
	assert.Equal(t, "A4 paper: 500", second.Messages[2].Content)
	assert.Equal(t, "c1", second.Messages[2].ToolCallID)
	assert.Equal(t, "check_stock", second.Tools[0].Name)
}

func TestWorker_UnknownToolIsReportedBack(t *testing.T) {
	capability := &scriptedCapability{responses: []Response{
		{ToolCall: &ToolCall{Name: "launch_rockets"}},
		{Text: "ok"},
	}}
	w := NewWorker(capability, WorkerConfig{Name: "w"}, zap.NewNop())

	out, err := w.Run(context.Background(), "task")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Contains(t, capability.requests[1].Messages[2].Content, "unknown tool")
}

func TestWorker_StepBudget(t *testing.T) {
	loop := Response{ToolCall: &ToolCall{Name: "check_stock", Args: map[string]any{"item_name": "x"}}}
	capability := &scriptedCapability{responses: []Response{loop, loop, loop}}
	var calls []map[string]any
	w := NewWorker(capability, WorkerConfig{Name: "w", Tools: []Tool{stockTool(&calls)}, MaxSteps: 3}, zap.NewNop())

	_, err := w.Run(context.Background(), "task")
	assert.ErrorIs(t, err, ErrStepBudget)
	assert.Len(t, calls, 3)
}

func TestWorker_Timeout(t *testing.T) {
	w := NewWorker(blockingCapability{}, WorkerConfig{Name: "slow", Timeout: 20 * time.Millisecond}, zap.NewNop())

	_, err := w.Run(context.Background(), "task")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWorker_EmptyAnswer(t *testing.T) {
	capability := &scriptedCapability{responses: []Response{{Text: "   "}}}
	w := NewWorker(capability, WorkerConfig{Name: "w"}, zap.NewNop())

	_, err := w.Run(context.Background(), "task")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestIntArg(t *testing.T) {
	n, err := IntArg(map[string]any{"q": float64(12)}, "q")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = IntArg(map[string]any{}, "q")
	assert.Error(t, err)

	_, err = IntArg(map[string]any{"q": "12"}, "q")
	assert.Error(t, err)
}
