package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

type Tool struct {
	Definition ToolDefinition
	Run        ToolFunc
}

// Worker is one model-backed role: fixed instructions plus a tool set. All
// roles in the system are Workers with different parameters.
type Worker struct {
	name         string
	instructions string
	tools        map[string]Tool
	defs         []ToolDefinition
	maxSteps     int
	timeout      time.Duration
	capability   Capability
	log          *zap.Logger
}

type WorkerConfig struct {
	Name         string
	Instructions string
	Tools        []Tool
	MaxSteps     int
	Timeout      time.Duration
}

func NewWorker(capability Capability, cfg WorkerConfig, log *zap.Logger) *Worker {
	w := &Worker{
		name:         cfg.Name,
		instructions: cfg.Instructions,
		tools:        make(map[string]Tool, len(cfg.Tools)),
		maxSteps:     cfg.MaxSteps,
		timeout:      cfg.Timeout,
		capability:   capability,
		log:          log.With(zap.String("worker", cfg.Name)),
	}
	if w.maxSteps <= 0 {
		w.maxSteps = 6
	}
	for _, t := range cfg.Tools {
		w.tools[t.Definition.Name] = t
		w.defs = append(w.defs, t.Definition)
	}
	return w
}

func (w *Worker) Name() string { return w.name }

// Run drives the invoke/tool loop until the model answers with text. The
// whole run shares one deadline.
func (w *Worker) Run(ctx context.Context, task string) (string, error) {
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	messages := []Message{{Role: RoleUser, Content: task}}
	for step := 0; step < w.maxSteps; step++ {
		resp, err := w.capability.Invoke(ctx, Request{
			Instructions: w.instructions,
			Messages:     messages,
			Tools:        w.defs,
		})
		if err != nil {
			return "", fmt.Errorf("%s: %w", w.name, contextError(ctx, err))
		}

		if resp.ToolCall == nil {
			text := strings.TrimSpace(resp.Text)
			if text == "" {
				return "", fmt.Errorf("%s: %w: empty answer", w.name, ErrMalformedResponse)
			}
			return text, nil
		}

		call := *resp.ToolCall
		if call.ID == "" {
			call.ID = fmt.Sprintf("call_%d", step)
		}
		messages = append(messages, Message{Role: RoleAssistant, ToolCall: &call})
		result := w.runTool(ctx, call)
		messages = append(messages, Message{Role: RoleTool, Content: result, ToolCallID: call.ID, ToolName: call.Name})
	}
	return "", fmt.Errorf("%s: %w (%d steps)", w.name, ErrStepBudget, w.maxSteps)
}

func (w *Worker) runTool(ctx context.Context, call ToolCall) string {
	tool, ok := w.tools[call.Name]
	if !ok {
		w.log.Warn("model requested unknown tool", zap.String("tool", call.Name))
		return fmt.Sprintf("error: unknown tool %q", call.Name)
	}
	out, err := tool.Run(ctx, call.Args)
	if err != nil {
		w.log.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return "error: " + err.Error()
	}
	w.log.Debug("tool ran", zap.String("tool", call.Name), zap.Int("result_len", len(out)))
	return out
}

// StringArg reads a string argument.
func StringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q is not a string", key)
	}
	return s, nil
}

// IntArg reads an integer argument; JSON numbers arrive as float64.
func IntArg(args map[string]any, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		return int(n), err
	case nil:
		return 0, fmt.Errorf("missing argument %q", key)
	default:
		return 0, fmt.Errorf("argument %q is not a number", key)
	}
}
