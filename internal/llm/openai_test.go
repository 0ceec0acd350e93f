package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestOpenAI(url string) *OpenAICapability {
	return NewOpenAICapability(OpenAIConfig{
		APIKey:     "sk-test",
		BaseURL:    url,
		Model:      "test-model",
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		Backoff:    time.Millisecond,
	}, zap.NewNop())
}

func TestOpenAI_TextResponse(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":" hello "}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestOpenAI(srv.URL).Invoke(context.Background(), Request{
		Instructions: "be brief",
		Messages:     []Message{{Role: RoleUser, Content: "hi"}},
		Tools: []ToolDefinition{{
			Name:   "quote_history",
			Params: []ToolParam{{Name: "terms", Type: "string", Required: true}},
		}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)
	assert.Nil(t, resp.ToolCall)

	assert.Equal(t, "test-model", got["model"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	tools := got["tools"].([]any)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "quote_history", fn["name"])
	params := fn["parameters"].(map[string]any)
	assert.Equal(t, []any{"terms"}, params["required"])
}

func TestOpenAI_ToolCallResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":null,"tool_calls":[{"id":"call_9","type":"function","function":{"name":"check_stock","arguments":"{\"item_name\":\"Cardstock\"}"}}]}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestOpenAI(srv.URL).Invoke(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	require.NoError(t, err)
	require.NotNil(t, resp.ToolCall)
	assert.Equal(t, "call_9", resp.ToolCall.ID)
	assert.Equal(t, "check_stock", resp.ToolCall.Name)
	assert.Equal(t, "Cardstock", resp.ToolCall.Args["item_name"])
}

func TestOpenAI_MalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"not json":      `<<<`,
		"no choices":    `{"choices":[]}`,
		"bad arguments": `{"choices":[{"message":{"tool_calls":[{"id":"1","function":{"name":"f","arguments":"{oops"}}]}}]}`,
		"null content":  `{"choices":[{"message":{"role":"assistant","content":null}}]}`,
		"nameless call": `{"choices":[{"message":{"tool_calls":[{"id":"1","function":{"name":"","arguments":"{}"}}]}}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := newTestOpenAI(srv.URL).Invoke(context.Background(), Request{})
			assert.ErrorIs(t, err, ErrMalformedResponse)
		})
	}
}

func TestOpenAI_RetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"done"}}]}`))
	}))
	defer srv.Close()

	resp, err := newTestOpenAI(srv.URL).Invoke(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "done", resp.Text)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestOpenAI_ClientErrorIsNotRetried(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	_, err := newTestOpenAI(srv.URL).Invoke(context.Background(), Request{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestOpenAI_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newTestOpenAI(srv.URL).Invoke(ctx, Request{})
	assert.ErrorIs(t, err, ErrTimeout)
}
