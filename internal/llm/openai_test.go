package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewOpenAIClient(Config{APIKey: "test-key"}, nil)
	client.baseURL = server.URL
	client.retryBackoff = time.Millisecond
	return client
}

func TestOpenAIClient_ChatCompletion_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("expected /chat/completions, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Error("expected test-key authorization")
		}

		var body chatRequest
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("expected system+user messages, got %+v", body.Messages)
		}
		if body.ResponseFormat != nil {
			t.Error("expected no response_format by default")
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-123",
			"model": "gpt-4o",
			"choices": [{"message": {"role": "assistant", "content": " The verdict is strong. "}}],
			"usage": {"prompt_tokens": 50, "completion_tokens": 10, "total_tokens": 60}
		}`))
	})

	resp, err := client.ChatCompletion(context.Background(), ChatRequest{
		System: "You analyze websites.",
		User:   "Analyze https://example.com",
	})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if resp.Content != "The verdict is strong." {
		t.Errorf("expected trimmed content, got %q", resp.Content)
	}
	if resp.ID != "chatcmpl-123" {
		t.Errorf("expected response id, got %q", resp.ID)
	}
	if resp.Usage.PromptTokens != 50 || resp.Usage.CompletionTokens != 10 {
		t.Errorf("unexpected usage: %+v", resp.Usage)
	}
}

func TestOpenAIClient_ChatCompletion_JSONOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.ResponseFormat == nil || body.ResponseFormat.Type != "json_object" {
			t.Errorf("expected json_object response_format, got %+v", body.ResponseFormat)
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "{}"}}]}`))
	})

	_, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go", JSONOnly: true})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
}

func TestOpenAIClient_ChatCompletion_RetryAndBackoff(t *testing.T) {
	attempts := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices": [{"message": {"content": "ok"}}]}`))
	})

	resp, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go"})
	if err != nil {
		t.Fatalf("ChatCompletion failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts (2 retries), got %d", attempts)
	}
	if resp.Content != "ok" {
		t.Errorf("unexpected content: %q", resp.Content)
	}
}

func TestOpenAIClient_ChatCompletion_Errors(t *testing.T) {
	t.Run("API error envelope", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error": {"message": "model overloaded", "type": "server_error"}}`))
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go"})
		if err == nil {
			t.Fatal("expected error from error envelope")
		}
	})

	t.Run("no choices", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices": []}`))
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go"})
		if !errors.Is(err, ErrNoCompletion) {
			t.Errorf("expected ErrNoCompletion, got %v", err)
		}
	})

	t.Run("non-200 status is not retried", func(t *testing.T) {
		attempts := 0
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			attempts++
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error": {"message": "bad request"}}`))
		})
		_, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go"})
		if err == nil {
			t.Fatal("expected error for 400")
		}
		if attempts != 1 {
			t.Errorf("expected single attempt, got %d", attempts)
		}
	})

	t.Run("missing API key", func(t *testing.T) {
		client := NewOpenAIClient(Config{}, nil)
		_, err := client.ChatCompletion(context.Background(), ChatRequest{User: "go"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	})
}

func TestOpenAIClient_CreateResponse_Background(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/responses" {
			t.Errorf("expected /responses, got %s", r.URL.Path)
		}

		var body responseRequest
		json.NewDecoder(r.Body).Decode(&body)
		if body.Prompt == nil || body.Prompt.ID != "pmpt_abc" {
			t.Errorf("expected prompt id pmpt_abc, got %+v", body.Prompt)
		}
		if body.Prompt.Variables["business_name"] != "Acme" {
			t.Errorf("expected variables to pass through, got %+v", body.Prompt.Variables)
		}
		if !body.Background {
			t.Error("expected background=true")
		}

		w.Write([]byte(`{"id": "resp_123", "status": "queued", "model": "gpt-4o", "output": []}`))
	})

	resp, err := client.CreateResponse(context.Background(), ResponseRequest{
		PromptID:   "pmpt_abc",
		Variables:  map[string]string{"business_name": "Acme"},
		Background: true,
	})
	if err != nil {
		t.Fatalf("CreateResponse failed: %v", err)
	}
	if resp.ID != "resp_123" {
		t.Errorf("expected resp_123, got %s", resp.ID)
	}
	if resp.Status != StatusQueued {
		t.Errorf("expected queued, got %s", resp.Status)
	}
	if resp.Status.Terminal() {
		t.Error("queued must not be terminal")
	}
}

func TestOpenAIClient_CreateResponse_Sync(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"id": "resp_456",
			"status": "completed",
			"model": "gpt-4o",
			"output": [
				{"type": "reasoning"},
				{"type": "message", "content": [
					{"type": "output_text", "text": "{\"competitors\":"},
					{"type": "output_text", "text": "[]}"}
				]}
			],
			"usage": {"input_tokens": 80, "output_tokens": 20, "total_tokens": 100}
		}`))
	})

	resp, err := client.CreateResponse(context.Background(), ResponseRequest{PromptID: "pmpt_abc"})
	if err != nil {
		t.Fatalf("CreateResponse failed: %v", err)
	}
	if resp.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", resp.Status)
	}
	if resp.Output != `{"competitors":[]}` {
		t.Errorf("expected concatenated output text, got %q", resp.Output)
	}
	if resp.Usage.PromptTokens != 80 || resp.Usage.CompletionTokens != 20 {
		t.Errorf("unexpected usage mapping: %+v", resp.Usage)
	}
}

func TestOpenAIClient_CreateResponse_RequiresPromptID(t *testing.T) {
	client := NewOpenAIClient(Config{APIKey: "test-key"}, nil)
	if _, err := client.CreateResponse(context.Background(), ResponseRequest{}); err == nil {
		t.Error("expected error for missing prompt id")
	}
}

func TestOpenAIClient_GetResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if r.URL.Path != "/responses/resp_123" {
			t.Errorf("expected /responses/resp_123, got %s", r.URL.Path)
		}
		w.Write([]byte(`{
			"id": "resp_123",
			"status": "failed",
			"model": "gpt-4o",
			"output": [],
			"error": {"code": "server_error", "message": "the model crashed"}
		}`))
	})

	resp, err := client.GetResponse(context.Background(), "resp_123")
	if err != nil {
		t.Fatalf("GetResponse failed: %v", err)
	}
	if resp.Status != StatusFailed {
		t.Errorf("expected failed, got %s", resp.Status)
	}
	if !resp.Status.Terminal() {
		t.Error("failed must be terminal")
	}
	if resp.Error != "the model crashed" {
		t.Errorf("expected provider error text, got %q", resp.Error)
	}
}

func TestStatus_Terminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled, StatusIncomplete}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	running := []Status{StatusQueued, StatusInProgress, Status("validating")}
	for _, s := range running {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}
