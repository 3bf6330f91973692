package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bizradar/internal/agent"
	"bizradar/internal/llm"
	"bizradar/internal/store"
)

const analysisJSON = `{"summary":"Specialty coffee roaster","industry":"coffee","audience":"local professionals","strengths":["fresh beans"],"weaknesses":["no online store"],"keywords":["coffee","roastery"]}`

func TestAnalyzeWebsite_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintln(w, `<html><body><h1>Acme Coffee</h1><p>Small-batch roasting since 2012.</p></body></html>`)
	}))
	defer ts.Close()

	deps, st, mock := newTestDeps(t)
	mock.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		if !strings.Contains(req.User, "Small-batch roasting") {
			t.Errorf("page text not forwarded to model: %q", req.User)
		}
		if !strings.Contains(req.System, "Acme Coffee") {
			t.Errorf("business name not in system prompt: %q", req.System)
		}
		if !req.JSONOnly {
			t.Error("expected JSON-only chat request")
		}
		return &llm.ChatResponse{
			ID:      "chatcmpl_test_1",
			Model:   "gpt-test",
			Content: "```json\n" + analysisJSON + "\n```",
			Usage:   llm.Usage{PromptTokens: 100, CompletionTokens: 50},
		}, nil
	}

	user, profile := seedProfile(t, st, ts.URL)
	ag := New(deps)

	out, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err != nil {
		t.Fatalf("analyze_website failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success, got error %q", out.Error)
	}

	var got Analysis
	if err := json.Unmarshal(out.Data, &got); err != nil {
		t.Fatalf("bad output data: %v", err)
	}
	if got.Summary != "Specialty coffee roaster" {
		t.Errorf("summary mismatch: got %q", got.Summary)
	}
	if len(got.Strengths) != 1 || got.Strengths[0] != "fresh beans" {
		t.Errorf("strengths mismatch: got %v", got.Strengths)
	}
	if out.Metadata.Model != "gpt-test" {
		t.Errorf("metadata model mismatch: got %q", out.Metadata.Model)
	}
	if out.Metadata.PromptTokens != 100 || out.Metadata.CompletionTokens != 50 {
		t.Errorf("metadata tokens mismatch: got %+v", out.Metadata)
	}

	stored, err := st.ProfileByID(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	if !strings.Contains(string(stored.Analysis), "Specialty coffee roaster") {
		t.Errorf("analysis not cached on profile: %s", stored.Analysis)
	}

	inters, err := st.InteractionsByProfile(context.Background(), profile.ID, 10)
	if err != nil {
		t.Fatalf("list interactions: %v", err)
	}
	if len(inters) != 1 {
		t.Fatalf("expected 1 interaction, got %d", len(inters))
	}
	if inters[0].Status != store.InteractionCompleted {
		t.Errorf("interaction status: got %s", inters[0].Status)
	}
	if inters[0].Tool != "analyze_website" {
		t.Errorf("interaction tool: got %s", inters[0].Tool)
	}
	if inters[0].PromptTokens != 100 {
		t.Errorf("interaction prompt tokens: got %d", inters[0].PromptTokens)
	}
	if inters[0].CompletedAt == nil {
		t.Error("interaction should carry a completion time")
	}
}

func TestAnalyzeWebsite_URLOverride(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body><p>Landing page copy.</p></body></html>`)
	}))
	defer ts.Close()

	deps, st, _ := newTestDeps(t)
	user, profile := seedProfile(t, st, "")
	ag := New(deps)

	out, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{"url": ts.URL},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err != nil {
		t.Fatalf("analyze_website with explicit url failed: %v", err)
	}
	if !out.Success {
		t.Fatalf("expected success, got error %q", out.Error)
	}
}

func TestAnalyzeWebsite_NoURL(t *testing.T) {
	deps, st, mock := newTestDeps(t)
	user, profile := seedProfile(t, st, "")
	ag := New(deps)

	out, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err == nil {
		t.Fatal("expected error for profile without website_url")
	}
	if out.Success {
		t.Error("envelope should report failure")
	}
	if calls := mock.ChatCalls(); len(calls) != 0 {
		t.Errorf("model should not be called, got %d calls", len(calls))
	}
}

func TestAnalyzeWebsite_FetchError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	deps, st, _ := newTestDeps(t)
	user, profile := seedProfile(t, st, ts.URL)
	ag := New(deps)

	_, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err == nil {
		t.Fatal("expected error for 404 page")
	}
	if !strings.Contains(err.Error(), "HTTP 404") {
		t.Errorf("expected 404 error, got: %v", err)
	}

	// Nothing reached the provider, so nothing is recorded.
	inters, _ := st.InteractionsByProfile(context.Background(), profile.ID, 10)
	if len(inters) != 0 {
		t.Errorf("expected no interactions, got %d", len(inters))
	}
}

func TestAnalyzeWebsite_NoJSONRecordsFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `<html><body><p>Some page.</p></body></html>`)
	}))
	defer ts.Close()

	deps, st, mock := newTestDeps(t)
	mock.ChatFunc = func(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{ID: "chatcmpl_x", Model: "gpt-test", Content: "I cannot produce an analysis."}, nil
	}

	user, profile := seedProfile(t, st, ts.URL)
	ag := New(deps)

	_, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err == nil {
		t.Fatal("expected error when model returns no JSON")
	}

	inters, _ := st.InteractionsByProfile(context.Background(), profile.ID, 10)
	if len(inters) != 1 {
		t.Fatalf("expected failed interaction recorded, got %d rows", len(inters))
	}
	if inters[0].Status != store.InteractionFailed {
		t.Errorf("interaction status: got %s", inters[0].Status)
	}
	if !strings.Contains(inters[0].Error, "no JSON") {
		t.Errorf("interaction error mismatch: got %q", inters[0].Error)
	}

	// The profile keeps whatever analysis it had (none).
	stored, _ := st.ProfileByID(context.Background(), profile.ID)
	if len(stored.Analysis) != 0 {
		t.Errorf("analysis should not be set on failure: %s", stored.Analysis)
	}
}

func TestAnalyzeWebsite_BadMaxCharsType(t *testing.T) {
	deps, st, _ := newTestDeps(t)
	user, profile := seedProfile(t, st, "https://acme.example")
	ag := New(deps)

	_, err := ag.Execute(context.Background(), "analyze_website", agent.Input{
		Args:      map[string]any{"max_chars": "many"},
		UserID:    user.ID,
		ProfileID: profile.ID,
	})
	if err == nil {
		t.Fatal("expected schema validation error")
	}
}
