package competition

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizradar/internal/llm"
	"bizradar/internal/prompt"
	"bizradar/internal/store"
)

func newTestDeps(t *testing.T) (Deps, *store.Store, *llm.MockClient) {
	t.Helper()

	st, err := store.Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	reg, err := prompt.NewRegistry("", zap.NewNop())
	if err != nil {
		t.Fatalf("prompt registry: %v", err)
	}

	mock := llm.NewMockClient()
	return Deps{
		Store:     st,
		LLM:       mock,
		Prompts:   reg,
		PromptIDs: map[string]string{"find_competitors": "pmpt_find_test"},
		Logger:    zap.NewNop(),
	}, st, mock
}

func seedProfile(t *testing.T, st *store.Store) (*store.User, *store.BusinessProfile) {
	t.Helper()

	user, err := st.CreateUser(context.Background(), uuid.NewString()+"@example.com", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	profile := &store.BusinessProfile{
		UserID:     user.ID,
		Name:       "Acme Coffee",
		WebsiteURL: "https://acme.example",
		Industry:   "specialty coffee",
	}
	if err := st.CreateProfile(context.Background(), profile); err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return user, profile
}

func TestNew_RegistersTools(t *testing.T) {
	deps, _, _ := newTestDeps(t)
	ag := New(deps)

	if ag.Name() != "competition" {
		t.Errorf("agent name mismatch: got %q", ag.Name())
	}
	for _, name := range []string{"find_competitors", "compare_competitor"} {
		if ag.Tool(name) == nil {
			t.Errorf("tool %s not registered", name)
		}
	}
}
