package agent

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSchema_Validate(t *testing.T) {
	schema := Schema{
		Required: []string{"website_url"},
		Properties: map[string]Property{
			"website_url": {Type: "string", Description: "site to analyze"},
			"depth":       {Type: "number", Description: "crawl depth"},
			"fresh":       {Type: "boolean", Description: "skip cached analysis"},
			"filters":     {Type: "object", Description: "extra filters"},
			"markets":     {Type: "array", Description: "target markets", Items: &PropertyItems{Type: "string"}},
		},
	}

	t.Run("valid args", func(t *testing.T) {
		args := map[string]any{
			"website_url": "https://example.com",
			"depth":       float64(2),
			"fresh":       true,
			"filters":     map[string]any{"region": "EU"},
			"markets":     []any{"de", "fr"},
		}
		if err := schema.Validate(args); err != nil {
			t.Errorf("expected valid args, got %v", err)
		}
	})

	t.Run("missing required", func(t *testing.T) {
		err := schema.Validate(map[string]any{"depth": float64(1)})
		if !errors.Is(err, ErrMissingRequiredArg) {
			t.Errorf("expected ErrMissingRequiredArg, got %v", err)
		}
	})

	t.Run("wrong string type", func(t *testing.T) {
		err := schema.Validate(map[string]any{"website_url": 42})
		if !errors.Is(err, ErrInvalidArgType) {
			t.Errorf("expected ErrInvalidArgType, got %v", err)
		}
	})

	t.Run("wrong number type", func(t *testing.T) {
		err := schema.Validate(map[string]any{"website_url": "https://example.com", "depth": "two"})
		if !errors.Is(err, ErrInvalidArgType) {
			t.Errorf("expected ErrInvalidArgType, got %v", err)
		}
	})

	t.Run("wrong boolean type", func(t *testing.T) {
		err := schema.Validate(map[string]any{"website_url": "https://example.com", "fresh": "yes"})
		if !errors.Is(err, ErrInvalidArgType) {
			t.Errorf("expected ErrInvalidArgType, got %v", err)
		}
	})

	t.Run("nil value is skipped", func(t *testing.T) {
		err := schema.Validate(map[string]any{"website_url": "https://example.com", "depth": nil})
		if err != nil {
			t.Errorf("expected nil values to pass, got %v", err)
		}
	})

	t.Run("undeclared args pass through", func(t *testing.T) {
		err := schema.Validate(map[string]any{"website_url": "https://example.com", "extra": 1})
		if err != nil {
			t.Errorf("expected undeclared args to pass, got %v", err)
		}
	})
}

func TestOutputConstructors(t *testing.T) {
	out := Succeed(map[string]string{"verdict": "strong"})
	if !out.Success {
		t.Error("expected Success=true")
	}
	var decoded map[string]string
	if err := json.Unmarshal(out.Data, &decoded); err != nil {
		t.Fatalf("Data did not round-trip: %v", err)
	}
	if decoded["verdict"] != "strong" {
		t.Errorf("expected verdict=strong, got %s", decoded["verdict"])
	}

	fail := Fail(errors.New("provider unavailable"))
	if fail.Success {
		t.Error("expected Success=false")
	}
	if fail.Error != "provider unavailable" {
		t.Errorf("expected error text, got %q", fail.Error)
	}

	// Unmarshalable values degrade into a failed envelope
	bad := Succeed(make(chan int))
	if bad.Success {
		t.Error("expected marshal failure to produce a failed envelope")
	}
}

func TestTool_Validate(t *testing.T) {
	tool := &Tool{}
	if err := tool.Validate(); !errors.Is(err, ErrToolNameEmpty) {
		t.Errorf("expected ErrToolNameEmpty, got %v", err)
	}

	tool.Name = "analyze_website"
	if err := tool.Validate(); !errors.Is(err, ErrToolExecuteNil) {
		t.Errorf("expected ErrToolExecuteNil, got %v", err)
	}
}

func TestInput_String(t *testing.T) {
	in := Input{Args: map[string]any{"name": "Acme", "count": 3}}
	if got := in.String("name", "fallback"); got != "Acme" {
		t.Errorf("expected Acme, got %s", got)
	}
	if got := in.String("missing", "fallback"); got != "fallback" {
		t.Errorf("expected fallback, got %s", got)
	}
	if got := in.String("count", "fallback"); got != "fallback" {
		t.Errorf("expected fallback for non-string, got %s", got)
	}
}
