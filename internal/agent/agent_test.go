package agent

import (
	"context"
	"errors"
	"testing"
)

func echoTool() *Tool {
	return &Tool{
		Name:        "echo",
		Description: "returns its message argument",
		Schema: Schema{
			Required:   []string{"message"},
			Properties: map[string]Property{"message": {Type: "string"}},
		},
		Execute: func(ctx context.Context, in Input) (*Output, error) {
			return Succeed(map[string]any{"message": in.Args["message"]}), nil
		},
	}
}

func TestAgent_RegisterAndLookup(t *testing.T) {
	a := New("analyst", "site analysis", nil)

	if err := a.Register(echoTool()); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if a.Tool("echo") == nil {
		t.Error("expected to find registered tool")
	}
	if a.Tool("nope") != nil {
		t.Error("expected nil for unregistered tool")
	}

	err := a.Register(echoTool())
	if !errors.Is(err, ErrToolAlreadyRegistered) {
		t.Errorf("expected ErrToolAlreadyRegistered, got %v", err)
	}
}

func TestAgent_Execute(t *testing.T) {
	a := New("analyst", "site analysis", nil)
	a.MustRegister(echoTool())

	out, err := a.Execute(context.Background(), "echo", Input{
		Args: map[string]any{"message": "hello"},
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !out.Success {
		t.Errorf("expected success, got error %q", out.Error)
	}
	if out.Metadata.DurationMs < 0 {
		t.Errorf("expected non-negative duration, got %d", out.Metadata.DurationMs)
	}
}

func TestAgent_Execute_ToolNotFound(t *testing.T) {
	a := New("analyst", "site analysis", nil)

	_, err := a.Execute(context.Background(), "missing", Input{})
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestAgent_Execute_ValidationFailure(t *testing.T) {
	a := New("analyst", "site analysis", nil)
	a.MustRegister(echoTool())

	out, err := a.Execute(context.Background(), "echo", Input{Args: map[string]any{}})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("expected ErrMissingRequiredArg, got %v", err)
	}
	if out == nil {
		t.Fatal("expected an envelope even on validation failure")
	}
	if out.Success {
		t.Error("expected failed envelope")
	}
	if out.Error == "" {
		t.Error("expected error text in envelope")
	}
}

func TestAgent_Execute_ErrorsAreNormalized(t *testing.T) {
	a := New("analyst", "site analysis", nil)

	boom := errors.New("upstream exploded")
	a.MustRegister(&Tool{
		Name: "boom",
		Execute: func(ctx context.Context, in Input) (*Output, error) {
			return nil, boom
		},
	})
	a.MustRegister(&Tool{
		Name: "silent",
		Execute: func(ctx context.Context, in Input) (*Output, error) {
			return nil, nil
		},
	})

	out, err := a.Execute(context.Background(), "boom", Input{})
	if !errors.Is(err, boom) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if out == nil || out.Success {
		t.Error("expected failed envelope for erroring tool")
	}
	if out.Error != "upstream exploded" {
		t.Errorf("expected envelope to carry error text, got %q", out.Error)
	}

	// A tool that returns neither output nor error still yields an envelope.
	out, err = a.Execute(context.Background(), "silent", Input{})
	if err == nil {
		t.Error("expected error for tool returning no output")
	}
	if out == nil || out.Success {
		t.Error("expected failed envelope for silent tool")
	}
}

func TestAgent_Capabilities(t *testing.T) {
	a := New("analyst", "site analysis", nil)
	a.MustRegister(echoTool())
	a.MustRegister(&Tool{
		Name:       "start_site_audit",
		Background: true,
		Execute: func(ctx context.Context, in Input) (*Output, error) {
			return Succeed("queued"), nil
		},
	})

	caps := a.Capabilities()
	if len(caps) != 2 {
		t.Fatalf("expected 2 capabilities, got %d", len(caps))
	}
	// Sorted by name: echo before start_site_audit
	if caps[0].Name != "echo" || caps[1].Name != "start_site_audit" {
		t.Errorf("expected sorted capabilities, got %s, %s", caps[0].Name, caps[1].Name)
	}
	if !caps[1].Background {
		t.Error("expected start_site_audit to be marked background")
	}
}
