package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTruncateForLog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		limit  int
		expect string
	}{
		{name: "returns empty when limit non-positive", input: "hello world", limit: 0, expect: ""},
		{name: "shorter than limit", input: "hello", limit: 10, expect: "hello"},
		{name: "truncates and adds ellipsis", input: "hello world", limit: 5, expect: "hello..."},
		{name: "trims surrounding whitespace", input: "  spaced  ", limit: 5, expect: "space..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := TruncateForLog(tt.input, tt.limit); got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestMask(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                "",
		"abc":             "***",
		"sk-ant-api03-xy": "***********3-xy",
	}
	for input, expect := range tests {
		if got := Mask(input); got != expect {
			t.Fatalf("Mask(%q): expected %q, got %q", input, expect, got)
		}
	}
}

func TestWaitForReturnsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := WaitFor(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWaitForElapses(t *testing.T) {
	if err := WaitFor(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := WaitFor(context.Background(), 0); err != nil {
		t.Fatalf("zero duration should not fail: %v", err)
	}
}
