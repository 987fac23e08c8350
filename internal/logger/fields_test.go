package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  platform  ", Value: "  upwork  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "platform" || fields[0].String != "upwork" {
		t.Fatalf("unexpected platform field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	if ctx := entries[0].ContextMap(); ctx["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %q", ctx["foo"])
	}

	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	enriched.Info("another log")
}

func TestCommonFields(t *testing.T) {
	fields := CommonFields("  claude  ", "claude-3-haiku")
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}

	if fields[0].Key != FieldProvider || fields[0].String != "claude" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if fields[1].Key != FieldModel || fields[1].String != "claude-3-haiku" {
		t.Fatalf("unexpected model field: %+v", fields[1])
	}

	if empty := CommonFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithPlatform(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithPlatform(zap.New(core), "indeed").Info("search")
	WithPlatform(zap.New(core), " ").Info("no platform")

	entries := observed.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()[FieldPlatform] != "indeed" {
		t.Fatalf("expected platform field, got %v", entries[0].ContextMap())
	}
	if _, ok := entries[1].ContextMap()[FieldPlatform]; ok {
		t.Fatalf("did not expect platform field for blank platform")
	}
}
