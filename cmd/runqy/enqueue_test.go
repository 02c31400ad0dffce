package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestParsePayloadJSON(t *testing.T) {
	payload, err := parsePayload([]byte(`{"to": "user@example.com", "retries": 3}`))
	if err != nil {
		t.Fatalf("parsePayload returned error: %v", err)
	}
	want := map[string]any{"to": "user@example.com", "retries": float64(3)}
	if !reflect.DeepEqual(payload, want) {
		t.Fatalf("expected structured payload, got %v", payload)
	}
}

func TestParsePayloadPlainString(t *testing.T) {
	payload, err := parsePayload([]byte("send the weekly report"))
	if err != nil {
		t.Fatalf("parsePayload returned error: %v", err)
	}
	if payload != "send the weekly report" {
		t.Fatalf("expected plain string payload, got %v", payload)
	}
}

func TestParsePayloadEmpty(t *testing.T) {
	if _, err := parsePayload([]byte("  \n")); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

func TestResolvePayloadPrefersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	if err := os.WriteFile(path, []byte(`{"n": 1}`), 0o644); err != nil {
		t.Fatalf("write payload file: %v", err)
	}

	payload, err := resolvePayload("ignored-arg", path, strings.NewReader("ignored-stdin"), true)
	if err != nil {
		t.Fatalf("resolvePayload returned error: %v", err)
	}
	want := map[string]any{"n": float64(1)}
	if !reflect.DeepEqual(payload, want) {
		t.Fatalf("expected file payload to win, got %v", payload)
	}
}

func TestResolvePayloadMissingFile(t *testing.T) {
	if _, err := resolvePayload("", filepath.Join(t.TempDir(), "absent.json"), nil, false); err == nil {
		t.Fatalf("expected error for missing payload file")
	}
}

func TestResolvePayloadFromStdin(t *testing.T) {
	payload, err := resolvePayload("", "", strings.NewReader(`"quoted"`), true)
	if err != nil {
		t.Fatalf("resolvePayload returned error: %v", err)
	}
	if payload != "quoted" {
		t.Fatalf("expected decoded stdin payload, got %v", payload)
	}
}

func TestResolvePayloadNothingProvided(t *testing.T) {
	if _, err := resolvePayload("", "", strings.NewReader("tty"), false); err == nil {
		t.Fatalf("expected error when no payload source is available")
	}
}
