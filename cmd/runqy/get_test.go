package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	runqy "github.com/Publikey/runqy-go"
)

func TestFormatTaskShowsPopulatedFields(t *testing.T) {
	task := &runqy.TaskInfo{
		TaskID:  "t-1",
		Queue:   "emails",
		State:   runqy.StateCompleted,
		Result:  map[string]any{"score": 0.9},
		Payload: "raw text",
	}

	out := formatTask(task)
	for _, want := range []string{"t-1", "emails", "completed", "score", "raw text"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Last error") {
		t.Fatalf("empty last error must be omitted:\n%s", out)
	}
}

func TestFormatTaskShowsLastError(t *testing.T) {
	task := &runqy.TaskInfo{TaskID: "t-2", State: runqy.StateFailed, LastErr: "handler panicked"}

	out := formatTask(task)
	if !strings.Contains(out, "handler panicked") {
		t.Fatalf("expected the failure reason in output:\n%s", out)
	}
}

func TestRenderValuePassesStringsThrough(t *testing.T) {
	if got := renderValue("already text"); got != "already text" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	if got := renderValue(map[string]any{"n": 1}); !strings.Contains(got, `"n"`) {
		t.Fatalf("expected JSON rendering for structured values, got %q", got)
	}
}

func TestPrintTaskJSON(t *testing.T) {
	task := &runqy.TaskInfo{TaskID: "t-3", Queue: "emails", State: runqy.StateActive}

	var buf bytes.Buffer
	if err := printTaskJSON(&buf, task); err != nil {
		t.Fatalf("printTaskJSON returned error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["task_id"] != "t-3" || decoded["state"] != "active" {
		t.Fatalf("unexpected JSON output: %v", decoded)
	}
}
