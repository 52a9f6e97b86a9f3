package capture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sleuth/internal/llm"
)

func TestFileSink_Capture(t *testing.T) {
	root := t.TempDir()
	sink, err := NewFileSink(root)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if !strings.HasPrefix(sink.Dir(), root) || len(sink.SessionID()) != 36 {
		t.Errorf("unexpected session: dir=%s id=%s", sink.Dir(), sink.SessionID())
	}

	req := &llm.ChatRequest{Model: "m", Messages: []llm.Message{llm.UserMessage("hi")}}
	if err := sink.Capture("0001-request", req); err != nil {
		t.Fatalf("Capture: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(sink.Dir(), "0001-request.json"))
	if err != nil {
		t.Fatalf("read capture: %v", err)
	}
	var got llm.ChatRequest
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("capture is not JSON: %v", err)
	}
	if got.Model != "m" || len(got.Messages) != 1 || got.Messages[0].Content != "hi" {
		t.Errorf("unexpected payload: %+v", got)
	}
}

func TestFileSink_NameCannotEscape(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	if err := sink.Capture("../../escape", map[string]string{"a": "b"}); err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if _, err := os.Stat(filepath.Join(sink.Dir(), "escape.json")); err != nil {
		t.Errorf("payload not written inside session dir: %v", err)
	}
}

func TestNewFileSink_Unavailable(t *testing.T) {
	if _, err := NewFileSink(""); err == nil {
		t.Error("expected error for empty root")
	}

	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, nil, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileSink(file); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestFileSink_UnmarshalablePayload(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := sink.Capture("bad", make(chan int)); err == nil {
		t.Error("expected marshal error")
	}
}
