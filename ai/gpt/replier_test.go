package gpt

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"WaRelay/entity"
	"github.com/sashabaranov/go-openai"
)

func TestReply(t *testing.T) {
	var got openai.ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("Authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":" We open at 9. "},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	r := NewReplier("sk-test", srv.URL+"/v1", "", "You are a shop assistant.", slog.New(slog.NewTextHandler(io.Discard, nil)))
	reply, err := r.Reply(context.Background(), "When do you open?", entity.ReplyContext{UserID: "15551234567"})
	if err != nil {
		t.Fatalf("Reply() error = %v", err)
	}
	if reply.Text != "We open at 9." {
		t.Errorf("reply = %q", reply.Text)
	}
	if got.Model != defaultModel || got.User != "15551234567" {
		t.Errorf("request = %+v", got)
	}
	if len(got.Messages) != 2 || got.Messages[0].Role != openai.ChatMessageRoleSystem || got.Messages[1].Content != "When do you open?" {
		t.Errorf("messages = %+v", got.Messages)
	}
}

func TestReplyNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-2","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	r := NewReplier("sk-test", srv.URL, "gpt-4o", "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if _, err := r.Reply(context.Background(), "hi", entity.ReplyContext{}); !errors.Is(err, ErrNoChoices) {
		t.Fatalf("error = %v, want ErrNoChoices", err)
	}
}
