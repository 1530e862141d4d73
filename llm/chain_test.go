package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestChainFallsBackToThirdModel(t *testing.T) {
	client := NewFakeClient().
		Fail("gpt-4o", errors.New("quota exceeded")).
		Fail("gpt-4-turbo", errors.New("model overloaded")).
		Respond("gpt-4", `{"ok": true}`)

	chain := NewChain(client, []string{"gpt-4o", "gpt-4-turbo", "gpt-4", "gpt-3.5-turbo"}, time.Second)

	result, err := chain.Complete(context.Background(), []Message{{Role: "user", Content: "hi"}}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Text != `{"ok": true}` {
		t.Errorf("Text = %q", result.Text)
	}
	if result.Model != "gpt-4" {
		t.Errorf("Model = %q, want gpt-4", result.Model)
	}
	if result.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", result.Failures())
	}
	want := []string{"gpt-4o", "gpt-4-turbo", "gpt-4"}
	if len(client.Calls) != len(want) {
		t.Fatalf("calls = %v, want %v", client.Calls, want)
	}
	for i := range want {
		if client.Calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, client.Calls[i], want[i])
		}
	}
}

func TestChainAllModelsFail(t *testing.T) {
	lastErr := errors.New("last model broke")
	client := NewFakeClient().
		Fail("a", errors.New("first model broke")).
		Fail("b", lastErr)

	chain := NewChain(client, []string{"a", "b"}, time.Second)
	result, err := chain.Complete(context.Background(), nil, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("error should wrap the last attempt's error, got %v", err)
	}
	if result.Failures() != 2 {
		t.Errorf("Failures = %d, want 2", result.Failures())
	}
}

func TestChainObserve(t *testing.T) {
	client := NewFakeClient().
		Fail("a", errors.New("boom")).
		Respond("b", "ok")

	chain := NewChain(client, []string{"a", "b"}, time.Second)
	var seen []Attempt
	chain.Observe = func(a Attempt) { seen = append(seen, a) }

	if _, err := chain.Complete(context.Background(), nil, Options{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("observed %d attempts, want 2", len(seen))
	}
	if seen[0].Err == nil || seen[1].Err != nil {
		t.Errorf("attempt outcomes wrong: %+v", seen)
	}
}

func TestChainStopsOnParentCancel(t *testing.T) {
	client := NewFakeClient().
		Fail("a", context.Canceled).
		Respond("b", "should never be reached")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	chain := NewChain(client, []string{"a", "b"}, time.Second)
	if _, err := chain.Complete(ctx, nil, Options{}); err == nil {
		t.Fatal("expected error")
	}
	if len(client.Calls) != 1 {
		t.Errorf("calls = %v, chain should stop after parent cancellation", client.Calls)
	}
}

func TestChainNoModels(t *testing.T) {
	chain := NewChain(NewFakeClient(), nil, time.Second)
	if _, err := chain.Complete(context.Background(), nil, Options{}); err == nil {
		t.Fatal("expected error for empty model list")
	}
}

func TestOpenAIClientJSONMode(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"x\"}"}}]}`))
	}))
	defer srv.Close()

	client := NewOpenAI("key")
	client.baseURL = srv.URL

	text, err := client.Complete(context.Background(), "gpt-4o",
		[]Message{{Role: "system", Content: "json only"}}, Options{MaxTokens: 100, JSONOnly: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != `{"title":"x"}` {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(gotBody, `"response_format":{"type":"json_object"}`) {
		t.Errorf("request missing json response_format: %s", gotBody)
	}
	if !strings.Contains(gotBody, `"model":"gpt-4o"`) {
		t.Errorf("request missing model: %s", gotBody)
	}
}

func TestAnthropicSystemPromotion(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = string(buf)
		w.Write([]byte(`{"content":[{"type":"text","text":"described"}]}`))
	}))
	defer srv.Close()

	client := NewAnthropic("key")
	client.baseURL = srv.URL

	text, err := client.Complete(context.Background(), "claude-3-haiku-20240307", []Message{
		{Role: "system", Content: "be terse"},
		{Role: "user", Content: "hello"},
	}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "described" {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(gotBody, `"system":"be terse"`) {
		t.Errorf("system message not promoted to top-level field: %s", gotBody)
	}
	if strings.Contains(gotBody, `"role":"system"`) {
		t.Errorf("system role leaked into messages: %s", gotBody)
	}
}
