package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

func TestIsGPT5(t *testing.T) {
	tests := []struct {
		name  string
		model string
		want  bool
	}{
		{name: "gpt5", model: "gpt-5", want: true},
		{name: "gpt5 variant", model: "gpt-5-mini", want: true},
		{name: "gpt5 uppercase", model: " GPT-5o ", want: true},
		{name: "gpt4", model: "gpt-4o", want: false},
		{name: "empty", model: "", want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := isGPT5(tt.model); got != tt.want {
				t.Fatalf("isGPT5(%q) = %v, want %v", tt.model, got, tt.want)
			}
		})
	}
}

func recordingServer(t *testing.T, replies ...string) (*httptest.Server, *[]map[string]any) {
	t.Helper()
	var mu sync.Mutex
	var bodies []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization header = %q", got)
		}
		mu.Lock()
		n := len(bodies)
		bodies = append(bodies, payload)
		mu.Unlock()

		reply := replies[len(replies)-1]
		if n < len(replies) {
			reply = replies[n]
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)
	return server, &bodies
}

func TestGenerateSendsPromptAsJSONObjectRequest(t *testing.T) {
	server, bodies := recordingServer(t, `{"choices":[{"message":{"role":"assistant","content":"{\"employerName\":\"Acme Corp\"}"}}]}`)
	client, err := NewClient("test-key", "gpt-4o-mini", server.URL, 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	out, err := client.Generate(context.Background(), "extract this")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if out != `{"employerName":"Acme Corp"}` {
		t.Fatalf("unexpected content %q", out)
	}
	body := (*bodies)[0]
	if body["model"] != "gpt-4o-mini" {
		t.Fatalf("model = %v", body["model"])
	}
	if rf, _ := body["response_format"].(map[string]any); rf["type"] != "json_object" {
		t.Fatalf("response_format = %v", body["response_format"])
	}
	msgs, _ := body["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["content"] != "extract this" {
		t.Fatalf("messages = %v", body["messages"])
	}
	if _, ok := body["temperature"]; !ok {
		t.Fatal("expected temperature to be sent")
	}
}

func TestGenerateRetriesWithoutTemperature(t *testing.T) {
	server, bodies := recordingServer(t,
		`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`,
		`{"choices":[{"message":{"content":"{}"}}]}`,
	)
	client, err := NewClient("test-key", "gpt-4o-mini", "", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	client.url = server.URL

	if _, err := client.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(*bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*bodies))
	}
	if _, ok := (*bodies)[1]["temperature"]; ok {
		t.Fatal("expected retry request to omit temperature")
	}
}

func TestGenerateNoInfiniteRetry(t *testing.T) {
	server, bodies := recordingServer(t,
		`{"error":{"message":"Unsupported value: 'temperature' does not support 0 with this model.","type":"invalid_request_error"}}`,
	)
	client, _ := NewClient("test-key", "gpt-4o-mini", "", 0)
	client.url = server.URL

	if _, err := client.Generate(context.Background(), "p"); err == nil {
		t.Fatal("expected error on repeated temperature response")
	}
	if len(*bodies) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(*bodies))
	}
}

func TestGenerateOmitsTemperatureForDenylist(t *testing.T) {
	t.Setenv("LLM_NO_TEMP0_MODELS", "o3-mini, gpt-4o-mini")
	server, bodies := recordingServer(t, `{"choices":[{"message":{"content":"{}"}}]}`)
	client, _ := NewClient("test-key", "gpt-4o-mini", "", 0)
	client.url = server.URL

	if _, err := client.Generate(context.Background(), "p"); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, ok := (*bodies)[0]["temperature"]; ok {
		t.Fatal("expected temperature to be omitted for denylisted model")
	}
}

func TestGenerateSurfacesHTTPStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()
	client, _ := NewClient("test-key", "gpt-4o-mini", "", 0)
	client.url = server.URL

	_, err := client.Generate(context.Background(), "p")
	if err == nil || !strings.Contains(err.Error(), "http status 502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestNewClientValidates(t *testing.T) {
	if _, err := NewClient("", "gpt-4o-mini", "", 0); err == nil {
		t.Fatal("expected missing key error")
	}
	if _, err := NewClient("k", " ", "", 0); err == nil {
		t.Fatal("expected missing model error")
	}
	c, err := NewClient("k", "m", "http://proxy.local/v1/", 0)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.url != "http://proxy.local/v1/chat/completions" {
		t.Fatalf("url = %q", c.url)
	}
}
