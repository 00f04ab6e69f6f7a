//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"
)

var baseURL string

func TestMain(m *testing.M) {
	baseURL = os.Getenv("ASSIST_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3310"
	}

	// Wait for server readiness (up to 30s)
	ready := false
	for i := 0; i < 30; i++ {
		resp, err := http.Get(baseURL + "/api/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				ready = true
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	if !ready {
		fmt.Fprintf(os.Stderr, "server at %s not ready after 30s\n", baseURL)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// chatRequest is the payload sent to the chat endpoint.
type chatRequest struct {
	Username       string `json:"username"`
	ConversationID string `json:"conversation_id,omitempty"`
	Message        string `json:"message"`
}

// chatResponse is the result returned by the chat endpoint.
type chatResponse struct {
	ConversationID string `json:"conversation_id"`
	Reply          string `json:"reply"`
}

// sendChat POSTs a chat message and returns the response.
func sendChat(t *testing.T, conversationID, content string) chatResponse {
	t.Helper()

	body, err := json.Marshal(chatRequest{
		Username:       "smokebot",
		ConversationID: conversationID,
		Message:        content,
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Post(
		baseURL+"/api/chat",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response body: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.StatusCode, string(raw))
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal response: %v (body: %s)", err, string(raw))
	}
	return out
}

func getJSON(t *testing.T, path string, v any) {
	t.Helper()
	resp, err := http.Get(baseURL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		t.Fatalf("GET %s: status %d: %s", path, resp.StatusCode, string(raw))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
}

func TestPlainMessage(t *testing.T) {
	res := sendChat(t, "", "Hello, please introduce yourself briefly.")
	if res.ConversationID == "" {
		t.Error("expected a conversation ID")
	}
	if len(res.Reply) <= 10 {
		t.Errorf("expected meaningful response (len > 10), got len=%d: %s", len(res.Reply), res.Reply)
	}
	t.Logf("reply: %.300s", res.Reply)
}

func TestConversationContinuity(t *testing.T) {
	first := sendChat(t, "", "My favorite color is teal. Remember that.")
	second := sendChat(t, first.ConversationID, "What did I just tell you?")
	if second.ConversationID != first.ConversationID {
		t.Errorf("conversation ID changed: %s -> %s", first.ConversationID, second.ConversationID)
	}
	t.Logf("reply: %.300s", second.Reply)
}

func TestUsersListed(t *testing.T) {
	sendChat(t, "", "just making sure I exist")
	var out struct {
		Users []string `json:"users"`
	}
	getJSON(t, "/api/users", &out)
	found := false
	for _, u := range out.Users {
		if u == "smokebot" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected smokebot in users, got %v", out.Users)
	}
}

func TestTraits(t *testing.T) {
	var traits map[string]float64
	getJSON(t, "/api/users/smokebot/traits", &traits)
	if _, ok := traits["kindness"]; !ok {
		t.Errorf("expected kindness trait, got %v", traits)
	}
}

func TestPrompt(t *testing.T) {
	var out struct {
		Prompt string `json:"prompt"`
	}
	getJSON(t, "/api/users/smokebot/prompt", &out)
	if out.Prompt == "" {
		t.Error("expected a non-empty system prompt")
	}
	t.Logf("prompt: %.300s", out.Prompt)
}

func TestGatewayStatus(t *testing.T) {
	var statuses []struct {
		Platform  string `json:"platform"`
		Connected bool   `json:"connected"`
	}
	getJSON(t, "/api/gateway/status", &statuses)
	found := false
	for _, s := range statuses {
		if s.Platform == "rest" && s.Connected {
			found = true
		}
	}
	if !found {
		t.Errorf("expected connected rest adapter, got %v", statuses)
	}
}
