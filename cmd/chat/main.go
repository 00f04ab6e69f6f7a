package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:3310", "Assist server URL")
	user := flag.String("user", "cli-user", "User name for chat")
	flag.Parse()

	fmt.Println("Assist CLI Chat")
	fmt.Printf("Server: %s | User: %s\n", *server, *user)
	fmt.Println("Type 'exit' or 'quit' to leave. 'new' starts a fresh conversation.")
	fmt.Println("Commands: /status, /suggestions, /traits")
	fmt.Println("---")

	var conversationID string

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		if input == "new" {
			conversationID = ""
			fmt.Println("Started a new conversation.")
			continue
		}
		if input == "/status" {
			fetchStatus(*server)
			continue
		}
		if input == "/suggestions" {
			fetchSuggestions(*server, *user)
			continue
		}
		if input == "/traits" {
			fetchTraits(*server, *user)
			continue
		}

		conversationID = sendMessage(*server, *user, conversationID, input)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}

func sendMessage(server, user, conversationID, content string) string {
	body, _ := json.Marshal(map[string]string{
		"username":        user,
		"conversation_id": conversationID,
		"message":         content,
	})

	client := &http.Client{Timeout: 125 * time.Second}
	resp, err := client.Post(server+"/api/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		printError("Request failed: %v", err)
		return conversationID
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return conversationID
	}

	var result struct {
		ConversationID string `json:"conversation_id"`
		Reply          string `json:"reply"`
		Suggestions    []struct {
			Title   string `json:"title"`
			Message string `json:"message"`
		} `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return conversationID
	}

	fmt.Println(result.Reply)
	for _, s := range result.Suggestions {
		fmt.Printf("\033[33m💡 %s — %s\033[0m\n", s.Title, s.Message)
	}
	return result.ConversationID
}

func fetchSuggestions(server, user string) {
	resp, err := http.Get(server + "/api/users/" + user + "/suggestions")
	if err != nil {
		printError("Failed to fetch suggestions: %v", err)
		return
	}
	defer resp.Body.Close()

	var out struct {
		Suggestions []struct {
			Type       string  `json:"type"`
			Title      string  `json:"title"`
			Message    string  `json:"message"`
			Confidence float64 `json:"confidence"`
		} `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		printError("Failed to parse suggestions: %v", err)
		return
	}
	if len(out.Suggestions) == 0 {
		fmt.Println("Nothing noticed yet — keep chatting.")
		return
	}
	fmt.Println("Suggestions:")
	for _, s := range out.Suggestions {
		fmt.Printf("  [%s] %s — %s (%.0f%%)\n", s.Type, s.Title, s.Message, s.Confidence*100)
	}
}

func fetchTraits(server, user string) {
	resp, err := http.Get(server + "/api/users/" + user + "/traits")
	if err != nil {
		printError("Failed to fetch traits: %v", err)
		return
	}
	defer resp.Body.Close()

	var traits map[string]float64
	if err := json.NewDecoder(resp.Body).Decode(&traits); err != nil {
		printError("Failed to parse traits: %v", err)
		return
	}
	fmt.Println("Current traits:")
	for _, name := range []string{"kindness", "directness", "encouragement", "accountability", "supportiveness", "wisdom_focus"} {
		if v, ok := traits[name]; ok {
			fmt.Printf("  %-15s %.2f\n", name, v)
		}
	}
}

func fetchStatus(server string) {
	resp, err := http.Get(server + "/api/gateway/status")
	if err != nil {
		printError("Failed to fetch status: %v", err)
		return
	}
	defer resp.Body.Close()

	var statuses []struct {
		Platform  string `json:"platform"`
		Connected bool   `json:"connected"`
		Error     string `json:"error,omitempty"`
		Details   string `json:"details,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
		printError("Failed to parse status: %v", err)
		return
	}
	fmt.Println("Gateway Status:")
	for _, s := range statuses {
		icon := "\033[31m✗\033[0m"
		if s.Connected {
			icon = "\033[32m✓\033[0m"
		}
		fmt.Printf("  %s %s", icon, s.Platform)
		if s.Details != "" {
			fmt.Printf(" — %s", s.Details)
		}
		if s.Error != "" {
			fmt.Printf(" \033[31m(%s)\033[0m", s.Error)
		}
		fmt.Println()
	}
}
