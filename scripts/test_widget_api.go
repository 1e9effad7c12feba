package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func dataField(body []byte, key string) string {
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	json.Unmarshal(body, &envelope)
	if s, ok := envelope.Data[key].(string); ok {
		return s
	}
	return ""
}

func main() {
	color.Cyan("🚀 Starting Widget Token & Session API Test\n")

	username := "smoke-" + uuid.New().String()[:8]
	password := "smoke-test-pass"

	color.Yellow("\n[OWNER] 1. Register")
	resp, body, err := sendRequest("POST", "/auth/register", "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n[OWNER] 2. Login")
	resp, body, err = sendRequest("POST", "/auth/login", "", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	accessToken := dataField(body, "access_token")
	if accessToken == "" {
		color.Red("No access token in response")
		prettyPrint(body)
		os.Exit(1)
	}

	color.Yellow("\n[OWNER] 3. Generate Widget Token (auto-creates default bot)")
	resp, body, err = sendRequest("POST", "/widget/generate", accessToken, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)
	widgetToken := dataField(body, "widget_token")
	botId := dataField(body, "bot_id")

	color.Yellow("\n[VISITOR] 4. Start Session")
	resp, body, err = sendRequest("POST", "/widget/session/start", widgetToken, map[string]string{
		"visitor_identifier": "smoke-visitor",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)
	sessionToken := dataField(body, "session_token")

	color.Yellow("\n[VISITOR] 5. Chat")
	resp, body, err = sendRequest("POST", "/widget/chat", widgetToken, map[string]string{
		"session_token": sessionToken,
		"message":       "Hello, what can you do?",
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n[VISITOR] 6. Refresh Widget Token")
	resp, body, err = sendRequest("POST", "/widget/refresh", "", map[string]string{
		"widget_token": widgetToken,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Yellow("\n[OWNER] 7. Revoke All Widget Tokens")
	resp, body, err = sendRequest("POST", "/widget/revoke", accessToken, map[string]string{
		"bot_id": botId,
	})
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\n✅ Smoke test complete")
}
