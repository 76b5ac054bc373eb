package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const apiBase = "http://localhost:8080/api/v1"

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

type startResponse struct {
	SessionID string `json:"sessionId"`
	ExpiresAt string `json:"expiresAt"`
}

type resolution struct {
	State  string `json:"state"`
	GameID string `json:"gameId"`
}

func login(username, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	resp, err := http.Post(apiBase+"/auth/login", "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("login failed (%d): %s", resp.StatusCode, msg)
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

func startMatch(token, modelA, modelB string) (*startResponse, error) {
	body, _ := json.Marshal(map[string]interface{}{
		"modelA": modelA,
		"modelB": modelB,
		"width":  10,
		"height": 10,
	})
	req, _ := http.NewRequest(http.MethodPost, apiBase+"/matches", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("start failed (%d): %s", resp.StatusCode, msg)
	}

	var result startResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func pollSession(sessionID string) (*resolution, error) {
	resp, err := http.Get(apiBase + "/sessions/" + sessionID)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var res resolution
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}
	return &res, nil
}

func main() {
	username := os.Getenv("ADMIN_USER")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		fmt.Println("ADMIN_PASSWORD must be set")
		os.Exit(1)
	}

	modelA := "openai/gpt-5"
	modelB := "anthropic/claude-4"
	if len(os.Args) == 3 {
		modelA, modelB = os.Args[1], os.Args[2]
	}

	token, err := login(username, password)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("logged in as operator")

	started, err := startMatch(token, modelA, modelB)
	if err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("match started: session %s (expires %s)\n", started.SessionID, started.ExpiresAt)
	fmt.Printf("spectate at ws://localhost:8080/api/v1/sessions/%s/spectate\n", started.SessionID)

	for {
		time.Sleep(5 * time.Second)
		res, err := pollSession(started.SessionID)
		if err != nil {
			fmt.Printf("poll error: %v\n", err)
			continue
		}
		fmt.Printf("session state: %s\n", res.State)
		if res.State == "completed" {
			fmt.Printf("done, game id %s\n", res.GameID)
			return
		}
		if res.State == "unknown" {
			fmt.Println("session expired without completing")
			os.Exit(1)
		}
	}
}
