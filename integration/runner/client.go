package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jwebster45206/manor-engine/internal/game"
)

// doJSON sends body as JSON and decodes a successful response into out.
// Non-2xx bodies are returned as text so callers can report them.
func doJSON(ctx context.Context, client *http.Client, method, url string, body, out any) (int, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, "", fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(bytes.TrimSpace(text)), nil
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, "", fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, "", nil
}

// CreateSession starts a new session and returns its view.
func CreateSession(ctx context.Context, client *http.Client, baseURL string) (game.View, error) {
	var v game.View
	status, text, err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/sessions", nil, &v)
	if err != nil {
		return game.View{}, err
	}
	if status != http.StatusCreated {
		return game.View{}, fmt.Errorf("create session returned %d: %s", status, text)
	}
	return v, nil
}

// GetSession fetches the current view of a session.
func GetSession(ctx context.Context, client *http.Client, baseURL string, id uuid.UUID) (game.View, error) {
	var v game.View
	status, text, err := doJSON(ctx, client, http.MethodGet, sessionURL(baseURL, id), nil, &v)
	if err != nil {
		return game.View{}, err
	}
	if status != http.StatusOK {
		return game.View{}, fmt.Errorf("get session returned %d: %s", status, text)
	}
	return v, nil
}

func sessionURL(baseURL string, id uuid.UUID) string {
	return baseURL + "/v1/sessions/" + id.String()
}
