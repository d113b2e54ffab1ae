package main

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
)

var httpClient = &http.Client{Timeout: 30 * time.Second}

// apiError is the error body returned by the backend
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// callAPI sends an authenticated request and returns the raw response body.
// Non-2xx responses are turned into errors carrying the server's message.
func callAPI(method, path string, payload interface{}) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, apiURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+authToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp apiError
		_ = json.Unmarshal(body, &errResp)
		switch {
		case errResp.Message != "":
			return nil, fmt.Errorf("API error: %s", errResp.Message)
		case errResp.Error != "":
			return nil, fmt.Errorf("API error: %s", errResp.Error)
		}
		return nil, fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return body, nil
}

// decodeAPI calls the API and decodes the response into out. In json output
// mode the raw body is printed and printed is true.
func decodeAPI(method, path string, payload, out interface{}) (printed bool, err error) {
	body, err := callAPI(method, path, payload)
	if err != nil {
		return false, err
	}
	if output == "json" {
		fmt.Println(string(body))
		return true, nil
	}
	if out == nil {
		return false, nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to parse response: %w", err)
	}
	return false, nil
}

func truncateString(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	return s
}
