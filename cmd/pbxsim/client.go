package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// APIClient sends generated records to the backend ingest endpoints.
type APIClient struct {
	backendURL string
	httpClient *http.Client
}

// NewAPIClient creates a new client pointing at the given backend base URL
// (e.g. "http://localhost:8080").
func NewAPIClient(backendURL string) *APIClient {
	return &APIClient{
		backendURL: backendURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// post marshals payload and POSTs it to the given ingest path.
func (c *APIClient) post(path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	url := c.backendURL + path
	resp, err := c.httpClient.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("POST %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s returned status %d", url, resp.StatusCode)
	}

	return nil
}

// PostCalls sends a batch of call records.
func (c *APIClient) PostCalls(payload interface{}) error {
	return c.post("/stream", payload)
}

// PostAdvancedCalls sends a batch of advanced call events.
func (c *APIClient) PostAdvancedCalls(payload interface{}) error {
	return c.post("/stream/advanced-calls", payload)
}

// PostAgentStatus sends a batch of agent status ticks.
func (c *APIClient) PostAgentStatus(payload interface{}) error {
	return c.post("/stream/agent-status", payload)
}

// PostProfileAvailability sends a batch of profile availability ticks.
func (c *APIClient) PostProfileAvailability(payload interface{}) error {
	return c.post("/stream/profile-availability", payload)
}
