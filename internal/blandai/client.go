// internal/blandai/client.go
package blandai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
	"github.com/sneha-eps/Bland-AI-Caller/internal/model"
)

const defaultBaseURL = "https://api.bland.ai"

// HTTPClient talks to the Bland AI calling API over HTTP.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient creates a client for the given API key.
func NewHTTPClient(apiKey string) *HTTPClient {
	return NewHTTPClientWithBaseURL(apiKey, defaultBaseURL)
}

// NewHTTPClientWithBaseURL is used by tests to point at a fake server.
func NewHTTPClientWithBaseURL(apiKey, baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type startCallRequest struct {
	PhoneNumber       string `json:"phone_number"`
	Task              string `json:"task"`
	Voice             string `json:"voice"`
	Language          string `json:"language"`
	MaxDuration       int    `json:"max_duration"`
	AnsweredByEnabled bool   `json:"answered_by_enabled"`
	WaitForGreeting   bool   `json:"wait_for_greeting"`
	Record            bool   `json:"record"`
	AMD               bool   `json:"amd"`
}

type startCallResponse struct {
	CallID string `json:"call_id"`
}

// callDetailsResponse mirrors the JSON returned by GET /v1/calls/{id}.
type callDetailsResponse struct {
	CallID     string  `json:"call_id"`
	Status     string  `json:"status"`
	Completed  bool    `json:"completed"`
	Transcript string  `json:"transcript"`
	CallLength float64 `json:"call_length"`
	Error      string  `json:"error_message"`
}

func (c *HTTPClient) StartCall(ctx context.Context, phone model.NormalizedPhone, script ScriptConfig) (CallHandle, error) {
	if err := script.Validate(); err != nil {
		return CallHandle{}, err
	}

	payload := startCallRequest{
		PhoneNumber:       phone.E164,
		Task:              script.Task,
		Voice:             script.Voice,
		Language:          script.Language,
		MaxDuration:       script.MaxDurationSec,
		AnsweredByEnabled: script.AnsweredByEnabled,
		WaitForGreeting:   script.WaitForGreeting,
		Record:            script.Record,
		AMD:               script.AMD,
	}

	var out startCallResponse
	if err := c.post(ctx, "/v1/calls", payload, &out); err != nil {
		return CallHandle{}, err
	}
	if out.CallID == "" {
		return CallHandle{}, appErrors.NewServiceUnavailable("call accepted but no call_id returned")
	}
	return CallHandle{CallID: out.CallID}, nil
}

func (c *HTTPClient) CallStatus(ctx context.Context, h CallHandle) (CallState, error) {
	details, err := c.details(ctx, h)
	if err != nil {
		return StatePending, err
	}
	switch {
	case details.Completed || details.Status == "completed":
		return StateSucceeded, nil
	case details.Status == "failed" || details.Status == "error":
		return StateFailed, nil
	}
	return StatePending, nil
}

func (c *HTTPClient) Transcript(ctx context.Context, h CallHandle) (CallDetails, error) {
	details, err := c.details(ctx, h)
	if err != nil {
		return CallDetails{}, err
	}
	return CallDetails{
		Transcript:  details.Transcript,
		DurationSec: int(details.CallLength),
	}, nil
}

func (c *HTTPClient) SendVoicemail(ctx context.Context, phoneE164, message string) (CallHandle, error) {
	payload := map[string]any{
		"phone_number":        phoneE164,
		"task":                message,
		"voice":               "maya",
		"language":            "en-US",
		"max_duration":        120,
		"answered_by_enabled": true,
		"voicemail_message":   message,
	}

	var out startCallResponse
	if err := c.post(ctx, "/v1/calls", payload, &out); err != nil {
		return CallHandle{}, err
	}
	return CallHandle{CallID: out.CallID}, nil
}

func (c *HTTPClient) details(ctx context.Context, h CallHandle) (callDetailsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/calls/"+h.CallID, nil)
	if err != nil {
		return callDetailsResponse{}, err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return callDetailsResponse{}, c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return callDetailsResponse{}, c.apiError(resp)
	}

	var details callDetailsResponse
	if err := json.NewDecoder(resp.Body).Decode(&details); err != nil {
		return callDetailsResponse{}, appErrors.NewServiceUnavailable("decoding call details: " + err.Error())
	}
	return details, nil
}

func (c *HTTPClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.transportError(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// apiError maps provider status codes onto the call error taxonomy.
func (c *HTTPClient) apiError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := fmt.Sprintf("bland api %s: %s", resp.Status, strings.TrimSpace(string(body)))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return appErrors.NewAuthError(msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return appErrors.NewRateLimited(msg)
	}
	return appErrors.NewServiceUnavailable(msg)
}

// transportError keeps deadline expiry distinguishable from connection trouble.
func (c *HTTPClient) transportError(ctx context.Context, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return appErrors.NewTimedOut(err.Error())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return appErrors.NewServiceUnavailable(err.Error())
}
