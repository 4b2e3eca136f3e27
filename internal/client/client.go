// Package client talks to a running papercast daemon over its HTTP API.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"papercast/internal/api"
	"papercast/internal/services"
)

const defaultTimeout = 30 * time.Second

// Client issues requests against the daemon API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New builds a client for the daemon at baseURL. A nil httpClient gets a
// sensible default; streaming requests always run without a client timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: httpClient,
	}
}

// Submit sends a new job and returns its id.
func (c *Client) Submit(ctx context.Context, req api.SubmitRequest) (api.SubmitResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("encode submission: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/jobs", bytes.NewReader(body))
	if err != nil {
		return api.SubmitResponse{}, fmt.Errorf("build submission request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var accepted api.SubmitResponse
	if err := c.do(httpReq, http.StatusAccepted, &accepted); err != nil {
		return api.SubmitResponse{}, err
	}
	return accepted, nil
}

// Job fetches the latest snapshot for one job.
func (c *Client) Job(ctx context.Context, id string) (api.SnapshotPayload, error) {
	var snap api.SnapshotPayload
	if err := c.get(ctx, "/api/jobs/"+id, &snap); err != nil {
		return api.SnapshotPayload{}, err
	}
	return snap, nil
}

// Jobs lists all known jobs.
func (c *Client) Jobs(ctx context.Context) ([]api.SnapshotPayload, error) {
	var snaps []api.SnapshotPayload
	if err := c.get(ctx, "/api/jobs", &snaps); err != nil {
		return nil, err
	}
	return snaps, nil
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (api.StatusResponse, error) {
	var status api.StatusResponse
	if err := c.get(ctx, "/api/status", &status); err != nil {
		return api.StatusResponse{}, err
	}
	return status, nil
}

// Transcript fetches the finished job's transcript text.
func (c *Client) Transcript(ctx context.Context, id string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+id+"/transcript", nil)
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch transcript: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", responseError(resp)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(body), nil
}

// Stream subscribes to a job's SSE feed and invokes handle for every
// snapshot until the stream ends, handle returns an error, or ctx is done.
func (c *Client) Stream(ctx context.Context, id string, handle func(api.SnapshotPayload) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/jobs/"+id+"/stream", nil)
	if err != nil {
		return fmt.Errorf("build stream request: %w", err)
	}

	// Streams outlive any reasonable request timeout.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return responseError(resp)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snap api.SnapshotPayload
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
			return fmt.Errorf("decode stream event: %w", err)
		}
		if err := handle(snap); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	return c.do(req, http.StatusOK, out)
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call daemon: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		return responseError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// responseError converts the JSON error envelope into a sentinel-tagged
// error so callers can branch on the failure class.
func responseError(resp *http.Response) error {
	var failure api.ErrorResponse
	message := fmt.Sprintf("daemon returned %d", resp.StatusCode)
	if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
		message = failure.Error
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", services.ErrNotFound, message)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", services.ErrValidation, message)
	default:
		return fmt.Errorf("%s", message)
	}
}
