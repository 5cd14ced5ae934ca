package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	veoSubmitEndpoint    = "https://generativelanguage.googleapis.com/v1beta/models/%s:predictLongRunning"
	veoOperationEndpoint = "https://generativelanguage.googleapis.com/v1beta/%s"
)

// Operation is the flattened state of a long-running video generation job.
// ErrMessage and VideoURI are only meaningful once Done is true.
type Operation struct {
	Name       string
	Done       bool
	ErrMessage string
	VideoURI   string
}

// veoOperation mirrors the provider's operation resource.
type veoOperation struct {
	Name  string `json:"name"`
	Done  bool   `json:"done"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []veoSample `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
		// Older operation payloads carry the samples at the top level.
		GeneratedVideos []veoSample `json:"generatedVideos"`
	} `json:"response,omitempty"`
}

type veoSample struct {
	Video struct {
		URI string `json:"uri"`
	} `json:"video"`
}

func (op veoOperation) flatten() Operation {
	out := Operation{Name: op.Name, Done: op.Done}
	if op.Error != nil {
		out.ErrMessage = op.Error.Message
	}
	if op.Response != nil {
		samples := op.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) == 0 {
			samples = op.Response.GeneratedVideos
		}
		if len(samples) > 0 {
			out.VideoURI = samples[0].Video.URI
		}
	}
	return out
}

type veoSubmitRequest struct {
	Instances  []veoInstance  `json:"instances"`
	Parameters *veoParameters `json:"parameters,omitempty"`
}

type veoInstance struct {
	Prompt string `json:"prompt"`
}

type veoParameters struct {
	SampleCount int `json:"sampleCount"`
}

// SubmitVideo starts a video generation job for the prompt and returns
// the initial operation state (normally not yet done).
func (c *GeminiClient) SubmitVideo(ctx context.Context, prompt string) (Operation, error) {
	reqBody := veoSubmitRequest{
		Instances:  []veoInstance{{Prompt: prompt}},
		Parameters: &veoParameters{SampleCount: 1},
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return Operation{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(veoSubmitEndpoint+"?key=%s", c.videoModel, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return Operation{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	op, err := c.doOperation(req)
	if err != nil {
		return Operation{}, fmt.Errorf("submit video job: %w", err)
	}
	if op.Name == "" {
		return Operation{}, fmt.Errorf("submit video job: provider returned no operation name")
	}
	return op, nil
}

// PollVideo re-queries a pending operation by name.
func (c *GeminiClient) PollVideo(ctx context.Context, name string) (Operation, error) {
	url := fmt.Sprintf(veoOperationEndpoint+"?key=%s", name, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Operation{}, fmt.Errorf("create request: %w", err)
	}

	op, err := c.doOperation(req)
	if err != nil {
		return Operation{}, fmt.Errorf("poll video job: %w", err)
	}
	return op, nil
}

func (c *GeminiClient) doOperation(req *http.Request) (Operation, error) {
	res, err := c.httpClient.Do(req)
	if err != nil {
		return Operation{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return Operation{}, fmt.Errorf("Veo API error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return Operation{}, fmt.Errorf("read response: %w", err)
	}

	var op veoOperation
	if err := json.Unmarshal(respBody, &op); err != nil {
		return Operation{}, fmt.Errorf("parse response: %w", err)
	}
	return op.flatten(), nil
}

// DownloadVideo fetches a finished artifact by its locator, appending the
// API key as the authorization parameter. Transfer failures and non-2xx
// responses wrap ErrDownloadFailed so callers can report them separately
// from generation failures.
func (c *GeminiClient) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri+sep+"key="+c.apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrDownloadFailed, res.StatusCode)
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrDownloadFailed, err)
	}
	return data, nil
}
