package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

var geminiTextModels = map[string]string{
	"gemini-flash": "gemini-2.5-flash",
	"gemini-pro":   "gemini-2.5-pro",
}

const geminiGenerateEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"

// GeminiClient is a thin REST client for the Gemini API. It serves both
// one-shot text generation (routing) and multi-turn persona chats, plus
// the Veo video operations in veo.go.
type GeminiClient struct {
	textModel  string
	videoModel string
	apiKey     string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the given model aliases. The text
// model alias falls back to gemini-flash when unrecognized.
func NewGeminiClient(apiKey, textModel, videoModel string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	resolved := geminiTextModels[textModel]
	if resolved == "" {
		if textModel != "" {
			resolved = textModel // allow a raw model ID
		} else {
			resolved = geminiTextModels["gemini-flash"]
		}
	}
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}
	return &GeminiClient{
		textModel:  resolved,
		videoModel: videoModel,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

// geminiRequest is the request body for generateContent.
type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"; empty for system instruction
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature float64 `json:"temperature"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// GenerateText issues a single-turn completion with no system instruction.
func (c *GeminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	req := geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: &geminiGenConfig{Temperature: 0.2},
	}
	return c.generate(ctx, req)
}

func (c *GeminiClient) generate(ctx context.Context, reqBody geminiRequest) (string, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf(geminiGenerateEndpoint+"?key=%s", c.textModel, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("Gemini API error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("response contained no text")
	}

	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}
	return text, nil
}

// Chat is a multi-turn exchange bound to one system instruction. The REST
// API is stateless, so the chat carries the transcript and replays it on
// every send. A failed send leaves the transcript untouched so the next
// turn is unaffected.
type Chat struct {
	client *GeminiClient
	system string

	mu      sync.Mutex
	history []geminiContent
}

// NewChat starts a chat whose replies follow the given system instruction.
func (c *GeminiClient) NewChat(systemInstruction string) *Chat {
	return &Chat{client: c, system: systemInstruction}
}

// Send appends the user turn, requests a reply, and records both in the
// transcript. On error nothing is recorded.
func (ch *Chat) Send(ctx context.Context, text string) (string, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	userTurn := geminiContent{Role: "user", Parts: []geminiPart{{Text: text}}}
	req := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: ch.system}}},
		Contents:          append(append([]geminiContent{}, ch.history...), userTurn),
		GenerationConfig:  &geminiGenConfig{Temperature: 0.8},
	}

	reply, err := ch.client.generate(ctx, req)
	if err != nil {
		return "", err
	}

	ch.history = append(ch.history, userTurn,
		geminiContent{Role: "model", Parts: []geminiPart{{Text: reply}}})
	return reply, nil
}
