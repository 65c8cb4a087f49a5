// Package vision talks to an Ollama multimodal model and maps a page
// snapshot plus a natural-language target description to on-screen
// coordinates with a confidence value.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Point is a click target returned by the model.
type Point struct {
	X          float64
	Y          float64
	Confidence float64
}

// Locator is the narrow interface the interaction layer depends on. The
// second return value is false when the model could not find the element.
type Locator interface {
	Locate(ctx context.Context, snapshot []byte, description string, pageContext string) (Point, bool, error)
}

type Client struct {
	baseURL string
	model   string
	client  *http.Client
	logger  *log.Logger
}

func NewClient(baseURL string, model string, timeout time.Duration, logger *log.Logger) *Client {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = "llava:latest"
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

const locatePromptTemplate = `Find the %s in this screenshot.%s

Respond ONLY with a JSON object:
{"found": true, "x": center_x, "y": center_y, "confidence": 0.0-1.0}

If the element is not visible, respond with: {"found": false}

Be precise with coordinates. Use the center point for clicking.`

// Locate sends the snapshot and target description to the model. A model
// answer without usable coordinates is reported as not found, not as an
// error; errors are reserved for transport failures.
func (c *Client) Locate(ctx context.Context, snapshot []byte, description string, pageContext string) (Point, bool, error) {
	if c == nil || c.client == nil {
		return Point{}, false, errors.New("nil vision client")
	}
	if len(snapshot) == 0 {
		return Point{}, false, errors.New("empty snapshot")
	}

	contextHint := ""
	if strings.TrimSpace(pageContext) != "" {
		contextHint = " Page context: " + strings.TrimSpace(pageContext) + "."
	}
	prompt := fmt.Sprintf(locatePromptTemplate, strings.TrimSpace(description), contextHint)

	raw, err := c.generate(ctx, prompt, snapshot)
	if err != nil {
		return Point{}, false, err
	}

	obj := extractJSONObject(raw)
	if obj == "" {
		if c.logger != nil {
			c.logger.Printf("[Vision] unparseable model output: %.120s", raw)
		}
		return Point{}, false, nil
	}

	if f := gjson.Get(obj, "found"); f.Exists() && !f.Bool() {
		return Point{}, false, nil
	}
	x := gjson.Get(obj, "x")
	y := gjson.Get(obj, "y")
	if !x.Exists() || !y.Exists() {
		return Point{}, false, nil
	}
	conf := gjson.Get(obj, "confidence").Float()

	return Point{X: x.Float(), Y: y.Float(), Confidence: conf}, true, nil
}

func (c *Client) generate(ctx context.Context, prompt string, image []byte) (string, error) {
	body := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Images: []string{base64.StdEncoding.EncodeToString(image)},
		Stream: false,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("vision backend status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out generateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode vision response: %w", err)
	}
	return out.Response, nil
}

// extractJSONObject pulls the first {...} block out of free-form model
// output. Multimodal models often wrap the JSON in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	obj := s[start : end+1]
	if !gjson.Valid(obj) {
		return ""
	}
	return obj
}
