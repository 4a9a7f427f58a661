// Package tips asks Gemini for health tips about a list and for structured
// items parsed out of free text.
package tips

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotConfigured means no API key is set. Callers show DemoTips instead.
	ErrNotConfigured = errors.New("API_KEY_MISSING")
	ErrEmptyResponse = errors.New("tips: empty model response")
)

// APIError is a non-200 reply from the model endpoint.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini: status %d: %s", e.Status, e.Body)
}

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
}

type Advisor struct {
	config Config
	client *http.Client
}

func NewAdvisor(cfg Config) *Advisor {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Advisor{
		config: cfg,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

// Configured reports whether an API key is set. The key itself is never exposed.
func (a *Advisor) Configured() bool {
	return a.config.APIKey != ""
}

// HealthTips returns markdown-flavored tips for itemList, the output of
// FormatItemList.
func (a *Advisor) HealthTips(ctx context.Context, itemList string) (string, error) {
	if !a.Configured() {
		return "", ErrNotConfigured
	}
	prompt := `You are a "Health & Wellness Advisor".
Analyze the following grocery list: ` + itemList + `.

Give brief, simple health tips as bullet points, based on generally accepted and reliable health information. Do not give medical advice.

For the key items on the list, cover:
1. **Key Health Benefits**: the main positive effects of eating it.
2. **Consumption Tips & Precautions**: preparation advice and anything to be careful about.
3. **Optimal Consumption Time**: when it is best eaten (e.g. "Bananas are great before a workout").

Use markdown with a '## Item Name' heading per item and '*' bullets. Keep the tone encouraging and easy to follow.`

	return a.generate(ctx, generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
	ResponseSchema   any    `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (a *Advisor) generate(ctx context.Context, body generateRequest) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", a.config.BaseURL, a.config.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", a.config.APIKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(out.Candidates) == 0 {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// DemoTips is shown when no API key is configured.
const DemoTips = `## Demo Mode: Example Health Tips

### Milk
*   **Key Health Benefits**: A good source of calcium and vitamin D for bones and teeth, plus high-quality protein for muscle repair.
*   **Consumption Tips & Precautions**: Whole milk suits children under 2; adults may prefer low-fat. If you are lactose intolerant, try lactose-free or fortified plant-based milk.
*   **Optimal Consumption Time**: Good in the morning with cereal or as a recovery drink after exercise.

### Chicken
*   **Key Health Benefits**: Lean protein for building and keeping muscle, along with niacin and selenium.
*   **Consumption Tips & Precautions**: Cook to an internal temperature of 165°F (74°C). Grilling or baking is healthier than frying.
*   **Optimal Consumption Time**: Lunch or dinner, where it keeps you full and helps steady blood sugar.
`
