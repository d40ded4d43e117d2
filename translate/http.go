package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// API format types
// ---------------------------------------------------------------------------

type apiFormat int

const (
	formatOpenAIChat   apiFormat = iota // OpenAI chat/completions
	formatGeminiNative                  // Google Gemini generateContent
	formatAnthropic                     // Anthropic messages
)

func formatFor(providerID string) apiFormat {
	switch providerID {
	case ProviderGemini:
		return formatGeminiNative
	case ProviderAnthropic:
		return formatAnthropic
	default:
		return formatOpenAIChat
	}
}

// httpTranslator calls an HTTP API provider once per string.
type httpTranslator struct {
	prov       Provider
	format     apiFormat
	client     *http.Client
	maxRetries int
	prompt     string
	log        func(format string, args ...any)
	// sleep waits between retries; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func newHTTPTranslator(prov Provider, opts Options) (*httpTranslator, error) {
	if prov.BaseURL == "" {
		return nil, fmt.Errorf("%s: base URL is required", prov.ID)
	}
	if prov.Model == "" {
		return nil, fmt.Errorf("%s: model is required", prov.ID)
	}
	if prov.NeedsKey && prov.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is required (use 'keyglot auth login' or KEYGLOT_API_KEY)", prov.ID)
	}
	return &httpTranslator{
		prov:       prov,
		format:     formatFor(prov.ID),
		client:     makeHTTPClient(prov.Proxy, opts.effectiveTimeout(prov)),
		maxRetries: opts.effectiveMaxRetries(),
		prompt:     opts.SystemPrompt,
		log:        opts.log,
		sleep:      sleepCtx,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// HTTP client with real proxy support
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	// Support both an explicit proxy and HTTP_PROXY/HTTPS_PROXY env vars
	if proxyURL != "" {
		parsed, err := url.Parse(proxyURL)
		if err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Call with retries
// ---------------------------------------------------------------------------

func (h *httpTranslator) Translate(ctx context.Context, text, target, source string) (string, error) {
	systemPrompt := resolvePrompt(h.prompt, target, source)
	endpoint, headers, body, err := buildHTTPRequest(h.prov, systemPrompt, text, h.format)
	if err != nil {
		return "", providerErr(h.prov.ID, 0, fmt.Errorf("building request: %w", err))
	}

	raw, err := h.call(ctx, endpoint, headers, body)
	if err != nil {
		return "", err
	}

	out := cleanResponse(raw, text)
	if out == "" {
		return "", providerErr(h.prov.ID, http.StatusOK, ErrEmptyResponse)
	}
	return out, nil
}

func (h *httpTranslator) call(ctx context.Context, endpoint string, headers map[string]string, body []byte) (string, error) {
	id := h.prov.ID

	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return "", providerErr(id, 0, fmt.Errorf("creating request: %w", err))
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			if attempt < h.maxRetries {
				wait := backoff(attempt)
				h.log("%s: request failed (%v), retrying in %v", h.prov.Name, err, wait)
				if err := h.sleep(ctx, wait); err != nil {
					return "", err
				}
				continue
			}
			return "", providerErr(id, 0, fmt.Errorf("API request failed: %w", err))
		}

		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt < h.maxRetries {
				retryDelay := parseRetryDelay(respBody)
				h.log("%s: 429 rate limited, waiting %v before retry (attempt %d/%d)", h.prov.Name, retryDelay, attempt+1, h.maxRetries)
				if err := h.sleep(ctx, retryDelay); err != nil {
					return "", err
				}
				continue
			}
			return "", providerErr(id, resp.StatusCode, fmt.Errorf("rate limited after %d retries: %s", h.maxRetries, truncate(string(respBody), 500)))
		}

		if resp.StatusCode != http.StatusOK {
			if attempt < h.maxRetries && resp.StatusCode >= 500 {
				wait := backoff(attempt)
				h.log("%s: status %d, retrying in %v", h.prov.Name, resp.StatusCode, wait)
				if err := h.sleep(ctx, wait); err != nil {
					return "", err
				}
				continue
			}
			return "", providerErr(id, resp.StatusCode, fmt.Errorf("API returned status %d: %s", resp.StatusCode, truncate(string(respBody), 500)))
		}

		text, err := extractResponseText(respBody)
		if err != nil {
			return "", providerErr(id, resp.StatusCode, err)
		}
		return text, nil
	}

	return "", providerErr(id, 0, fmt.Errorf("exhausted all %d retries", h.maxRetries))
}

func backoff(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * time.Second
}

// ---------------------------------------------------------------------------
// Request builders for each API format
// ---------------------------------------------------------------------------

// buildHTTPRequest constructs the endpoint, headers, and body for an HTTP provider.
func buildHTTPRequest(prov Provider, systemPrompt, userPrompt string, format apiFormat) (string, map[string]string, []byte, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}

	var endpoint string
	var body []byte
	var err error

	switch format {
	case formatGeminiNative:
		// Google AI: POST /v1beta/models/{model}:generateContent
		endpoint = fmt.Sprintf("%s/v1beta/models/%s:generateContent",
			strings.TrimRight(prov.BaseURL, "/"), prov.Model)
		if prov.APIKey != "" {
			headers["x-goog-api-key"] = prov.APIKey
		}
		body, err = buildGeminiRequest(systemPrompt, userPrompt, 0.3)

	case formatAnthropic:
		endpoint = strings.TrimRight(prov.BaseURL, "/") + "/messages"
		if prov.APIKey != "" {
			headers["x-api-key"] = prov.APIKey
		}
		headers["anthropic-version"] = "2023-06-01"
		body, err = buildAnthropicRequest(prov.Model, systemPrompt, userPrompt)

	default: // formatOpenAIChat
		baseURL := strings.TrimRight(prov.BaseURL, "/")
		if !strings.HasSuffix(baseURL, "/chat/completions") {
			endpoint = baseURL + "/chat/completions"
		} else {
			endpoint = baseURL
		}
		if prov.APIKey != "" {
			headers["Authorization"] = "Bearer " + prov.APIKey
		}
		body, err = buildOpenAIChatRequest(prov.Model, systemPrompt, userPrompt, 0.3)
	}

	if err != nil {
		return "", nil, nil, err
	}
	return endpoint, headers, body, nil
}

func buildOpenAIChatRequest(model, systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model: model,
		Messages: []msg{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: temperature,
	}
	return json.Marshal(req)
}

func buildGeminiRequest(systemPrompt, userPrompt string, temperature float64) ([]byte, error) {
	type part struct {
		Text string `json:"text"`
	}
	type content struct {
		Role  string `json:"role,omitempty"`
		Parts []part `json:"parts"`
	}
	type genConfig struct {
		Temperature float64 `json:"temperature"`
	}
	req := struct {
		Contents          []content `json:"contents"`
		GenerationConfig  genConfig `json:"generationConfig"`
		SystemInstruction *content  `json:"systemInstruction,omitempty"`
	}{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: userPrompt}}},
		},
		GenerationConfig: genConfig{Temperature: temperature},
	}
	if systemPrompt != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemPrompt}}}
	}
	return json.Marshal(req)
}

func buildAnthropicRequest(model, systemPrompt, userPrompt string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model     string `json:"model"`
		MaxTokens int    `json:"max_tokens"`
		System    string `json:"system,omitempty"`
		Messages  []msg  `json:"messages"`
	}{
		Model:     model,
		MaxTokens: 1024,
		System:    systemPrompt,
		Messages: []msg{
			{Role: "user", Content: userPrompt},
		},
	}
	return json.Marshal(req)
}

// ---------------------------------------------------------------------------
// Response parsers (multi-format)
// ---------------------------------------------------------------------------

// extractResponseText tries all known response formats and returns the text.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	// Check for API error
	if errObj, ok := raw["error"]; ok && errObj != nil {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("API error: %s", msg)
			}
		}
		return "", fmt.Errorf("API error: %v", errObj)
	}

	// 1. OpenAI chat format: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	// 2. Gemini format: candidates[0].content.parts[0].text
	if candidates, ok := raw["candidates"].([]any); ok && len(candidates) > 0 {
		if candidate, ok := candidates[0].(map[string]any); ok {
			if content, ok := candidate["content"].(map[string]any); ok {
				if parts, ok := content["parts"].([]any); ok && len(parts) > 0 {
					if part, ok := parts[0].(map[string]any); ok {
						if text, ok := part["text"].(string); ok {
							return text, nil
						}
					}
				}
			}
		}
	}

	// 3. Anthropic format: content[].type=="text" -> .text
	if contentArr, ok := raw["content"].([]any); ok {
		for _, c := range contentArr {
			if block, ok := c.(map[string]any); ok {
				if block["type"] == "text" {
					if text, ok := block["text"].(string); ok {
						return text, nil
					}
				}
			}
		}
	}

	return "", fmt.Errorf("could not extract text from response: %s", truncate(string(body), 500))
}

var markdownCodeBlock = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

var quotePairs = [][2]string{{`"`, `"`}, {"'", "'"}, {"«", "»"}, {"“", "”"}}

// cleanResponse strips code fences, surrounding whitespace and quotes the
// model added around the translation.
func cleanResponse(out, source string) string {
	out = strings.TrimSpace(out)
	if m := markdownCodeBlock.FindStringSubmatch(out); m != nil {
		out = strings.TrimSpace(m[1])
	}
	for _, q := range quotePairs {
		open, closing := q[0], q[1]
		if len(out) > len(open)+len(closing) &&
			strings.HasPrefix(out, open) && strings.HasSuffix(out, closing) &&
			!strings.HasPrefix(source, open) {
			out = strings.TrimSpace(out[len(open) : len(out)-len(closing)])
			break
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Rate limit: parse 429 response for retry delay
// ---------------------------------------------------------------------------

// parseRetryDelay extracts the retry delay from a 429 response body.
// Looks for Google's RetryInfo detail with retryDelay field.
// Returns the delay to wait, defaulting to 60s + 5s buffer.
func parseRetryDelay(body []byte) time.Duration {
	const defaultDelay = 65 * time.Second // 60s + 5s buffer

	var errResp struct {
		Error struct {
			Details []struct {
				Type       string `json:"@type"`
				RetryDelay string `json:"retryDelay"`
			} `json:"details"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &errResp); err != nil {
		return defaultDelay
	}

	for _, detail := range errResp.Error.Details {
		if strings.Contains(detail.Type, "RetryInfo") && detail.RetryDelay != "" {
			// Parse duration like "30s", "45.123s"
			d := strings.TrimSuffix(detail.RetryDelay, "s")
			if secs, err := strconv.ParseFloat(d, 64); err == nil {
				return time.Duration(secs*1000)*time.Millisecond + 5*time.Second
			}
		}
	}

	return defaultDelay
}

// IsRateLimited reports whether err is a provider failure caused by
// HTTP 429.
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Status == http.StatusTooManyRequests
}
