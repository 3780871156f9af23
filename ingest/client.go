package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ServiceClient talks to the hosted extraction API: prompt-based structured
// extraction, inconsistency detection and remote-URL text retrieval. Each
// call is one blocking round-trip; there is no retry here, a failed call
// fails the pipeline step that issued it.
type ServiceClient struct {
	baseURL  string
	apiKey   string
	appID    string
	usageKey string
	http     *http.Client
}

func NewServiceClient() *ServiceClient {
	baseURL := strings.TrimSpace(os.Getenv("EXTRACTION_API_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://builder.empromptu.ai"
	}
	timeout := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("EXTRACTION_API_TIMEOUT_SECONDS")); v != "" {
		if d, err := time.ParseDuration(v + "s"); err == nil && d > 0 {
			timeout = d
		}
	}
	return &ServiceClient{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   os.Getenv("EXTRACTION_API_KEY"),
		appID:    os.Getenv("EXTRACTION_APP_ID"),
		usageKey: os.Getenv("EXTRACTION_USAGE_KEY"),
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *ServiceClient) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Generated-App-ID", c.appID)
	req.Header.Set("X-Usage-Key", c.usageKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("extraction api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return json.Unmarshal(respBody, out)
}

type applyPromptRequest struct {
	PromptName string            `json:"prompt_name"`
	InputData  map[string]string `json:"input_data"`
	ReturnType string            `json:"return_type"`
}

type applyPromptResponse struct {
	Value json.RawMessage `json:"value"`
}

func (c *ServiceClient) applyPrompt(ctx context.Context, promptName string, inputData map[string]string) (json.RawMessage, error) {
	var resp applyPromptResponse
	err := c.post(ctx, "/api_tools/apply_prompt_to_data", applyPromptRequest{
		PromptName: promptName,
		InputData:  inputData,
		ReturnType: "structured",
	}, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Value, nil
}

// rawMetric mirrors the loosely-typed shape the extraction service returns.
// Values arrive as numbers or numeric strings; anything else is treated as
// undefined at this boundary rather than trusted downstream.
type rawMetric struct {
	MetricName     string          `json:"metric_name"`
	MetricValue    json.RawMessage `json:"metric_value"`
	MetricCategory string          `json:"metric_category"`
}

type rawIssue struct {
	InconsistencyType string `json:"inconsistency_type"`
	Description       string `json:"description"`
	Severity          string `json:"severity"`
}

func (c *ServiceClient) ExtractFinancialData(ctx context.Context, text string) ([]MetricCandidate, error) {
	value, err := c.applyPrompt(ctx, "extract_financial_data", map[string]string{
		"pdf_text": text,
	})
	if err != nil {
		return nil, err
	}

	var raw []rawMetric
	if err := json.Unmarshal(value, &raw); err != nil {
		// Not an array: the service found nothing usable.
		return nil, nil
	}

	candidates := make([]MetricCandidate, 0, len(raw))
	for _, r := range raw {
		candidates = append(candidates, MetricCandidate{
			Name:     r.MetricName,
			Value:    parseMetricValue(r.MetricValue),
			Category: r.MetricCategory,
		})
	}
	return candidates, nil
}

func (c *ServiceClient) DetectInconsistencies(ctx context.Context, data []MetricCandidate) ([]IssueCandidate, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	value, err := c.applyPrompt(ctx, "detect_inconsistencies", map[string]string{
		"financial_data": string(payload),
	})
	if err != nil {
		return nil, err
	}

	var raw []rawIssue
	if err := json.Unmarshal(value, &raw); err != nil {
		return nil, nil
	}

	issues := make([]IssueCandidate, 0, len(raw))
	for _, r := range raw {
		issues = append(issues, IssueCandidate{
			Type:        r.InconsistencyType,
			Description: r.Description,
			Severity:    r.Severity,
		})
	}
	return issues, nil
}

type fetchURLRequest struct {
	InputData string `json:"input_data"`
}

type fetchURLResponse struct {
	Text string `json:"text"`
}

func (c *ServiceClient) FetchText(ctx context.Context, url string) (string, error) {
	var resp fetchURLResponse
	if err := c.post(ctx, "/api_tools/get_data_from_url", fetchURLRequest{InputData: url}, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

func parseMetricValue(raw json.RawMessage) *decimal.Decimal {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil
	}
	return &d
}
