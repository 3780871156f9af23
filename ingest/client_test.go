package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testClient(t *testing.T, handler http.HandlerFunc) *ServiceClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &ServiceClient{
		baseURL:  server.URL,
		apiKey:   "test-key",
		appID:    "test-app",
		usageKey: "test-usage",
		http:     &http.Client{Timeout: 5 * time.Second},
	}
}

func TestExtractFinancialData_ParsesMetrics(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_tools/apply_prompt_to_data" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.Header.Get("X-Generated-App-ID"); got != "test-app" {
			t.Errorf("missing app id header, got %q", got)
		}

		var req applyPromptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PromptName != "extract_financial_data" {
			t.Errorf("unexpected prompt name %q", req.PromptName)
		}
		if req.InputData["pdf_text"] != "Revenue: 100\n" {
			t.Errorf("unexpected pdf_text %q", req.InputData["pdf_text"])
		}
		if req.ReturnType != "structured" {
			t.Errorf("unexpected return type %q", req.ReturnType)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":[
			{"metric_name":"total_revenue","metric_value":1250000,"metric_category":"revenue"},
			{"metric_name":"net_income","metric_value":"87500.50","metric_category":"profitability"},
			{"metric_name":"debt_to_equity","metric_value":"n/a"},
			{"metric_name":"","metric_value":10},
			{"metric_name":"cash","metric_value":null}
		]}`))
	})

	candidates, err := client.ExtractFinancialData(context.Background(), "Revenue: 100\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 5 {
		t.Fatalf("expected 5 candidates, got %d", len(candidates))
	}
	if !candidates[0].Defined() || candidates[0].Value.String() != "1250000" {
		t.Fatalf("numeric value not parsed: %+v", candidates[0])
	}
	if !candidates[1].Defined() || candidates[1].Value.String() != "87500.5" {
		t.Fatalf("string value not parsed: %+v", candidates[1])
	}
	for i := 2; i < 5; i++ {
		if candidates[i].Defined() {
			t.Fatalf("candidate %d should be undefined: %+v", i, candidates[i])
		}
	}
}

func TestExtractFinancialData_NonArrayValue_IsEmpty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":"no financial data found"}`))
	})

	candidates, err := client.ExtractFinancialData(context.Background(), "text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestExtractFinancialData_ServerError(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	})

	if _, err := client.ExtractFinancialData(context.Background(), "text"); err == nil {
		t.Fatal("expected an error on a 500 response")
	}
}

func TestDetectInconsistencies_SendsMetricsAsJSON(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req applyPromptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.PromptName != "detect_inconsistencies" {
			t.Errorf("unexpected prompt name %q", req.PromptName)
		}
		var sent []MetricCandidate
		if err := json.Unmarshal([]byte(req.InputData["financial_data"]), &sent); err != nil {
			t.Fatalf("financial_data is not a json array: %v", err)
		}
		if len(sent) != 1 || sent[0].Name != "total_revenue" {
			t.Errorf("unexpected financial_data payload: %s", req.InputData["financial_data"])
		}

		w.Write([]byte(`{"value":[
			{"inconsistency_type":"balance_mismatch","description":"off by 10","severity":"high"}
		]}`))
	})

	issues, err := client.DetectInconsistencies(context.Background(), []MetricCandidate{
		{Name: "total_revenue", Value: dec("100"), Category: "revenue"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 1 || issues[0].Type != "balance_mismatch" || issues[0].Severity != "high" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestDetectInconsistencies_MalformedValue_IsEmpty(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"value":{"unexpected":"shape"}}`))
	})

	issues, err := client.DetectInconsistencies(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(issues) != 0 {
		t.Fatalf("expected no issues for a malformed value, got %d", len(issues))
	}
}

func TestFetchText(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api_tools/get_data_from_url" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req fetchURLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.InputData != "https://example.com/annual.pdf" {
			t.Errorf("unexpected url %q", req.InputData)
		}
		w.Write([]byte(`{"text":"Annual Report 2024"}`))
	})

	text, err := client.FetchText(context.Background(), "https://example.com/annual.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Annual Report 2024" {
		t.Fatalf("unexpected text %q", text)
	}
}
