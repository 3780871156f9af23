package ingest

import "testing"

func TestJoinPages(t *testing.T) {
	cases := []struct {
		name  string
		pages []string
		want  string
	}{
		{"empty", nil, ""},
		{"one page", []string{"Revenue: 100"}, "Revenue: 100\n"},
		{"two pages", []string{"Revenue: 100", "Costs: 40"}, "Revenue: 100\nCosts: 40\n"},
		{"blank page kept", []string{"Revenue: 100", ""}, "Revenue: 100\n\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := joinPages(tc.pages); got != tc.want {
				t.Fatalf("joinPages(%q) = %q, want %q", tc.pages, got, tc.want)
			}
		})
	}
}

func TestExtractPDFText_RejectsGarbage(t *testing.T) {
	if _, err := ExtractPDFText([]byte("not a pdf at all")); err == nil {
		t.Fatal("expected an error for a non-pdf payload")
	}
}
