package fields

import "testing"

func TestNormalizeDate(t *testing.T) {
	tests := map[string]string{
		"01/14/2024": "2024-01-14",
		"1/4/2024":   "2024-01-04",
		"02-29-2024": "2024-02-29",
		"2024-03-01": "2024-03-01",
		"13/01/2024": "13/01/2024",
		"02/30/2023": "02/30/2023",
		"Jan 5 2024": "Jan 5 2024",
	}
	for in, want := range tests {
		if got := NormalizeDate(in); got != want {
			t.Fatalf("NormalizeDate(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFrequencyFromSpan(t *testing.T) {
	tests := []struct {
		start, end string
		want       string
		ok         bool
	}{
		{"2024-01-01", "2024-01-07", Weekly, true},
		{"2024-01-01", "2024-01-14", Biweekly, true},
		{"2024-01-01", "2024-01-31", Monthly, true},
		{"2024-01-01", "2024-12-31", Yearly, true},
		{"2024-01-14", "2024-01-01", "", false},
		{"garbage", "2024-01-01", "", false},
	}
	for _, tt := range tests {
		got, ok := FrequencyFromSpan(tt.start, tt.end)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("FrequencyFromSpan(%s, %s) = %q %v", tt.start, tt.end, got, ok)
		}
	}
}

func TestNormalizeFrequency(t *testing.T) {
	tests := map[string]string{
		"Bi-Weekly":        Biweekly,
		"every other week": Biweekly,
		"Semi-Monthly":     Semimonthly,
		"WEEKLY":           Weekly,
		"Monthly":          Monthly,
		"Annually":         Yearly,
		"sometimes":        "",
	}
	for in, want := range tests {
		if got := NormalizeFrequency(in); got != want {
			t.Fatalf("NormalizeFrequency(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$4,000.00", 4000, true},
		{"(125.50)", -125.5, true},
		{"1 234", 1234, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("ParseAmount(%q) = %v %v", tt.in, got, ok)
		}
	}
}

func TestNormalizeState(t *testing.T) {
	if got := NormalizeState("West Virginia"); got != "WV" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeState("ca"); got != "CA" {
		t.Fatalf("got %q", got)
	}
	if got := NormalizeState("Ontario"); got != "Ontario" {
		t.Fatalf("got %q", got)
	}
}

func TestParseDocType(t *testing.T) {
	if dt, err := ParseDocType(" payStub "); err != nil || dt != PayStub {
		t.Fatalf("ParseDocType = %v %v", dt, err)
	}
	if _, err := ParseDocType("passport"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}
