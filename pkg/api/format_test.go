package api

import "testing"

func TestDisplayName(t *testing.T) {
	tests := []struct {
		componentType string
		label         string
		want          string
	}{
		{"investor", "", "Investor"},
		{"consigner", "Gallery", "Consigner - Gallery"},
		{"state_taxes", "", "State Taxes"},
		{"federal_taxes", "", "Federal Taxes"},
		{"investor", "  Secondary  ", "Investor - Secondary"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := DisplayName(tc.componentType, tc.label); got != tc.want {
				t.Errorf("DisplayName(%q, %q): got %q, want %q", tc.componentType, tc.label, got, tc.want)
			}
		})
	}
}

func TestFormatComponentLine(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   string
	}{
		{"Investor", 40, "Investor: $40.00"},
		{"Consigner - Gallery", 10.5, "Consigner - Gallery: $10.50"},
		{"Investor", 33.333333, "Investor: $33.33"},
	}

	for _, tc := range tests {
		t.Run(tc.want, func(t *testing.T) {
			if got := FormatComponentLine(tc.name, tc.amount); got != tc.want {
				t.Errorf("FormatComponentLine: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseComponentLine(t *testing.T) {
	tests := []struct {
		line   string
		want   ComponentLine
		wantOK bool
	}{
		{
			line:   "Investor: $40.00",
			want:   ComponentLine{Type: "Investor", Amount: 40},
			wantOK: true,
		},
		{
			line:   "Consigner - Gallery: $10.50",
			want:   ComponentLine{Type: "Consigner", Label: "Gallery", Amount: 10.5},
			wantOK: true,
		},
		{
			// Tax lines are not pivoted into labeled columns.
			line:   "State Taxes: $7.20",
			wantOK: false,
		},
		{
			line:   "Additional Tax (City Tax): $1.71",
			wantOK: false,
		},
		{
			line:   "not a component line",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			got, ok := ParseComponentLine(tc.line)
			if ok != tc.wantOK {
				t.Fatalf("ParseComponentLine(%q) ok: got %v, want %v", tc.line, ok, tc.wantOK)
			}
			if ok && got != tc.want {
				t.Errorf("ParseComponentLine(%q): got %+v, want %+v", tc.line, got, tc.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	line := FormatComponentLine(DisplayName("consigner", "Main Street"), 123.456)
	got, ok := ParseComponentLine(line)
	if !ok {
		t.Fatalf("ParseComponentLine(%q): not parseable", line)
	}
	if got.Type != "Consigner" || got.Label != "Main Street" || got.Amount != 123.46 {
		t.Errorf("round trip: got %+v", got)
	}
}
