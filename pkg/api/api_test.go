package api

import "testing"

func TestAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"", 0},
		{"12.34", 12.34},
		{" 5.00 ", 5},
		{"not a number", 0},
		{"0", 0},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := Amount(tc.in); got != tc.want {
				t.Errorf("Amount(%q): got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCustomerName(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  string
	}{
		{
			name:  "full name",
			order: Order{Customer: Customer{FirstName: "Jane", LastName: "Doe"}},
			want:  "Jane Doe",
		},
		{
			name:  "first name only",
			order: Order{Customer: Customer{FirstName: "Jane"}},
			want:  "Jane",
		},
		{
			name:  "email fallback",
			order: Order{Email: "jane@example.com"},
			want:  "jane@example.com",
		},
		{
			name:  "unknown fallback",
			order: Order{},
			want:  "Unknown",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.order.CustomerName(); got != tc.want {
				t.Errorf("CustomerName: got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestLineItemDescription(t *testing.T) {
	if got := (LineItem{Name: "Name", Title: "Title"}).Description(); got != "Name" {
		t.Errorf("Description: got %q, want Name", got)
	}
	if got := (LineItem{Title: "Title"}).Description(); got != "Title" {
		t.Errorf("Description: got %q, want Title", got)
	}
}

func TestCostTotal(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  float64
	}{
		{
			name:  "explicit total cost wins",
			order: Order{TotalCost: "42.50", LineItems: []LineItem{{Cost: "10.00", Quantity: 1}}},
			want:  42.5,
		},
		{
			name: "derived from line items",
			order: Order{LineItems: []LineItem{
				{Cost: "10.00", Quantity: 3},
				{Cost: "5.50", Quantity: 1},
			}},
			want: 35.5,
		},
		{
			name:  "zero quantity treated as one",
			order: Order{LineItems: []LineItem{{Cost: "10.00"}}},
			want:  10,
		},
		{
			name:  "no cost data",
			order: Order{LineItems: []LineItem{{Price: "10.00", Quantity: 1}}},
			want:  0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.order.CostTotal(); got != tc.want {
				t.Errorf("CostTotal: got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOrderDate(t *testing.T) {
	if got := (Order{CreatedAt: "2024-03-15T10:00:00Z"}).Date(); got != "2024-03-15" {
		t.Errorf("Date: got %q, want 2024-03-15", got)
	}
	if got := (Order{CreatedAt: "bad"}).Date(); got != "bad" {
		t.Errorf("Date: got %q, want bad", got)
	}
}

func TestSortedSet(t *testing.T) {
	set := map[string]struct{}{"b": {}, "a": {}, "c": {}}
	if got := SortedSet(set); got != "a, b, c" {
		t.Errorf("SortedSet: got %q, want %q", got, "a, b, c")
	}
	if got := SortedSet(nil); got != "" {
		t.Errorf("SortedSet(nil): got %q, want empty", got)
	}
}

func TestBreakdownMatched(t *testing.T) {
	if (&Breakdown{MatchedRules: NoMatch}).Matched() {
		t.Error("Matched: got true for sentinel")
	}
	if !(&Breakdown{MatchedRules: "Consignment split"}).Matched() {
		t.Error("Matched: got false for a matched rule")
	}
}
