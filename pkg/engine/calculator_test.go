package engine

import (
	"math"
	"testing"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/rules"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseBaseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    BaseSource
		wantErr bool
	}{
		{"", BaseSubtotal, false},
		{"subtotal", BaseSubtotal, false},
		{"Total", BaseTotal, false},
		{" total ", BaseTotal, false},
		{"gross", BaseSubtotal, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseBaseSource(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseBaseSource(%q) error: got %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Errorf("ParseBaseSource(%q): got %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCalculate_NoMatch(t *testing.T) {
	order := api.Order{
		ID:            "1001",
		OrderNumber:   "2001",
		CreatedAt:     "2024-03-15T10:00:00Z",
		SubtotalPrice: "250.00",
		TotalPrice:    "275.00",
		TotalCost:     "50.00",
		Customer:      api.Customer{FirstName: "Jane", LastName: "Doe"},
		LineItems:     []api.LineItem{{Name: "Standard Widget", Price: "250.00"}},
		TaxLines:      []api.TaxLine{{Title: "Sales Tax", Amount: "25.00", RatePercentage: "10"}},
	}

	b, err := Calculate(order, nil, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.MatchedRules != api.NoMatch {
		t.Errorf("MatchedRules: got %q, want %q", b.MatchedRules, api.NoMatch)
	}
	if b.Matched() {
		t.Error("Matched: got true, want false")
	}
	if b.BaseAmount != 200 {
		t.Errorf("BaseAmount: got %v, want 200", b.BaseAmount)
	}
	// Without a rule nothing is deducted, not even taxes.
	if b.Revenue != 200 {
		t.Errorf("Revenue: got %v, want 200", b.Revenue)
	}
	if b.Investor != 0 || b.Consigner != 0 || b.Vendor != 0 || b.StateTaxes != 0 || b.FederalTaxes != 0 {
		t.Errorf("deductions on unmatched order: got %v/%v/%v/%v/%v, want all zero",
			b.Investor, b.Consigner, b.Vendor, b.StateTaxes, b.FederalTaxes)
	}
	if len(b.ComponentBreakdown) != 0 {
		t.Errorf("ComponentBreakdown: got %v, want empty", b.ComponentBreakdown)
	}
	if b.Date != "2024-03-15" {
		t.Errorf("Date: got %q, want 2024-03-15", b.Date)
	}
	if b.Customer != "Jane Doe" {
		t.Errorf("Customer: got %q, want Jane Doe", b.Customer)
	}
}

func TestCalculate_Waterfall(t *testing.T) {
	order := api.Order{
		ID:            "1002",
		SubtotalPrice: "250.00",
		TotalPrice:    "275.00",
		TotalCost:     "50.00",
		LineItems:     []api.LineItem{{Name: "Consignment Art Piece", Price: "250.00"}},
	}

	// Components are listed out of order to exercise the sort.
	rule := &rules.Rule{
		ID:          7,
		Description: "Consignment split",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeConsigner, Label: "Gallery", Calc: rules.CalcFlat, Value: 10, Order: 2},
			{Type: rules.TypeInvestor, Calc: rules.CalcPercentage, Value: 20, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// Base 200: investor takes 20% (40), consigner a flat 10, revenue 150.
	if b.BaseAmount != 200 {
		t.Errorf("BaseAmount: got %v, want 200", b.BaseAmount)
	}
	if b.Investor != 40 {
		t.Errorf("Investor: got %v, want 40", b.Investor)
	}
	if b.Consigner != 10 {
		t.Errorf("Consigner: got %v, want 10", b.Consigner)
	}
	if b.Revenue != 150 {
		t.Errorf("Revenue: got %v, want 150", b.Revenue)
	}
	if b.MatchedRules != "Consignment split" {
		t.Errorf("MatchedRules: got %q, want Consignment split", b.MatchedRules)
	}

	wantLines := []string{
		"Investor: $40.00",
		"Consigner - Gallery: $10.00",
	}
	if len(b.ComponentBreakdown) != len(wantLines) {
		t.Fatalf("ComponentBreakdown: got %v, want %v", b.ComponentBreakdown, wantLines)
	}
	for i, want := range wantLines {
		if b.ComponentBreakdown[i] != want {
			t.Errorf("ComponentBreakdown[%d]: got %q, want %q", i, b.ComponentBreakdown[i], want)
		}
	}
}

func TestCalculate_PercentageOfRemaining(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "110.00",
		TotalPrice:    "110.00",
		TotalCost:     "10.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
	}

	// Two 50% components compound: the second takes half of what is left.
	rule := &rules.Rule{
		ID:          1,
		Description: "halves",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeInvestor, Calc: rules.CalcPercentage, Value: 50, Order: 1},
			{Type: rules.TypeConsigner, Calc: rules.CalcPercentage, Value: 50, Order: 2},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.Investor != 50 {
		t.Errorf("Investor: got %v, want 50", b.Investor)
	}
	if b.Consigner != 25 {
		t.Errorf("Consigner: got %v, want 25", b.Consigner)
	}
	if b.Revenue != 25 {
		t.Errorf("Revenue: got %v, want 25", b.Revenue)
	}
}

func TestCalculate_TaxLines(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "110.00",
		TotalPrice:    "120.00",
		TotalCost:     "10.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
		TaxLines: []api.TaxLine{
			{Title: "State Tax", Amount: "8.80", RatePercentage: "8"},
			{Title: "Federal Tax", Amount: "2.20", Rate: "0.02"},
		},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "investor cut",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeInvestor, Calc: rules.CalcPercentage, Value: 10, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// Base 100, investor 10, remaining 90. State 8% of 90 = 7.2, then
	// federal at rate 0.02 of 82.8 = 1.656, revenue 81.144 rounded.
	if b.Investor != 10 {
		t.Errorf("Investor: got %v, want 10", b.Investor)
	}
	if !almostEqual(b.StateTaxes, 7.2) {
		t.Errorf("StateTaxes: got %v, want 7.2", b.StateTaxes)
	}
	if !almostEqual(b.FederalTaxes, 1.66) {
		t.Errorf("FederalTaxes: got %v, want 1.66", b.FederalTaxes)
	}
	if !almostEqual(b.Revenue, 81.14) {
		t.Errorf("Revenue: got %v, want 81.14", b.Revenue)
	}

	wantLines := []string{
		"Investor: $10.00",
		"State Taxes: $7.20",
		"Federal Taxes: $1.66",
	}
	for i, want := range wantLines {
		if i >= len(b.ComponentBreakdown) || b.ComponentBreakdown[i] != want {
			t.Fatalf("ComponentBreakdown: got %v, want %v", b.ComponentBreakdown, wantLines)
		}
	}
}

func TestCalculate_ImpliedTaxRate(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "200.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
		TaxLines: []api.TaxLine{
			// No rate fields, so the rate is implied from amount/total.
			{Title: "Sales Tax", Amount: "10.00"},
		},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "no cut",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeInvestor, Calc: rules.CalcFlat, Value: 0, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// Remaining 100, implied rate 10/200 = 5%, so 5 deducted.
	if !almostEqual(b.StateTaxes, 5) {
		t.Errorf("StateTaxes: got %v, want 5", b.StateTaxes)
	}
	if !almostEqual(b.Revenue, 95) {
		t.Errorf("Revenue: got %v, want 95", b.Revenue)
	}
}

func TestCalculate_TaxLineSkippedWithoutRateOrTotal(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "0",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
		TaxLines: []api.TaxLine{
			{Title: "Sales Tax", Amount: "10.00"},
		},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "no cut",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeInvestor, Calc: rules.CalcFlat, Value: 0, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.StateTaxes != 0 {
		t.Errorf("StateTaxes: got %v, want 0", b.StateTaxes)
	}
	if b.Revenue != 100 {
		t.Errorf("Revenue: got %v, want 100", b.Revenue)
	}
}

func TestCalculate_AdditionalTaxFoldsIntoState(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "112.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
		TaxLines: []api.TaxLine{
			{Title: "State Tax", RatePercentage: "10"},
			{Title: "Federal Tax", RatePercentage: "5"},
			{Title: "City Tax", RatePercentage: "2"},
		},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "no cut",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeInvestor, Calc: rules.CalcFlat, Value: 0, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	// 10% of 100, then 5% of 90, then 2% of 85.5. The city tax joins the
	// state bucket: 10 + 1.71 = 11.71.
	if !almostEqual(b.StateTaxes, 11.71) {
		t.Errorf("StateTaxes: got %v, want 11.71", b.StateTaxes)
	}
	if !almostEqual(b.FederalTaxes, 4.5) {
		t.Errorf("FederalTaxes: got %v, want 4.5", b.FederalTaxes)
	}

	found := false
	for _, line := range b.ComponentBreakdown {
		if line == "Additional Tax (City Tax): $1.71" {
			found = true
		}
	}
	if !found {
		t.Errorf("ComponentBreakdown missing additional tax line: %v", b.ComponentBreakdown)
	}
}

func TestCalculate_TaxSkippedWhenNothingRemains(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "110.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
		TaxLines: []api.TaxLine{
			{Title: "State Tax", RatePercentage: "10"},
		},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "everything",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeConsigner, Calc: rules.CalcPercentage, Value: 100, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.StateTaxes != 0 {
		t.Errorf("StateTaxes: got %v, want 0 when remainder is zero", b.StateTaxes)
	}
	if b.Revenue != 0 {
		t.Errorf("Revenue: got %v, want 0", b.Revenue)
	}
}

func TestCalculate_RevenueClampedAtZero(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "100.00",
		LineItems:     []api.LineItem{{Name: "Consignment Lamp"}},
	}

	rule := &rules.Rule{
		ID:          1,
		Description: "over-deduction",
		Keywords:    []string{"consign"},
		Components: []rules.Component{
			{Type: rules.TypeConsigner, Calc: rules.CalcFlat, Value: 150, Order: 1},
		},
	}

	b, err := Calculate(order, rule, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.Revenue != 0 {
		t.Errorf("Revenue: got %v, want 0", b.Revenue)
	}
	// The component still records what it claimed, not what was available.
	if b.Consigner != 150 {
		t.Errorf("Consigner: got %v, want 150", b.Consigner)
	}
}

func TestCalculate_CostFlooredAtZero(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "50.00",
		TotalPrice:    "50.00",
		TotalCost:     "80.00",
		LineItems:     []api.LineItem{{Name: "Standard Widget"}},
	}

	b, err := Calculate(order, nil, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.BaseAmount != 0 {
		t.Errorf("BaseAmount: got %v, want 0", b.BaseAmount)
	}
	if b.Revenue != 0 {
		t.Errorf("Revenue: got %v, want 0", b.Revenue)
	}
	if b.TotalCost != 80 {
		t.Errorf("TotalCost: got %v, want 80", b.TotalCost)
	}
}

func TestCalculate_BaseTotal(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "110.00",
		TotalCost:     "10.00",
		LineItems:     []api.LineItem{{Name: "Standard Widget"}},
	}

	b, err := Calculate(order, nil, BaseTotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.BaseAmount != 100 {
		t.Errorf("BaseAmount: got %v, want 100", b.BaseAmount)
	}
}

func TestCalculate_CostDerivedFromLineItems(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "100.00",
		LineItems: []api.LineItem{
			{Name: "Widget", Cost: "10.00", Quantity: 2},
			{Name: "Gadget", Cost: "5.00", Quantity: 1},
		},
	}

	b, err := Calculate(order, nil, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.TotalCost != 25 {
		t.Errorf("TotalCost: got %v, want 25", b.TotalCost)
	}
	if b.BaseAmount != 75 {
		t.Errorf("BaseAmount: got %v, want 75", b.BaseAmount)
	}
}

func TestCalculate_Metadata(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "100.00",
		LineItems: []api.LineItem{
			{Name: "Lamp", Vendor: "Vintage Store", ProductType: "Lighting", Tags: []string{"Vintage"}},
			{Name: "Print", Vendor: "Art House", ProductType: "Art", Tags: []string{"Art", "Vintage"}, Collections: []string{"Wall Art"}},
		},
	}

	b, err := Calculate(order, nil, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	if b.Vendors != "Art House, Vintage Store" {
		t.Errorf("Vendors: got %q", b.Vendors)
	}
	if b.ProductTypes != "Art, Lighting" {
		t.Errorf("ProductTypes: got %q", b.ProductTypes)
	}
	if b.Tags != "Art, Vintage" {
		t.Errorf("Tags: got %q", b.Tags)
	}
	if b.Collections != "Wall Art" {
		t.Errorf("Collections: got %q", b.Collections)
	}
	if b.Products != "Lamp, Print" {
		t.Errorf("Products: got %q", b.Products)
	}
}

func TestCalculate_TaxBreakdownRendering(t *testing.T) {
	order := api.Order{
		SubtotalPrice: "100.00",
		TotalPrice:    "110.00",
		LineItems:     []api.LineItem{{Name: "Widget"}},
		TaxLines: []api.TaxLine{
			{Title: "Sales Tax", Amount: "8.80", RateDisplay: "8%"},
			{Title: "", Amount: "2.20"},
		},
	}

	b, err := Calculate(order, nil, BaseSubtotal)
	if err != nil {
		t.Fatalf("Calculate: %v", err)
	}

	want := []string{"Sales Tax (8%): $8.80", "Tax: $2.20"}
	if len(b.TaxBreakdown) != len(want) {
		t.Fatalf("TaxBreakdown: got %v, want %v", b.TaxBreakdown, want)
	}
	for i := range want {
		if b.TaxBreakdown[i] != want[i] {
			t.Errorf("TaxBreakdown[%d]: got %q, want %q", i, b.TaxBreakdown[i], want[i])
		}
	}
}
