package report

import (
	"slices"
	"testing"

	"github.com/orderfall/orderfall/pkg/api"
)

func TestPivot(t *testing.T) {
	b := &api.Breakdown{
		ComponentBreakdown: []string{
			"Investor: $40.00",
			"Consigner - Gallery: $10.50",
			"Consigner - Gallery: $4.50",
			"State Taxes: $7.20",
		},
	}

	consigners, investors := Pivot(b)

	if got := investors[DefaultLabel]; got != 40 {
		t.Errorf("investor default bucket: got %v, want 40", got)
	}
	if got := consigners["Gallery"]; got != 15 {
		t.Errorf("consigner Gallery: got %v, want 15 (summed)", got)
	}
	if len(consigners) != 1 || len(investors) != 1 {
		t.Errorf("pivot sizes: got %d consigners %d investors, tax lines must not pivot",
			len(consigners), len(investors))
	}
}

func TestLabelColumn(t *testing.T) {
	if got := LabelColumn("Investor", DefaultLabel); got != "Investor" {
		t.Errorf("default label column: got %q, want Investor", got)
	}
	if got := LabelColumn("Consigner", "Gallery"); got != "Consigner - Gallery" {
		t.Errorf("labeled column: got %q, want Consigner - Gallery", got)
	}
}

func sampleBreakdowns() []*api.Breakdown {
	return []*api.Breakdown{
		{
			OrderID:      "1",
			OrderNumber:  "1001",
			Date:         "2024-03-15",
			Customer:     "Jane Doe",
			Products:     "Consignment Lamp",
			OrderTotal:   110,
			TotalCost:    10,
			Revenue:      81.14,
			StateTaxes:   7.2,
			FederalTaxes: 1.66,
			ComponentBreakdown: []string{
				"Investor: $10.00",
				"State Taxes: $7.20",
				"Federal Taxes: $1.66",
			},
			TaxLines: []api.TaxLine{
				{Title: "State Tax", Amount: "8.80"},
				{Title: "Federal Tax", Amount: "2.20"},
			},
			MatchedRules: "investor cut",
		},
		{
			OrderID:     "2",
			OrderNumber: "1002",
			Date:        "2024-04-02",
			Customer:    "John Smith",
			Products:    "Consignment Print",
			OrderTotal:  200,
			Revenue:     150,
			ComponentBreakdown: []string{
				"Consigner - Gallery: $50.00",
			},
			MatchedRules: "Consignment split",
		},
		{
			OrderID:      "3",
			OrderNumber:  "1003",
			Date:         "2024-04-20",
			Customer:     "No Match",
			Products:     "Standard Widget",
			OrderTotal:   50,
			Revenue:      50,
			MatchedRules: api.NoMatch,
		},
	}
}

func TestBuild(t *testing.T) {
	table := Build(sampleBreakdowns())

	for _, col := range []string{"Investor", "Consigner - Gallery", "Order Tax - State Tax", "Order Tax - Federal Tax"} {
		if !slices.Contains(table.Header, col) {
			t.Errorf("header missing column %q: %v", col, table.Header)
		}
	}

	if len(table.Rows) != 3 {
		t.Fatalf("rows: got %d, want 3", len(table.Rows))
	}

	// Each row has one cell per header column.
	for i, row := range table.Rows {
		if len(row) != len(table.Header) {
			t.Errorf("row %d width: got %d, want %d", i, len(row), len(table.Header))
		}
	}

	cell := func(row []string, col string) string {
		idx := slices.Index(table.Header, col)
		if idx < 0 {
			t.Fatalf("column %q not in header", col)
		}
		return row[idx]
	}

	if got := cell(table.Rows[0], "Investor"); got != "10.00" {
		t.Errorf("row 0 Investor: got %q, want 10.00", got)
	}
	if got := cell(table.Rows[1], "Investor"); got != "0.00" {
		t.Errorf("row 1 Investor: got %q, want 0.00", got)
	}
	if got := cell(table.Rows[1], "Consigner - Gallery"); got != "50.00" {
		t.Errorf("row 1 Consigner - Gallery: got %q, want 50.00", got)
	}
	if got := cell(table.Rows[0], "Order Tax - State Tax"); got != "8.80" {
		t.Errorf("row 0 state tax: got %q, want 8.80", got)
	}
	if got := cell(table.Rows[2], "Matched Rules"); got != api.NoMatch {
		t.Errorf("row 2 matched rules: got %q", got)
	}

	if table.Totals[0] != "TOTAL" {
		t.Fatalf("totals row marker: got %q", table.Totals[0])
	}
	if got := cell(table.Totals, "Order Total"); got != "360.00" {
		t.Errorf("total order total: got %q, want 360.00", got)
	}
	if got := cell(table.Totals, "Revenue"); got != "281.14" {
		t.Errorf("total revenue: got %q, want 281.14", got)
	}
	if got := cell(table.Totals, "Consigner - Gallery"); got != "50.00" {
		t.Errorf("total consigner: got %q, want 50.00", got)
	}
}

func TestBuild_Empty(t *testing.T) {
	table := Build(nil)
	if len(table.Rows) != 0 {
		t.Errorf("rows: got %d, want 0", len(table.Rows))
	}
	wantWidth := len(baseColumns) + len(trailingColumns)
	if len(table.Header) != wantWidth {
		t.Errorf("header width: got %d, want %d", len(table.Header), wantWidth)
	}
}

func TestByMonth(t *testing.T) {
	groups, months := ByMonth(sampleBreakdowns())

	wantMonths := []string{"2024-03", "2024-04"}
	if !slices.Equal(months, wantMonths) {
		t.Fatalf("months: got %v, want %v", months, wantMonths)
	}
	if len(groups["2024-03"]) != 1 || len(groups["2024-04"]) != 2 {
		t.Errorf("group sizes: got %d/%d, want 1/2",
			len(groups["2024-03"]), len(groups["2024-04"]))
	}
}

func TestByMonth_UnknownDate(t *testing.T) {
	groups, months := ByMonth([]*api.Breakdown{{OrderID: "1", Date: "bad"}})
	if !slices.Equal(months, []string{"Unknown"}) {
		t.Fatalf("months: got %v", months)
	}
	if len(groups["Unknown"]) != 1 {
		t.Errorf("unknown group: got %d, want 1", len(groups["Unknown"]))
	}
}

func TestMoney(t *testing.T) {
	if got := Money(1234.5); got != "1234.50" {
		t.Errorf("Money: got %q, want 1234.50", got)
	}
	if got := Money(0); got != "0.00" {
		t.Errorf("Money: got %q, want 0.00", got)
	}
}
