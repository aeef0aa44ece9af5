// Package api defines the core interfaces and data structures for orderfall.
package api

import (
	"context"
	"sort"
	"strconv"
	"strings"
)

// TaxLine is one tax entry on an order. Position within Order.TaxLines is
// significant: the first line is treated as state tax, the second as federal,
// and any further lines are folded into state tax during calculation.
type TaxLine struct {
	Title          string `json:"title"`
	Amount         string `json:"amount"`
	Rate           string `json:"rate,omitempty"`
	RatePercentage string `json:"rate_percentage,omitempty"`
	RateDisplay    string `json:"rate_display,omitempty"`
}

// Customer holds the buyer's name as reported by the order source.
type Customer struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// LineItem is one purchased product on an order, including the product
// metadata that rule keywords are matched against.
type LineItem struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title"`
	Name        string   `json:"name"`
	Quantity    int      `json:"quantity"`
	Price       string   `json:"price"`
	Cost        string   `json:"cost,omitempty"`
	Vendor      string   `json:"vendor,omitempty"`
	ProductType string   `json:"product_type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Collections []string `json:"collections,omitempty"`
}

// Description returns the product name, falling back to the title.
func (li LineItem) Description() string {
	if li.Name != "" {
		return li.Name
	}
	return li.Title
}

// Order is one purchase transaction as delivered by an order source.
// Monetary fields are decimal strings, matching the upstream API payloads.
type Order struct {
	ID            string     `json:"id"`
	OrderNumber   string     `json:"order_number"`
	CreatedAt     string     `json:"created_at"`
	Email         string     `json:"email,omitempty"`
	Customer      Customer   `json:"customer"`
	LineItems     []LineItem `json:"line_items"`
	SubtotalPrice string     `json:"subtotal_price"`
	TotalTax      string     `json:"total_tax,omitempty"`
	TaxLines      []TaxLine  `json:"tax_lines,omitempty"`
	TotalPrice    string     `json:"total_price"`
	TotalCost     string     `json:"total_cost,omitempty"`
	Currency      string     `json:"currency,omitempty"`
}

// CustomerName returns "First Last", falling back to the order email and
// finally to "Unknown" when the source carries no name at all.
func (o Order) CustomerName() string {
	name := strings.TrimSpace(o.Customer.FirstName + " " + o.Customer.LastName)
	if name != "" {
		return name
	}
	if o.Email != "" {
		return o.Email
	}
	return "Unknown"
}

// ProductNames returns the non-empty line item descriptions in order.
func (o Order) ProductNames() []string {
	names := make([]string, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if d := li.Description(); d != "" {
			names = append(names, d)
		}
	}
	return names
}

// CostTotal returns the order's total cost of goods. It prefers the
// TotalCost field reported by the source and otherwise derives it from
// per-unit line item costs. Orders without cost data total zero.
func (o Order) CostTotal() float64 {
	if v := Amount(o.TotalCost); v != 0 {
		return v
	}
	var total float64
	for _, li := range o.LineItems {
		if li.Cost == "" {
			continue
		}
		qty := li.Quantity
		if qty <= 0 {
			qty = 1
		}
		total += Amount(li.Cost) * float64(qty)
	}
	return total
}

// Date returns the YYYY-MM-DD part of the order's creation timestamp.
func (o Order) Date() string {
	if len(o.CreatedAt) >= 10 {
		return o.CreatedAt[:10]
	}
	return o.CreatedAt
}

// Amount parses a decimal string into a float64, treating empty or
// malformed values as zero. Order sources report money as strings and
// missing data is a defined fallback, not an error.
func Amount(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// NoMatch is the sentinel value of Breakdown.MatchedRules for orders no
// rule matched.
const NoMatch = "No match"

// Breakdown is the calculated financial breakdown of a single order.
// It is constructed once per order per run and never updated in place.
// All monetary totals are rounded to two decimals at construction.
type Breakdown struct {
	OrderID      string `json:"order_id"`
	OrderNumber  string `json:"order_number"`
	Date         string `json:"date"`
	Customer     string `json:"customer"`
	Products     string `json:"products"`
	Vendors      string `json:"vendors,omitempty"`
	ProductTypes string `json:"product_type,omitempty"`
	Tags         string `json:"tags,omitempty"`
	Collections  string `json:"collections,omitempty"`

	OrderTotal   float64 `json:"order_total"`
	TotalCost    float64 `json:"total_cost"`
	BaseAmount   float64 `json:"base_amount"`
	Revenue      float64 `json:"revenue"`
	Investor     float64 `json:"investor"`
	Consigner    float64 `json:"consigner"`
	Vendor       float64 `json:"vendor"`
	StateTaxes   float64 `json:"state_taxes"`
	FederalTaxes float64 `json:"federal_taxes"`

	// ComponentBreakdown lists every applied deduction in application order,
	// formatted per FormatComponentLine. Downstream exporters parse these
	// lines back into per-label columns, so the format is a contract.
	ComponentBreakdown []string `json:"component_breakdown"`

	// TaxBreakdown lists the order's own tax lines as reported by the
	// source, independent of the calculated tax deductions.
	TaxBreakdown []string  `json:"tax_breakdown,omitempty"`
	TaxLines     []TaxLine `json:"tax_lines,omitempty"`

	// MatchedRules is the matched rule's description, or NoMatch.
	MatchedRules string `json:"matched_rules"`
}

// Matched reports whether a rule was applied to this breakdown.
func (b *Breakdown) Matched() bool {
	return b.MatchedRules != NoMatch
}

// Stats summarizes a batch calculation run.
type Stats struct {
	Total     int `json:"total"`
	Matched   int `json:"matched"`
	Unmatched int `json:"unmatched"`
}

// SortedSet joins a set of strings into a sorted, comma-separated list.
func SortedSet(set map[string]struct{}) string {
	if len(set) == 0 {
		return ""
	}
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return strings.Join(items, ", ")
}

// Source fetches orders and sends them to the provided channel.
// Implementations must close the channel when done or on error.
type Source interface {
	Fetch(ctx context.Context, out chan<- *Order) error
}

// Exporter consumes breakdowns from a channel and writes them to a
// destination. It returns once the channel is closed and all breakdowns
// are flushed, or when the context is canceled.
type Exporter interface {
	Export(ctx context.Context, in <-chan *Breakdown) error
}
