package engine

import (
	"fmt"
	"math"
	"strings"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/rules"
)

// BaseSource selects which order amount the waterfall starts from.
type BaseSource int

const (
	// BaseSubtotal starts from the order's subtotal price (pre-tax).
	BaseSubtotal BaseSource = iota
	// BaseTotal starts from the order's total price.
	BaseTotal
)

// ParseBaseSource converts the config string ("subtotal" or "total") into
// a BaseSource. Empty defaults to subtotal.
func ParseBaseSource(s string) (BaseSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "subtotal":
		return BaseSubtotal, nil
	case "total":
		return BaseTotal, nil
	default:
		return BaseSubtotal, fmt.Errorf("unknown base amount %q (want subtotal or total)", s)
	}
}

// round2 rounds to two decimals. Applied only when a total is emitted into
// the breakdown; all intermediate math keeps full float precision.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Calculate runs the deduction waterfall for one order and the rule
// matched for it (nil when no rule matched) and returns the order's
// breakdown record.
//
// The pipeline is a single strictly sequential pass: the base amount is
// the configured order amount minus cost of goods (floored at zero), the
// rule's components then each deduct from the running remainder in
// ascending component order, tax lines deduct next, and whatever is left
// is revenue, clamped at zero. Over-deduction is absorbed into zero
// revenue rather than raised as an error.
//
// Calculate assumes the rule passed authoring-time validation; a component
// with an unknown type or calc method is a programming error and is
// reported as one.
func Calculate(order api.Order, rule *rules.Rule, base BaseSource) (*api.Breakdown, error) {
	baseAmount := api.Amount(order.SubtotalPrice)
	if base == BaseTotal {
		baseAmount = api.Amount(order.TotalPrice)
	}

	totalCost := order.CostTotal()
	baseAmount = math.Max(0, baseAmount-totalCost)

	b := &api.Breakdown{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		Date:         order.Date(),
		Customer:     order.CustomerName(),
		Products:     strings.Join(order.ProductNames(), ", "),
		OrderTotal:   api.Amount(order.TotalPrice),
		TotalCost:    round2(totalCost),
		BaseAmount:   baseAmount,
		TaxBreakdown: taxBreakdown(order.TaxLines),
		TaxLines:     order.TaxLines,
		MatchedRules: api.NoMatch,
	}
	collectMetadata(b, order.LineItems)

	if rule == nil {
		// No categorization: the whole base is revenue, nothing else moves.
		b.Revenue = round2(baseAmount)
		return b, nil
	}
	b.MatchedRules = rule.Description

	remaining := baseAmount

	var investor, consigner, vendor float64
	for _, c := range rule.SortedComponents() {
		var amount float64
		switch c.Calc {
		case rules.CalcFlat:
			amount = c.Value
		case rules.CalcPercentage:
			amount = remaining * (c.Value / 100)
		default:
			return nil, fmt.Errorf("rule %d: component has invalid calc method", rule.ID)
		}
		remaining -= amount

		switch c.Type {
		case rules.TypeInvestor:
			investor += amount
		case rules.TypeConsigner:
			consigner += amount
		case rules.TypeVendor:
			vendor += amount
		default:
			return nil, fmt.Errorf("rule %d: component has invalid type", rule.ID)
		}

		name := api.DisplayName(c.Type.String(), c.Label)
		b.ComponentBreakdown = append(b.ComponentBreakdown, api.FormatComponentLine(name, amount))
	}

	var stateTaxes, federalTaxes float64
	if len(order.TaxLines) > 0 && remaining > 0 {
		orderTotal := api.Amount(order.TotalPrice)

		for i, line := range order.TaxLines {
			var taxAmount float64
			switch {
			case api.Amount(line.RatePercentage) > 0:
				taxAmount = remaining * (api.Amount(line.RatePercentage) / 100)
			case api.Amount(line.Rate) > 0:
				taxAmount = remaining * api.Amount(line.Rate)
			case orderTotal > 0:
				// No rate on the line: derive an implied rate from the
				// reported tax amount relative to the order total.
				taxAmount = remaining * (api.Amount(line.Amount) / orderTotal)
			default:
				continue
			}
			remaining -= taxAmount

			// Positional mapping: first line is state, second federal.
			// Further lines are folded into state under a descriptive name
			// rather than given a bucket of their own.
			switch {
			case i == 0:
				stateTaxes = taxAmount
				b.ComponentBreakdown = append(b.ComponentBreakdown,
					api.FormatComponentLine(api.DisplayName("state_taxes", ""), taxAmount))
			case i == 1:
				federalTaxes = taxAmount
				b.ComponentBreakdown = append(b.ComponentBreakdown,
					api.FormatComponentLine(api.DisplayName("federal_taxes", ""), taxAmount))
			default:
				stateTaxes += taxAmount
				title := line.Title
				if title == "" {
					title = "Tax"
				}
				b.ComponentBreakdown = append(b.ComponentBreakdown,
					api.FormatComponentLine(fmt.Sprintf("Additional Tax (%s)", title), taxAmount))
			}
		}
	}

	b.Revenue = round2(math.Max(0, remaining))
	b.Investor = round2(investor)
	b.Consigner = round2(consigner)
	b.Vendor = round2(vendor)
	b.StateTaxes = round2(stateTaxes)
	b.FederalTaxes = round2(federalTaxes)

	return b, nil
}

// collectMetadata aggregates vendor, product type, tag and collection sets
// across line items for the report columns.
func collectMetadata(b *api.Breakdown, items []api.LineItem) {
	vendors := make(map[string]struct{})
	types := make(map[string]struct{})
	tags := make(map[string]struct{})
	collections := make(map[string]struct{})

	for _, li := range items {
		if li.Vendor != "" {
			vendors[li.Vendor] = struct{}{}
		}
		if li.ProductType != "" {
			types[li.ProductType] = struct{}{}
		}
		for _, t := range li.Tags {
			if t != "" {
				tags[t] = struct{}{}
			}
		}
		for _, c := range li.Collections {
			if c != "" {
				collections[c] = struct{}{}
			}
		}
	}

	b.Vendors = api.SortedSet(vendors)
	b.ProductTypes = api.SortedSet(types)
	b.Tags = api.SortedSet(tags)
	b.Collections = api.SortedSet(collections)
}

// taxBreakdown renders the order's own tax lines for display, amounts as
// reported by the source (not the calculated deductions).
func taxBreakdown(lines []api.TaxLine) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		title := line.Title
		if title == "" {
			title = "Tax"
		}
		if line.RateDisplay != "" {
			out = append(out, fmt.Sprintf("%s (%s): $%.2f", title, line.RateDisplay, api.Amount(line.Amount)))
		} else {
			out = append(out, fmt.Sprintf("%s: $%.2f", title, api.Amount(line.Amount)))
		}
	}
	return out
}
