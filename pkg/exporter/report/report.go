// Package report builds the tabular form of a breakdown batch shared by
// the CSV and Sheets exporters: fixed identification and money columns
// plus one pivoted column per consigner/investor label and per order tax
// title.
package report

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/orderfall/orderfall/pkg/api"
)

// DefaultLabel is the reporting bucket for components without a label.
const DefaultLabel = "Default"

var baseColumns = []string{
	"Order ID", "Order Number", "Date", "Customer", "Products",
	"Vendor", "Product Type", "Tags", "Collections",
	"Order Total", "Total Cost", "Revenue", "State Taxes", "Federal Taxes",
}

var trailingColumns = []string{"Order Tax Breakdown", "Component Breakdown", "Matched Rules"}

// Table is a rendered breakdown batch. Rows are in input order; the last
// row is a totals row with "TOTAL" in the first cell and every numeric
// column summed.
type Table struct {
	Header []string
	Rows   [][]string
	Totals []string
}

// Pivot extracts consigner and investor amounts keyed by label from a
// breakdown's component lines. Unlabeled components fall into the
// DefaultLabel bucket.
func Pivot(b *api.Breakdown) (consigners, investors map[string]float64) {
	consigners = make(map[string]float64)
	investors = make(map[string]float64)

	for _, line := range b.ComponentBreakdown {
		parsed, ok := api.ParseComponentLine(line)
		if !ok {
			continue
		}
		label := parsed.Label
		if label == "" {
			label = DefaultLabel
		}
		switch parsed.Type {
		case "Consigner":
			consigners[label] += parsed.Amount
		case "Investor":
			investors[label] += parsed.Amount
		}
	}
	return consigners, investors
}

// LabelColumn names the pivoted column for a label; the Default bucket
// keeps the bare type name.
func LabelColumn(prefix, label string) string {
	if label == DefaultLabel {
		return prefix
	}
	return prefix + " - " + label
}

// Build renders a breakdown batch into a table.
func Build(breakdowns []*api.Breakdown) Table {
	consignerLabels := make(map[string]struct{})
	investorLabels := make(map[string]struct{})
	taxTitles := make(map[string]struct{})

	type pivoted struct {
		breakdown  *api.Breakdown
		consigners map[string]float64
		investors  map[string]float64
	}
	pivotedRows := make([]pivoted, 0, len(breakdowns))

	for _, b := range breakdowns {
		consigners, investors := Pivot(b)
		for label := range consigners {
			consignerLabels[label] = struct{}{}
		}
		for label := range investors {
			investorLabels[label] = struct{}{}
		}
		for _, tl := range b.TaxLines {
			taxTitles[taxTitle(tl)] = struct{}{}
		}
		pivotedRows = append(pivotedRows, pivoted{b, consigners, investors})
	}

	sortedInvestors := sortedKeys(investorLabels)
	sortedConsigners := sortedKeys(consignerLabels)
	sortedTaxes := sortedKeys(taxTitles)

	header := append([]string{}, baseColumns...)
	for _, label := range sortedInvestors {
		header = append(header, LabelColumn("Investor", label))
	}
	for _, label := range sortedConsigners {
		header = append(header, LabelColumn("Consigner", label))
	}
	for _, title := range sortedTaxes {
		header = append(header, "Order Tax - "+title)
	}
	header = append(header, trailingColumns...)

	totals := make(map[string]float64)
	rows := make([][]string, 0, len(pivotedRows))

	for _, row := range pivotedRows {
		b := row.breakdown

		record := []string{
			b.OrderID, b.OrderNumber, b.Date, b.Customer, b.Products,
			b.Vendors, b.ProductTypes, b.Tags, b.Collections,
			Money(b.OrderTotal), Money(b.TotalCost), Money(b.Revenue),
			Money(b.StateTaxes), Money(b.FederalTaxes),
		}
		totals["Order Total"] += b.OrderTotal
		totals["Total Cost"] += b.TotalCost
		totals["Revenue"] += b.Revenue
		totals["State Taxes"] += b.StateTaxes
		totals["Federal Taxes"] += b.FederalTaxes

		for _, label := range sortedInvestors {
			col := LabelColumn("Investor", label)
			amount := row.investors[label]
			totals[col] += amount
			record = append(record, Money(amount))
		}
		for _, label := range sortedConsigners {
			col := LabelColumn("Consigner", label)
			amount := row.consigners[label]
			totals[col] += amount
			record = append(record, Money(amount))
		}
		for _, title := range sortedTaxes {
			amount := taxLineAmount(b.TaxLines, title)
			totals["Order Tax - "+title] += amount
			record = append(record, Money(amount))
		}

		record = append(record,
			strings.Join(b.TaxBreakdown, "; "),
			strings.Join(b.ComponentBreakdown, "; "),
			b.MatchedRules,
		)
		rows = append(rows, record)
	}

	totalsRow := make([]string, len(header))
	totalsRow[0] = "TOTAL"
	for i, col := range header[1:] {
		if total, ok := totals[col]; ok {
			totalsRow[i+1] = Money(math.Round(total*100) / 100)
		}
	}

	return Table{Header: header, Rows: rows, Totals: totalsRow}
}

// ByMonth groups breakdowns by the YYYY-MM prefix of their date, returning
// the groups and the sorted month keys. Breakdowns with no parseable date
// group under "Unknown".
func ByMonth(breakdowns []*api.Breakdown) (map[string][]*api.Breakdown, []string) {
	groups := make(map[string][]*api.Breakdown)
	for _, b := range breakdowns {
		key := "Unknown"
		if len(b.Date) >= 7 {
			key = b.Date[:7]
		}
		groups[key] = append(groups[key], b)
	}

	months := make([]string, 0, len(groups))
	for m := range groups {
		months = append(months, m)
	}
	sort.Strings(months)
	return groups, months
}

// Money formats an amount with two decimals.
func Money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func taxTitle(tl api.TaxLine) string {
	if tl.Title == "" {
		return "Tax"
	}
	return tl.Title
}

func taxLineAmount(lines []api.TaxLine, title string) float64 {
	for _, tl := range lines {
		if taxTitle(tl) == title {
			return api.Amount(tl.Amount)
		}
	}
	return 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
