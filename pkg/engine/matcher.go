// Package engine implements the rule matching and breakdown calculation
// core: keyword-based rule selection over product metadata and the ordered
// deduction waterfall that splits an order's proceeds.
package engine

import (
	"strings"

	"github.com/orderfall/orderfall/pkg/api"
	"github.com/orderfall/orderfall/pkg/rules"
)

// SearchText builds the lowercase text a line item is matched against:
// product name (or title), vendor, product type, tags and collections,
// in that order, space-joined, with empty fields skipped.
func SearchText(item api.LineItem) string {
	parts := make([]string, 0, 4+len(item.Tags)+len(item.Collections))

	if d := item.Description(); d != "" {
		parts = append(parts, strings.ToLower(d))
	}
	if item.Vendor != "" {
		parts = append(parts, strings.ToLower(item.Vendor))
	}
	if item.ProductType != "" {
		parts = append(parts, strings.ToLower(item.ProductType))
	}
	for _, tag := range item.Tags {
		if tag != "" {
			parts = append(parts, strings.ToLower(tag))
		}
	}
	for _, coll := range item.Collections {
		if coll != "" {
			parts = append(parts, strings.ToLower(coll))
		}
	}

	return strings.Join(parts, " ")
}

// Match returns the first rule with a keyword contained in the line item's
// search text. Rules are tried in input order and keywords in input order;
// the first hit wins outright, there is no scoring. Pure function of its
// inputs.
func Match(set []rules.Rule, item api.LineItem) (*rules.Rule, bool) {
	text := SearchText(item)
	for i := range set {
		for _, keyword := range set[i].Keywords {
			if keyword == "" {
				continue
			}
			if strings.Contains(text, strings.ToLower(keyword)) {
				return &set[i], true
			}
		}
	}
	return nil, false
}

// MatchOrder selects the rule for an entire order: line items are scanned
// in order and the first item that matches any rule decides. Remaining
// line items are not inspected and only that one rule applies to the whole
// order; mixed carts never blend allocations across rules.
func MatchOrder(set []rules.Rule, order api.Order) (*rules.Rule, bool) {
	for _, item := range order.LineItems {
		if rule, ok := Match(set, item); ok {
			return rule, true
		}
	}
	return nil, false
}
