package api

import (
	"fmt"
	"regexp"
	"strings"
)

// Breakdown component lines are a serialization contract: spreadsheet and
// CSV exporters pivot them back into per-label columns by parsing this
// exact shape. Changing the format breaks every downstream consumer of
// previously exported data.
//
// Shape: "<Type>: $<amount>" or "<Type> - <Label>: $<amount>", where Type
// is the Title-Cased component type and amount has two decimals.

var componentLineRe = regexp.MustCompile(`^(Consigner|Investor)(?:\s*-\s*([^:]+))?:\s*\$\s*([\d.]+)`)

// DisplayName builds the human-readable name for a breakdown line from a
// component type string (e.g. "state_taxes") and an optional label.
func DisplayName(componentType, label string) string {
	name := titleCase(strings.ReplaceAll(componentType, "_", " "))
	if label = strings.TrimSpace(label); label != "" {
		name = name + " - " + label
	}
	return name
}

// FormatComponentLine renders one breakdown line. The amount keeps its full
// precision up to this point and is formatted to two decimals here only.
func FormatComponentLine(displayName string, amount float64) string {
	return fmt.Sprintf("%s: $%.2f", displayName, amount)
}

// ComponentLine is a parsed breakdown line.
type ComponentLine struct {
	Type   string
	Label  string
	Amount float64
}

// ParseComponentLine is the inverse of FormatComponentLine for consigner
// and investor lines, the two types exporters pivot into labeled columns.
// The second return is false for lines of any other type.
func ParseComponentLine(line string) (ComponentLine, bool) {
	m := componentLineRe.FindStringSubmatch(line)
	if m == nil {
		return ComponentLine{}, false
	}
	return ComponentLine{
		Type:   m[1],
		Label:  strings.TrimSpace(m[2]),
		Amount: Amount(m[3]),
	}, true
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
