// Package rules defines the typed rule model for order categorization and
// the authoring-time validation that keeps malformed rules out of the
// calculation engine.
package rules

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ComponentType identifies which allocation bucket a component pays into.
// Revenue and taxes are never user-defined components; they are derived by
// the calculator.
type ComponentType int

const (
	TypeInvalid ComponentType = iota
	TypeInvestor
	TypeConsigner
	TypeVendor
)

var componentTypeNames = map[ComponentType]string{
	TypeInvestor:  "investor",
	TypeConsigner: "consigner",
	TypeVendor:    "vendor",
}

// String returns the wire form of the component type.
func (t ComponentType) String() string {
	if name, ok := componentTypeNames[t]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether t is one of the defined component types.
func (t ComponentType) Valid() bool {
	_, ok := componentTypeNames[t]
	return ok
}

// MarshalJSON encodes the type as its wire string.
func (t ComponentType) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshaling invalid component type %d", int(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the wire string, rejecting unknown types at decode
// time so they never reach the calculator.
func (t *ComponentType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for typ, name := range componentTypeNames {
		if name == strings.ToLower(s) {
			*t = typ
			return nil
		}
	}
	return fmt.Errorf("unknown component type %q", s)
}

// CalcMethod selects how a component's value is applied to the remaining
// amount.
type CalcMethod int

const (
	CalcInvalid CalcMethod = iota
	// CalcFlat deducts a fixed absolute amount.
	CalcFlat
	// CalcPercentage deducts value percent of the current remaining amount,
	// not of the original base.
	CalcPercentage
)

var calcMethodNames = map[CalcMethod]string{
	CalcFlat:       "flat",
	CalcPercentage: "percentage",
}

// String returns the wire form of the calculation method.
func (m CalcMethod) String() string {
	if name, ok := calcMethodNames[m]; ok {
		return name
	}
	return "invalid"
}

// Valid reports whether m is one of the defined calculation methods.
func (m CalcMethod) Valid() bool {
	_, ok := calcMethodNames[m]
	return ok
}

// MarshalJSON encodes the method as its wire string.
func (m CalcMethod) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("marshaling invalid calc method %d", int(m))
	}
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes the wire string, rejecting unknown methods.
func (m *CalcMethod) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	for method, name := range calcMethodNames {
		if name == strings.ToLower(s) {
			*m = method
			return nil
		}
	}
	return fmt.Errorf("unknown calc type %q", s)
}

// Component is one step of the allocation waterfall.
type Component struct {
	Type ComponentType `json:"type"`
	// Label distinguishes multiple components of the same type (e.g. two
	// investors). It groups amounts for reporting only, never for
	// calculation.
	Label string     `json:"label,omitempty"`
	Calc  CalcMethod `json:"calc_type"`
	Value float64    `json:"value"`
	// Order is the component's position in the waterfall. Ties are resolved
	// by input position.
	Order int `json:"order"`
}

// Rule is a named matching and allocation policy. Rule sets are ordered
// slices: priority is positional and the first matching rule wins, so they
// must never be held in a map.
type Rule struct {
	ID          int         `json:"id"`
	Description string      `json:"description"`
	Keywords    []string    `json:"keywords"`
	Components  []Component `json:"components"`
}

// SortedComponents returns the components in ascending Order, ties kept in
// input position. The receiver is not modified.
func (r Rule) SortedComponents() []Component {
	out := make([]Component, len(r.Components))
	copy(out, r.Components)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// ValidationError describes why a rule was rejected at authoring time.
type ValidationError struct {
	RuleID int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule %d: %s: %s", e.RuleID, e.Field, e.Reason)
}

// Validate checks the authoring-time invariants. Rules that fail
// validation must be rejected before any calculation run; the calculator
// assumes validated input.
func (r Rule) Validate() error {
	if len(r.Keywords) == 0 {
		return &ValidationError{RuleID: r.ID, Field: "keywords", Reason: "at least one keyword is required"}
	}
	for i, kw := range r.Keywords {
		if strings.TrimSpace(kw) == "" {
			return &ValidationError{RuleID: r.ID, Field: fmt.Sprintf("keywords[%d]", i), Reason: "keyword must not be blank"}
		}
	}
	if len(r.Components) == 0 {
		return &ValidationError{RuleID: r.ID, Field: "components", Reason: "at least one component is required"}
	}
	for i, c := range r.Components {
		field := fmt.Sprintf("components[%d]", i)
		if !c.Type.Valid() {
			return &ValidationError{RuleID: r.ID, Field: field + ".type", Reason: "missing or unknown component type"}
		}
		if !c.Calc.Valid() {
			return &ValidationError{RuleID: r.ID, Field: field + ".calc_type", Reason: "missing or unknown calc type"}
		}
		if c.Value < 0 {
			return &ValidationError{RuleID: r.ID, Field: field + ".value", Reason: "value must be non-negative"}
		}
		if c.Calc == CalcPercentage && c.Value > 100 {
			return &ValidationError{RuleID: r.ID, Field: field + ".value", Reason: "percentage must be between 0 and 100"}
		}
	}
	return nil
}

// ValidateAll validates every rule in the set, returning the first
// rejection.
func ValidateAll(set []Rule) error {
	for _, r := range set {
		if err := r.Validate(); err != nil {
			return err
		}
	}
	return nil
}
