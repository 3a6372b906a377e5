package cart

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

// RuleKind distinguishes percent-of-subtotal rules from flat amounts.
type RuleKind string

const (
	RuleKindPercent RuleKind = "percent"
	RuleKindFlat    RuleKind = "flat"
)

// Rule is one redeemable discount code.
type Rule struct {
	Code        string
	Kind        RuleKind
	Value       int
	MinSubtotal int
}

// RuleSet holds the configured discount codes keyed by upper-cased code.
type RuleSet struct {
	rules map[string]Rule
}

// ParseRules reads the configured rule table. The format is a comma-separated
// list of CODE:kind:value:min_subtotal entries.
func ParseRules(spec string) (*RuleSet, error) {
	rules := make(map[string]Rule)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 4 {
			return nil, fmt.Errorf("invalid discount rule %q (expected CODE:kind:value:min)", entry)
		}

		code := strings.ToUpper(strings.TrimSpace(parts[0]))
		if code == "" {
			return nil, fmt.Errorf("discount rule %q has empty code", entry)
		}

		kind := RuleKind(strings.ToLower(strings.TrimSpace(parts[1])))
		if kind != RuleKindPercent && kind != RuleKindFlat {
			return nil, fmt.Errorf("discount rule %q has unknown kind %q", entry, parts[1])
		}

		value, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil || value <= 0 {
			return nil, fmt.Errorf("discount rule %q has invalid value %q", entry, parts[2])
		}
		if kind == RuleKindPercent && value > 100 {
			return nil, fmt.Errorf("discount rule %q percent exceeds 100", entry)
		}

		minSubtotal, err := strconv.Atoi(strings.TrimSpace(parts[3]))
		if err != nil || minSubtotal < 0 {
			return nil, fmt.Errorf("discount rule %q has invalid minimum %q", entry, parts[3])
		}

		if _, exists := rules[code]; exists {
			return nil, fmt.Errorf("duplicate discount code %q", code)
		}
		rules[code] = Rule{Code: code, Kind: kind, Value: value, MinSubtotal: minSubtotal}
	}
	return &RuleSet{rules: rules}, nil
}

// Lookup returns the rule for the given code, if configured.
func (r *RuleSet) Lookup(code string) (Rule, bool) {
	rule, ok := r.rules[strings.ToUpper(strings.TrimSpace(code))]
	return rule, ok
}

// Apply validates the code against the subtotal and returns the discount
// amount plus the percent figure carried on the cart (zero for flat rules).
func (r *RuleSet) Apply(code string, subtotal int) (int, int, error) {
	rule, ok := r.Lookup(code)
	if !ok {
		return 0, 0, pkgerrors.Validation("invalid discount code")
	}
	if subtotal < rule.MinSubtotal {
		return 0, 0, pkgerrors.Validation(
			fmt.Sprintf("discount %s requires a minimum order of %d", rule.Code, rule.MinSubtotal))
	}

	switch rule.Kind {
	case RuleKindPercent:
		amount := percentOf(subtotal, rule.Value)
		return amount, rule.Value, nil
	default:
		amount := rule.Value
		if amount > subtotal {
			amount = subtotal
		}
		return amount, 0, nil
	}
}

func percentOf(subtotal, percent int) int {
	rate := decimal.NewFromInt(int64(percent)).Div(decimal.NewFromInt(100))
	return int(decimal.NewFromInt(int64(subtotal)).Mul(rate).Round(0).IntPart())
}
