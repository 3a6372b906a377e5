package cart

import (
	"testing"

	pkgerrors "github.com/sliceline/pizzeria-backend/pkg/errors"
)

const testRuleSpec = "WELCOME10:percent:10:1000,PIZZA20:percent:20:2000,SAVE500:flat:500:2500,FREESHIP:flat:200:1500"

func mustParseRules(t *testing.T) *RuleSet {
	t.Helper()
	rules, err := ParseRules(testRuleSpec)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	return rules
}

func TestParseRules_RejectsMalformed(t *testing.T) {
	cases := []string{
		"BAD:percent:10",
		"BAD:half:10:100",
		"BAD:percent:zero:100",
		"BAD:percent:150:100",
		"BAD:flat:-5:100",
		"DUP:flat:100:0,DUP:flat:200:0",
	}
	for _, spec := range cases {
		if _, err := ParseRules(spec); err == nil {
			t.Errorf("expected error for spec %q", spec)
		}
	}
}

func TestApply_PercentRule(t *testing.T) {
	rules := mustParseRules(t)

	amount, percent, err := rules.Apply("WELCOME10", 2700)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if amount != 270 || percent != 10 {
		t.Fatalf("expected 270/10%%, got %d/%d%%", amount, percent)
	}

	// lower-case input is accepted
	if _, _, err := rules.Apply("welcome10", 2700); err != nil {
		t.Fatalf("case-insensitive lookup failed: %v", err)
	}
}

func TestApply_FlatRuleCappedAtSubtotal(t *testing.T) {
	rules, err := ParseRules("BIG:flat:5000:0")
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	amount, percent, err := rules.Apply("BIG", 300)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if amount != 300 || percent != 0 {
		t.Fatalf("expected flat amount capped at subtotal, got %d/%d", amount, percent)
	}
}

func TestApply_UnknownCode(t *testing.T) {
	rules := mustParseRules(t)
	_, _, err := rules.Apply("NOPE", 5000)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestApply_BelowMinimum(t *testing.T) {
	rules := mustParseRules(t)
	_, _, err := rules.Apply("SAVE500", 2000)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
