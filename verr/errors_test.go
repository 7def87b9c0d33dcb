package verr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsKindThroughWrapping(t *testing.T) {
	base := New(KindFormat, "CURVE-FMT-001", "bad point")
	wrapped := fmt.Errorf("decode roster: %w", base)

	if !IsKind(wrapped, KindFormat) {
		t.Fatalf("expected KindFormat through fmt wrapping")
	}
	if IsKind(wrapped, KindSignature) {
		t.Fatalf("unexpected KindSignature")
	}
	if got := RuleID(wrapped); got != "CURVE-FMT-001" {
		t.Fatalf("RuleID: got %q", got)
	}
}

func TestOutermostKindWins(t *testing.T) {
	inner := New(KindFormat, "CURVE-FMT-001", "bad point")
	outer := Wrap(KindBrokenChain, "SKIP-LINK-001", "link 2", inner)

	if KindOf(outer) != KindBrokenChain {
		t.Fatalf("KindOf: got %q", KindOf(outer))
	}
	if !errors.Is(outer, inner) {
		t.Fatalf("expected cause to be reachable via errors.Is")
	}
	if outer.Error() != "link 2: bad point" {
		t.Fatalf("Error(): got %q", outer.Error())
	}
}

func TestPlainErrorsHaveNoKind(t *testing.T) {
	err := errors.New("plain")
	if KindOf(err) != "" || RuleID(err) != "" {
		t.Fatalf("plain errors should have no kind or rule")
	}
	if Wrap(KindMismatch, "X", "msg", nil).Error() != "msg" {
		t.Fatalf("Wrap with nil cause should behave like New")
	}
}
