package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

var errFridgeGone = New(KindNotFound, "fridge not found")

func TestDomainSentinelMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("leave: %w", errFridgeGone)

	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatalf("expected wrapped sentinel to match ErrNotFound")
	}
	if !errors.Is(wrapped, errFridgeGone) {
		t.Fatalf("expected wrapped sentinel to match itself")
	}
	if errors.Is(wrapped, ErrForbidden) {
		t.Fatalf("did not expect ErrForbidden match")
	}
	if errors.Is(New(KindNotFound, "other"), errFridgeGone) {
		t.Fatalf("distinct messages of the same kind must not match each other")
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"sentinel", ErrExpiryRequired, KindExpiryRequired},
		{"invalid", Invalid("qty must be positive: %d", 0), KindInvalidInput},
		{"wrapped", fmt.Errorf("x: %w", ErrAlreadyMember), KindAlreadyMember},
		{"unknown", errors.New("connection reset"), KindTransient},
		{"stock", &InsufficientStockError{}, KindInsufficientStock},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Fatalf("%s: KindOf = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	raw := errors.New("deadlock detected")
	classified := Classify(raw)
	if !errors.Is(classified, ErrTransient) {
		t.Fatalf("expected transient, got %v", classified)
	}
	if !errors.Is(classified, raw) {
		t.Fatalf("expected underlying error preserved")
	}
	if Classify(classified) != classified {
		t.Fatalf("expected already-transient error untouched")
	}
	if Classify(ErrNotMember) != ErrNotMember {
		t.Fatalf("expected taxonomy error untouched")
	}
	if Classify(nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{Shortfalls: []Shortfall{{
		GroupID:   "milk|l|none",
		Name:      "Milk",
		Available: decimal.NewFromInt(2),
		Requested: decimal.NewFromInt(5),
	}}}
	if !errors.Is(fmt.Errorf("bulk: %w", err), ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock match")
	}
	if got := err.Error(); got != "not enough stock (Milk: requested 5, available 2)" {
		t.Fatalf("unexpected message %q", got)
	}
}
