package race

import (
	"testing"

	"github.com/svvote/splitvalue/primitives"
)

func TestNewRaceModulusCoversMaxChoice(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if !primitives.IsPrime(r.Modulus, reg) {
		t.Errorf("race modulus must be prime")
	}
}

func TestChoiceEncodeDecodeRoundTrip(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range r.Choices {
		v, err := r.ChoiceToInt(c)
		if err != nil {
			t.Fatal(err)
		}
		if got := r.IntToChoice(v); got != c {
			t.Errorf("round trip %q -> %v -> %q", c, v, got)
		}
	}
}

func TestInvalidChoiceRejected(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.ChoiceToInt("maybe"); err != ErrInvalidChoice {
		t.Errorf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestWriteInSlot(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := NewRace("mayor", []string{"alice", "bob", "**********"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	slot, ok := r.HasWriteIn()
	if !ok || slot != "**********" {
		t.Fatalf("expected write-in slot, got %q %v", slot, ok)
	}
	if !r.IsValidChoice("carol") {
		t.Errorf("write-in name should be valid")
	}
}

func TestDuplicateChoicesRejected(t *testing.T) {
	reg := primitives.NewRegistry()
	if _, err := NewRace("x", []string{"a", "a"}, reg); err != ErrDuplicateChoice {
		t.Errorf("expected ErrDuplicateChoice, got %v", err)
	}
}
