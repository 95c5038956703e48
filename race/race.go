// Package race implements the per-race choice encoding: a choice string is
// mapped to an integer modulo a race-specific prime big enough to hold the
// longest allowed ballot text, with a reserved write-in convention.
package race

import (
	"errors"
	"math/big"
	"strings"

	"github.com/svvote/splitvalue/primitives"
)

var (
	// ErrInvalidChoice is returned when a choice string is neither a listed
	// choice nor a valid write-in for this race.
	ErrInvalidChoice = errors.New("race: invalid choice")

	// ErrDuplicateChoice is returned when a race's choice list has duplicates.
	ErrDuplicateChoice = errors.New("race: duplicate choice in ballot style")

	// ErrEmptyChoices is returned when a race has no choices at all.
	ErrEmptyChoices = errors.New("race: no choices")
)

// writeIns is a small fixed pool of sample write-in names used only by the
// ballot simulator; it has no bearing on the protocol itself.
var writeIns = []string{"Donald Duck", "Lizard People", "Mickey Mouse"}

// Race holds one contest: its id, its ordered choice list (a choice of the
// form strings.Repeat("*", L) denotes a write-in slot of up to L characters),
// and the prime modulus every choice for this race is encoded under.
type Race struct {
	ID       string
	Choices  []string
	Modulus  *big.Int
	maxBytes int
}

// NewRace validates choices and derives the race modulus as the smallest
// prime >= 256^L, L the longest choice's byte length.
func NewRace(id string, choices []string, reg *primitives.Registry) (*Race, error) {
	if len(choices) == 0 {
		return nil, ErrEmptyChoices
	}
	seen := make(map[string]bool, len(choices))
	maxLen := 0
	for _, c := range choices {
		if seen[c] {
			return nil, ErrDuplicateChoice
		}
		seen[c] = true
		if len(c) > maxLen {
			maxLen = len(c)
		}
	}
	bound := new(big.Int).Exp(big.NewInt(256), big.NewInt(int64(maxLen)), nil)
	m := primitives.MakePrime(bound, reg)
	return &Race{ID: id, Choices: append([]string(nil), choices...), Modulus: m, maxBytes: maxLen}, nil
}

// isWriteInSlot reports whether choice is the race's write-in placeholder
// ("*"*L for some L).
func isWriteInSlot(choice string) bool {
	if choice == "" {
		return false
	}
	return strings.Count(choice, "*") == len(choice)
}

// IsWriteInChoice reports whether c is this race's write-in slot marker
// (a string of one or more '*' characters).
func IsWriteInChoice(c string) bool {
	return isWriteInSlot(c)
}

// IsValidChoice reports whether s is a listed choice, or fits within a
// write-in slot's length if the race has one.
func (r *Race) IsValidChoice(s string) bool {
	for _, c := range r.Choices {
		if isWriteInSlot(c) {
			if len(s) <= len(c) {
				return true
			}
			continue
		}
		if c == s {
			return true
		}
	}
	return false
}

// ChoiceToInt encodes a choice string as its little-endian integer value.
func (r *Race) ChoiceToInt(s string) (*big.Int, error) {
	if !r.IsValidChoice(s) {
		return nil, ErrInvalidChoice
	}
	v := primitives.BytesToInt([]byte(s))
	if v.Cmp(r.Modulus) >= 0 {
		return nil, ErrInvalidChoice
	}
	return v, nil
}

// IntToChoice decodes an integer back to its choice string, stripping the
// trailing zero bytes introduced by little-endian fixed-length encoding.
func (r *Race) IntToChoice(v *big.Int) string {
	b := primitives.IntToBytes(v, r.maxBytes)
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b)
}

// HasWriteIn reports whether this race has a write-in slot.
func (r *Race) HasWriteIn() (slot string, ok bool) {
	for _, c := range r.Choices {
		if isWriteInSlot(c) {
			return c, true
		}
	}
	return "", false
}

// RandomChoice draws a simulated voter's choice: uniformly among the listed
// choices, substituting a sampled write-in name (truncated to the slot
// length) whenever the write-in slot is picked.
func RandomChoice(r *Race, name string, reg *primitives.Registry) (string, error) {
	idx, err := reg.NextIntN(name, int64(len(r.Choices)))
	if err != nil {
		return "", err
	}
	choice := r.Choices[idx]
	if isWriteInSlot(choice) {
		sample := writeIns[int(idx)%len(writeIns)]
		if len(sample) > len(choice) {
			sample = sample[:len(choice)]
		}
		return sample, nil
	}
	return choice, nil
}
