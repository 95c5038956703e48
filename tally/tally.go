// Package tally reconstructs, for each race and each pass, every voter
// position's choice from the mix array's final column, decodes it back to a
// choice string, and cross-checks that every pass agrees on the resulting
// multiset before accumulating the published per-race tally.
package tally

import (
	"errors"
	"sort"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/race"
)

// ErrPassDisagreement is returned when two passes decode different choice
// multisets for the same race; this is the tamper-evident invariant the
// tally step enforces before anything is published.
var ErrPassDisagreement = errors.New("tally: passes disagree on reconstructed choices")

// ErrInvalidReconstruction is returned when a reconstructed value does not
// byte-decode to a choice the race recognizes.
var ErrInvalidReconstruction = errors.New("tally: reconstructed value is not a valid choice")

// Result is the published per-choice vote count for one race.
type Result struct {
	RaceID string
	Counts map[string]int
}

// Compute reconstructs and tallies one race from its mix server's final
// column, requiring every pass to agree. The zero-count entries for every
// listed (non-write-in) choice are included even when nobody chose them, to
// match the published tally's fixed shape; write-in choices are counted only
// when actually decoded.
func Compute(r *race.Race, s *mixnet.Server) (*Result, error) {
	last := s.Cols - 1
	var reference []string

	for k := 0; k < s.NReps; k++ {
		decoded := make([]string, s.NVoters)
		for p := 0; p < s.NVoters; p++ {
			shares := make([]arithmetic.Share, s.Rows)
			for i := 0; i < s.Rows; i++ {
				shares[i] = arithmetic.Share{X: int64(i + 1), Y: s.Grid[k][last][i].Y[p]}
			}
			v, err := arithmetic.Lagrange(shares, s.Threshold, s.Modulus)
			if err != nil {
				return nil, err
			}
			choice := r.IntToChoice(v)
			if !r.IsValidChoice(choice) {
				return nil, ErrInvalidReconstruction
			}
			decoded[p] = choice
		}
		sorted := append([]string(nil), decoded...)
		sort.Strings(sorted)
		if reference == nil {
			reference = sorted
		} else if !equalStrings(reference, sorted) {
			return nil, ErrPassDisagreement
		}
	}

	counts := make(map[string]int)
	for _, c := range r.Choices {
		if !race.IsWriteInChoice(c) {
			counts[c] = 0
		}
	}
	for _, choice := range reference {
		counts[choice]++
	}

	return &Result{RaceID: r.ID, Counts: counts}, nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
