package prover

import (
	"sort"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/primitives"
)

// VerifierChallengesSourceName is the named randomness source seeded with
// the transcript hash H* before deriving the cut-and-choose and left/right
// challenges.
const VerifierChallengesSourceName = "verifier_challenges"

// Challenges is the full set of Fiat-Shamir challenges for one election run.
type Challenges struct {
	SBBHash   [primitives.HashSize]byte
	ICL       []int // pass indices assigned to input-comparison
	OPL       []int // pass indices assigned to outcome-production
	LeftRight map[string][]string // raceID -> per-position "left"/"right"
}

// DeriveChallenges seeds the "verifier_challenges" source with sbbHash and
// draws the cut-and-choose partition of nReps passes into icl/opl (each of
// size nReps/2), then the per-race, per-position left/right challenge,
// iterating races in sorted id order and positions in p_list (ascending)
// order — an order that must not be perturbed by any parallel execution.
func DeriveChallenges(sbbHash [primitives.HashSize]byte, raceIDs []string, nVoters, nReps int, reg *primitives.Registry) (*Challenges, error) {
	if err := reg.Init(VerifierChallengesSourceName, sbbHash[:], true); err != nil {
		return nil, err
	}

	pi, err := arithmetic.RandomPermutation(nReps, VerifierChallengesSourceName, reg)
	if err != nil {
		return nil, err
	}
	m := nReps / 2
	icl := append([]int(nil), pi[:m]...)
	opl := append([]int(nil), pi[m:]...)
	sort.Ints(icl)
	sort.Ints(opl)

	sortedRaces := append([]string(nil), raceIDs...)
	sort.Strings(sortedRaces)

	leftRight := make(map[string][]string, len(sortedRaces))
	for _, raceID := range sortedRaces {
		sides := make([]string, nVoters)
		for p := 0; p < nVoters; p++ {
			v, err := reg.NextIntN(VerifierChallengesSourceName, 2)
			if err != nil {
				return nil, err
			}
			if v == 1 {
				sides[p] = "left"
			} else {
				sides[p] = "right"
			}
		}
		leftRight[raceID] = sides
	}

	return &Challenges{SBBHash: sbbHash, ICL: icl, OPL: opl, LeftRight: leftRight}, nil
}

// Side returns the left/right challenge for (raceID, position).
func (c *Challenges) Side(raceID string, position int) string {
	return c.LeftRight[raceID][position]
}

// InICL reports whether pass k was assigned to the input-comparison set.
func (c *Challenges) InICL(k int) bool {
	for _, v := range c.ICL {
		if v == k {
			return true
		}
	}
	return false
}

// InOPL reports whether pass k was assigned to the outcome-production set.
func (c *Challenges) InOPL(k int) bool {
	for _, v := range c.OPL {
		if v == k {
			return true
		}
	}
	return false
}
