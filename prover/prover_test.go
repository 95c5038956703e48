package prover

import (
	"math/big"
	"testing"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/primitives"
	"github.com/svvote/splitvalue/race"
	"github.com/svvote/splitvalue/voter"
)

func buildFixture(t *testing.T, nVoters, nReps int) (*race.Race, *mixnet.Server, [][]voter.RowCell, *primitives.Registry) {
	t.Helper()
	reg := primitives.NewRegistry()
	r, err := race.NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	params := mixnet.GridParams{Rows: 4, Cols: 2, Threshold: 3}
	s, err := mixnet.NewServer(r.ID, nVoters, params, nReps, r.Modulus, reg)
	if err != nil {
		t.Fatal(err)
	}

	castVotes := make([][]voter.RowCell, nVoters)
	choices := []string{"yes", "no"}
	for p := 0; p < nVoters; p++ {
		cv, err := voter.Cast(r, choices[p%2], raceVoterName(p), s.Rows, s.Threshold, 0, reg)
		if err != nil {
			t.Fatal(err)
		}
		castVotes[p] = cv.Rows
		for i, rc := range cv.Rows {
			s.SetInput(i, p, rc.X)
		}
	}

	if err := s.Mix(); err != nil {
		t.Fatal(err)
	}
	return r, s, castVotes, reg
}

func raceVoterName(p int) string {
	return "voter:p" + string(rune('0'+p))
}

func TestForwardBackwardTraceAreInverses(t *testing.T) {
	_, s, _, _ := buildFixture(t, 3, 2)
	for k := 0; k < s.NReps; k++ {
		for p := 0; p < s.NVoters; p++ {
			py := ForwardTrace(s, k, p)
			px := BackwardTrace(s, k, py)
			if px != p {
				t.Errorf("pass %d: backward(forward(%d))=%d, want %d", k, p, px, p)
			}
		}
	}
}

func TestTValuesReconstructToZeroSum(t *testing.T) {
	_, s, castVotes, _ := buildFixture(t, 2, 2)
	tv := ComputeTValues(s, castVotes)
	for k := 0; k < s.NReps; k++ {
		for p := 0; p < s.NVoters; p++ {
			tuShares := make([]arithmetic.Share, s.Rows)
			tvShares := make([]arithmetic.Share, s.Rows)
			for i := 0; i < s.Rows; i++ {
				tuShares[i] = arithmetic.Share{X: int64(i + 1), Y: tv[k][p][i].TU}
				tvShares[i] = arithmetic.Share{X: int64(i + 1), Y: tv[k][p][i].TV}
			}
			tRecon, err := arithmetic.Lagrange(tuShares, s.Threshold, s.Modulus)
			if err != nil {
				t.Fatal(err)
			}
			tPrimeRecon, err := arithmetic.Lagrange(tvShares, s.Threshold, s.Modulus)
			if err != nil {
				t.Fatal(err)
			}
			sum := new(big.Int).Add(tRecon, tPrimeRecon)
			sum.Mod(sum, s.Modulus)
			if sum.Sign() != 0 {
				t.Errorf("pass %d pos %d: t + t' = %v, want 0", k, p, sum)
			}
		}
	}
}

func TestPikMapIsAPermutation(t *testing.T) {
	_, s, _, _ := buildFixture(t, 4, 2)
	for k := 0; k < s.NReps; k++ {
		pik := PikMap(s, k)
		seen := make([]bool, len(pik))
		for _, px := range pik {
			if px < 0 || px >= len(pik) || seen[px] {
				t.Fatalf("pass %d: pik is not a permutation: %v", k, pik)
			}
			seen[px] = true
		}
	}
}

func TestOutcomeOpeningsMatchGrid(t *testing.T) {
	_, s, _, _ := buildFixture(t, 2, 2)
	openings := OutcomeOpenings(s, 0)
	last := s.Cols - 1
	for p := 0; p < s.NVoters; p++ {
		for i := 0; i < s.Rows; i++ {
			cell := s.Grid[0][last][i]
			if openings[p][i].Y.Cmp(cell.Y[p]) != 0 {
				t.Errorf("y mismatch at p=%d i=%d", p, i)
			}
		}
	}
}

func TestInputOutputOpeningsRespectLeftRight(t *testing.T) {
	r, s, castVotes, reg := buildFixture(t, 3, 2)
	sbbHash := primitives.HashString("transcript-prefix")
	challenges, err := DeriveChallenges(sbbHash, []string{r.ID}, s.NVoters, s.NReps, reg)
	if err != nil {
		t.Fatal(err)
	}
	k := challenges.ICL[0]
	inputs := InputOpenings(castVotes, challenges, r.ID)
	outputs := OutputOpenings(s, challenges, r.ID, k)
	for p := 0; p < s.NVoters; p++ {
		side := challenges.Side(r.ID, p)
		for i := 0; i < s.Rows; i++ {
			if inputs[p][i].Side != side {
				t.Errorf("input opening side mismatch at p=%d", p)
			}
		}
	}
	if len(outputs) != s.NVoters {
		t.Errorf("expected %d output openings, got %d", s.NVoters, len(outputs))
	}
	for py := range outputs {
		side := challenges.Side(r.ID, BackwardTrace(s, k, py))
		for i := range outputs[py] {
			if outputs[py][i].Side != side {
				t.Errorf("output opening side mismatch at py=%d", py)
			}
		}
	}
}
