package prover

import (
	"math/big"

	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/voter"
)

// OutcomeOpening is the full opening of one output commitment, posted for
// every (race, k in opl, p, i).
type OutcomeOpening struct {
	Y  *big.Int
	U  *big.Int
	V  *big.Int
	RU string
	RV string
}

// OutcomeOpenings returns the full outcome-check openings for pass k: one
// entry per (position, row).
func OutcomeOpenings(s *mixnet.Server, k int) [][]OutcomeOpening {
	last := s.Cols - 1
	out := make([][]OutcomeOpening, s.NVoters)
	for p := 0; p < s.NVoters; p++ {
		out[p] = make([]OutcomeOpening, s.Rows)
		for i := 0; i < s.Rows; i++ {
			cell := s.Grid[k][last][i]
			out[p][i] = OutcomeOpening{Y: cell.Y[p], U: cell.U[p], V: cell.V[p], RU: cell.RU[p], RV: cell.RV[p]}
		}
	}
	return out
}

// HalfOpening is one side of a split-value commitment opened by the
// left/right challenge: either {u, ru} or {v, rv}.
type HalfOpening struct {
	Side  string // "left" or "right"
	Value *big.Int
	R     string
}

// InputOpenings returns, for pass k's input-consistency check, the opened
// half of every (race) position's cast-vote commitment, keyed by the cast
// position p and row i, using leftright(p).
func InputOpenings(castVotes [][]voter.RowCell, challenges *Challenges, raceID string) [][]HalfOpening {
	nVoters := len(castVotes)
	out := make([][]HalfOpening, nVoters)
	for p := 0; p < nVoters; p++ {
		side := challenges.Side(raceID, p)
		rows := castVotes[p]
		out[p] = make([]HalfOpening, len(rows))
		for i, rc := range rows {
			out[p][i] = openHalf(side, rc.U, rc.V, rc.RU, rc.RV)
		}
	}
	return out
}

// OutputOpenings returns, for pass k's input-consistency check, the opened
// half of every output-column position py's commitment. The side used is
// leftright(px), not leftright(py): px = BackwardTrace(py) is the original
// cast-vote position this output position was mixed from.
func OutputOpenings(s *mixnet.Server, challenges *Challenges, raceID string, k int) [][]HalfOpening {
	last := s.Cols - 1
	out := make([][]HalfOpening, s.NVoters)
	for py := 0; py < s.NVoters; py++ {
		px := BackwardTrace(s, k, py)
		side := challenges.Side(raceID, px)
		out[py] = make([]HalfOpening, s.Rows)
		for i := 0; i < s.Rows; i++ {
			cell := s.Grid[k][last][i]
			out[py][i] = openHalf(side, cell.U[py], cell.V[py], cell.RU[py], cell.RV[py])
		}
	}
	return out
}

func openHalf(side string, u, v *big.Int, ru, rv string) HalfOpening {
	if side == "left" {
		return HalfOpening{Side: side, Value: u, R: ru}
	}
	return HalfOpening{Side: side, Value: v, R: rv}
}

// PikMap returns, for pass k in icl, the map from output position py to its
// original cast-vote position px = BackwardTrace(py), composed across all
// columns independent of row.
func PikMap(s *mixnet.Server, k int) []int {
	pik := make([]int, s.NVoters)
	for py := 0; py < s.NVoters; py++ {
		pik[py] = BackwardTrace(s, k, py)
	}
	return pik
}
