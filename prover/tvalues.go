// Package prover implements the cut-and-choose Fiat-Shamir proof protocol:
// t-value tracing that binds every pass's output back to its input,
// deterministic challenge derivation from the transcript hash, and the
// outcome/input-consistency openings a verifier checks against the SBB.
package prover

import (
	"math/big"

	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/voter"
)

// TValue is tu, tv for one (race, pass, input position, row).
type TValue struct {
	TU *big.Int
	TV *big.Int
}

// TValues holds t_values[k][p][i], p ranging over INPUT positions (the same
// indexing used when the value was traced forward), k over passes and i over
// rows.
type TValues [][][]TValue

// ForwardTrace follows position p through pass k's permutations left to
// right (one π^-1 per column), returning the position it lands on in the
// final column — this is "py" throughout the protocol.
func ForwardTrace(s *mixnet.Server, pass, p int) int {
	py := p
	for j := 0; j < s.Cols; j++ {
		py = s.Grid[pass][j][0].PermInv[py]
	}
	return py
}

// BackwardTrace is ForwardTrace's inverse: given an output-column position
// py, recover the input position px by composing the forward permutations
// right to left.
func BackwardTrace(s *mixnet.Server, pass, py int) int {
	px := py
	for j := s.Cols - 1; j >= 0; j-- {
		px = s.Grid[pass][j][0].Perm[px]
	}
	return px
}

// ComputeTValues computes t_values[k][p][i] = {tu, tv} for every pass, input
// position and row, tracing each voter's split-value pair from the
// cast-vote layer (column 0) through to the final column.
//
// castVotes[p][i] is voter position p's row-i cast-vote cell; it must be
// populated for all p in [0, s.NVoters) and i in [0, s.Rows).
func ComputeTValues(s *mixnet.Server, castVotes [][]voter.RowCell) TValues {
	out := make(TValues, s.NReps)
	last := s.Cols - 1
	for k := 0; k < s.NReps; k++ {
		out[k] = make([][]TValue, s.NVoters)
		for p := 0; p < s.NVoters; p++ {
			py := ForwardTrace(s, k, p)
			out[k][p] = make([]TValue, s.Rows)
			for i := 0; i < s.Rows; i++ {
				ux := castVotes[p][i].U
				vx := castVotes[p][i].V
				cell := s.Grid[k][last][i]
				uy := cell.U[py]
				vy := cell.V[py]
				tu := new(big.Int).Sub(uy, ux)
				tu.Mod(tu, s.Modulus)
				tv := new(big.Int).Sub(vy, vx)
				tv.Mod(tv, s.Modulus)
				out[k][p][i] = TValue{TU: tu, TV: tv}
			}
		}
	}
	return out
}
