package mixnet

import (
	"math/big"

	"github.com/svvote/splitvalue/arithmetic"
)

// Cell is the typed replacement for the nested-mapping "database"
// (sdb[race][i][j][k][field][p]) of the original prototype: one cell is the
// state of a single (row, column, pass) position in the mix grid for one
// race, holding the input/output share vectors and, for the final column
// only, the per-position output split-value commitments.
type Cell struct {
	Perm    arithmetic.Permutation // column-wide permutation for this (column, pass)
	PermInv arithmetic.Permutation

	X []*big.Int // input shares, length n_voters
	Y []*big.Int // output shares after permute+fuzz, length n_voters

	// Populated only for the last column: the output split-value commitment
	// per voter position.
	U, V   []*big.Int
	RU, RV []string
	CU, CV []string
}

func newCell(nVoters int) *Cell {
	return &Cell{
		X: make([]*big.Int, nVoters),
		Y: make([]*big.Int, nVoters),
	}
}

// RowLetters returns the first n letters a, b, c, ... (n <= 26).
func RowLetters(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = string(rune('a' + i))
	}
	return out
}

// PassLetters returns the first n letters A, B, C, ... (n <= 26).
func PassLetters(n int) []string {
	out := make([]string, n)
	for i := 0; i < n; i++ {
		out[i] = string(rune('A' + i))
	}
	return out
}
