// Package mixnet implements the two-dimensional mix server array: a
// rows x cols grid replicated across n_reps independent passes, each with
// its own per-column permutation and zero-sharing fuzz vector, shuffling and
// re-randomizing committed shares left-to-right while preserving their
// Lagrange-reconstruction value.
package mixnet

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/primitives"
)

var (
	// ErrOddReps is returned when n_reps is not even.
	ErrOddReps = errors.New("mixnet: n_reps must be even")

	// ErrTooManyRows is returned when rows exceeds the 26-letter row-label budget.
	ErrTooManyRows = errors.New("mixnet: rows must be <= 26")

	// ErrTooManyPasses is returned when n_reps exceeds the 26-letter pass-label budget.
	ErrTooManyPasses = errors.New("mixnet: n_reps must be <= 26")

	// ErrSelfCheckFailed is returned when Server.SelfCheck is enabled and a
	// pass's Lagrange reconstruction disagrees with the plaintext input.
	ErrSelfCheckFailed = errors.New("mixnet: self-check Lagrange mismatch")
)

// GridParams are the rows/cols/threshold derived from election tolerances,
// per the data model: if n_fail > 0, cols = 1+n_leak, rows = 2+n_fail+n_leak,
// threshold = 2+n_leak; otherwise cols = rows = threshold = 1+n_leak.
type GridParams struct {
	Rows      int
	Cols      int
	Threshold int
}

// DeriveGridParams computes GridParams from the election's fault tolerances.
func DeriveGridParams(nFail, nLeak int) GridParams {
	if nFail > 0 {
		return GridParams{Rows: 2 + nFail + nLeak, Cols: 1 + nLeak, Threshold: 2 + nLeak}
	}
	return GridParams{Rows: 1 + nLeak, Cols: 1 + nLeak, Threshold: 1 + nLeak}
}

// Server is the mix array for a single race.
type Server struct {
	RaceID    string
	NVoters   int
	Rows      int
	Cols      int
	Threshold int
	NReps     int
	Modulus   *big.Int

	RowLetters  []string
	PassLetters []string

	// Grid[k][j][i] is the cell at pass k, column j, row i.
	Grid [][][]*Cell

	// SelfCheck, when true, runs an in-process Lagrange spot check per pass
	// immediately after mixing, to catch a fuzz/permutation bug during
	// development. It is never part of the protocol's verifier contract.
	SelfCheck bool

	reg *primitives.Registry
}

// NewServer allocates the grid and initializes the per-cell named
// randomness sources "server:<race>:<i>:<j>", together with the per-pass
// permutation, fuzz and output-commitment sources derived from them.
func NewServer(raceID string, nVoters int, params GridParams, nReps int, m *big.Int, reg *primitives.Registry) (*Server, error) {
	if nReps%2 != 0 {
		return nil, ErrOddReps
	}
	if params.Rows > 26 {
		return nil, ErrTooManyRows
	}
	if nReps > 26 {
		return nil, ErrTooManyPasses
	}
	if !primitives.IsPrime(m, reg) {
		return nil, primitives.ErrNotPrime
	}
	s := &Server{
		RaceID:      raceID,
		NVoters:     nVoters,
		Rows:        params.Rows,
		Cols:        params.Cols,
		Threshold:   params.Threshold,
		NReps:       nReps,
		Modulus:     m,
		RowLetters:  RowLetters(params.Rows),
		PassLetters: PassLetters(nReps),
		reg:         reg,
	}
	s.Grid = make([][][]*Cell, nReps)
	for k := range s.Grid {
		s.Grid[k] = make([][]*Cell, params.Cols)
		for j := range s.Grid[k] {
			s.Grid[k][j] = make([]*Cell, params.Rows)
			for i := range s.Grid[k][j] {
				s.Grid[k][j][i] = newCell(nVoters)
				names := []string{s.cellSource(i, j), s.permSource(j, k), s.fuzzSource(j, k), s.outputSource(i, j, k)}
				for _, name := range names {
					if !reg.Has(name) {
						if err := reg.Init(name, nil, false); err != nil {
							return nil, err
						}
					}
				}
			}
		}
	}
	return s, nil
}

func (s *Server) cellSource(row, col int) string {
	return fmt.Sprintf("server:%s:%s:%d", s.RaceID, s.RowLetters[row], col)
}

func (s *Server) permSource(col int, pass int) string {
	return fmt.Sprintf("%s:perm:%s", s.cellSource(0, col), s.PassLetters[pass])
}

func (s *Server) fuzzSource(col int, pass int) string {
	return fmt.Sprintf("%s:fuzz:%s", s.cellSource(0, col), s.PassLetters[pass])
}

func (s *Server) outputSource(row, col, pass int) string {
	return fmt.Sprintf("%s:out:%s", s.cellSource(row, col), s.PassLetters[pass])
}

// SetInput replicates the row-i, position-p input share x into column 0 of
// every pass, as fanned out from the cast-vote layer's column-0 input.
func (s *Server) SetInput(row, pos int, x *big.Int) {
	for k := 0; k < s.NReps; k++ {
		s.Grid[k][0][row].X[pos] = x
	}
}

// Mix runs the left-to-right mixing pass over every column and pass:
// per (column, pass) it draws one shared permutation (used identically by
// every row) and a fresh zero-sharing fuzz vector per voter position, then
// computes y = (apply(π, x) + fuzz) mod M, carrying y forward as the next
// column's x.
func (s *Server) Mix() error {
	for j := 0; j < s.Cols; j++ {
		for k := 0; k < s.NReps; k++ {
			perm, err := arithmetic.RandomPermutation(s.NVoters, s.permSource(j, k), s.reg)
			if err != nil {
				return err
			}
			permInv, err := arithmetic.Inverse(perm)
			if err != nil {
				return err
			}

			fuzz := make([][]*big.Int, s.Rows)
			for i := range fuzz {
				fuzz[i] = make([]*big.Int, s.NVoters)
			}
			fuzzName := s.fuzzSource(j, k)
			for p := 0; p < s.NVoters; p++ {
				shares, err := arithmetic.MakeShares(big.NewInt(0), s.Rows, s.Threshold, fuzzName, s.Modulus, s.reg)
				if err != nil {
					return err
				}
				for i, sh := range shares {
					fuzz[i][p] = sh.Y
				}
			}

			for i := 0; i < s.Rows; i++ {
				cell := s.Grid[k][j][i]
				cell.Perm = perm
				cell.PermInv = permInv
				permuted := make([]*big.Int, s.NVoters)
				for p := 0; p < s.NVoters; p++ {
					permuted[p] = cell.X[perm[p]]
				}
				for p := 0; p < s.NVoters; p++ {
					y := new(big.Int).Add(permuted[p], fuzz[i][p])
					y.Mod(y, s.Modulus)
					cell.Y[p] = y
				}
				if j < s.Cols-1 {
					s.Grid[k][j+1][i].X = append([]*big.Int(nil), cell.Y...)
				}
			}
		}
	}

	if err := s.makeOutputCommitments(); err != nil {
		return err
	}
	if s.SelfCheck {
		if err := s.selfCheckReconstruction(); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) makeOutputCommitments() error {
	last := s.Cols - 1
	for k := 0; k < s.NReps; k++ {
		for i := 0; i < s.Rows; i++ {
			cell := s.Grid[k][last][i]
			cell.U = make([]*big.Int, s.NVoters)
			cell.V = make([]*big.Int, s.NVoters)
			cell.RU = make([]string, s.NVoters)
			cell.RV = make([]string, s.NVoters)
			cell.CU = make([]string, s.NVoters)
			cell.CV = make([]string, s.NVoters)
			name := s.outputSource(i, last, k)
			for p := 0; p < s.NVoters; p++ {
				u, v, err := arithmetic.SVPair(cell.Y[p], name, s.Modulus, s.reg)
				if err != nil {
					return err
				}
				ruRaw, err := s.reg.NextBytes(name)
				if err != nil {
					return err
				}
				rvRaw, err := s.reg.NextBytes(name)
				if err != nil {
					return err
				}
				ru := primitives.NewCommitmentKey(ruRaw)
				rv := primitives.NewCommitmentKey(rvRaw)
				cu, err := primitives.Com(primitives.IntToBytes(u, 0), ru)
				if err != nil {
					return err
				}
				cv, err := primitives.Com(primitives.IntToBytes(v, 0), rv)
				if err != nil {
					return err
				}
				cell.U[p], cell.V[p] = u, v
				cell.RU[p], cell.RV[p] = ru, rv
				cell.CU[p], cell.CV[p] = cu, cv
			}
		}
	}
	return nil
}

// selfCheckReconstruction verifies that, for every pass, the output column's
// Lagrange reconstruction still agrees with the column-0 input, for the
// first threshold rows. This spot check mirrors the prototype's test_mix and
// exists purely as development scaffolding.
func (s *Server) selfCheckReconstruction() error {
	last := s.Cols - 1
	for k := 0; k < s.NReps; k++ {
		for p := 0; p < s.NVoters; p++ {
			inputShares := make([]arithmetic.Share, s.Rows)
			outputShares := make([]arithmetic.Share, s.Rows)
			for i := 0; i < s.Rows; i++ {
				inputShares[i] = arithmetic.Share{X: int64(i + 1), Y: s.Grid[k][0][i].X[p]}
				outputShares[i] = arithmetic.Share{X: int64(i + 1), Y: s.Grid[k][last][i].Y[p]}
			}
			in, err := arithmetic.Lagrange(inputShares, s.Threshold, s.Modulus)
			if err != nil {
				return err
			}
			out, err := arithmetic.Lagrange(outputShares, s.Threshold, s.Modulus)
			if err != nil {
				return err
			}
			if in.Cmp(out) != 0 {
				return ErrSelfCheckFailed
			}
		}
	}
	return nil
}
