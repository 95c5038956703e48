package mixnet

import (
	"math/big"
	"testing"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/primitives"
)

func TestDeriveGridParams(t *testing.T) {
	p := DeriveGridParams(1, 1)
	if p.Rows != 4 || p.Cols != 2 || p.Threshold != 3 {
		t.Errorf("got %+v", p)
	}
	p2 := DeriveGridParams(0, 1)
	if p2.Rows != 2 || p2.Cols != 2 || p2.Threshold != 2 {
		t.Errorf("got %+v", p2)
	}
}

func setupServer(t *testing.T, nVoters int, params GridParams, nReps int, m *big.Int) (*Server, *primitives.Registry) {
	t.Helper()
	reg := primitives.NewRegistry()
	s, err := NewServer("race1", nVoters, params, nReps, m, reg)
	if err != nil {
		t.Fatal(err)
	}
	return s, reg
}

// shareSecretAcrossRows fills column 0 of every row for position p with a
// fresh threshold-sharing of secret, for self-check purposes.
func shareSecretAcrossRows(t *testing.T, s *Server, reg *primitives.Registry, m *big.Int, p int, secret int64) {
	t.Helper()
	if !reg.Has("test-setup") {
		_ = reg.Init("test-setup", nil, false)
	}
	shares, err := arithmetic.MakeShares(big.NewInt(secret), s.Rows, s.Threshold, "test-setup", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	for i, sh := range shares {
		s.SetInput(i, p, sh.Y)
	}
}

func TestMixPreservesLagrangeValue(t *testing.T) {
	m := big.NewInt(97)
	params := GridParams{Rows: 4, Cols: 2, Threshold: 3}
	s, reg := setupServer(t, 2, params, 2, m)
	shareSecretAcrossRows(t, s, reg, m, 0, 5)
	shareSecretAcrossRows(t, s, reg, m, 1, 42)
	s.SelfCheck = true
	if err := s.Mix(); err != nil {
		t.Fatalf("Mix: %v", err)
	}
}

func TestOutputCommitmentsBindValues(t *testing.T) {
	m := big.NewInt(97)
	params := GridParams{Rows: 4, Cols: 2, Threshold: 3}
	s, reg := setupServer(t, 1, params, 2, m)
	shareSecretAcrossRows(t, s, reg, m, 0, 5)
	if err := s.Mix(); err != nil {
		t.Fatal(err)
	}
	last := s.Cols - 1
	for k := 0; k < s.NReps; k++ {
		for i := 0; i < s.Rows; i++ {
			cell := s.Grid[k][last][i]
			cu, err := primitives.Com(primitives.IntToBytes(cell.U[0], 0), cell.RU[0])
			if err != nil {
				t.Fatal(err)
			}
			if cu != cell.CU[0] {
				t.Errorf("cu mismatch at pass %d row %d", k, i)
			}
			if arithmetic.SumMod(cell.U[0], cell.V[0], m).Cmp(cell.Y[0]) != 0 {
				t.Errorf("u+v != y at pass %d row %d", k, i)
			}
		}
	}
}

func TestOddRepsRejected(t *testing.T) {
	reg := primitives.NewRegistry()
	params := GridParams{Rows: 2, Cols: 2, Threshold: 2}
	if _, err := NewServer("r", 1, params, 3, big.NewInt(97), reg); err != ErrOddReps {
		t.Errorf("expected ErrOddReps, got %v", err)
	}
}
