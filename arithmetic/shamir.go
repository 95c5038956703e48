// Package arithmetic implements the modular polynomial secret sharing,
// Lagrange reconstruction, split-value pair generation and permutation
// machinery that the mix network and prover build on. All arithmetic is
// modulo a prime M supplied by the caller (typically a race's modulus).
package arithmetic

import (
	"errors"
	"math/big"

	"github.com/svvote/splitvalue/primitives"
)

var (
	// ErrThresholdRange is returned when 1 <= t <= n <= M-1 does not hold.
	ErrThresholdRange = errors.New("arithmetic: threshold out of range")

	// ErrNotEnoughShares is returned when Lagrange is given fewer than t shares.
	ErrNotEnoughShares = errors.New("arithmetic: not enough shares to reconstruct")

	// ErrDuplicateX is returned when two shares given to Lagrange share an x coordinate.
	ErrDuplicateX = errors.New("arithmetic: duplicate share x-coordinate")
)

// Share is one point (x, P(x) mod M) of a Shamir sharing.
type Share struct {
	X int64
	Y *big.Int
}

// MakeShares computes a degree-(t-1) Shamir sharing of secret modulo the
// prime m, evaluated at x = 1..n. One NextInt call is made on reg's named
// source per coefficient c_0..c_{t-1}, in ascending coefficient order; the
// c_0 draw is then replaced by the secret, so c_1..c_{t-1} are uniform. This
// draw order is part of the protocol's reproducibility contract and must not
// be parallelized or reordered.
func MakeShares(secret *big.Int, n, t int, name string, m *big.Int, reg *primitives.Registry) ([]Share, error) {
	mMinus1 := new(big.Int).Sub(m, big.NewInt(1))
	if t < 1 || t > n || big.NewInt(int64(n)).Cmp(mMinus1) > 0 {
		return nil, ErrThresholdRange
	}
	coeffs := make([]*big.Int, t)
	for j := 0; j < t; j++ {
		c, err := reg.NextInt(name, m)
		if err != nil {
			return nil, err
		}
		coeffs[j] = c
	}
	coeffs[0] = new(big.Int).Mod(secret, m)
	shares := make([]Share, n)
	for x := 1; x <= n; x++ {
		shares[x-1] = Share{X: int64(x), Y: evalPoly(coeffs, int64(x), m)}
	}
	return shares, nil
}

// evalPoly evaluates P(x) mod m via Horner's method.
func evalPoly(coeffs []*big.Int, x int64, m *big.Int) *big.Int {
	bx := big.NewInt(x)
	acc := new(big.Int).Set(coeffs[len(coeffs)-1])
	for i := len(coeffs) - 2; i >= 0; i-- {
		acc.Mul(acc, bx)
		acc.Add(acc, coeffs[i])
		acc.Mod(acc, m)
	}
	return acc
}

// Lagrange reconstructs P(0) mod m from any t of the given shares (a superset
// is tolerated; only the first t distinct-x shares are used), using Lagrange
// interpolation at x = 0 with modular inverses computed by Fermat's little
// theorem (a^(m-2) mod m, valid since m is prime).
func Lagrange(shares []Share, t int, m *big.Int) (*big.Int, error) {
	if len(shares) < t {
		return nil, ErrNotEnoughShares
	}
	seen := make(map[int64]bool, t)
	used := make([]Share, 0, t)
	for _, s := range shares {
		if seen[s.X] {
			continue
		}
		seen[s.X] = true
		used = append(used, s)
		if len(used) == t {
			break
		}
	}
	if len(used) < t {
		return nil, ErrNotEnoughShares
	}

	result := big.NewInt(0)
	mMinus2 := new(big.Int).Sub(m, big.NewInt(2))
	for i, si := range used {
		num := big.NewInt(1)
		den := big.NewInt(1)
		xi := big.NewInt(si.X)
		for j, sj := range used {
			if i == j {
				continue
			}
			xj := big.NewInt(sj.X)
			negXj := new(big.Int).Neg(xj)
			negXj.Mod(negXj, m)
			num.Mul(num, negXj)
			num.Mod(num, m)

			diff := new(big.Int).Sub(xi, xj)
			diff.Mod(diff, m)
			den.Mul(den, diff)
			den.Mod(den, m)
		}
		denInv := new(big.Int).Exp(den, mMinus2, m)
		coef := new(big.Int).Mul(num, denInv)
		coef.Mod(coef, m)
		term := new(big.Int).Mul(si.Y, coef)
		term.Mod(term, m)
		result.Add(result, term)
		result.Mod(result, m)
	}
	return result, nil
}
