package arithmetic

import (
	"math/big"

	"github.com/svvote/splitvalue/primitives"
)

// SVPair draws a uniformly random split-value pair (u, v) with
// u + v ≡ x (mod m): u is drawn from the named source mod m, v = (x - u) mod m.
// For uniform u, (u, v) is a uniformly random pair summing to x, independent
// of x's distribution.
func SVPair(x *big.Int, name string, m *big.Int, reg *primitives.Registry) (u, v *big.Int, err error) {
	u, err = reg.NextInt(name, m)
	if err != nil {
		return nil, nil, err
	}
	v = new(big.Int).Sub(x, u)
	v.Mod(v, m)
	return u, v, nil
}

// SumMod returns (u+v) mod m, the reconstructed x from a split-value pair.
func SumMod(u, v, m *big.Int) *big.Int {
	sum := new(big.Int).Add(u, v)
	return sum.Mod(sum, m)
}
