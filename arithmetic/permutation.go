package arithmetic

import (
	"errors"

	"github.com/svvote/splitvalue/primitives"
)

// ErrNotAPermutation is returned by Inverse when the input map is not
// a bijection on {0, ..., g-1}.
var ErrNotAPermutation = errors.New("arithmetic: not a permutation of the expected domain")

// Permutation maps each position in {0, ..., g-1} to its image.
type Permutation []int

// RandomPermutation generates a uniformly random permutation of {0, ..., g-1}
// via Fisher-Yates, drawing next(name, i+1) for i = 1 up to g-1. The draw
// order is part of the reproducibility contract: callers must not reorder or
// parallelize calls against the same named source.
func RandomPermutation(g int, name string, reg *primitives.Registry) (Permutation, error) {
	p := make(Permutation, g)
	for i := range p {
		p[i] = i
	}
	for i := 1; i < g; i++ {
		j, err := reg.NextIntN(name, int64(i+1))
		if err != nil {
			return nil, err
		}
		p[i], p[j] = p[j], p[i]
	}
	return p, nil
}

// Inverse returns π^-1 such that Inverse(π)[π[k]] == k for all k.
func Inverse(p Permutation) (Permutation, error) {
	inv := make(Permutation, len(p))
	seen := make([]bool, len(p))
	for k, v := range p {
		if v < 0 || v >= len(p) || seen[v] {
			return nil, ErrNotAPermutation
		}
		seen[v] = true
		inv[v] = k
	}
	return inv, nil
}

// Apply computes y[k] = x[π(k)] for all k: the element originally at
// position π(k) ends in position k.
func Apply(p Permutation, x []int64) []int64 {
	y := make([]int64, len(x))
	for k := range y {
		y[k] = x[p[k]]
	}
	return y
}

// Compose returns the permutation equivalent to applying a then b:
// Compose(a, b)[k] = a[b[k]].
func Compose(a, b Permutation) Permutation {
	out := make(Permutation, len(b))
	for k := range out {
		out[k] = a[b[k]]
	}
	return out
}
