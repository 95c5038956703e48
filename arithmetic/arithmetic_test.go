package arithmetic

import (
	"math/big"
	"testing"

	"github.com/svvote/splitvalue/primitives"
)

func TestSVPairSumsToX(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("sv", nil, false)
	m := big.NewInt(97)
	x := big.NewInt(42)
	u, v, err := SVPair(x, "sv", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	if SumMod(u, v, m).Cmp(x) != 0 {
		t.Errorf("u+v mod m = %v, want %v", SumMod(u, v, m), x)
	}
}

func TestShareGoldenValue(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("test_share", nil, false)
	m := big.NewInt(11)
	shares, err := MakeShares(big.NewInt(3), 5, 3, "test_share", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	want := []int64{1, 9, 5, 0, 5}
	if len(shares) != len(want) {
		t.Fatalf("expected %d shares, got %d", len(want), len(shares))
	}
	for i, s := range shares {
		if s.X != int64(i+1) || s.Y.Cmp(big.NewInt(want[i])) != 0 {
			t.Errorf("share %d = (%d,%v), want (%d,%d)", i, s.X, s.Y, i+1, want[i])
		}
	}
	got, err := Lagrange(shares[:3], 3, m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Cmp(big.NewInt(3)) != 0 {
		t.Errorf("Lagrange of first three shares = %v, want 3", got)
	}
}

func TestShareLagrangeRoundTrip(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("rt", nil, false)
	m := big.NewInt(11)
	secret := big.NewInt(3)
	shares, err := MakeShares(secret, 5, 3, "rt", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	// every run of three consecutive shares should reconstruct the secret
	for i := 0; i+3 <= len(shares); i++ {
		got, err := Lagrange(shares[i:i+3], 3, m)
		if err != nil {
			t.Fatal(err)
		}
		if got.Cmp(secret) != 0 {
			t.Errorf("subset %d reconstructed %v, want %v", i, got, secret)
		}
	}
}

func TestShareZeroIsZeroSharing(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("zero", nil, false)
	m := big.NewInt(97)
	shares, err := MakeShares(big.NewInt(0), 4, 2, "zero", m, reg)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Lagrange(shares[:2], 2, m)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sign() != 0 {
		t.Errorf("zero-sharing reconstructed %v, want 0", got)
	}
}

func TestPermutationInverseRoundTrip(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("perm", nil, false)
	p, err := RandomPermutation(10, "perm", reg)
	if err != nil {
		t.Fatal(err)
	}
	inv, err := Inverse(p)
	if err != nil {
		t.Fatal(err)
	}
	x := []int64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	y := Apply(p, x)
	back := Apply(inv, y)
	for i := range x {
		if back[i] != x[i] {
			t.Errorf("apply(inv, apply(p, x)) != x at %d: got %d want %d", i, back[i], x[i])
		}
	}
}

func TestRandomPermutationIsBijection(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("bij", nil, false)
	p, err := RandomPermutation(100, "bij", reg)
	if err != nil {
		t.Fatal(err)
	}
	seen := make([]bool, 100)
	for _, v := range p {
		if v < 0 || v >= 100 || seen[v] {
			t.Fatalf("not a bijection: %v", p)
		}
		seen[v] = true
	}
}

func TestRandomPermutationDiffersAcrossNames(t *testing.T) {
	reg := primitives.NewRegistry()
	_ = reg.Init("a", nil, false)
	_ = reg.Init("b", nil, false)
	p1, _ := RandomPermutation(100, "a", reg)
	p2, _ := RandomPermutation(100, "b", reg)
	diff := false
	for i := range p1 {
		if p1[i] != p2[i] {
			diff = true
			break
		}
	}
	if !diff {
		t.Errorf("independent sources produced identical permutations")
	}
}
