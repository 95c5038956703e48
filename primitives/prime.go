package primitives

import "math/big"

// smallPrimes is the sieve used to reject small-factor composites before
// paying for Miller-Rabin, matching the original prototype's fast-reject path.
var smallPrimes = sieve(10000)

func sieve(n int) []int64 {
	composite := make([]bool, n+1)
	var primes []int64
	for i := 2; i <= n; i++ {
		if composite[i] {
			continue
		}
		primes = append(primes, int64(i))
		for j := i * i; j <= n; j += i {
			composite[j] = true
		}
	}
	return primes
}

const millerRabinRounds = 20

// IsPrime reports whether n is prime using a small-prime sieve followed by
// 20 rounds of Miller-Rabin with bases drawn from the "Miller_Rabin" named
// randomness source in reg.
func IsPrime(n *big.Int, reg *Registry) bool {
	if n.Sign() <= 0 {
		return false
	}
	if n.Cmp(big.NewInt(1)) == 0 {
		return false
	}
	two := big.NewInt(2)
	if n.Cmp(big.NewInt(10000*10000)) < 0 {
		return trialDivisionPrime(n)
	}
	for _, p := range smallPrimes {
		bp := big.NewInt(p)
		if n.Cmp(bp) == 0 {
			return true
		}
		if new(big.Int).Mod(n, bp).Sign() == 0 {
			return false
		}
	}
	if reg == nil {
		reg = NewRegistry()
	}
	if !reg.Has("Miller_Rabin") {
		_ = reg.Init("Miller_Rabin", nil, false)
	}
	nMinus1 := new(big.Int).Sub(n, big.NewInt(1))
	d := new(big.Int).Set(nMinus1)
	r := 0
	for new(big.Int).Mod(d, two).Sign() == 0 {
		d.Div(d, two)
		r++
	}
	for i := 0; i < millerRabinRounds; i++ {
		a, err := reg.NextInt("Miller_Rabin", new(big.Int).Sub(n, big.NewInt(3)))
		if err != nil {
			return false
		}
		a.Add(a, big.NewInt(2)) // a in [2, n-2]
		if witness(a, d, n, r) {
			return false
		}
	}
	return true
}

func trialDivisionPrime(n *big.Int) bool {
	if n.Cmp(big.NewInt(2)) < 0 {
		return false
	}
	for _, p := range smallPrimes {
		bp := big.NewInt(p)
		if bp.Cmp(n) > 0 {
			break
		}
		if n.Cmp(bp) == 0 {
			return true
		}
		if new(big.Int).Mod(n, bp).Sign() == 0 {
			return false
		}
	}
	return true
}

// witness reports whether a is a Miller-Rabin witness to n's compositeness,
// given n-1 = d * 2^r.
func witness(a, d, n *big.Int, r int) bool {
	x := new(big.Int).Exp(a, d, n)
	one := big.NewInt(1)
	nMinus1 := new(big.Int).Sub(n, one)
	if x.Cmp(one) == 0 || x.Cmp(nMinus1) == 0 {
		return false
	}
	for i := 0; i < r-1; i++ {
		x.Exp(x, big.NewInt(2), n)
		if x.Cmp(nMinus1) == 0 {
			return false
		}
		if x.Cmp(one) == 0 {
			return true
		}
	}
	return true
}

// NextPrime returns the smallest prime strictly greater than n.
func NextPrime(n *big.Int, reg *Registry) *big.Int {
	candidate := new(big.Int).Add(n, big.NewInt(1))
	if candidate.Cmp(big.NewInt(2)) < 0 {
		candidate.SetInt64(2)
	}
	if new(big.Int).Mod(candidate, big.NewInt(2)).Sign() == 0 && candidate.Cmp(big.NewInt(2)) != 0 {
		candidate.Add(candidate, big.NewInt(1))
	}
	for !IsPrime(candidate, reg) {
		candidate.Add(candidate, big.NewInt(2))
	}
	return candidate
}

// PrevPrime returns the largest prime strictly less than n.
func PrevPrime(n *big.Int, reg *Registry) *big.Int {
	candidate := new(big.Int).Sub(n, big.NewInt(1))
	if candidate.Cmp(big.NewInt(2)) < 0 {
		return nil
	}
	if candidate.Cmp(big.NewInt(2)) != 0 && new(big.Int).Mod(candidate, big.NewInt(2)).Sign() == 0 {
		candidate.Sub(candidate, big.NewInt(1))
	}
	for candidate.Cmp(big.NewInt(2)) >= 0 && !IsPrime(candidate, reg) {
		candidate.Sub(candidate, big.NewInt(2))
	}
	if candidate.Cmp(big.NewInt(2)) < 0 {
		return nil
	}
	return candidate
}

// MakePrime returns the smallest prime >= n.
func MakePrime(n *big.Int, reg *Registry) *big.Int {
	if IsPrime(n, reg) {
		return new(big.Int).Set(n)
	}
	return NextPrime(n, reg)
}
