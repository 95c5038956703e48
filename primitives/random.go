package primitives

import "math/big"

// Registry is a reproducible, name-keyed pseudo-random generator. It models
// the protocol's "named randomness source" abstraction: every logical actor
// (a voter, a mix-server cell, the verifier-challenge derivation) owns an
// independently-seeded named stream, and two streams with different names
// never interact.
//
// Registry is an injected dependency, never a package-level singleton, so
// that tests and concurrent elections can run with isolated state. It is not
// safe for concurrent use on the same name without external synchronization;
// the protocol's ordering contract already serializes draws from any single
// named source.
//
// This is a deterministic PRG seeded by name and is explicitly NOT a
// cryptographically secure randomness source on its own: the "seed" for a
// name defaults to H(name), which is public. Production deployments must
// seed every source from independent true entropy before first use.
type Registry struct {
	state map[string][HashSize]byte
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{state: make(map[string][HashSize]byte)}
}

// Init registers name with an explicit seed (state <- seed, zero-padded or
// truncated to HashSize bytes), or with H(name) if seed is nil.
// Re-initializing an existing name is an error unless force is true.
func (r *Registry) Init(name string, seed []byte, force bool) error {
	if _, ok := r.state[name]; ok && !force {
		return ErrSourceExists
	}
	if seed != nil {
		var s [HashSize]byte
		copy(s[:], seed)
		r.state[name] = s
		return nil
	}
	r.state[name] = HashString(name)
	return nil
}

// next advances name's state and returns the exposed output, hashing twice so
// that the publicly-exposed output is independent of the next internal
// state: state <- H(state), exposed <- H(state, tweak=1).
func (r *Registry) next(name string) ([HashSize]byte, error) {
	st, ok := r.state[name]
	if !ok {
		return [HashSize]byte{}, ErrUnknownSource
	}
	newState, err := Hash(st[:], 0)
	if err != nil {
		return [HashSize]byte{}, err
	}
	r.state[name] = newState
	exposed, err := Hash(newState[:], 1)
	if err != nil {
		return [HashSize]byte{}, err
	}
	return exposed, nil
}

// NextBytes returns the full 32-byte exposed output of the next draw.
func (r *Registry) NextBytes(name string) ([HashSize]byte, error) {
	return r.next(name)
}

// NextInt returns bytes_to_int(next(name)) mod modulus. modulus must be > 0.
func (r *Registry) NextInt(name string, modulus *big.Int) (*big.Int, error) {
	exposed, err := r.next(name)
	if err != nil {
		return nil, err
	}
	v := BytesToInt(exposed[:])
	return v.Mod(v, modulus), nil
}

// NextIntN is a convenience wrapper for a small int64 modulus (e.g. the
// left/right challenge, which draws mod 2).
func (r *Registry) NextIntN(name string, modulus int64) (int64, error) {
	v, err := r.NextInt(name, big.NewInt(modulus))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// Has reports whether name has been initialized.
func (r *Registry) Has(name string) bool {
	_, ok := r.state[name]
	return ok
}
