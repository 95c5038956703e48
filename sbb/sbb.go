// Package sbb implements the Secure Bulletin Board: an append-only,
// timestamped transcript with a canonical serialization whose hash seeds the
// protocol's Fiat-Shamir challenges.
package sbb

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/svvote/splitvalue/primitives"
)

// Headers is the exact, required order of SBB entries for one election run.
var Headers = []string{
	"sbb:open",
	"setup:start",
	"setup:races",
	"setup:voters",
	"setup:server-array",
	"setup:finished",
	"casting:votes",
	"tally:results",
	"proof:output_commitments",
	"proof:output_commitment_t_values",
	"proof:verifier_challenges",
	"proof:outcome_check",
	"proof:input_consistency:input_openings",
	"proof:input_consistency:output_openings",
	"proof:input_consistency:pik_for_k_in_icl",
	"election:done.",
	"sbb:close",
}

var (
	// ErrOutOfOrder is returned when Post is called with a header that is not
	// the next expected one in Headers.
	ErrOutOfOrder = errors.New("sbb: header posted out of order")

	// ErrClosed is returned when Post is called after Close.
	ErrClosed = errors.New("sbb: board is closed")

	// ErrBackwardTimestamp reports a timestamp that decreases. Board assigns
	// timestamps itself from a counter that only increases, so no Board
	// method returns it.
	ErrBackwardTimestamp = errors.New("sbb: timestamp is not non-decreasing")
)

// Entry is one (header, payload) pair on the board.
type Entry struct {
	Header  string
	Payload map[string]interface{}
}

// Board is an append-only transcript. Timestamps come from the board's own
// counter, incremented by each timestamped Post (not wall-clock time), keeping the transcript
// byte-identical across repeated runs with the same seeds, per the
// reference implementation's single-threaded determinism requirement.
type Board struct {
	ElectionID string
	Entries    []Entry
	clock      int64
	closed     bool
	next       int
}

// NewBoard creates an empty board and immediately posts "sbb:open".
func NewBoard(electionID string) *Board {
	b := &Board{ElectionID: electionID}
	_ = b.post("sbb:open", nil, false)
	return b
}

// Post appends header/payload, stamping payload["time"] with the board's
// monotonic clock unless timeStamp is false. Headers must be posted in the
// exact order of Headers.
func (b *Board) Post(header string, payload map[string]interface{}, timeStamp bool) error {
	return b.post(header, payload, timeStamp)
}

func (b *Board) post(header string, payload map[string]interface{}, timeStamp bool) error {
	if b.closed {
		return ErrClosed
	}
	if b.next >= len(Headers) || Headers[b.next] != header {
		return ErrOutOfOrder
	}
	b.next++
	if timeStamp {
		if payload == nil {
			payload = make(map[string]interface{})
		}
		b.clock++
		payload["time"] = b.clock
	}
	b.Entries = append(b.Entries, Entry{Header: header, Payload: payload})
	return nil
}

// Close posts the final "sbb:close" entry.
func (b *Board) Close() error {
	if err := b.post("sbb:close", nil, false); err != nil {
		return err
	}
	b.closed = true
	return nil
}

// board marshaling mirrors the file format: a JSON array of [header, payload]
// pairs, or [header] alone when payload is nil.
func (b *Board) boardValue() []interface{} {
	out := make([]interface{}, len(b.Entries))
	for i, e := range b.Entries {
		if e.Payload == nil {
			out[i] = []interface{}{e.Header}
		} else {
			out[i] = []interface{}{e.Header, e.Payload}
		}
	}
	return out
}

// Canonical serializes the board's entries through entry index upTo
// (exclusive) using sorted keys, the configured indent, and LF endings —
// the exact contract the Fiat-Shamir hash depends on for byte-exact
// reproducibility across prover and verifier. indent == "" (json_indent =
// null) is treated as "no whitespace": compact encoding.
func (b *Board) Canonical(upTo int, indent string) ([]byte, error) {
	if upTo > len(b.Entries) {
		upTo = len(b.Entries)
	}
	sub := &Board{Entries: b.Entries[:upTo]}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(sub.boardValue()); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return out, nil
}

// HashTweak is the fixed tweak used for the transcript hash, resolving the
// source material's inconsistency between a string-tweaked "hash_sbb" and an
// integer-tweaked Hash primitive: the SBB hash always uses tweak 0 (plain
// SHA-256) regardless of the configured JSON indent.
const HashTweak = 0

// HashThrough returns H(canonical serialization of entries [0, upTo)).
// Called with upTo set to the index of "proof:verifier_challenges", this is
// the H* that seeds the Fiat-Shamir challenge derivation.
func (b *Board) HashThrough(upTo int, indent string) ([primitives.HashSize]byte, error) {
	data, err := b.Canonical(upTo, indent)
	if err != nil {
		return [primitives.HashSize]byte{}, err
	}
	return primitives.Hash(data, HashTweak)
}

// IndexOf returns the entry index of the first occurrence of header, or -1.
func (b *Board) IndexOf(header string) int {
	for i, e := range b.Entries {
		if e.Header == header {
			return i
		}
	}
	return -1
}
