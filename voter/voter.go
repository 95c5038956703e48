// Package voter implements the per-voter-per-race cast-vote production
// described in the voter-flow component: choose a choice, secret-share it
// across the mix array's rows, and split-value-commit each row's share.
package voter

import (
	"errors"
	"math/big"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/primitives"
	"github.com/svvote/splitvalue/race"
)

// ErrReconstructionFailed indicates the freshly produced shares did not
// Lagrange-reconstruct to the chosen choice; this would indicate a bug in
// sharing, not a condition a well-formed race can trigger in practice.
var ErrReconstructionFailed = errors.New("voter: shares did not reconstruct choice")

// RowCell is one row's cast-vote record for a single (race, position):
// x = (u+v) mod M is the row's Shamir share value, independently
// split-value-committed as (cu, cv).
type RowCell struct {
	X  *big.Int
	U  *big.Int
	V  *big.Int
	RU string
	RV string
	CU string
	CV string
}

// CastVote is one voter position's full cast-vote record for one race: the
// same ballot id appears under every row.
type CastVote struct {
	BallotID string
	Rows     []RowCell
}

// PostedRow is the subset of a RowCell that is published to the transcript
// under casting:votes — never x, u, v, ru or rv.
type PostedRow struct {
	BallotID string `json:"ballot_id"`
	CU       string `json:"cu"`
	CV       string `json:"cv"`
}

// CastVote produces the full cast-vote record for voter position named
// sourceName (conventionally "voter:<id>") voting choice in r, sharing across
// rows row-cells with the given Shamir threshold. The named source is
// initialized in reg if it is not already there. The ballot id is
// hex(next(sourceName)) truncated to ballotIDLen characters.
func Cast(r *race.Race, choice string, sourceName string, rows, threshold, ballotIDLen int, reg *primitives.Registry) (*CastVote, error) {
	choiceInt, err := r.ChoiceToInt(choice)
	if err != nil {
		return nil, err
	}
	if !reg.Has(sourceName) {
		if err := reg.Init(sourceName, nil, false); err != nil {
			return nil, err
		}
	}

	ballotBytes, err := reg.NextBytes(sourceName)
	if err != nil {
		return nil, err
	}
	ballotID := primitives.BytesToHex(ballotBytes[:])
	if ballotIDLen > 0 && ballotIDLen < len(ballotID) {
		ballotID = ballotID[:ballotIDLen]
	}

	shares, err := arithmetic.MakeShares(choiceInt, rows, threshold, sourceName, r.Modulus, reg)
	if err != nil {
		return nil, err
	}
	if got, err := arithmetic.Lagrange(shares, threshold, r.Modulus); err != nil || got.Cmp(choiceInt) != 0 {
		return nil, ErrReconstructionFailed
	}

	rowCells := make([]RowCell, rows)
	for i, s := range shares {
		u, v, err := arithmetic.SVPair(s.Y, sourceName, r.Modulus, reg)
		if err != nil {
			return nil, err
		}
		ruRaw, err := reg.NextBytes(sourceName)
		if err != nil {
			return nil, err
		}
		rvRaw, err := reg.NextBytes(sourceName)
		if err != nil {
			return nil, err
		}
		ru := primitives.NewCommitmentKey(ruRaw)
		rv := primitives.NewCommitmentKey(rvRaw)
		cu, err := primitives.Com(primitives.IntToBytes(u, 0), ru)
		if err != nil {
			return nil, err
		}
		cv, err := primitives.Com(primitives.IntToBytes(v, 0), rv)
		if err != nil {
			return nil, err
		}
		rowCells[i] = RowCell{X: s.Y, U: u, V: v, RU: ru, RV: rv, CU: cu, CV: cv}
	}

	return &CastVote{BallotID: ballotID, Rows: rowCells}, nil
}

// Posted returns the public casting:votes entries for this cast vote: only
// the ballot id and the two commitments, never the shares or their openings.
func (c *CastVote) Posted() []PostedRow {
	out := make([]PostedRow, len(c.Rows))
	for i, rc := range c.Rows {
		out[i] = PostedRow{BallotID: c.BallotID, CU: rc.CU, CV: rc.CV}
	}
	return out
}
