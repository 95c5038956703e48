// Package verifier re-derives every challenge and re-checks every commitment
// and t-value constraint in a posted transcript, reporting a precise,
// coordinate-qualified diagnostic for each failure it finds and continuing
// to check everything else, so a single run names every violated invariant
// instead of stopping at the first one.
package verifier

import (
	"fmt"
	"math/big"

	"github.com/hashicorp/go-multierror"

	"github.com/svvote/splitvalue/arithmetic"
	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/primitives"
	"github.com/svvote/splitvalue/prover"
	"github.com/svvote/splitvalue/race"
	"github.com/svvote/splitvalue/sbb"
	"github.com/svvote/splitvalue/tally"
	"github.com/svvote/splitvalue/voter"
)

// RaceMaterial bundles everything the verifier needs for one race: its
// definition, the mix server holding cast votes through output commitments,
// the cast-vote records, the posted t-values and the posted tally.
type RaceMaterial struct {
	Race        *race.Race
	Server      *mixnet.Server
	CastVotes   [][]voter.RowCell // [position][row]
	TValues     prover.TValues
	PostedTally *tally.Result
}

// Transcript is the full material the verifier checks: one board (for
// challenge re-derivation) plus every race's material and the posted
// challenges.
type Transcript struct {
	Board           *sbb.Board
	ChallengeUpTo   int // entry index of "proof:verifier_challenges"
	JSONIndent      string
	Races           map[string]*RaceMaterial
	PostedChallenge *prover.Challenges
}

// Verify runs every check in §4.9 order, accumulating every failure. A nil
// return means every check passed.
func Verify(tr *Transcript) error {
	var result *multierror.Error

	if err := checkStructure(tr); err != nil {
		result = multierror.Append(result, err)
	}

	raceIDs := make([]string, 0, len(tr.Races))
	for id := range tr.Races {
		raceIDs = append(raceIDs, id)
	}

	if castEntry := tr.Board.IndexOf("casting:votes"); castEntry >= 0 {
		entry := tr.Board.Entries[castEntry]
		for raceID, mat := range tr.Races {
			if err := checkCastVoteSanity(raceID, mat, entry); err != nil {
				result = multierror.Append(result, err)
			}
		}
	} else {
		result = multierror.Append(result, fmt.Errorf("cast-vote sanity: casting:votes entry not found"))
	}

	recomputed, err := recomputeChallenges(tr, raceIDs)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("challenge reconstruction: %w", err))
		return result.ErrorOrNil()
	}
	if err := compareChallenges(tr.PostedChallenge, recomputed); err != nil {
		result = multierror.Append(result, err)
	}
	// Use the posted challenge for the remaining checks even if it diverged
	// from the recomputed one, so the diagnostic above is not masked by a
	// cascade of derived failures using the "wrong" challenge.
	challenges := tr.PostedChallenge

	for raceID, mat := range tr.Races {
		for _, k := range challenges.OPL {
			if err := checkOutcome(raceID, mat, k); err != nil {
				result = multierror.Append(result, err)
			}
		}
		if err := checkTally(raceID, mat, challenges.OPL); err != nil {
			result = multierror.Append(result, err)
		}
		for _, k := range challenges.ICL {
			if err := checkInputConsistency(raceID, mat, challenges, k); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

func recomputeChallenges(tr *Transcript, raceIDs []string) (*prover.Challenges, error) {
	reg := primitives.NewRegistry()
	h, err := tr.Board.HashThrough(tr.ChallengeUpTo, tr.JSONIndent)
	if err != nil {
		return nil, err
	}
	nVoters := 0
	nReps := 0
	for _, mat := range tr.Races {
		nVoters = mat.Server.NVoters
		nReps = mat.Server.NReps
		break
	}
	return prover.DeriveChallenges(h, raceIDs, nVoters, nReps, reg)
}

func compareChallenges(posted, recomputed *prover.Challenges) error {
	if posted.SBBHash != recomputed.SBBHash {
		return fmt.Errorf("challenge: recomputed sbb_hash does not match posted value")
	}
	if !intSliceEqual(posted.ICL, recomputed.ICL) {
		return fmt.Errorf("challenge: recomputed icl does not match posted value")
	}
	if !intSliceEqual(posted.OPL, recomputed.OPL) {
		return fmt.Errorf("challenge: recomputed opl does not match posted value")
	}
	for raceID, sides := range recomputed.LeftRight {
		postedSides, ok := posted.LeftRight[raceID]
		if !ok || len(postedSides) != len(sides) {
			return fmt.Errorf("challenge: leftright missing or wrong length for race %q", raceID)
		}
		for p := range sides {
			if postedSides[p] != sides[p] {
				return fmt.Errorf("challenge: leftright mismatch for race %q position %d", raceID, p)
			}
		}
	}
	return nil
}

// fixedAttrs lists the non-"time" attribute set expected for headers whose
// payload shape does not vary with the set of races.
var fixedAttrs = map[string][]string{
	"setup:start":               {"about", "legend"},
	"setup:races":               {"races"},
	"setup:voters":              {"n_voters"},
	"setup:server-array":        {"rows", "cols", "threshold", "n_reps"},
	"proof:verifier_challenges": {"sbb_hash", "icl", "opl"},
}

// perRaceHeaders lists the headers whose payload is keyed by race id, one
// entry per race plus "time".
var perRaceHeaders = map[string]bool{
	"casting:votes":                            true,
	"tally:results":                            true,
	"proof:output_commitments":                 true,
	"proof:output_commitment_t_values":         true,
	"proof:outcome_check":                      true,
	"proof:input_consistency:input_openings":   true,
	"proof:input_consistency:output_openings":  true,
	"proof:input_consistency:pik_for_k_in_icl": true,
}

// timestamped lists the headers posted with timeStamp=true, i.e. whose
// payload must carry a "time" attribute.
var timestamped = map[string]bool{
	"setup:finished":                           true,
	"casting:votes":                            true,
	"tally:results":                            true,
	"proof:output_commitments":                 true,
	"proof:output_commitment_t_values":         true,
	"proof:verifier_challenges":                true,
	"proof:outcome_check":                      true,
	"proof:input_consistency:input_openings":   true,
	"proof:input_consistency:output_openings":  true,
	"proof:input_consistency:pik_for_k_in_icl": true,
	"election:done.":                           true,
}

// checkStructure implements §4.9 step 1: headers appear in the exact
// prescribed order, each payload has exactly the expected attribute set,
// timestamps are non-decreasing, and the board's election id is set.
func checkStructure(tr *Transcript) error {
	var result *multierror.Error

	if tr.Board.ElectionID == "" {
		result = multierror.Append(result, fmt.Errorf("structure: board has no election_id"))
	}

	raceIDs := make([]string, 0, len(tr.Races))
	for id := range tr.Races {
		raceIDs = append(raceIDs, id)
	}

	var lastTime int64 = -1
	for i, e := range tr.Board.Entries {
		if i >= len(sbb.Headers) || e.Header != sbb.Headers[i] {
			result = multierror.Append(result, fmt.Errorf(
				"structure: entry %d: header %q is out of the prescribed sequence", i, e.Header))
			continue
		}

		if timestamped[e.Header] {
			tv, ok := e.Payload["time"]
			t, isInt := tv.(int64)
			if !ok || !isInt {
				result = multierror.Append(result, fmt.Errorf(
					"structure: header %q: missing or malformed time attribute", e.Header))
			} else if t < lastTime {
				result = multierror.Append(result, fmt.Errorf(
					"structure: header %q: timestamp %d is not non-decreasing after %d", e.Header, t, lastTime))
			} else {
				lastTime = t
			}
		}

		switch {
		case e.Header == "sbb:open" || e.Header == "sbb:close":
			if e.Payload != nil {
				result = multierror.Append(result, fmt.Errorf(
					"structure: header %q: expected no payload", e.Header))
			}
		case e.Header == "setup:finished" || e.Header == "election:done.":
			if err := checkAttrs(e.Payload, []string{"time"}); err != nil {
				result = multierror.Append(result, fmt.Errorf("structure: header %q: %w", e.Header, err))
			}
		case fixedAttrs[e.Header] != nil:
			want := append([]string(nil), fixedAttrs[e.Header]...)
			if timestamped[e.Header] {
				want = append(want, "time")
			}
			if err := checkAttrs(e.Payload, want); err != nil {
				result = multierror.Append(result, fmt.Errorf("structure: header %q: %w", e.Header, err))
			}
		case perRaceHeaders[e.Header]:
			want := append(append([]string(nil), raceIDs...), "time")
			if err := checkAttrs(e.Payload, want); err != nil {
				result = multierror.Append(result, fmt.Errorf("structure: header %q: %w", e.Header, err))
			}
		}
	}

	return result.ErrorOrNil()
}

// checkAttrs reports whether payload's key set is exactly want.
func checkAttrs(payload map[string]interface{}, want []string) error {
	if len(payload) != len(want) {
		return fmt.Errorf("expected %d attributes, got %d", len(want), len(payload))
	}
	for _, k := range want {
		if _, ok := payload[k]; !ok {
			return fmt.Errorf("missing attribute %q", k)
		}
	}
	return nil
}

// checkCastVoteSanity implements §4.9 step 3 for one race: the posted
// casting:votes entry must list exactly n_voters entries, each with exactly
// rows row-cells carrying {ballot_id, cu, cv}; ballot ids must be distinct
// across positions and constant across a position's own row-cells.
func checkCastVoteSanity(raceID string, mat *RaceMaterial, entry sbb.Entry) error {
	var result *multierror.Error

	raw, ok := entry.Payload[raceID]
	if !ok {
		return fmt.Errorf("cast-vote sanity: race %q: casting:votes payload missing this race", raceID)
	}
	positions, ok := raw.([]interface{})
	if !ok {
		return fmt.Errorf("cast-vote sanity: race %q: unexpected casting:votes payload shape", raceID)
	}
	if len(positions) != mat.Server.NVoters {
		result = multierror.Append(result, fmt.Errorf(
			"cast-vote sanity: race %q: expected %d voter entries, got %d", raceID, mat.Server.NVoters, len(positions)))
	}

	seen := make(map[string]int, len(positions))
	for p, rawRows := range positions {
		rows, ok := rawRows.([]voter.PostedRow)
		if !ok {
			result = multierror.Append(result, fmt.Errorf(
				"cast-vote sanity: race %q position %d: unexpected row-cell shape", raceID, p))
			continue
		}
		if len(rows) != mat.Server.Rows {
			result = multierror.Append(result, fmt.Errorf(
				"cast-vote sanity: race %q position %d: expected %d row-cells, got %d", raceID, p, mat.Server.Rows, len(rows)))
			continue
		}
		ballotID := rows[0].BallotID
		for i, rc := range rows {
			if rc.BallotID == "" || rc.CU == "" || rc.CV == "" {
				result = multierror.Append(result, fmt.Errorf(
					"cast-vote sanity: race %q position %d row %d: missing ballot_id, cu or cv", raceID, p, i))
			}
			if rc.BallotID != ballotID {
				result = multierror.Append(result, fmt.Errorf(
					"cast-vote sanity: race %q position %d row %d: ballot id disagrees with row 0", raceID, p, i))
			}
		}
		if other, dup := seen[ballotID]; dup {
			result = multierror.Append(result, fmt.Errorf(
				"cast-vote sanity: race %q: ballot id collision between position %d and %d", raceID, other, p))
		} else {
			seen[ballotID] = p
		}
	}

	return result.ErrorOrNil()
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// checkOutcome verifies I1 for every opened output commitment of pass k.
func checkOutcome(raceID string, mat *RaceMaterial, k int) error {
	var result *multierror.Error
	openings := prover.OutcomeOpenings(mat.Server, k)
	for p := 0; p < mat.Server.NVoters; p++ {
		for i := 0; i < mat.Server.Rows; i++ {
			o := openings[p][i]
			cu, err := primitives.Com(primitives.IntToBytes(o.U, 0), o.RU)
			if err != nil || cu != mat.Server.Grid[k][mat.Server.Cols-1][i].CU[p] {
				result = multierror.Append(result, fmt.Errorf(
					"outcome check: race %q pass %d row %d pos %d: cu mismatch", raceID, k, i, p))
			}
			cv, err := primitives.Com(primitives.IntToBytes(o.V, 0), o.RV)
			if err != nil || cv != mat.Server.Grid[k][mat.Server.Cols-1][i].CV[p] {
				result = multierror.Append(result, fmt.Errorf(
					"outcome check: race %q pass %d row %d pos %d: cv mismatch", raceID, k, i, p))
			}
			if arithmetic.SumMod(o.U, o.V, mat.Server.Modulus).Cmp(o.Y) != 0 {
				result = multierror.Append(result, fmt.Errorf(
					"outcome check: race %q pass %d row %d pos %d: y != u+v mod M", raceID, k, i, p))
			}
		}
	}
	return result.ErrorOrNil()
}

// checkTally re-derives the per-race tally with tally.Compute, which
// reconstructs every pass of the server (the opl passes among them) and
// requires them to agree, and asserts it agrees with the posted tally (I2).
// The opl argument itself is not consulted.
func checkTally(raceID string, mat *RaceMaterial, opl []int) error {
	recomputed, err := tally.Compute(mat.Race, mat.Server)
	if err != nil {
		return fmt.Errorf("tally: race %q: %w", raceID, err)
	}
	for choice, count := range mat.PostedTally.Counts {
		if recomputed.Counts[choice] != count {
			return fmt.Errorf("tally: race %q: posted count for %q (%d) != recomputed (%d)",
				raceID, choice, count, recomputed.Counts[choice])
		}
	}
	return nil
}

// checkInputConsistency verifies I3 for pass k in icl: pik is a permutation,
// every opened half is correct, and the t-value constraints hold.
func checkInputConsistency(raceID string, mat *RaceMaterial, challenges *prover.Challenges, k int) error {
	var result *multierror.Error

	pik := prover.PikMap(mat.Server, k)
	seen := make([]bool, len(pik))
	for _, px := range pik {
		if px < 0 || px >= len(pik) || seen[px] {
			result = multierror.Append(result, fmt.Errorf(
				"pik: race %q pass %d: pik is not a permutation of p_list", raceID, k))
			break
		}
		seen[px] = true
	}

	inputs := prover.InputOpenings(mat.CastVotes, challenges, raceID)
	for p, rows := range inputs {
		for i, opening := range rows {
			rc := mat.CastVotes[p][i]
			var com string
			var err error
			if opening.Side == "left" {
				com, err = primitives.Com(primitives.IntToBytes(opening.Value, 0), opening.R)
				if err != nil || com != rc.CU {
					result = multierror.Append(result, fmt.Errorf(
						"input opening: race %q pos %d row %d: left half does not match cu", raceID, p, i))
				}
			} else {
				com, err = primitives.Com(primitives.IntToBytes(opening.Value, 0), opening.R)
				if err != nil || com != rc.CV {
					result = multierror.Append(result, fmt.Errorf(
						"input opening: race %q pos %d row %d: right half does not match cv", raceID, p, i))
				}
			}
		}
	}

	outputs := prover.OutputOpenings(mat.Server, challenges, raceID, k)
	last := mat.Server.Cols - 1
	for py, rows := range outputs {
		for i, opening := range rows {
			cell := mat.Server.Grid[k][last][i]
			var com string
			var err error
			if opening.Side == "left" {
				com, err = primitives.Com(primitives.IntToBytes(opening.Value, 0), opening.R)
				if err != nil || com != cell.CU[py] {
					result = multierror.Append(result, fmt.Errorf(
						"output opening: race %q pass %d pos %d row %d: left half does not match cu", raceID, k, py, i))
				}
			} else {
				com, err = primitives.Com(primitives.IntToBytes(opening.Value, 0), opening.R)
				if err != nil || com != cell.CV[py] {
					result = multierror.Append(result, fmt.Errorf(
						"output opening: race %q pass %d pos %d row %d: right half does not match cv", raceID, k, py, i))
				}
			}
		}
	}

	for py := 0; py < mat.Server.NVoters; py++ {
		px := pik[py]
		side := challenges.Side(raceID, px)
		for i := 0; i < mat.Server.Rows; i++ {
			tv := mat.TValues[k][px][i]
			inOpen := inputs[px][i]
			outOpen := outputs[py][i]
			expected := new(big.Int).Sub(outOpen.Value, inOpen.Value)
			expected.Mod(expected, mat.Server.Modulus)
			var posted *big.Int
			if side == "left" {
				posted = tv.TU
			} else {
				posted = tv.TV
			}
			if expected.Cmp(posted) != 0 {
				result = multierror.Append(result, fmt.Errorf(
					"t-value: race %q pass %d pos %d row %d: opened t-value disagrees with posted t-value", raceID, k, py, i))
			}
		}
	}

	for py := 0; py < mat.Server.NVoters; py++ {
		px := pik[py]
		tuShares := make([]arithmetic.Share, mat.Server.Rows)
		tvShares := make([]arithmetic.Share, mat.Server.Rows)
		for i := 0; i < mat.Server.Rows; i++ {
			tuShares[i] = arithmetic.Share{X: int64(i + 1), Y: mat.TValues[k][px][i].TU}
			tvShares[i] = arithmetic.Share{X: int64(i + 1), Y: mat.TValues[k][px][i].TV}
		}
		t, err := arithmetic.Lagrange(tuShares, mat.Server.Threshold, mat.Server.Modulus)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"t-value: race %q pass %d pos %d: tu shares do not reconstruct: %w", raceID, k, py, err))
			continue
		}
		tPrime, err := arithmetic.Lagrange(tvShares, mat.Server.Threshold, mat.Server.Modulus)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf(
				"t-value: race %q pass %d pos %d: tv shares do not reconstruct: %w", raceID, k, py, err))
			continue
		}
		sum := new(big.Int).Add(t, tPrime)
		sum.Mod(sum, mat.Server.Modulus)
		if sum.Sign() != 0 {
			result = multierror.Append(result, fmt.Errorf(
				"t-value: race %q pass %d pos %d: t + t' = %v, want 0", raceID, k, py, sum))
		}
	}

	return result.ErrorOrNil()
}
