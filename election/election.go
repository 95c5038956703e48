package election

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/svvote/splitvalue/mixnet"
	"github.com/svvote/splitvalue/primitives"
	"github.com/svvote/splitvalue/prover"
	"github.com/svvote/splitvalue/race"
	"github.com/svvote/splitvalue/sbb"
	"github.com/svvote/splitvalue/tally"
	"github.com/svvote/splitvalue/verifier"
	"github.com/svvote/splitvalue/voter"
)

// Election runs one complete election end to end: setup, casting, mixing,
// tallying, proving and verifying, against a single SBB transcript.
type Election struct {
	Config *Config
	Reg    *primitives.Registry
	Log    *zap.Logger

	Board *sbb.Board

	races   map[string]*race.Race
	servers map[string]*mixnet.Server
	votes   map[string][][]voter.RowCell // raceID -> [position][row]
	results map[string]*tally.Result
}

// New constructs an Election with a fresh registry and board. A nil logger
// defaults to zap.NewNop(), matching library code that never forces output.
func New(cfg *Config, log *zap.Logger) *Election {
	if log == nil {
		log = zap.NewNop()
	}
	return &Election{
		Config:  cfg,
		Reg:     primitives.NewRegistry(),
		Log:     log,
		Board:   sbb.NewBoard(cfg.ElectionID),
		races:   make(map[string]*race.Race),
		servers: make(map[string]*mixnet.Server),
		votes:   make(map[string][][]voter.RowCell),
		results: make(map[string]*tally.Result),
	}
}

// Run executes the full election and returns a verification result for the
// transcript it just produced.
func (e *Election) Run() error {
	if err := e.setup(); err != nil {
		return errors.Wrap(err, "election: setup")
	}
	if err := e.castVotes(); err != nil {
		return errors.Wrap(err, "election: casting votes")
	}
	if err := e.mix(); err != nil {
		return errors.Wrap(err, "election: mixing")
	}
	if err := e.tallyAll(); err != nil {
		return errors.Wrap(err, "election: tallying")
	}
	challenges, tValues, err := e.prove()
	if err != nil {
		return errors.Wrap(err, "election: proving")
	}
	if err := e.Board.Post("election:done.", nil, true); err != nil {
		return err
	}
	if err := e.Board.Close(); err != nil {
		return err
	}

	tr := e.transcript(challenges, tValues)
	if err := verifier.Verify(tr); err != nil {
		e.Log.Error("verification failed", zap.Error(err))
		return errors.Wrap(err, "election: verification")
	}
	e.Log.Info("all verifications passed", zap.String("election_id", e.Config.ElectionID))
	return nil
}

// Results returns the tally computed for each race, keyed by race id. It is
// populated once Run has passed the tallying step, including when proving or
// verification fails afterwards.
func (e *Election) Results() map[string]*tally.Result {
	return e.results
}

func (e *Election) setup() error {
	if err := e.Board.Post("setup:start", map[string]interface{}{
		"about": "split-value end-to-end verifiable election",
		"legend": []string{
			"p: voter position, rows: share index (a, b, c, ...), passes: k (A, B, ...)",
		},
	}, false); err != nil {
		return err
	}

	raceIDs := make([]interface{}, 0, len(e.Config.BallotStyle))
	for _, rs := range e.Config.BallotStyle {
		r, err := race.NewRace(rs.RaceID, rs.Choices, e.Reg)
		if err != nil {
			return errors.Wrapf(err, "race %q", rs.RaceID)
		}
		e.races[rs.RaceID] = r
		raceIDs = append(raceIDs, rs.RaceID)
	}
	if err := e.Board.Post("setup:races", map[string]interface{}{"races": raceIDs}, false); err != nil {
		return err
	}
	if err := e.Board.Post("setup:voters", map[string]interface{}{"n_voters": e.Config.NVoters}, false); err != nil {
		return err
	}

	params := mixnet.DeriveGridParams(e.Config.NFail, e.Config.NLeak)
	for _, rs := range e.Config.BallotStyle {
		r := e.races[rs.RaceID]
		s, err := mixnet.NewServer(r.ID, e.Config.NVoters, params, e.Config.NReps, r.Modulus, e.Reg)
		if err != nil {
			return errors.Wrapf(err, "race %q: server array", rs.RaceID)
		}
		e.servers[rs.RaceID] = s
	}
	if err := e.Board.Post("setup:server-array", map[string]interface{}{
		"rows": params.Rows, "cols": params.Cols, "threshold": params.Threshold, "n_reps": e.Config.NReps,
	}, false); err != nil {
		return err
	}
	return e.Board.Post("setup:finished", nil, true)
}

func (e *Election) castVotes() error {
	posted := map[string]interface{}{}
	for _, rs := range e.Config.BallotStyle {
		r := e.races[rs.RaceID]
		s := e.servers[rs.RaceID]
		rows := make([][]voter.RowCell, e.Config.NVoters)
		postedRows := make([]interface{}, e.Config.NVoters)
		for p := 0; p < e.Config.NVoters; p++ {
			voterName := fmt.Sprintf("voter:p%d", p)
			if !e.Reg.Has(voterName) {
				if err := e.Reg.Init(voterName, nil, false); err != nil {
					return errors.Wrapf(err, "race %q position %d: voter source", rs.RaceID, p)
				}
			}
			choice, err := race.RandomChoice(r, voterName, e.Reg)
			if err != nil {
				return errors.Wrapf(err, "race %q position %d: choosing", rs.RaceID, p)
			}
			cv, err := voter.Cast(r, choice, voterName, s.Rows, s.Threshold, e.Config.BallotIDLen, e.Reg)
			if err != nil {
				return errors.Wrapf(err, "race %q position %d: casting", rs.RaceID, p)
			}
			rows[p] = cv.Rows
			for i, rc := range cv.Rows {
				s.SetInput(i, p, rc.X)
			}
			postedRows[p] = cv.Posted()
		}
		e.votes[rs.RaceID] = rows
		posted[rs.RaceID] = postedRows
	}
	return e.Board.Post("casting:votes", posted, true)
}

func (e *Election) mix() error {
	for raceID, s := range e.servers {
		if err := s.Mix(); err != nil {
			return errors.Wrapf(err, "race %q", raceID)
		}
	}
	return nil
}

func (e *Election) tallyAll() error {
	posted := map[string]interface{}{}
	for raceID, r := range e.races {
		s := e.servers[raceID]
		result, err := tally.Compute(r, s)
		if err != nil {
			return errors.Wrapf(err, "race %q", raceID)
		}
		e.results[raceID] = result
		posted[raceID] = result.Counts
	}
	return e.Board.Post("tally:results", posted, true)
}

func (e *Election) prove() (*prover.Challenges, map[string]prover.TValues, error) {
	outputPosted := map[string]interface{}{}
	for raceID, s := range e.servers {
		last := s.Cols - 1
		entries := make([]interface{}, 0, s.NReps*s.NVoters*s.Rows)
		for k := 0; k < s.NReps; k++ {
			for i := 0; i < s.Rows; i++ {
				cell := s.Grid[k][last][i]
				entries = append(entries, map[string]interface{}{"cu": cell.CU, "cv": cell.CV})
			}
		}
		outputPosted[raceID] = entries
	}
	if err := e.Board.Post("proof:output_commitments", outputPosted, true); err != nil {
		return nil, nil, err
	}

	tValues := make(map[string]prover.TValues, len(e.servers))
	tPosted := map[string]interface{}{}
	for raceID, s := range e.servers {
		tv := prover.ComputeTValues(s, e.votes[raceID])
		tValues[raceID] = tv
		tPosted[raceID] = tv
	}
	if err := e.Board.Post("proof:output_commitment_t_values", tPosted, true); err != nil {
		return nil, nil, err
	}

	raceIDs := make([]string, 0, len(e.races))
	for id := range e.races {
		raceIDs = append(raceIDs, id)
	}
	upTo := len(e.Board.Entries)
	h, err := e.Board.HashThrough(upTo, e.Config.IndentString())
	if err != nil {
		return nil, nil, err
	}
	nReps := e.Config.NReps
	challenges, err := prover.DeriveChallenges(h, raceIDs, e.Config.NVoters, nReps, e.Reg)
	if err != nil {
		return nil, nil, err
	}
	if err := e.Board.Post("proof:verifier_challenges", map[string]interface{}{
		"sbb_hash": primitives.BytesToHex(challenges.SBBHash[:]),
		"icl":      challenges.ICL,
		"opl":      challenges.OPL,
	}, true); err != nil {
		return nil, nil, err
	}

	outcomePosted := map[string]interface{}{}
	for raceID, s := range e.servers {
		perPass := map[string]interface{}{}
		for _, k := range challenges.OPL {
			perPass[fmt.Sprint(k)] = prover.OutcomeOpenings(s, k)
		}
		outcomePosted[raceID] = perPass
	}
	if err := e.Board.Post("proof:outcome_check", outcomePosted, true); err != nil {
		return nil, nil, err
	}

	inputOpenPosted := map[string]interface{}{}
	outputOpenPosted := map[string]interface{}{}
	pikPosted := map[string]interface{}{}
	for raceID, s := range e.servers {
		inputOpenPosted[raceID] = prover.InputOpenings(e.votes[raceID], challenges, raceID)
		perPassOut := map[string]interface{}{}
		perPassPik := map[string]interface{}{}
		for _, k := range challenges.ICL {
			perPassOut[fmt.Sprint(k)] = prover.OutputOpenings(s, challenges, raceID, k)
			perPassPik[fmt.Sprint(k)] = prover.PikMap(s, k)
		}
		outputOpenPosted[raceID] = perPassOut
		pikPosted[raceID] = perPassPik
	}
	if err := e.Board.Post("proof:input_consistency:input_openings", inputOpenPosted, true); err != nil {
		return nil, nil, err
	}
	if err := e.Board.Post("proof:input_consistency:output_openings", outputOpenPosted, true); err != nil {
		return nil, nil, err
	}
	if err := e.Board.Post("proof:input_consistency:pik_for_k_in_icl", pikPosted, true); err != nil {
		return nil, nil, err
	}

	return challenges, tValues, nil
}

// transcript assembles the verifier.Transcript view of this election's
// in-memory state, standing in for a full re-parse of the posted JSON board.
func (e *Election) transcript(challenges *prover.Challenges, tValues map[string]prover.TValues) *verifier.Transcript {
	races := make(map[string]*verifier.RaceMaterial, len(e.races))
	for raceID, r := range e.races {
		races[raceID] = &verifier.RaceMaterial{
			Race:        r,
			Server:      e.servers[raceID],
			CastVotes:   e.votes[raceID],
			TValues:     tValues[raceID],
			PostedTally: e.results[raceID],
		}
	}
	return &verifier.Transcript{
		Board:           e.Board,
		ChallengeUpTo:   e.Board.IndexOf("proof:verifier_challenges"),
		JSONIndent:      e.Config.IndentString(),
		Races:           races,
		PostedChallenge: challenges,
	}
}
