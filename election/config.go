// Package election orchestrates one full run of the protocol: setup, voter
// casting, mixing, tallying, proving and verifying, posting every SBB header
// in the exact order the external interface requires.
package election

import (
	"encoding/json"
	"errors"
)

var (
	// ErrNoElectionID is returned when the config omits an election id.
	ErrNoElectionID = errors.New("election: election_id is required")

	// ErrNoVoters is returned when n_voters <= 0.
	ErrNoVoters = errors.New("election: n_voters must be > 0")

	// ErrOddReps is returned when n_reps is odd or outside [2, 26].
	ErrOddReps = errors.New("election: n_reps must be an even integer in [2, 26]")

	// ErrNegativeTolerance is returned when n_fail or n_leak is negative.
	ErrNegativeTolerance = errors.New("election: n_fail and n_leak must be >= 0")

	// ErrDuplicateRace is returned when ballot_style has repeated race ids.
	ErrDuplicateRace = errors.New("election: duplicate race id in ballot_style")

	// ErrNoRaces is returned when ballot_style is empty.
	ErrNoRaces = errors.New("election: ballot_style must list at least one race")
)

// RaceStyle is one (race_id, choices) entry of the ballot style.
type RaceStyle struct {
	RaceID  string   `json:"race_id"`
	Choices []string `json:"choices"`
}

// Config is the election-parameters record, decoded from
// "<election_id>.parameters.txt".
type Config struct {
	ElectionID  string      `json:"election_id"`
	BallotStyle []RaceStyle `json:"ballot_style"`
	NVoters     int         `json:"n_voters"`
	NReps       int         `json:"n_reps"`
	NFail       int         `json:"n_fail"`
	NLeak       int         `json:"n_leak"`
	BallotIDLen int         `json:"ballot_id_len"`
	JSONIndent  *int        `json:"json_indent"`
}

const defaultBallotIDLen = 32

// LoadConfig decodes a Config from raw JSON and applies defaults, then
// validates it.
func LoadConfig(data []byte) (*Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.BallotIDLen == 0 {
		c.BallotIDLen = defaultBallotIDLen
	}
}

// Validate enforces the Config error kind checks.
func (c *Config) Validate() error {
	if c.ElectionID == "" {
		return ErrNoElectionID
	}
	if c.NVoters <= 0 {
		return ErrNoVoters
	}
	if c.NReps < 2 || c.NReps > 26 || c.NReps%2 != 0 {
		return ErrOddReps
	}
	if c.NFail < 0 || c.NLeak < 0 {
		return ErrNegativeTolerance
	}
	if len(c.BallotStyle) == 0 {
		return ErrNoRaces
	}
	seen := make(map[string]bool, len(c.BallotStyle))
	for _, rs := range c.BallotStyle {
		if seen[rs.RaceID] {
			return ErrDuplicateRace
		}
		seen[rs.RaceID] = true
	}
	return nil
}

// IndentString resolves JSONIndent to the literal indent string Canonical
// expects: nil or 0 means compact (no whitespace), matching this
// implementation's resolution of the source material's json_indent=null
// ambiguity.
func (c *Config) IndentString() string {
	if c.JSONIndent == nil || *c.JSONIndent <= 0 {
		return ""
	}
	out := make([]byte, *c.JSONIndent)
	for i := range out {
		out[i] = ' '
	}
	return string(out)
}
