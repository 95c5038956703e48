package election

import "testing"

func sampleConfig() *Config {
	return &Config{
		ElectionID: "e1",
		BallotStyle: []RaceStyle{
			{RaceID: "taxes", Choices: []string{"yes", "no"}},
		},
		NVoters:     3,
		NReps:       4,
		NFail:       1,
		NLeak:       1,
		BallotIDLen: 32,
	}
}

func TestLoadConfigAppliesDefaultsAndValidates(t *testing.T) {
	data := []byte(`{
		"election_id": "e1",
		"ballot_style": [{"race_id": "taxes", "choices": ["yes", "no"]}],
		"n_voters": 3,
		"n_reps": 4,
		"n_fail": 1,
		"n_leak": 1
	}`)
	cfg, err := LoadConfig(data)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BallotIDLen != defaultBallotIDLen {
		t.Errorf("expected default ballot_id_len, got %d", cfg.BallotIDLen)
	}
}

func TestConfigRejectsOddReps(t *testing.T) {
	cfg := sampleConfig()
	cfg.NReps = 3
	if err := cfg.Validate(); err != ErrOddReps {
		t.Errorf("expected ErrOddReps, got %v", err)
	}
}

func TestConfigRejectsDuplicateRaces(t *testing.T) {
	cfg := sampleConfig()
	cfg.BallotStyle = append(cfg.BallotStyle, RaceStyle{RaceID: "taxes", Choices: []string{"a", "b"}})
	if err := cfg.Validate(); err != ErrDuplicateRace {
		t.Errorf("expected ErrDuplicateRace, got %v", err)
	}
}

func TestRunProducesVerifiableElection(t *testing.T) {
	cfg := sampleConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	e := New(cfg, nil)
	if err := e.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestRunIsReproducibleUnderFreshRegistry(t *testing.T) {
	cfg := sampleConfig()
	e1 := New(cfg, nil)
	if err := e1.Run(); err != nil {
		t.Fatalf("first run: %v", err)
	}
	e2 := New(cfg, nil)
	if err := e2.Run(); err != nil {
		t.Fatalf("second run: %v", err)
	}
	h1, err := e1.Board.HashThrough(len(e1.Board.Entries), cfg.IndentString())
	if err != nil {
		t.Fatal(err)
	}
	h2, err := e2.Board.HashThrough(len(e2.Board.Entries), cfg.IndentString())
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("two runs with identical default seeding produced different transcripts")
	}
}
