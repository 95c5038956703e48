package voter

import (
	"testing"

	"github.com/svvote/splitvalue/primitives"
	"github.com/svvote/splitvalue/race"
)

func TestCastVoteSameBallotIDAcrossRows(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := race.NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	cv, err := Cast(r, "yes", "voter:p0", 5, 3, 0, reg)
	if err != nil {
		t.Fatal(err)
	}
	if len(cv.Rows) != 5 {
		t.Fatalf("expected 5 row cells, got %d", len(cv.Rows))
	}
	for _, row := range cv.Posted() {
		if row.BallotID != cv.BallotID {
			t.Errorf("posted row ballot id mismatch")
		}
	}
}

func TestCastVoteCommitmentsBindValues(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := race.NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	cv, err := Cast(r, "no", "voter:p1", 5, 3, 0, reg)
	if err != nil {
		t.Fatal(err)
	}
	for _, row := range cv.Rows {
		cu, err := primitives.Com(primitives.IntToBytes(row.U, 0), row.RU)
		if err != nil {
			t.Fatal(err)
		}
		if cu != row.CU {
			t.Errorf("cu mismatch")
		}
	}
}

func TestCastVoteRejectsInvalidChoice(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := race.NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Cast(r, "maybe", "voter:p2", 5, 3, 0, reg); err != race.ErrInvalidChoice {
		t.Errorf("expected ErrInvalidChoice, got %v", err)
	}
}

func TestPostedRowsCarryPublicFields(t *testing.T) {
	reg := primitives.NewRegistry()
	r, err := race.NewRace("taxes", []string{"yes", "no"}, reg)
	if err != nil {
		t.Fatal(err)
	}
	cv, err := Cast(r, "yes", "voter:p3", 5, 3, 0, reg)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range cv.Posted() {
		if p.CU == "" || p.CV == "" || p.BallotID == "" {
			t.Errorf("posted row missing a public field")
		}
	}
}
