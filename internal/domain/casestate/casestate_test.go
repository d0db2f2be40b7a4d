package casestate

import "testing"

func TestNext_Order(t *testing.T) {
	steps := []struct {
		from Status
		want Status
	}{
		{Scheduled, InPrep},
		{InPrep, InTheater},
		{InTheater, Recovery},
		{Recovery, Completed},
	}
	for _, s := range steps {
		got, ok := s.from.Next()
		if !ok {
			t.Fatalf("expected successor for %s", s.from)
		}
		if got != s.want {
			t.Errorf("next of %s: expected %s, got %s", s.from, s.want, got)
		}
	}
}

func TestNext_Terminal(t *testing.T) {
	if _, ok := Completed.Next(); ok {
		t.Error("expected no successor for COMPLETED")
	}
	if !Completed.Terminal() {
		t.Error("expected COMPLETED to be terminal")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse("CANCELLED"); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestParse_Valid(t *testing.T) {
	s, err := Parse("IN_THEATER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s != InTheater {
		t.Errorf("expected IN_THEATER, got %s", s)
	}
}
