package dayboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/checklist"
	"github.com/clinops/clinops/internal/domain/readiness"
	"github.com/clinops/clinops/internal/domain/surgery"
	"github.com/clinops/clinops/internal/domain/timeline"
)

type stubLister struct{ cases []*surgery.SurgicalCase }

func (s *stubLister) ListByDate(context.Context, time.Time, *uuid.UUID) ([]*surgery.SurgicalCase, error) {
	return s.cases, nil
}

type stubChecklists struct{ failFor map[uuid.UUID]bool }

func (s *stubChecklists) Status(_ context.Context, caseID uuid.UUID) (*checklist.CaseStatus, error) {
	if s.failFor[caseID] {
		return nil, errors.New("checklist store unavailable")
	}
	return &checklist.CaseStatus{CaseID: caseID}, nil
}

type stubTimelines struct{ orMinutes map[uuid.UUID]int }

func (s *stubTimelines) View(_ context.Context, caseID uuid.UUID, _ casestate.Status) (*timeline.View, error) {
	durations := map[string]*int{"or_minutes": nil}
	if mins, ok := s.orMinutes[caseID]; ok {
		durations["or_minutes"] = &mins
	}
	return &timeline.View{CaseID: caseID, Durations: durations}, nil
}

type stubReadiness struct{}

func (stubReadiness) Evaluate(context.Context, uuid.UUID, casestate.Status) (*readiness.Verdict, error) {
	return &readiness.Verdict{Level: readiness.Clear}, nil
}

func boardCase(theaterID *uuid.UUID, status casestate.Status) *surgery.SurgicalCase {
	return &surgery.SurgicalCase{
		ID:               uuid.New(),
		PatientID:        uuid.New(),
		PrimarySurgeonID: uuid.New(),
		TheaterID:        theaterID,
		Status:           status,
		ScheduledDate:    time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC),
	}
}

func TestBuild_GroupsByTheaterAndCounts(t *testing.T) {
	theaterA, theaterB := uuid.New(), uuid.New()
	cases := []*surgery.SurgicalCase{
		boardCase(&theaterA, casestate.Scheduled),
		boardCase(&theaterA, casestate.InTheater),
		boardCase(&theaterB, casestate.Scheduled),
		boardCase(nil, casestate.Completed),
	}
	svc := NewService(&stubLister{cases: cases}, &stubChecklists{}, &stubTimelines{},
		stubReadiness{}, 15*time.Minute, zerolog.Nop())

	board, err := svc.Build(context.Background(), cases[0].ScheduledDate, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.TotalCases != 4 {
		t.Fatalf("total = %d, want 4", board.TotalCases)
	}
	if len(board.Theaters) != 3 {
		t.Fatalf("theater groups = %d, want 3 (two theaters plus unassigned)", len(board.Theaters))
	}
	if board.StatusCounts[casestate.Scheduled] != 2 || board.StatusCounts[casestate.InTheater] != 1 {
		t.Fatalf("status counts = %v", board.StatusCounts)
	}
}

func TestBuild_ORUtilization(t *testing.T) {
	a, b := boardCase(nil, casestate.Completed), boardCase(nil, casestate.Completed)
	c := boardCase(nil, casestate.InPrep) // no OR time yet
	timelines := &stubTimelines{orMinutes: map[uuid.UUID]int{a.ID: 120, b.ID: 60}}

	svc := NewService(&stubLister{cases: []*surgery.SurgicalCase{a, b, c}},
		&stubChecklists{}, timelines, stubReadiness{}, 15*time.Minute, zerolog.Nop())

	board, err := svc.Build(context.Background(), a.ScheduledDate, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.ORMinutesSum != 180 {
		t.Fatalf("sum = %d, want 180", board.ORMinutesSum)
	}
	if board.ORMinutesAvg != 90 {
		t.Fatalf("avg = %v, want 90 across cases with OR time", board.ORMinutesAvg)
	}
}

func TestBuild_DelayedStarts(t *testing.T) {
	scheduled := time.Date(2024, 3, 12, 8, 0, 0, 0, time.UTC)
	onTime := scheduled.Add(10 * time.Minute)
	late := scheduled.Add(25 * time.Minute)

	a := boardCase(nil, casestate.InTheater)
	a.ScheduledStart, a.ActualStart = &scheduled, &onTime
	b := boardCase(nil, casestate.InTheater)
	b.ScheduledStart, b.ActualStart = &scheduled, &late

	svc := NewService(&stubLister{cases: []*surgery.SurgicalCase{a, b}},
		&stubChecklists{}, &stubTimelines{}, stubReadiness{}, 15*time.Minute, zerolog.Nop())

	board, err := svc.Build(context.Background(), a.ScheduledDate, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if board.DelayedStarts != 1 {
		t.Fatalf("delayed = %d, want 1 (only the 25-minute start)", board.DelayedStarts)
	}
}

// One case's snapshot failing must degrade that case alone, never the board.
func TestBuild_PerCaseFallback(t *testing.T) {
	good, bad := boardCase(nil, casestate.Scheduled), boardCase(nil, casestate.Scheduled)
	checklists := &stubChecklists{failFor: map[uuid.UUID]bool{bad.ID: true}}

	svc := NewService(&stubLister{cases: []*surgery.SurgicalCase{good, bad}},
		checklists, &stubTimelines{}, stubReadiness{}, 15*time.Minute, zerolog.Nop())

	board, err := svc.Build(context.Background(), good.ScheduledDate, nil)
	if err != nil {
		t.Fatalf("Build must not fail on a per-case error: %v", err)
	}
	snaps := board.Theaters[0].Cases
	if len(snaps) != 2 {
		t.Fatalf("snapshots = %d, want both cases rendered", len(snaps))
	}
	var goodSnap, badSnap *CaseSnapshot
	for _, s := range snaps {
		if s.Case.ID == good.ID {
			goodSnap = s
		} else {
			badSnap = s
		}
	}
	if goodSnap.SnapshotError != "" || goodSnap.Checklist == nil {
		t.Fatalf("healthy case degraded: %+v", goodSnap)
	}
	if badSnap.SnapshotError == "" || badSnap.Checklist != nil {
		t.Fatalf("failing case should carry a snapshot error: %+v", badSnap)
	}
}
