package dayboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinops/clinops/internal/domain/casestate"
	"github.com/clinops/clinops/internal/domain/checklist"
	"github.com/clinops/clinops/internal/domain/readiness"
	"github.com/clinops/clinops/internal/domain/surgery"
	"github.com/clinops/clinops/internal/domain/timeline"
)

// CaseLister is the surgery-store surface the board reads from.
type CaseLister interface {
	ListByDate(ctx context.Context, date time.Time, theaterID *uuid.UUID) ([]*surgery.SurgicalCase, error)
}

// ChecklistReader is the checklist-store read surface.
type ChecklistReader interface {
	Status(ctx context.Context, caseID uuid.UUID) (*checklist.CaseStatus, error)
}

// TimelineReader is the timeline-store read surface.
type TimelineReader interface {
	View(ctx context.Context, caseID uuid.UUID, status casestate.Status) (*timeline.View, error)
}

// ReadinessEvaluator computes the blocker verdict for a case's next step.
type ReadinessEvaluator interface {
	Evaluate(ctx context.Context, caseID uuid.UUID, target casestate.Status) (*readiness.Verdict, error)
}

// CaseSnapshot is one case's row on the board: the case plus its checklist,
// timeline and readiness state. SnapshotError is set when part of the
// snapshot could not be computed; the rest of the board is unaffected.
type CaseSnapshot struct {
	Case          *surgery.SurgicalCase `json:"case"`
	Checklist     *checklist.CaseStatus `json:"checklist,omitempty"`
	Timeline      *timeline.View        `json:"timeline,omitempty"`
	Readiness     *readiness.Verdict    `json:"readiness,omitempty"`
	DelayedStart  bool                  `json:"delayed_start"`
	SnapshotError string                `json:"snapshot_error,omitempty"`
}

// TheaterGroup is the board's per-theater slice, ordered by scheduled start.
type TheaterGroup struct {
	TheaterID *uuid.UUID      `json:"theater_id"`
	Cases     []*CaseSnapshot `json:"cases"`
}

// Board is the read-only operational view for one date.
type Board struct {
	Date          string                   `json:"date"`
	Theaters      []*TheaterGroup          `json:"theaters"`
	StatusCounts  map[casestate.Status]int `json:"status_counts"`
	TotalCases    int                      `json:"total_cases"`
	ORMinutesSum  int                      `json:"or_minutes_sum"`
	ORMinutesAvg  float64                  `json:"or_minutes_avg"`
	DelayedStarts int                      `json:"delayed_starts"`
}

type Service struct {
	cases      CaseLister
	checklists ChecklistReader
	timelines  TimelineReader
	readiness  ReadinessEvaluator
	delay      time.Duration
	log        zerolog.Logger
}

func NewService(
	cases CaseLister,
	checklists ChecklistReader,
	timelines TimelineReader,
	readiness ReadinessEvaluator,
	delayThreshold time.Duration,
	log zerolog.Logger,
) *Service {
	return &Service{
		cases:      cases,
		checklists: checklists,
		timelines:  timelines,
		readiness:  readiness,
		delay:      delayThreshold,
		log:        log,
	}
}

// Build composes the board for a date, optionally filtered to one theater.
// It never mutates any store, and a failure while snapshotting one case
// degrades that case only.
func (s *Service) Build(ctx context.Context, date time.Time, theaterID *uuid.UUID) (*Board, error) {
	cases, err := s.cases.ListByDate(ctx, date, theaterID)
	if err != nil {
		return nil, err
	}

	board := &Board{
		Date:         date.Format("2006-01-02"),
		StatusCounts: make(map[casestate.Status]int),
		TotalCases:   len(cases),
	}

	var orCases int
	groups := make(map[uuid.UUID]*TheaterGroup)
	var unassigned *TheaterGroup
	for _, sc := range cases {
		snap := s.snapshot(ctx, sc)
		board.StatusCounts[sc.Status]++
		if snap.DelayedStart {
			board.DelayedStarts++
		}
		if snap.Timeline != nil {
			if mins := snap.Timeline.Durations["or_minutes"]; mins != nil {
				board.ORMinutesSum += *mins
				orCases++
			}
		}

		if sc.TheaterID == nil {
			if unassigned == nil {
				unassigned = &TheaterGroup{}
				board.Theaters = append(board.Theaters, unassigned)
			}
			unassigned.Cases = append(unassigned.Cases, snap)
			continue
		}
		g, ok := groups[*sc.TheaterID]
		if !ok {
			g = &TheaterGroup{TheaterID: sc.TheaterID}
			groups[*sc.TheaterID] = g
			board.Theaters = append(board.Theaters, g)
		}
		g.Cases = append(g.Cases, snap)
	}
	if orCases > 0 {
		board.ORMinutesAvg = float64(board.ORMinutesSum) / float64(orCases)
	}
	return board, nil
}

func (s *Service) snapshot(ctx context.Context, sc *surgery.SurgicalCase) *CaseSnapshot {
	snap := &CaseSnapshot{Case: sc, DelayedStart: s.delayedStart(sc)}

	cs, err := s.checklists.Status(ctx, sc.ID)
	if err != nil {
		s.fallback(snap, sc.ID, "checklist", err)
	} else {
		snap.Checklist = cs
	}

	tv, err := s.timelines.View(ctx, sc.ID, sc.Status)
	if err != nil {
		s.fallback(snap, sc.ID, "timeline", err)
	} else {
		snap.Timeline = tv
	}

	if next, ok := sc.Status.Next(); ok {
		verdict, err := s.readiness.Evaluate(ctx, sc.ID, next)
		if err != nil {
			s.fallback(snap, sc.ID, "readiness", err)
		} else {
			snap.Readiness = verdict
		}
	} else {
		snap.Readiness = &readiness.Verdict{Level: readiness.Clear}
	}
	return snap
}

func (s *Service) fallback(snap *CaseSnapshot, caseID uuid.UUID, part string, err error) {
	s.log.Warn().Err(err).Str("case_id", caseID.String()).Str("part", part).
		Msg("dayboard snapshot degraded")
	snap.SnapshotError = "snapshot partially unavailable"
}

func (s *Service) delayedStart(sc *surgery.SurgicalCase) bool {
	if sc.ScheduledStart == nil || sc.ActualStart == nil {
		return false
	}
	return sc.ActualStart.After(sc.ScheduledStart.Add(s.delay))
}
