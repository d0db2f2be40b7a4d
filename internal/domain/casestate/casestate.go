// Package casestate defines the canonical surgical case status enum and the
// forward-only transition order shared by all pipeline components.
package casestate

import "fmt"

// Status is a surgical case pipeline status.
type Status string

const (
	Scheduled Status = "SCHEDULED"
	InPrep    Status = "IN_PREP"
	InTheater Status = "IN_THEATER"
	Recovery  Status = "RECOVERY"
	Completed Status = "COMPLETED"
)

// pipeline is the linear, forward-only status order. Cancellation and holds
// are handled outside this core and never pass through here.
var pipeline = []Status{Scheduled, InPrep, InTheater, Recovery, Completed}

// Valid reports whether s is one of the defined statuses.
func (s Status) Valid() bool {
	for _, p := range pipeline {
		if p == s {
			return true
		}
	}
	return false
}

// Next returns the single legal successor status. ok is false for COMPLETED
// (terminal) and for unknown statuses.
func (s Status) Next() (Status, bool) {
	for i, p := range pipeline {
		if p == s && i+1 < len(pipeline) {
			return pipeline[i+1], true
		}
	}
	return "", false
}

// Index returns the position of s in the pipeline, or -1 if unknown.
func (s Status) Index() int {
	for i, p := range pipeline {
		if p == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether s is the terminal pipeline status.
func (s Status) Terminal() bool { return s == Completed }

// Parse validates a raw status string.
func Parse(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown case status: %q", raw)
	}
	return s, nil
}

// All returns the pipeline statuses in order.
func All() []Status {
	out := make([]Status, len(pipeline))
	copy(out, pipeline)
	return out
}
