package timeline

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/clinops/clinops/internal/domain/casestate"
)

// Field names one operative timeline timestamp.
type Field string

const (
	WheelsIn        Field = "wheels_in"
	AnesthesiaStart Field = "anesthesia_start"
	Incision        Field = "incision"
	Closure         Field = "closure"
	AnesthesiaEnd   Field = "anesthesia_end"
	WheelsOut       Field = "wheels_out"
	RecoveryIn      Field = "recovery_in"
	RecoveryOut     Field = "recovery_out"
)

// fieldOrder is the canonical chronological chain. Present fields must be
// non-decreasing along this order; violations are rejected at write time.
var fieldOrder = []Field{
	WheelsIn, AnesthesiaStart, Incision, Closure,
	AnesthesiaEnd, WheelsOut, RecoveryIn, RecoveryOut,
}

// Fields returns the canonical field list in chronological order.
func Fields() []Field {
	out := make([]Field, len(fieldOrder))
	copy(out, fieldOrder)
	return out
}

// Valid reports whether f is a recognized timeline field.
func (f Field) Valid() bool {
	for _, known := range fieldOrder {
		if known == f {
			return true
		}
	}
	return false
}

// Record maps to the operative_timeline table. One row per case; every field
// is individually nullable and individually settable.
type Record struct {
	CaseID          uuid.UUID  `db:"case_id" json:"case_id"`
	WheelsIn        *time.Time `db:"wheels_in" json:"wheels_in,omitempty"`
	AnesthesiaStart *time.Time `db:"anesthesia_start" json:"anesthesia_start,omitempty"`
	Incision        *time.Time `db:"incision" json:"incision,omitempty"`
	Closure         *time.Time `db:"closure" json:"closure,omitempty"`
	AnesthesiaEnd   *time.Time `db:"anesthesia_end" json:"anesthesia_end,omitempty"`
	WheelsOut       *time.Time `db:"wheels_out" json:"wheels_out,omitempty"`
	RecoveryIn      *time.Time `db:"recovery_in" json:"recovery_in,omitempty"`
	RecoveryOut     *time.Time `db:"recovery_out" json:"recovery_out,omitempty"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// Get returns the timestamp stored for a field, or nil.
func (r *Record) Get(f Field) *time.Time {
	switch f {
	case WheelsIn:
		return r.WheelsIn
	case AnesthesiaStart:
		return r.AnesthesiaStart
	case Incision:
		return r.Incision
	case Closure:
		return r.Closure
	case AnesthesiaEnd:
		return r.AnesthesiaEnd
	case WheelsOut:
		return r.WheelsOut
	case RecoveryIn:
		return r.RecoveryIn
	case RecoveryOut:
		return r.RecoveryOut
	}
	return nil
}

func (r *Record) set(f Field, t time.Time) {
	ts := t
	switch f {
	case WheelsIn:
		r.WheelsIn = &ts
	case AnesthesiaStart:
		r.AnesthesiaStart = &ts
	case Incision:
		r.Incision = &ts
	case Closure:
		r.Closure = &ts
	case AnesthesiaEnd:
		r.AnesthesiaEnd = &ts
	case WheelsOut:
		r.WheelsOut = &ts
	case RecoveryIn:
		r.RecoveryIn = &ts
	case RecoveryOut:
		r.RecoveryOut = &ts
	}
}

// durationDef pairs the endpoint fields of one derived duration.
type durationDef struct {
	Name  string
	Start Field
	End   Field
}

var durationDefs = []durationDef{
	{"or_minutes", WheelsIn, WheelsOut},
	{"surgery_minutes", Incision, Closure},
	{"prep_minutes", WheelsIn, Incision},
	{"closeout_minutes", Closure, WheelsOut},
	{"anesthesia_minutes", AnesthesiaStart, AnesthesiaEnd},
	{"recovery_minutes", RecoveryIn, RecoveryOut},
}

// Durations derives the elapsed-minute metrics. A duration is nil unless both
// endpoints are present. Negative pairs cannot occur here: the ordering
// validation rejects them before they are ever persisted.
func (r *Record) Durations() map[string]*int {
	out := make(map[string]*int, len(durationDefs))
	for _, d := range durationDefs {
		start, end := r.Get(d.Start), r.Get(d.End)
		if start == nil || end == nil {
			out[d.Name] = nil
			continue
		}
		mins := int(math.Round(end.Sub(*start).Minutes()))
		out[d.Name] = &mins
	}
	return out
}

// requiredByStatus lists the fields expected to be present once a case has
// reached a given status. Absence is informational, never a hard gate.
var requiredByStatus = map[casestate.Status][]Field{
	casestate.InTheater: {WheelsIn, Incision},
	casestate.Recovery:  {WheelsIn, Incision, Closure, WheelsOut, RecoveryIn},
	casestate.Completed: {WheelsIn, Incision, Closure, WheelsOut, RecoveryIn, RecoveryOut},
}

// MissingFor reports the fields expected for the case's current status that
// have not been recorded.
func (r *Record) MissingFor(status casestate.Status) []Field {
	var missing []Field
	for _, f := range requiredByStatus[status] {
		if r.Get(f) == nil {
			missing = append(missing, f)
		}
	}
	return missing
}

// View is the read shape returned by the timeline store: raw fields plus
// derived durations and status-relative missing items.
type View struct {
	CaseID       uuid.UUID             `json:"case_id"`
	Fields       map[Field]*time.Time  `json:"fields"`
	Durations    map[string]*int       `json:"durations"`
	MissingItems []Field               `json:"missing_items"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// NewView builds the read shape from a record and the case's current status.
func NewView(r *Record, status casestate.Status) *View {
	fields := make(map[Field]*time.Time, len(fieldOrder))
	for _, f := range fieldOrder {
		fields[f] = r.Get(f)
	}
	return &View{
		CaseID:       r.CaseID,
		Fields:       fields,
		Durations:    r.Durations(),
		MissingItems: r.MissingFor(status),
		UpdatedAt:    r.UpdatedAt,
	}
}
