package readiness

// Level is the severity of a readiness verdict or of a single reason.
type Level string

const (
	Clear   Level = "CLEAR"
	Warning Level = "WARNING"
	Blocked Level = "BLOCKED"
)

var levelRank = map[Level]int{Clear: 0, Warning: 1, Blocked: 2}

// Max returns the more severe of the two levels.
func (l Level) Max(other Level) Level {
	if levelRank[other] > levelRank[l] {
		return other
	}
	return l
}

// Category tags a readiness reason with the documentation area it came from.
type Category string

const (
	CategoryPlanning  Category = "planning"
	CategoryConsent   Category = "consent"
	CategoryNursing   Category = "nursing"
	CategoryChecklist Category = "checklist"
	CategoryTimeline  Category = "timeline"
)

// Reason is one non-clear finding for a case, tagged with its category and
// the severity it carries for the evaluated transition.
type Reason struct {
	Category Category `json:"category"`
	Severity Level    `json:"severity"`
	Message  string   `json:"message"`
}

// Verdict is the aggregate readiness judgment for one case and one target
// transition. Level is the max severity across all reasons.
type Verdict struct {
	Level   Level    `json:"level"`
	Reasons []Reason `json:"reasons"`
}

// BlockingReasons returns only the hard-blocking subset of the reasons.
func (v *Verdict) BlockingReasons() []Reason {
	var out []Reason
	for _, r := range v.Reasons {
		if r.Severity == Blocked {
			out = append(out, r)
		}
	}
	return out
}
