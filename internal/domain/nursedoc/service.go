package nursedoc

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Doc returns the nursing document for a case phase. An untouched phase
// reads as status NONE.
func (s *Service) Doc(ctx context.Context, caseID uuid.UUID, phase Phase) (*NursingDoc, error) {
	if !validPhases[phase] {
		return nil, fmt.Errorf("unknown nursing phase: %s", phase)
	}
	d, err := s.repo.GetDoc(ctx, caseID, phase)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return &NursingDoc{CaseID: caseID, Phase: phase, Status: StatusNone}, nil
	}
	return d, nil
}

func (s *Service) Docs(ctx context.Context, caseID uuid.UUID) ([]*NursingDoc, error) {
	stored, err := s.repo.ListDocs(ctx, caseID)
	if err != nil {
		return nil, err
	}
	byPhase := make(map[Phase]*NursingDoc, len(stored))
	for _, d := range stored {
		byPhase[d.Phase] = d
	}
	out := make([]*NursingDoc, 0, 3)
	for _, phase := range []Phase{PreOp, IntraOp, Recovery} {
		if d, ok := byPhase[phase]; ok {
			out = append(out, d)
			continue
		}
		out = append(out, &NursingDoc{CaseID: caseID, Phase: phase, Status: StatusNone})
	}
	return out, nil
}

func (s *Service) UpsertDoc(ctx context.Context, d *NursingDoc) error {
	if d.CaseID == uuid.Nil {
		return fmt.Errorf("case_id is required")
	}
	if !validPhases[d.Phase] {
		return fmt.Errorf("unknown nursing phase: %s", d.Phase)
	}
	if !validStatuses[d.Status] {
		return fmt.Errorf("invalid status: %s", d.Status)
	}
	if d.Discrepancy && d.Phase != IntraOp {
		return fmt.Errorf("discrepancy flag only applies to the INTRA_OP phase")
	}
	if d.DischargeReady && d.Phase != Recovery {
		return fmt.Errorf("discharge_ready only applies to the RECOVERY phase")
	}
	if d.PhotoCount < 0 {
		return fmt.Errorf("photo_count must not be negative")
	}
	d.UpdatedAt = s.now()
	return s.repo.UpsertDoc(ctx, d)
}

// Note returns the operative note status. An unrecorded note reads as NONE.
func (s *Service) Note(ctx context.Context, caseID uuid.UUID) (*OperativeNote, error) {
	n, err := s.repo.GetNote(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return &OperativeNote{CaseID: caseID, Status: StatusNone}, nil
	}
	return n, nil
}

func (s *Service) UpsertNote(ctx context.Context, n *OperativeNote) error {
	if n.CaseID == uuid.Nil {
		return fmt.Errorf("case_id is required")
	}
	if !validStatuses[n.Status] {
		return fmt.Errorf("invalid status: %s", n.Status)
	}
	n.UpdatedAt = s.now()
	return s.repo.UpsertNote(ctx, n)
}
