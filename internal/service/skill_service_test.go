package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/luminlms/assessment-engine/internal/model"
)

type fakeCriteriaLister struct {
	criteria []model.SkillCriterion
}

func (f *fakeCriteriaLister) ListSkillCriteria(_ context.Context, _ uuid.UUID) ([]model.SkillCriterion, error) {
	return f.criteria, nil
}

type fakeAttainments struct {
	held map[uuid.UUID]model.SkillAttainment // keyed by skill ID, single user
}

func newFakeAttainments() *fakeAttainments {
	return &fakeAttainments{held: make(map[uuid.UUID]model.SkillAttainment)}
}

func (f *fakeAttainments) RecordAttainment(_ context.Context, a *model.SkillAttainment) (bool, error) {
	if _, ok := f.held[a.SkillID]; ok {
		return false, nil
	}
	f.held[a.SkillID] = *a
	return true, nil
}

func (f *fakeAttainments) ListByUser(_ context.Context, _ uuid.UUID) ([]model.SkillAttainment, error) {
	out := make([]model.SkillAttainment, 0, len(f.held))
	for _, a := range f.held {
		out = append(out, a)
	}
	return out, nil
}

func TestSkillService_AggregateGrantsSatisfiedCriteria(t *testing.T) {
	above := uuid.New()
	below := uuid.New()
	lister := &fakeCriteriaLister{criteria: []model.SkillCriterion{
		{SkillID: above, Rule: model.RuleGreaterThan, ThresholdPercent: 60},
		{SkillID: below, Rule: model.RuleGreaterThan, ThresholdPercent: 90},
	}}
	attainments := newFakeAttainments()
	svc := NewSkillService(lister, attainments)

	task := SkillAggregateTask{
		SubmissionID: uuid.New(),
		AssessmentID: uuid.New(),
		UserID:       uuid.New(),
		Percentage:   75,
	}
	granted, err := svc.Aggregate(context.Background(), task)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	if len(granted) != 1 {
		t.Fatalf("granted = %d, want 1", len(granted))
	}
	if granted[0].SkillID != above {
		t.Errorf("granted skill = %s, want %s", granted[0].SkillID, above)
	}
	if granted[0].EvidenceSubmissionID != task.SubmissionID {
		t.Errorf("evidence = %s, want %s", granted[0].EvidenceSubmissionID, task.SubmissionID)
	}
	if _, ok := attainments.held[below]; ok {
		t.Error("unsatisfied criterion must not grant the skill")
	}
}

func TestSkillService_AggregateLessThanRule(t *testing.T) {
	skillID := uuid.New()
	lister := &fakeCriteriaLister{criteria: []model.SkillCriterion{
		{SkillID: skillID, Rule: model.RuleLessThan, ThresholdPercent: 40},
	}}
	svc := NewSkillService(lister, newFakeAttainments())

	granted, err := svc.Aggregate(context.Background(), SkillAggregateTask{
		SubmissionID: uuid.New(),
		UserID:       uuid.New(),
		Percentage:   25,
	})
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if len(granted) != 1 || granted[0].SkillID != skillID {
		t.Errorf("granted = %+v, want the LESS_THAN skill", granted)
	}
}

// Attainment is monotonic: re-satisfying a criterion on a later attempt
// keeps the original evidence and grants nothing new.
func TestSkillService_AggregateIsMonotonic(t *testing.T) {
	skillID := uuid.New()
	lister := &fakeCriteriaLister{criteria: []model.SkillCriterion{
		{SkillID: skillID, Rule: model.RuleGreaterThan, ThresholdPercent: 50},
	}}
	attainments := newFakeAttainments()
	svc := NewSkillService(lister, attainments)
	userID := uuid.New()

	firstEvidence := uuid.New()
	granted, err := svc.Aggregate(context.Background(), SkillAggregateTask{
		SubmissionID: firstEvidence, UserID: userID, Percentage: 80,
	})
	if err != nil || len(granted) != 1 {
		t.Fatalf("first Aggregate: granted %d, err %v", len(granted), err)
	}

	granted, err = svc.Aggregate(context.Background(), SkillAggregateTask{
		SubmissionID: uuid.New(), UserID: userID, Percentage: 95,
	})
	if err != nil {
		t.Fatalf("second Aggregate: %v", err)
	}
	if len(granted) != 0 {
		t.Errorf("second attempt granted %d skills, want 0", len(granted))
	}
	if attainments.held[skillID].EvidenceSubmissionID != firstEvidence {
		t.Error("original evidence must survive a later satisfying attempt")
	}
}
