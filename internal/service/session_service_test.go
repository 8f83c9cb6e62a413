package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/luminlms/assessment-engine/internal/model"
	"github.com/luminlms/assessment-engine/internal/repository"
)

// ─── In-memory fakes ─────────────────────────────────────────────────────────

type fakeAssessments struct {
	byID map[uuid.UUID]*model.Assessment
}

func (f *fakeAssessments) GetByID(_ context.Context, id uuid.UUID) (*model.Assessment, error) {
	a, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return a, nil
}

type fakeQuestions struct {
	byAssessment map[uuid.UUID][]model.Question
}

func (f *fakeQuestions) ListByAssessment(_ context.Context, assessmentID uuid.UUID) ([]model.Question, error) {
	return f.byAssessment[assessmentID], nil
}

type fakeSubmissions struct {
	byID     map[uuid.UUID]*model.Submission
	answers  map[uuid.UUID][]model.SubmissionAnswer
	saveErr  error
	closeErr error
}

func newFakeSubmissions() *fakeSubmissions {
	return &fakeSubmissions{
		byID:    make(map[uuid.UUID]*model.Submission),
		answers: make(map[uuid.UUID][]model.SubmissionAnswer),
	}
}

func (f *fakeSubmissions) StartAttempt(_ context.Context, sub *model.Submission, attemptLimit int) error {
	closed := 0
	for _, s := range f.byID {
		if s.AssessmentID != sub.AssessmentID || s.UserID != sub.UserID {
			continue
		}
		switch s.Status {
		case model.SubmissionStatusOpen:
			return repository.ErrOpenSessionExists
		case model.SubmissionStatusSubmitted, model.SubmissionStatusExpired:
			closed++
		}
	}
	if attemptLimit > 0 && closed >= attemptLimit {
		return repository.ErrRetakeExhausted
	}
	sub.ID = uuid.New()
	sub.StartedAt = time.Now()
	sub.Status = model.SubmissionStatusOpen
	stored := *sub
	f.byID[sub.ID] = &stored
	return nil
}

func (f *fakeSubmissions) CountClosed(_ context.Context, assessmentID, userID uuid.UUID) (int, error) {
	closed := 0
	for _, s := range f.byID {
		if s.AssessmentID != assessmentID || s.UserID != userID {
			continue
		}
		if s.Status == model.SubmissionStatusSubmitted || s.Status == model.SubmissionStatusExpired {
			closed++
		}
	}
	return closed, nil
}

func (f *fakeSubmissions) GetByID(_ context.Context, id uuid.UUID) (*model.Submission, error) {
	s, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *s
	return &copied, nil
}

func (f *fakeSubmissions) Close(_ context.Context, id uuid.UUID, status model.SubmissionStatus, finishedAt time.Time) (bool, error) {
	if f.closeErr != nil {
		return false, f.closeErr
	}
	s, ok := f.byID[id]
	if !ok || s.Status != model.SubmissionStatusOpen {
		return false, nil
	}
	s.Status = status
	s.FinishedAt = &finishedAt
	return true, nil
}

func (f *fakeSubmissions) MarkErrored(_ context.Context, id uuid.UUID, message string) error {
	s, ok := f.byID[id]
	if !ok || s.Status != model.SubmissionStatusOpen {
		return nil
	}
	s.Status = model.SubmissionStatusErrored
	s.IsSubmissionError = true
	s.SubmissionErrorMessage = message
	return nil
}

func (f *fakeSubmissions) SaveGradedAnswers(_ context.Context, answers []model.SubmissionAnswer) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	for _, a := range answers {
		f.answers[a.SubmissionID] = append(f.answers[a.SubmissionID], a)
	}
	return nil
}

func (f *fakeSubmissions) ListAnswers(_ context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error) {
	return f.answers[submissionID], nil
}

type fakeResults struct {
	bySubmission map[uuid.UUID]*model.Result
	createErr    error
	createCalls  int
}

func newFakeResults() *fakeResults {
	return &fakeResults{bySubmission: make(map[uuid.UUID]*model.Result)}
}

func (f *fakeResults) Create(_ context.Context, res *model.Result) error {
	f.createCalls++
	if f.createErr != nil {
		return f.createErr
	}
	if stored, ok := f.bySubmission[res.SubmissionID]; ok {
		*res = *stored
		return nil
	}
	res.ID = uuid.New()
	stored := *res
	f.bySubmission[res.SubmissionID] = &stored
	return nil
}

func (f *fakeResults) GetBySubmission(_ context.Context, submissionID uuid.UUID) (*model.Result, error) {
	res, ok := f.bySubmission[submissionID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *res
	return &copied, nil
}

type fakeBuffer struct {
	answers   map[uuid.UUID]map[uuid.UUID]model.AnswerInput
	tracked   int
	discarded int
}

func newFakeBuffer() *fakeBuffer {
	return &fakeBuffer{answers: make(map[uuid.UUID]map[uuid.UUID]model.AnswerInput)}
}

func (f *fakeBuffer) Track(_ context.Context, _ *model.Submission) error {
	f.tracked++
	return nil
}

func (f *fakeBuffer) Save(_ context.Context, sessionID uuid.UUID, a model.AnswerInput) error {
	if f.answers[sessionID] == nil {
		f.answers[sessionID] = make(map[uuid.UUID]model.AnswerInput)
	}
	f.answers[sessionID][a.QuestionID] = a
	return nil
}

func (f *fakeBuffer) All(_ context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.AnswerInput, error) {
	out := make(map[uuid.UUID]model.AnswerInput, len(f.answers[sessionID]))
	for id, a := range f.answers[sessionID] {
		out[id] = a
	}
	return out, nil
}

func (f *fakeBuffer) Discard(_ context.Context, _ *model.Submission) error {
	f.discarded++
	return nil
}

type fakeSkillQueue struct {
	tasks []SkillAggregateTask
}

func (f *fakeSkillQueue) Enqueue(_ context.Context, task SkillAggregateTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

type stubEligibility struct {
	eligible bool
}

func (s *stubEligibility) Evaluate(_ context.Context, _ *model.Assessment, _ uuid.UUID) (*EligibilityReport, error) {
	return &EligibilityReport{Eligible: s.eligible}, nil
}

// ─── Fixture ─────────────────────────────────────────────────────────────────

type sessionFixture struct {
	svc         *SessionService
	assessments *fakeAssessments
	submissions *fakeSubmissions
	results     *fakeResults
	buffer      *fakeBuffer
	skillQueue  *fakeSkillQueue
	eligibility *stubEligibility
	clock       time.Time
}

func newSessionFixture(a *model.Assessment, pool []model.Question) *sessionFixture {
	f := &sessionFixture{
		assessments: &fakeAssessments{byID: map[uuid.UUID]*model.Assessment{a.ID: a}},
		submissions: newFakeSubmissions(),
		results:     newFakeResults(),
		buffer:      newFakeBuffer(),
		skillQueue:  &fakeSkillQueue{},
		eligibility: &stubEligibility{eligible: true},
		clock:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewSessionService(
		f.assessments,
		&fakeQuestions{byAssessment: map[uuid.UUID][]model.Question{a.ID: pool}},
		f.submissions,
		f.results,
		f.eligibility,
		f.buffer,
		f.skillQueue,
	)
	f.svc.now = func() time.Time { return f.clock }
	f.svc.newRand = func() *rand.Rand { return rand.New(rand.NewSource(7)) }
	return f
}

func (f *sessionFixture) advance(d time.Duration) {
	f.clock = f.clock.Add(d)
}

func examAssessment(retake int, passPercentage float64) *model.Assessment {
	grading, _ := model.NewPercentagePassMode(passPercentage)
	return &model.Assessment{
		ID:              uuid.New(),
		Title:           "safety basics",
		Status:          model.AssessmentStatusPublished,
		DurationSeconds: 600,
		Retake:          retake,
		QuestionSet: model.QuestionSetConfig{
			ShowAll:            true,
			NegativeMarking:    0.25,
			ClampNegativeTotal: true,
		},
		Grading: grading,
	}
}

// ─── Tests ───────────────────────────────────────────────────────────────────

func TestSessionService_StartHappyPath(t *testing.T) {
	a := examAssessment(1, 50)
	pool := []model.Question{
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
	}
	f := newSessionFixture(a, pool)

	started, err := f.svc.Start(context.Background(), a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(started.Questions) != 2 {
		t.Errorf("questions = %d, want 2", len(started.Questions))
	}
	wantDeadline := f.clock.Add(600 * time.Second)
	if !started.Deadline.Equal(wantDeadline) {
		t.Errorf("Deadline = %v, want %v", started.Deadline, wantDeadline)
	}
	if f.buffer.tracked != 1 {
		t.Errorf("buffer tracked = %d, want 1", f.buffer.tracked)
	}
}

func TestSessionService_StartGates(t *testing.T) {
	userID := uuid.New()

	cases := []struct {
		name    string
		prepare func(f *sessionFixture, a *model.Assessment)
		wantErr error
	}{
		{
			"unpublished assessment refused",
			func(f *sessionFixture, a *model.Assessment) { a.Status = model.AssessmentStatusDraft },
			ErrAssessmentNotPublished,
		},
		{
			"window not yet open",
			func(f *sessionFixture, a *model.Assessment) {
				start := f.clock.Add(time.Hour)
				a.StartDate = &start
			},
			ErrOutsideTimeWindow,
		},
		{
			"window already closed",
			func(f *sessionFixture, a *model.Assessment) {
				end := f.clock.Add(-time.Hour)
				a.EndDate = &end
			},
			ErrOutsideTimeWindow,
		},
		{
			"ineligible user refused",
			func(f *sessionFixture, _ *model.Assessment) { f.eligibility.eligible = false },
			ErrNotEligible,
		},
		{
			"sample larger than pool",
			func(f *sessionFixture, a *model.Assessment) {
				a.QuestionSet.ShowAll = false
				a.QuestionSet.NoOfQuestion = 10
			},
			ErrPoolTooSmall,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := examAssessment(1, 50)
			pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
			f := newSessionFixture(a, pool)
			tc.prepare(f, a)

			_, err := f.svc.Start(context.Background(), a.ID, userID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestSessionService_StartRefusesSecondOpenSession(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	userID := uuid.New()

	if _, err := f.svc.Start(context.Background(), a.ID, userID); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	_, err := f.svc.Start(context.Background(), a.ID, userID)
	if !errors.Is(err, ErrSessionAlreadyOpen) {
		t.Errorf("err = %v, want ErrSessionAlreadyOpen", err)
	}
}

func TestSessionService_Preflight(t *testing.T) {
	a := examAssessment(1, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()
	userID := uuid.New()

	report, err := f.svc.Preflight(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("Preflight: %v", err)
	}
	if !report.Eligibility.Eligible {
		t.Error("Eligible = false, want true")
	}
	if report.Retake.AttemptsUsed != 0 || report.Retake.AttemptLimit != 2 || !report.Retake.MayAttempt {
		t.Errorf("Retake = %+v, want {0 2 true}", report.Retake)
	}

	// Burn the whole budget: two started-and-submitted attempts.
	for i := 0; i < 2; i++ {
		started, err := f.svc.Start(ctx, a.ID, userID)
		if err != nil {
			t.Fatalf("Start %d: %v", i+1, err)
		}
		if _, err := f.svc.Submit(ctx, started.SessionID, nil); err != nil {
			t.Fatalf("Submit %d: %v", i+1, err)
		}
	}

	report, err = f.svc.Preflight(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("Preflight after attempts: %v", err)
	}
	if report.Retake.AttemptsUsed != 2 || report.Retake.MayAttempt {
		t.Errorf("Retake = %+v, want {2 2 false}", report.Retake)
	}

	f.eligibility.eligible = false
	report, err = f.svc.Preflight(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("Preflight ineligible: %v", err)
	}
	if report.Eligibility.Eligible {
		t.Error("Eligible = true, want false")
	}

	if _, err := f.svc.Preflight(ctx, uuid.New(), userID); !errors.Is(err, ErrAssessmentNotFound) {
		t.Errorf("unknown assessment err = %v, want ErrAssessmentNotFound", err)
	}
}

func TestSessionService_SaveAnswer(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
	}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := f.svc.SaveAnswer(ctx, started.SessionID, correctAnswer(pool[0])); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if len(f.buffer.answers[started.SessionID]) != 1 {
		t.Errorf("buffered answers = %d, want 1", len(f.buffer.answers[started.SessionID]))
	}

	// Overwriting the same question keeps a single buffered entry.
	if err := f.svc.SaveAnswer(ctx, started.SessionID, wrongAnswer(pool[0])); err != nil {
		t.Fatalf("SaveAnswer overwrite: %v", err)
	}
	if len(f.buffer.answers[started.SessionID]) != 1 {
		t.Errorf("buffered answers after overwrite = %d, want 1", len(f.buffer.answers[started.SessionID]))
	}

	foreign := model.AnswerInput{QuestionID: uuid.New(), FreeText: "stray"}
	if err := f.svc.SaveAnswer(ctx, started.SessionID, foreign); !errors.Is(err, ErrQuestionNotInSession) {
		t.Errorf("foreign question err = %v, want ErrQuestionNotInSession", err)
	}

	if err := f.svc.SaveAnswer(ctx, uuid.New(), correctAnswer(pool[0])); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("unknown session err = %v, want ErrSessionNotFound", err)
	}

	if _, err := f.svc.Submit(ctx, started.SessionID, nil); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := f.svc.SaveAnswer(ctx, started.SessionID, correctAnswer(pool[0])); !errors.Is(err, ErrSessionAlreadyClosed) {
		t.Errorf("closed session err = %v, want ErrSessionAlreadyClosed", err)
	}
}

func TestSessionService_SubmitMergesBatchOverBuffer(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
	}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Buffer a wrong answer for Q1, then submit a batch correcting Q1 and
	// answering Q2 wrong. The batch must win per question.
	if err := f.svc.SaveAnswer(ctx, started.SessionID, wrongAnswer(pool[0])); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	batch := []model.AnswerInput{correctAnswer(pool[0]), wrongAnswer(pool[1])}

	result, err := f.svc.Submit(ctx, started.SessionID, batch)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.TotalMark != 1 {
		t.Errorf("TotalMark = %v, want 1 (batch overrides buffered Q1)", result.TotalMark)
	}
	if result.NegativeMark != 0.25 {
		t.Errorf("NegativeMark = %v, want 0.25", result.NegativeMark)
	}

	sub, _ := f.submissions.GetByID(ctx, started.SessionID)
	if sub.Status != model.SubmissionStatusSubmitted {
		t.Errorf("status = %s, want SUBMITTED", sub.Status)
	}
	if f.buffer.discarded != 1 {
		t.Errorf("buffer discarded = %d, want 1", f.buffer.discarded)
	}
}

// Full exam flow: a failed first attempt, a passing second attempt, and a
// refused third attempt once the budget of retake+1 closed sessions is spent.
func TestSessionService_RetakeFlow(t *testing.T) {
	a := examAssessment(1, 50)
	pool := []model.Question{
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
	}
	f := newSessionFixture(a, pool)
	ctx := context.Background()
	userID := uuid.New()

	// Attempt 1: Q1 correct, Q2 incorrect. Net 0.75 of 2 is 37.5%, below 50.
	first, err := f.svc.Start(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("first Start: %v", err)
	}
	result, err := f.svc.Submit(ctx, first.SessionID, []model.AnswerInput{
		correctAnswer(pool[0]), wrongAnswer(pool[1]),
	})
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if result.NetMark != 0.75 || result.Percentage != 37.5 {
		t.Errorf("first attempt: net = %v, pct = %v, want 0.75 and 37.5", result.NetMark, result.Percentage)
	}
	if result.Passed == nil || *result.Passed {
		t.Errorf("first attempt Passed = %v, want false", result.Passed)
	}

	// Attempt 2: both correct. Net 2 of 2 is 100%.
	second, err := f.svc.Start(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("second Start: %v", err)
	}
	result, err = f.svc.Submit(ctx, second.SessionID, []model.AnswerInput{
		correctAnswer(pool[0]), correctAnswer(pool[1]),
	})
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}
	if result.Percentage != 100 {
		t.Errorf("second attempt Percentage = %v, want 100", result.Percentage)
	}
	if result.Passed == nil || !*result.Passed {
		t.Errorf("second attempt Passed = %v, want true", result.Passed)
	}

	// Attempt 3: refused, budget spent.
	if _, err := f.svc.Start(ctx, a.ID, userID); !errors.Is(err, ErrRetakeExhausted) {
		t.Errorf("third Start err = %v, want ErrRetakeExhausted", err)
	}
}

func TestSessionService_SubmitIdempotent(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	batch := []model.AnswerInput{correctAnswer(pool[0])}

	first, err := f.svc.Submit(ctx, started.SessionID, batch)
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	second, err := f.svc.Submit(ctx, started.SessionID, batch)
	if err != nil {
		t.Fatalf("second Submit: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("re-submit returned a different result: %s vs %s", first.ID, second.ID)
	}
	if second.NetMark != first.NetMark || second.Percentage != first.Percentage {
		t.Errorf("re-submit changed marks: %+v vs %+v", second, first)
	}
	if len(f.results.bySubmission) != 1 {
		t.Errorf("stored results = %d, want 1", len(f.results.bySubmission))
	}
}

// Session started at T with duration 600 and a submit arriving at T+650:
// the session closes as EXPIRED and the buffered partial answers are graded;
// the late batch is discarded.
func TestSessionService_LateSubmitExpiresAndGradesBuffer(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
		choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3),
	}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := f.svc.SaveAnswer(ctx, started.SessionID, correctAnswer(pool[0])); err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}

	f.advance(650 * time.Second)

	result, err := f.svc.Submit(ctx, started.SessionID, []model.AnswerInput{correctAnswer(pool[1])})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	sub, _ := f.submissions.GetByID(ctx, started.SessionID)
	if sub.Status != model.SubmissionStatusExpired {
		t.Errorf("status = %s, want EXPIRED", sub.Status)
	}
	if result.TotalMark != 1 {
		t.Errorf("TotalMark = %v, want 1 (buffered answer graded, late batch dropped)", result.TotalMark)
	}
	if len(f.submissions.answers[started.SessionID]) != 1 {
		t.Errorf("persisted answers = %d, want 1", len(f.submissions.answers[started.SessionID]))
	}
}

func TestSessionService_StateExpiresLazily(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	state, err := f.svc.State(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Status != model.SubmissionStatusOpen {
		t.Errorf("status = %s, want OPEN", state.Status)
	}
	if state.RemainingSeconds != 600 {
		t.Errorf("RemainingSeconds = %d, want 600", state.RemainingSeconds)
	}

	f.advance(601 * time.Second)

	state, err = f.svc.State(ctx, started.SessionID)
	if err != nil {
		t.Fatalf("State after deadline: %v", err)
	}
	if state.Status != model.SubmissionStatusExpired {
		t.Errorf("status = %s, want EXPIRED", state.Status)
	}
	if _, err := f.svc.Result(ctx, started.SessionID); err != nil {
		t.Errorf("Result after lazy expiry: %v", err)
	}
}

func TestSessionService_ResultNotReadyWhileOpen(t *testing.T) {
	a := examAssessment(0, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()

	started, err := f.svc.Start(ctx, a.ID, uuid.New())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := f.svc.Result(ctx, started.SessionID); !errors.Is(err, ErrResultNotReady) {
		t.Errorf("err = %v, want ErrResultNotReady", err)
	}
}

// A persistence failure during finalization marks the session ERRORED and
// must not consume the attempt budget: the taker can start over.
func TestSessionService_PersistenceFailureDoesNotConsumeAttempt(t *testing.T) {
	a := examAssessment(1, 50)
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()
	userID := uuid.New()

	started, err := f.svc.Start(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	f.results.createErr = errors.New("disk full")
	if _, err := f.svc.Submit(ctx, started.SessionID, []model.AnswerInput{correctAnswer(pool[0])}); !errors.Is(err, ErrSessionErrored) {
		t.Fatalf("Submit err = %v, want ErrSessionErrored", err)
	}

	sub, _ := f.submissions.GetByID(ctx, started.SessionID)
	if sub.Status != model.SubmissionStatusErrored {
		t.Errorf("status = %s, want ERRORED", sub.Status)
	}
	if !sub.IsSubmissionError || sub.SubmissionErrorMessage == "" {
		t.Error("expected error flag and stored message on the submission")
	}

	// The errored session never counted: a fresh attempt starts fine.
	f.results.createErr = nil
	if _, err := f.svc.Start(ctx, a.ID, userID); err != nil {
		t.Errorf("Start after errored session: %v", err)
	}
}

func TestSessionService_SkillBasedSubmitEnqueuesAggregation(t *testing.T) {
	grading, err := model.NewSkillBasedMode([]model.SkillCriterion{
		{SkillID: uuid.New(), Rule: model.RuleGreaterThan, ThresholdPercent: 60},
	})
	if err != nil {
		t.Fatalf("NewSkillBasedMode: %v", err)
	}
	a := examAssessment(0, 50)
	a.Grading = grading
	pool := []model.Question{choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)}
	f := newSessionFixture(a, pool)
	ctx := context.Background()
	userID := uuid.New()

	started, err := f.svc.Start(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	result, err := f.svc.Submit(ctx, started.SessionID, []model.AnswerInput{correctAnswer(pool[0])})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Passed != nil {
		t.Errorf("Passed = %v, want nil for skill-based grading", *result.Passed)
	}

	if len(f.skillQueue.tasks) != 1 {
		t.Fatalf("queued tasks = %d, want 1", len(f.skillQueue.tasks))
	}
	task := f.skillQueue.tasks[0]
	if task.SubmissionID != started.SessionID || task.UserID != userID || task.Percentage != 100 {
		t.Errorf("unexpected task %+v", task)
	}
}

func TestSessionService_AnswersForReview(t *testing.T) {
	a := examAssessment(0, 50)
	q1 := choiceQuestion(t, model.QuestionTypeSingleChoice, 1, 1, 3)
	q2 := model.Question{ID: uuid.New(), Text: "explain the procedure", Type: model.QuestionTypeFreeText, Weight: 1}
	f := newSessionFixture(a, []model.Question{q1, q2})
	userID := uuid.New()

	started, err := f.svc.Start(context.Background(), a.ID, userID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	if _, err := f.svc.Answers(context.Background(), started.SessionID); !errors.Is(err, ErrResultNotReady) {
		t.Errorf("Answers on open session: err = %v, want %v", err, ErrResultNotReady)
	}

	batch := []model.AnswerInput{
		correctAnswer(q1),
		{QuestionID: q2.ID, FreeText: "first isolate the power supply"},
	}
	if _, err := f.svc.Submit(context.Background(), started.SessionID, batch); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	answers, err := f.svc.Answers(context.Background(), started.SessionID)
	if err != nil {
		t.Fatalf("Answers: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("answers = %d, want 2", len(answers))
	}
	for _, ans := range answers {
		switch ans.QuestionID {
		case q1.ID:
			if ans.IsCorrect == nil || !*ans.IsCorrect {
				t.Errorf("choice answer IsCorrect = %v, want true", ans.IsCorrect)
			}
		case q2.ID:
			if ans.IsCorrect != nil {
				t.Errorf("free-text answer IsCorrect = %v, want nil", *ans.IsCorrect)
			}
			if ans.FreeText != "first isolate the power supply" {
				t.Errorf("FreeText = %q", ans.FreeText)
			}
		default:
			t.Errorf("unexpected question %s in answers", ans.QuestionID)
		}
	}
}
