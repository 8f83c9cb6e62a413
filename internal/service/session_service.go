package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luminlms/assessment-engine/internal/model"
	"github.com/luminlms/assessment-engine/internal/repository"
)

// Typed failures of the session lifecycle. Handlers translate these to
// response codes; everything else surfaces as an internal error.
var (
	ErrAssessmentNotFound     = errors.New("assessment not found")
	ErrAssessmentNotPublished = errors.New("assessment is not published")
	ErrNotEligible            = errors.New("user does not satisfy the eligibility criteria")
	ErrOutsideTimeWindow      = errors.New("assessment is outside its availability window")
	ErrRetakeExhausted        = errors.New("no attempts remaining for this assessment")
	ErrSessionAlreadyOpen     = errors.New("an open session already exists for this assessment")
	ErrSessionNotFound        = errors.New("session not found")
	ErrSessionAlreadyClosed   = errors.New("session is already closed")
	ErrSessionErrored         = errors.New("session failed during finalization")
	ErrResultNotReady         = errors.New("result is not available for this session")
	ErrQuestionNotInSession   = errors.New("question does not belong to this session")
)

type assessmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Assessment, error)
}

type questionStore interface {
	ListByAssessment(ctx context.Context, assessmentID uuid.UUID) ([]model.Question, error)
}

type submissionStore interface {
	StartAttempt(ctx context.Context, sub *model.Submission, attemptLimit int) error
	CountClosed(ctx context.Context, assessmentID, userID uuid.UUID) (int, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Submission, error)
	Close(ctx context.Context, id uuid.UUID, status model.SubmissionStatus, finishedAt time.Time) (bool, error)
	MarkErrored(ctx context.Context, id uuid.UUID, message string) error
	SaveGradedAnswers(ctx context.Context, answers []model.SubmissionAnswer) error
	ListAnswers(ctx context.Context, submissionID uuid.UUID) ([]model.SubmissionAnswer, error)
}

type resultStore interface {
	Create(ctx context.Context, res *model.Result) error
	GetBySubmission(ctx context.Context, submissionID uuid.UUID) (*model.Result, error)
}

type eligibilityChecker interface {
	Evaluate(ctx context.Context, a *model.Assessment, userID uuid.UUID) (*EligibilityReport, error)
}

// AnswerBuffer holds the in-flight answers of open sessions. The Redis
// implementation also feeds the persistence worker queue on every save.
type AnswerBuffer interface {
	Track(ctx context.Context, sub *model.Submission) error
	Save(ctx context.Context, sessionID uuid.UUID, answer model.AnswerInput) error
	All(ctx context.Context, sessionID uuid.UUID) (map[uuid.UUID]model.AnswerInput, error)
	Discard(ctx context.Context, sub *model.Submission) error
}

// SkillQueue hands graded skill-based attempts to the aggregation worker.
type SkillQueue interface {
	Enqueue(ctx context.Context, task SkillAggregateTask) error
}

// StartedSession is the taker-facing payload of a freshly opened attempt.
type StartedSession struct {
	SessionID uuid.UUID                 `json:"session_id"`
	Deadline  time.Time                 `json:"deadline"`
	Questions []model.CandidateQuestion `json:"questions"`
}

// SessionState is the polling view of an attempt. AnsweredCount reflects the
// answer buffer and is only populated while the session is open.
type SessionState struct {
	SessionID        uuid.UUID              `json:"session_id"`
	Status           model.SubmissionStatus `json:"status"`
	Deadline         time.Time              `json:"deadline"`
	RemainingSeconds int                    `json:"remaining_seconds"`
	AnsweredCount    int                    `json:"answered_count"`
}

// SessionService drives the attempt lifecycle: gated start, incremental
// answer buffering, lazy expiry, and grading on closure.
type SessionService struct {
	assessments assessmentStore
	questions   questionStore
	submissions submissionStore
	results     resultStore
	eligibility eligibilityChecker
	buffer      AnswerBuffer
	skillQueue  SkillQueue
	retake      RetakePolicy
	logger      zerolog.Logger

	// Injected for tests; production uses the real clock and a seeded source.
	now     func() time.Time
	newRand func() *rand.Rand
}

// NewSessionService creates a new SessionService.
func NewSessionService(
	assessments assessmentStore,
	questions questionStore,
	submissions submissionStore,
	results resultStore,
	eligibility eligibilityChecker,
	buffer AnswerBuffer,
	skillQueue SkillQueue,
) *SessionService {
	return &SessionService{
		assessments: assessments,
		questions:   questions,
		submissions: submissions,
		results:     results,
		eligibility: eligibility,
		buffer:      buffer,
		skillQueue:  skillQueue,
		logger:      log.With().Str("component", "session_service").Logger(),
		now:         time.Now,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// PreflightReport is the pre-start view of one (assessment, user) pair.
type PreflightReport struct {
	Eligibility *EligibilityReport `json:"eligibility"`
	Retake      RetakeStanding     `json:"retake"`
}

// Preflight evaluates the start gates without opening an attempt, so clients
// can show availability before the taker commits. Start re-runs the same
// gates atomically, so a passing preflight is advisory, not a reservation.
func (s *SessionService) Preflight(ctx context.Context, assessmentID, userID uuid.UUID) (*PreflightReport, error) {
	a, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	report, err := s.eligibility.Evaluate(ctx, a, userID)
	if err != nil {
		return nil, fmt.Errorf("evaluate eligibility: %w", err)
	}
	closed, err := s.submissions.CountClosed(ctx, assessmentID, userID)
	if err != nil {
		return nil, fmt.Errorf("count closed attempts: %w", err)
	}

	return &PreflightReport{
		Eligibility: report,
		Retake: RetakeStanding{
			AttemptsUsed: closed,
			AttemptLimit: a.AttemptLimit(),
			MayAttempt:   s.retake.MayAttempt(a, closed),
		},
	}, nil
}

// Start opens a new attempt. All gates run before anything is written:
// publication status, availability window, eligibility, then question
// selection. The retake budget and the single-open-session rule are enforced
// atomically inside the repository transaction, so concurrent starts cannot
// oversubscribe either.
func (s *SessionService) Start(ctx context.Context, assessmentID, userID uuid.UUID) (*StartedSession, error) {
	a, err := s.assessments.GetByID(ctx, assessmentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	if a.Status != model.AssessmentStatusPublished {
		return nil, ErrAssessmentNotPublished
	}

	now := s.now()
	if !a.WithinWindow(now) {
		return nil, ErrOutsideTimeWindow
	}

	report, err := s.eligibility.Evaluate(ctx, a, userID)
	if err != nil {
		return nil, fmt.Errorf("evaluate eligibility: %w", err)
	}
	if !report.Eligible {
		return nil, ErrNotEligible
	}

	pool, err := s.questions.ListByAssessment(ctx, assessmentID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if len(pool) == 0 {
		return nil, ErrNoQuestions
	}
	selected, err := SelectQuestions(a.QuestionSet, pool, s.newRand())
	if err != nil {
		return nil, err
	}

	order := make([]uuid.UUID, len(selected))
	for i := range selected {
		order[i] = selected[i].ID
	}
	sub := &model.Submission{
		AssessmentID:  assessmentID,
		UserID:        userID,
		Deadline:      now.Add(time.Duration(a.DurationSeconds) * time.Second),
		QuestionOrder: order,
	}
	if err := s.submissions.StartAttempt(ctx, sub, a.AttemptLimit()); err != nil {
		switch {
		case errors.Is(err, repository.ErrRetakeExhausted):
			return nil, ErrRetakeExhausted
		case errors.Is(err, repository.ErrOpenSessionExists):
			return nil, ErrSessionAlreadyOpen
		}
		return nil, fmt.Errorf("start attempt: %w", err)
	}

	if err := s.buffer.Track(ctx, sub); err != nil {
		// Losing the tracking entry only degrades the monitor view.
		s.logger.Warn().Err(err).Str("session_id", sub.ID.String()).Msg("failed to track session in buffer")
	}

	questions := make([]model.CandidateQuestion, len(selected))
	for i := range selected {
		questions[i] = selected[i].ForCandidate()
	}

	s.logger.Info().
		Str("session_id", sub.ID.String()).
		Str("assessment_id", assessmentID.String()).
		Str("user_id", userID.String()).
		Int("questions", len(questions)).
		Msg("session started")

	return &StartedSession{SessionID: sub.ID, Deadline: sub.Deadline, Questions: questions}, nil
}

// SaveAnswer buffers one answer on an open session. Last write per question
// wins. A save that arrives past the deadline finalizes the session from the
// buffer instead; the late answer is discarded.
func (s *SessionService) SaveAnswer(ctx context.Context, sessionID uuid.UUID, answer model.AnswerInput) error {
	sub, err := s.getSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if sub.Closed() {
		return ErrSessionAlreadyClosed
	}
	if sub.PastDeadline(s.now()) {
		s.expire(ctx, sub)
		return ErrSessionAlreadyClosed
	}

	if !questionInOrder(sub.QuestionOrder, answer.QuestionID) {
		return ErrQuestionNotInSession
	}
	if err := s.buffer.Save(ctx, sessionID, answer); err != nil {
		return fmt.Errorf("buffer answer: %w", err)
	}
	return nil
}

// State returns the polling view of a session. Observing an open session
// past its deadline expires it first, so clients never see a stale OPEN.
func (s *SessionService) State(ctx context.Context, sessionID uuid.UUID) (*SessionState, error) {
	sub, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !sub.Closed() && sub.PastDeadline(now) {
		s.expire(ctx, sub)
		sub.Status = model.SubmissionStatusExpired
	}

	state := &SessionState{
		SessionID: sub.ID,
		Status:    sub.Status,
		Deadline:  sub.Deadline,
	}
	if !sub.Closed() {
		state.RemainingSeconds = int(sub.Deadline.Sub(now).Seconds())
		answers, err := s.buffer.All(ctx, sessionID)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", sessionID.String()).Msg("failed to read answer buffer")
		} else {
			state.AnsweredCount = len(answers)
		}
	}
	return state, nil
}

// Submit closes an open session and grades it. The submitted batch is merged
// over the buffered answers, batch winning per question; a submit that
// arrives past the deadline expires the session and grades the buffer alone.
// Re-submitting a closed session returns the stored result unchanged.
func (s *SessionService) Submit(ctx context.Context, sessionID uuid.UUID, batch []model.AnswerInput) (*model.Result, error) {
	sub, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	switch sub.Status {
	case model.SubmissionStatusErrored:
		return nil, ErrSessionErrored
	case model.SubmissionStatusSubmitted, model.SubmissionStatusExpired:
		return s.storedResult(ctx, sub.ID)
	}

	now := s.now()
	status := model.SubmissionStatusSubmitted
	if sub.PastDeadline(now) {
		status = model.SubmissionStatusExpired
		batch = nil
	}
	return s.finalize(ctx, sub, batch, status, now)
}

// Result returns the stored result of a closed session. Observing an open
// session past its deadline expires and grades it first.
func (s *SessionService) Result(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	sub, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sub.Closed() {
		if !sub.PastDeadline(s.now()) {
			return nil, ErrResultNotReady
		}
		s.expire(ctx, sub)
	}
	if sub.Status == model.SubmissionStatusErrored {
		return nil, ErrSessionErrored
	}
	return s.storedResult(ctx, sessionID)
}

// Answers returns the persisted, graded answers of a closed session, used by
// reviewers marking free-text responses. Observing an open session past its
// deadline expires it first.
func (s *SessionService) Answers(ctx context.Context, sessionID uuid.UUID) ([]model.SubmissionAnswer, error) {
	sub, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !sub.Closed() {
		if !sub.PastDeadline(s.now()) {
			return nil, ErrResultNotReady
		}
		s.expire(ctx, sub)
	}
	if sub.Status == model.SubmissionStatusErrored {
		return nil, ErrSessionErrored
	}
	answers, err := s.submissions.ListAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

func (s *SessionService) getSession(ctx context.Context, sessionID uuid.UUID) (*model.Submission, error) {
	sub, err := s.submissions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sub, nil
}

func (s *SessionService) storedResult(ctx context.Context, sessionID uuid.UUID) (*model.Result, error) {
	res, err := s.results.GetBySubmission(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotReady
		}
		return nil, fmt.Errorf("get result: %w", err)
	}
	return res, nil
}

// expire finalizes an overdue session from its buffered answers alone.
func (s *SessionService) expire(ctx context.Context, sub *model.Submission) {
	if _, err := s.finalize(ctx, sub, nil, model.SubmissionStatusExpired, s.now()); err != nil {
		s.logger.Error().Err(err).Str("session_id", sub.ID.String()).Msg("failed to expire session")
	}
}

// finalize grades and closes one attempt. Grading itself is pure; any
// persistence failure on the way marks the session ERRORED, which keeps the
// retake budget untouched so the taker can start over.
func (s *SessionService) finalize(ctx context.Context, sub *model.Submission, batch []model.AnswerInput, status model.SubmissionStatus, now time.Time) (*model.Result, error) {
	buffered, err := s.buffer.All(ctx, sub.ID)
	if err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("read answer buffer: %w", err))
	}
	answers := make(map[uuid.UUID]model.AnswerInput, len(buffered)+len(batch))
	for id, a := range buffered {
		answers[id] = a
	}
	for _, a := range batch {
		answers[a.QuestionID] = a
	}

	a, err := s.assessments.GetByID(ctx, sub.AssessmentID)
	if err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("get assessment: %w", err))
	}
	pool, err := s.questions.ListByAssessment(ctx, sub.AssessmentID)
	if err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("list questions: %w", err))
	}
	questions := questionsByOrder(pool, sub.QuestionOrder)

	result, graded := GradeSubmission(sub, questions, answers, a.QuestionSet, a.Grading)

	if err := s.submissions.SaveGradedAnswers(ctx, graded); err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("save graded answers: %w", err))
	}
	// Write-once: a concurrent finalize resolves to the stored row, so both
	// callers hand back the same result.
	if err := s.results.Create(ctx, result); err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("create result: %w", err))
	}
	changed, err := s.submissions.Close(ctx, sub.ID, status, now)
	if err != nil {
		return nil, s.failSession(ctx, sub, fmt.Errorf("close session: %w", err))
	}

	if changed {
		if a.Grading.IsSkillBased() {
			task := SkillAggregateTask{
				SubmissionID: sub.ID,
				AssessmentID: sub.AssessmentID,
				UserID:       sub.UserID,
				Percentage:   result.Percentage,
			}
			if err := s.skillQueue.Enqueue(ctx, task); err != nil {
				s.logger.Error().Err(err).Str("session_id", sub.ID.String()).Msg("failed to enqueue skill aggregation")
			}
		}
		if err := s.buffer.Discard(ctx, sub); err != nil {
			s.logger.Warn().Err(err).Str("session_id", sub.ID.String()).Msg("failed to discard answer buffer")
		}
		s.logger.Info().
			Str("session_id", sub.ID.String()).
			Str("status", string(status)).
			Float64("percentage", result.Percentage).
			Msg("session finalized")
	}
	return result, nil
}

func (s *SessionService) failSession(ctx context.Context, sub *model.Submission, cause error) error {
	s.logger.Error().Err(cause).Str("session_id", sub.ID.String()).Msg("session finalization failed")
	if err := s.submissions.MarkErrored(ctx, sub.ID, cause.Error()); err != nil {
		s.logger.Error().Err(err).Str("session_id", sub.ID.String()).Msg("failed to mark session errored")
	}
	return ErrSessionErrored
}

func questionInOrder(order []uuid.UUID, questionID uuid.UUID) bool {
	for _, id := range order {
		if id == questionID {
			return true
		}
	}
	return false
}

// questionsByOrder restricts the pool to the attempt's pinned question list,
// preserving the order served to the taker.
func questionsByOrder(pool []model.Question, order []uuid.UUID) []model.Question {
	byID := make(map[uuid.UUID]model.Question, len(pool))
	for _, q := range pool {
		byID[q.ID] = q
	}
	questions := make([]model.Question, 0, len(order))
	for _, id := range order {
		if q, ok := byID[id]; ok {
			questions = append(questions, q)
		}
	}
	return questions
}
