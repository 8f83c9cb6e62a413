package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// AssessmentStatus enumerates the lifecycle states of an assessment.
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "DRAFT"
	AssessmentStatusReview    AssessmentStatus = "REVIEW"
	AssessmentStatusPublished AssessmentStatus = "PUBLISHED"
	AssessmentStatusRejected  AssessmentStatus = "REJECTED"
	AssessmentStatusCompleted AssessmentStatus = "COMPLETED"
)

// QuestionSetConfig controls how the question list for one attempt is built
// and how submitted answers are marked.
type QuestionSetConfig struct {
	NoOfQuestion     int     `json:"no_of_question"`
	IsShuffle        bool    `json:"is_shuffle"`
	ShowAll          bool    `json:"show_all"`
	NegativeMarking  float64 `json:"negative_marking"`
	PassingWeightage float64 `json:"passing_weightage"`
	// ClampNegativeTotal floors the net score at zero before the percentage
	// comparison. Kept configurable because downstream reporting systems
	// disagree on whether a net score may go negative.
	ClampNegativeTotal bool `json:"clamp_negative_total"`
}

// Assessment represents one gradable test with its eligibility, timing and
// marking configuration.
type Assessment struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	EndDate         *time.Time `json:"end_date,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	// Retake is the maximum number of re-attempts. 0 means unlimited.
	Retake      int                    `json:"retake"`
	Weightage   float64                `json:"weightage"`
	Status      AssessmentStatus       `json:"status"`
	QuestionSet QuestionSetConfig      `json:"question_set"`
	Grading     GradingMode            `json:"grading"`
	Eligibility []EligibilityCriterion `json:"eligibility,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// WithinWindow reports whether now falls inside the assessment's
// [StartDate, EndDate] window. A nil bound is open-ended.
func (a *Assessment) WithinWindow(now time.Time) bool {
	if a.StartDate != nil && now.Before(*a.StartDate) {
		return false
	}
	if a.EndDate != nil && now.After(*a.EndDate) {
		return false
	}
	return true
}

// AttemptLimit returns the number of closed attempts permitted for this
// assessment: the original attempt plus Retake re-attempts. Returns 0 when
// attempts are unlimited.
func (a *Assessment) AttemptLimit() int {
	if a.Retake == 0 {
		return 0
	}
	return a.Retake + 1
}

// ─── Grading mode ────────────────────────────────────────────────────────────

// ErrGradingModeConflict is returned when both percentage-pass and
// skill-criteria grading are configured for the same assessment.
var ErrGradingModeConflict = errors.New("percentage-pass and skill-criteria grading are mutually exclusive")

// ErrGradingModeMissing is returned when neither grading mode is configured.
var ErrGradingModeMissing = errors.New("assessment has no grading mode configured")

type gradingKind uint8

const (
	gradingPercentage gradingKind = iota + 1
	gradingSkillBased
)

// GradingMode is a two-variant sum: either a pass-percentage threshold or a
// set of skill criteria. The zero value is invalid; use the constructors.
type GradingMode struct {
	kind           gradingKind
	passPercentage float64
	skillCriteria  []SkillCriterion
}

// NewPercentagePassMode builds a percentage-threshold grading mode.
func NewPercentagePassMode(threshold float64) (GradingMode, error) {
	if threshold < 0 || threshold > 100 {
		return GradingMode{}, errors.New("pass percentage must be within [0, 100]")
	}
	return GradingMode{kind: gradingPercentage, passPercentage: threshold}, nil
}

// NewSkillBasedMode builds a skill-criteria grading mode.
func NewSkillBasedMode(criteria []SkillCriterion) (GradingMode, error) {
	if len(criteria) == 0 {
		return GradingMode{}, errors.New("skill-based grading requires at least one criterion")
	}
	return GradingMode{kind: gradingSkillBased, skillCriteria: criteria}, nil
}

// NewGradingMode builds a GradingMode from the persisted shape: a nullable
// pass percentage plus zero-or-more skill criteria. Exactly one of the two
// must be present.
func NewGradingMode(passPercentage *float64, criteria []SkillCriterion) (GradingMode, error) {
	switch {
	case passPercentage != nil && len(criteria) > 0:
		return GradingMode{}, ErrGradingModeConflict
	case passPercentage != nil:
		return NewPercentagePassMode(*passPercentage)
	case len(criteria) > 0:
		return NewSkillBasedMode(criteria)
	default:
		return GradingMode{}, ErrGradingModeMissing
	}
}

// IsPercentage reports whether the mode is percentage-pass.
func (m GradingMode) IsPercentage() bool { return m.kind == gradingPercentage }

// IsSkillBased reports whether the mode is skill-criteria based.
func (m GradingMode) IsSkillBased() bool { return m.kind == gradingSkillBased }

// Valid reports whether the mode was built by a constructor.
func (m GradingMode) Valid() bool { return m.kind != 0 }

// PassPercentage returns the configured threshold. Only meaningful when
// IsPercentage is true.
func (m GradingMode) PassPercentage() float64 { return m.passPercentage }

// SkillCriteria returns the configured criteria. Only meaningful when
// IsSkillBased is true.
func (m GradingMode) SkillCriteria() []SkillCriterion { return m.skillCriteria }

// MarshalJSON renders the mode as a tagged object so API clients can
// dispatch on "mode" without knowing the internal representation.
func (m GradingMode) MarshalJSON() ([]byte, error) {
	switch m.kind {
	case gradingPercentage:
		return json.Marshal(struct {
			Mode           string  `json:"mode"`
			PassPercentage float64 `json:"pass_percentage"`
		}{"percentage_pass", m.passPercentage})
	case gradingSkillBased:
		return json.Marshal(struct {
			Mode     string           `json:"mode"`
			Criteria []SkillCriterion `json:"criteria"`
		}{"skill_based", m.skillCriteria})
	default:
		return []byte("null"), nil
	}
}
