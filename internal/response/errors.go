package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrTokenRequired ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid  ErrCode = "TOKEN_INVALID"
	ErrTokenExpired  ErrCode = "TOKEN_EXPIRED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Session refusals (typed negatives, not faults) ────────────────
	ErrNotEligible        ErrCode = "NOT_ELIGIBLE"
	ErrRetakeExhausted    ErrCode = "RETAKE_EXHAUSTED"
	ErrOutsideTimeWindow  ErrCode = "OUTSIDE_TIME_WINDOW"
	ErrSessionAlreadyOpen ErrCode = "SESSION_ALREADY_OPEN"

	// ─── Session lifecycle ─────────────────────────────────────────────
	ErrSessionNotFound      ErrCode = "SESSION_NOT_FOUND"
	ErrSessionAlreadyClosed ErrCode = "SESSION_ALREADY_CLOSED"
	ErrSessionErrored       ErrCode = "SESSION_ERRORED"
	ErrResultNotReady       ErrCode = "RESULT_NOT_READY"

	// ─── Assessment configuration ──────────────────────────────────────
	ErrPoolTooSmall           ErrCode = "POOL_TOO_SMALL"
	ErrGradingModeConflict    ErrCode = "GRADING_MODE_CONFLICT"
	ErrNoQuestions            ErrCode = "NO_QUESTIONS"
	ErrAssessmentNotPublished ErrCode = "ASSESSMENT_NOT_PUBLISHED"
	ErrInvalidStatusChange    ErrCode = "INVALID_STATUS_CHANGE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrTokenRequired:
		return "A service token is required."
	case ErrTokenInvalid:
		return "The service token is invalid."
	case ErrTokenExpired:
		return "The service token has expired."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check the request payload."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Session refusals ──────────────────────────────────────────────
	case ErrNotEligible:
		return "The user does not satisfy the assessment's eligibility criteria."
	case ErrRetakeExhausted:
		return "The maximum number of attempts for this assessment has been used."
	case ErrOutsideTimeWindow:
		return "The assessment is not open at this time."
	case ErrSessionAlreadyOpen:
		return "An attempt for this assessment is already in progress."

	// ─── Session lifecycle ─────────────────────────────────────────────
	case ErrSessionNotFound:
		return "Exam session not found."
	case ErrSessionAlreadyClosed:
		return "The exam session is already closed."
	case ErrSessionErrored:
		return "The exam session failed; the attempt was not counted. Please retry."
	case ErrResultNotReady:
		return "No result exists for this session yet."

	// ─── Assessment configuration ──────────────────────────────────────
	case ErrPoolTooSmall:
		return "The question pool is smaller than the configured sample size."
	case ErrGradingModeConflict:
		return "Percentage-pass and skill-criteria grading cannot both be configured."
	case ErrNoQuestions:
		return "The assessment has no questions."
	case ErrAssessmentNotPublished:
		return "The assessment is not published."
	case ErrInvalidStatusChange:
		return "The requested lifecycle transition is not allowed."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
