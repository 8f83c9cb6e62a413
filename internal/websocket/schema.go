package websocket

import "time"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing    Action = "ping"
	ActionRefresh Action = "refresh"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventSnapshot Event = "snapshot"
	EventPong     Event = "pong"
)

// MonitorSession is the proctor-facing view of one open attempt.
type MonitorSession struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	StartedAt        time.Time `json:"started_at"`
	Deadline         time.Time `json:"deadline"`
	RemainingSeconds int       `json:"remaining_seconds"`
	AnsweredCount    int64     `json:"answered_count"`
}

// SnapshotResponse carries the current open sessions of one assessment.
type SnapshotResponse struct {
	Event        Event            `json:"event"`
	AssessmentID string           `json:"assessment_id"`
	Sessions     []MonitorSession `json:"sessions"`
	At           time.Time        `json:"at"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
