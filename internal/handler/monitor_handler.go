package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/luminlms/assessment-engine/internal/config"
	"github.com/luminlms/assessment-engine/internal/repository"
	ws "github.com/luminlms/assessment-engine/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live open-session snapshots to proctors.
type MonitorHandler struct {
	submissions *repository.SubmissionRepository
	rdb         *redis.Client
	interval    time.Duration
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(submissions *repository.SubmissionRepository, rdb *redis.Client, interval time.Duration, log zerolog.Logger, allowedOrigins []string) *MonitorHandler {
	return &MonitorHandler{
		submissions: submissions,
		rdb:         rdb,
		interval:    interval,
		log:         log.With().Str("component", "monitor_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// MonitorAssessment godoc
// WS /ws/v1/assessments/:id/monitor
// Upgrades to WebSocket and pushes an open-session snapshot on every tick.
// The client may send {"action":"refresh"} for an immediate snapshot or
// {"action":"ping"} as a keepalive.
func (h *MonitorHandler) MonitorAssessment(c *gin.Context) {
	assessmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assessment ID"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("assessment_id", assessmentID.String()).Logger()
	wsLog.Info().Msg("Proctor connected")

	// Reader goroutine feeds client actions into a channel so the main loop
	// can select over actions, ticks, and disconnects.
	actions := make(chan ws.Action)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					wsLog.Warn().Err(err).Msg("Unexpected close")
				} else {
					wsLog.Debug().Msg("Connection closed")
				}
				return
			}
			actions <- msg.Action
		}
	}()

	ctx := c.Request.Context()
	if err := h.pushSnapshot(ctx, conn, assessmentID); err != nil {
		wsLog.Error().Err(err).Msg("Initial snapshot failed")
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			wsLog.Info().Msg("Proctor disconnected")
			return
		case action := <-actions:
			switch action {
			case ws.ActionPing:
				ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong})
			case ws.ActionRefresh:
				if err := h.pushSnapshot(ctx, conn, assessmentID); err != nil {
					wsLog.Error().Err(err).Msg("Snapshot failed")
					return
				}
			default:
				ws.WriteError(conn, "unknown action: "+string(action))
			}
		case <-ticker.C:
			if err := h.pushSnapshot(ctx, conn, assessmentID); err != nil {
				wsLog.Error().Err(err).Msg("Snapshot failed")
				return
			}
		}
	}
}

// pushSnapshot assembles and sends the current open-session view. Answer
// counts come from the Redis buffer, so a proctor sees progress without a
// database read per session.
func (h *MonitorHandler) pushSnapshot(ctx context.Context, conn *websocket.Conn, assessmentID uuid.UUID) error {
	subs, err := h.submissions.ListOpenByAssessment(ctx, assessmentID)
	if err != nil {
		ws.WriteError(conn, "failed to list sessions")
		return err
	}

	now := time.Now()
	sessions := make([]ws.MonitorSession, 0, len(subs))
	for _, sub := range subs {
		answered, err := h.rdb.HLen(ctx, config.CacheKey.SessionAnswersKey(sub.ID.String())).Result()
		if err != nil {
			answered = 0
		}
		remaining := int(sub.Deadline.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		sessions = append(sessions, ws.MonitorSession{
			SessionID:        sub.ID.String(),
			UserID:           sub.UserID.String(),
			StartedAt:        sub.StartedAt,
			Deadline:         sub.Deadline,
			RemainingSeconds: remaining,
			AnsweredCount:    answered,
		})
	}

	return ws.WriteTyped(conn, ws.SnapshotResponse{
		Event:        ws.EventSnapshot,
		AssessmentID: assessmentID.String(),
		Sessions:     sessions,
		At:           now,
	})
}
