package handlers

import (
	"net/http"
	"time"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/simulation"
	"solar-battery-sim/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	maxReplayWait = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler replays stored runs over a websocket.
type StreamHandler struct {
	store store.Store
}

func NewStreamHandler(st store.Store) *StreamHandler {
	return &StreamHandler{store: st}
}

// StreamLedger handles GET /api/v1/simulations/:id/stream
//
// The run is sent as run:info, then one ledger:batch per simulated day,
// then run:summary. delay_ms paces the batches for animated playback.
func (h *StreamHandler) StreamLedger(c *gin.Context) {
	delayMS, err := queryInt(c, "delay_ms")
	if err != nil {
		badRequest(c, err)
		return
	}
	delay := time.Duration(delayMS) * time.Millisecond
	if delay > maxReplayWait {
		delay = maxReplayWait
	}

	// Look the run up first so a missing id is a plain 404.
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Ctx(c.Request.Context()).Warn("websocket upgrade", "err", err)
		return
	}
	defer conn.Close()

	l := log.Ctx(c.Request.Context()).With("id", run.ID)
	if err := send(conn, models.TypeRunInfo, run.Info()); err != nil {
		l.Debug("stream closed", "err", err)
		return
	}
	for _, batch := range dayBatches(run.Ledger) {
		if err := send(conn, models.TypeLedgerBatch, batch); err != nil {
			l.Debug("stream closed", "err", err)
			return
		}
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-c.Request.Context().Done():
				return
			}
		}
	}
	if err := send(conn, models.TypeRunSummary, run.Summary); err != nil {
		l.Debug("stream closed", "err", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
}

func send(conn *websocket.Conn, msgType string, payload any) error {
	msg, err := models.NewEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, msg)
}

// dayBatches splits a ledger on calendar-day boundaries of its timestamps.
func dayBatches(ledger []simulation.LedgerRow) []models.LedgerBatchPayload {
	var out []models.LedgerBatchPayload
	start := 0
	for i := 1; i <= len(ledger); i++ {
		if i < len(ledger) && sameDay(ledger[i].Timestamp, ledger[start].Timestamp) {
			continue
		}
		out = append(out, models.LedgerBatchPayload{
			Day:    ledger[start].Timestamp.Format("2006-01-02"),
			Offset: start,
			Rows:   ledger[start:i],
		})
		start = i
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
