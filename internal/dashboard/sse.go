package dashboard

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/rdtrack/internal/dates"
)

// snapshotEvent is sent for every health snapshot recorded after the client
// connected.
type snapshotEvent struct {
	ID           uint    `json:"id"`
	AssetID      string  `json:"asset_id"`
	HealthScore  float64 `json:"health_score"`
	CalculatedAt string  `json:"calculated_at"`
}

// handleSSE streams new snapshots by polling the store.
func (a *api) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()

	// Only rows recorded after the connected event are of interest.
	lastSeenID, err := a.store.MaxSnapshotID(ctx)
	if err != nil {
		log.Printf("dashboard: sse: %v", err)
		return
	}

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	ticker := time.NewTicker(a.poll)
	heartbeat := time.NewTicker(a.beat)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			rows, err := a.store.ListSnapshotsAfter(ctx, lastSeenID)
			if err != nil {
				log.Printf("dashboard: sse: %v", err)
				continue
			}
			if len(rows) == 0 {
				continue
			}
			for _, r := range rows {
				writeSSE(c.Writer, "snapshot", snapshotEvent{
					ID:           r.ID,
					AssetID:      r.AssetID,
					HealthScore:  r.HealthScore,
					CalculatedAt: dates.Format(r.CalculatedAt),
				})
			}
			lastSeenID = rows[len(rows)-1].ID
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
