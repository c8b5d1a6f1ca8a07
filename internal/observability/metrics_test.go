package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	t.Run("should aggregate counters into a snapshot", func(t *testing.T) {
		m := NewMetrics()
		m.RecordRequest("/api/tickets", "GET", 200, 10*time.Millisecond)
		m.RecordRequest("/api/tickets", "GET", 200, 30*time.Millisecond)
		m.RecordError("/api/tickets/:id", "GET", "NOT_FOUND")
		m.RecordWorkflow("auto_close", "closed", 3)
		m.RecordWorkflow("auto_close", "failed", 0)

		snap := m.Snapshot()

		assert.Equal(t, int64(2), snap.Requests["/api/tickets|GET|200"])
		assert.Equal(t, int64(1), snap.Errors["/api/tickets/:id|GET|NOT_FOUND"])
		assert.Equal(t, int64(3), snap.Workflow["auto_close|closed"])
		assert.NotContains(t, snap.Workflow, "auto_close|failed")
		assert.InDelta(t, 20.0, snap.AvgLatencyMillis, 0.001)
	})

	t.Run("should tolerate a nil receiver", func(t *testing.T) {
		var m *Metrics
		m.RecordWorkflow("escalate", "escalated", 1)
		assert.Empty(t, m.Snapshot().Requests)
	})
}
