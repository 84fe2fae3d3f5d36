package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCounters(t *testing.T) {
	m := New()

	m.IncrementOperation(OperationRename)
	m.IncrementOperation(OperationRename)
	m.IncrementOperation(OperationCreate)
	m.IncrementFailure(OperationDelete)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationRename)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues(OperationCreate)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues(OperationDelete)))
}

func TestGuildStats(t *testing.T) {
	m := New()

	m.SetStat("1", "MEMBERS", 8)
	m.SetStat("1", "BOTS", 2)
	m.SetStat("2", "MEMBERS", 3)
	assert.Equal(t, 3, testutil.CollectAndCount(m.stats))

	m.DeleteGuild("1")
	assert.Equal(t, 1, testutil.CollectAndCount(m.stats))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.stats.WithLabelValues("2", "MEMBERS")))
}

func TestTicks(t *testing.T) {
	m := New()
	m.ObserveTick(10 * time.Millisecond)
	m.ObserveTick(20 * time.Millisecond)

	assert.EqualValues(t, 2, m.Ticks())
}

func TestRouter(t *testing.T) {
	m := New()
	m.IncrementOperation(OperationCreate)
	r := Router(m, func() int { return 4 })

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "counter_channel_operations_total")
	})

	t.Run("healthz", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Status string `json:"status"`
			Guilds int    `json:"guilds"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ok", body.Status)
		assert.Equal(t, 4, body.Guilds)
	})
}
