package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/domain"
	"katydid-snowflake/pkg/idgen/snowflake"
)

const testNow int64 = 1700000000000

// testClock 可调的时钟
type testClock struct{ now atomic.Int64 }

func (c *testClock) NowMillis() int64 { return c.now.Load() }

type fixture struct {
	router *gin.Engine
	gen    *snowflake.Generator
	owner  *snowflake.Owner
	clock  *testClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &testClock{}
	clock.now.Store(testNow)

	gen, err := snowflake.NewWithConfig(&snowflake.Config{
		DatacenterID:  3,
		WorkerID:      9,
		Clock:         clock,
		EnableMetrics: true,
	})
	require.NoError(t, err)

	owner := snowflake.NewOwner(gen, 8)
	t.Cleanup(owner.Close)

	h := NewHandler(owner, gen, 100, zap.NewNop())
	return &fixture{
		router: NewRouter(h, gin.TestMode),
		gen:    gen,
		owner:  owner,
		clock:  clock,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestNextIDs_Single(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/v1/ids")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	id, err := domain.ParseID(body.ID)
	require.NoError(t, err)
	info := id.Info(snowflake.DefaultLayout)
	assert.Equal(t, testNow, info.Timestamp)
	assert.Equal(t, int64(3), info.DatacenterID)
	assert.Equal(t, int64(9), info.WorkerID)
}

func TestNextIDs_Batch(t *testing.T) {
	f := newFixture(t)

	w := f.get(t, "/v1/ids?count=50")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		IDs domain.IDSlice `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.IDs, 50)
	assert.True(t, body.IDs.IsStrictlyIncreasing())

	for _, q := range []string{"0", "-1", "101", "abc", ""} {
		w := f.get(t, "/v1/ids?count="+q)
		assert.Equal(t, http.StatusBadRequest, w.Code, "count=%q", q)
	}
}

func TestNextIDs_ClockMovedBackwards(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusOK, f.get(t, "/v1/ids").Code)

	f.clock.now.Store(testNow - 2500)
	w := f.get(t, "/v1/ids")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "3", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "clock moved backwards")

	w = f.get(t, "/v1/ids?count=5")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), `"ids"`)
}

func TestNextIDs_OwnerClosed(t *testing.T) {
	f := newFixture(t)
	f.owner.Close()

	w := f.get(t, "/v1/ids")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParseID(t *testing.T) {
	f := newFixture(t)
	id := snowflake.DefaultLayout.Encode(testNow, 3, 9, 17)

	for _, s := range []string{domain.ID(id).String(), domain.ID(id).Hex(), domain.ID(id).Binary()} {
		w := f.get(t, "/v1/ids/"+s)
		require.Equal(t, http.StatusOK, w.Code, s)

		var body struct {
			ID           string `json:"id"`
			Timestamp    int64  `json:"timestamp"`
			DatacenterID int64  `json:"datacenter_id"`
			WorkerID     int64  `json:"worker_id"`
			Sequence     int64  `json:"sequence"`
			Time         string `json:"time"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, domain.ID(id).String(), body.ID)
		assert.Equal(t, testNow, body.Timestamp)
		assert.Equal(t, int64(3), body.DatacenterID)
		assert.Equal(t, int64(9), body.WorkerID)
		assert.Equal(t, int64(17), body.Sequence)
		assert.Equal(t, "2023-11-14T22:13:20Z", body.Time)
	}

	assert.Equal(t, http.StatusBadRequest, f.get(t, "/v1/ids/abc").Code)
	assert.Equal(t, http.StatusBadRequest, f.get(t, "/v1/ids/0").Code)
}

func TestMetricsAndHealthz(t *testing.T) {
	f := newFixture(t)
	require.Equal(t, http.StatusOK, f.get(t, "/v1/ids?count=3").Code)

	w := f.get(t, "/v1/metrics")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		DatacenterID int64             `json:"datacenter_id"`
		WorkerID     int64             `json:"worker_id"`
		Metrics      map[string]uint64 `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(3), body.DatacenterID)
	assert.Equal(t, int64(9), body.WorkerID)
	assert.Equal(t, uint64(3), body.Metrics["id_count"])

	w = f.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(core.ErrInvalidBatchSize))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(&core.ClockMovedBackwardsError{LastTimestamp: 2, Now: 1}))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(context.Canceled))
	assert.Equal(t, http.StatusInternalServerError, statusFor(core.ErrTimestampOverflow))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(recovery(zap.NewNop()))
	r.GET("/boom", func(*gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
