package statusapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gmr1 "github.com/doismellburning/gmr1rx/src"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeBus struct {
	snap []gmr1.ChannelSnapshot
}

func (f *fakeBus) Snapshot() []gmr1.ChannelSnapshot { return f.snap }

type fakeRACH struct {
	lastWindow int
	err        error
}

func (f *fakeRACH) SetRACHScanWindow(window int) error {
	f.lastWindow = window
	return f.err
}

func Test_status_endpoint_reports_channel_snapshot(t *testing.T) {
	bus := &fakeBus{snap: []gmr1.ChannelSnapshot{{Channel: 0, RingStart: 10, RingTail: 20}}}
	srv := New(bus, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func Test_status_endpoint_without_bus_is_unavailable(t *testing.T) {
	srv := New(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func Test_set_scan_window_validates_and_applies(t *testing.T) {
	rach := &fakeRACH{}
	srv := New(nil, rach)

	body, _ := json.Marshal(map[string]int{"window": 42})
	req := httptest.NewRequest(http.MethodPost, "/rach/scan-window", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 42, rach.lastWindow)
}

func Test_set_scan_window_rejects_missing_field(t *testing.T) {
	rach := &fakeRACH{}
	srv := New(nil, rach)

	body, _ := json.Marshal(map[string]int{})
	req := httptest.NewRequest(http.MethodPost, "/rach/scan-window", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
