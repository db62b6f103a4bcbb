package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/logging"
	"github.com/eleonora-casoni/VMC-EigenHydrogen/internal/vmc"
)

func testServer(t *testing.T) (*Server, *Progress) {
	t.Helper()
	logger := logging.New(logging.ErrorLevel, io.Discard)
	progress := NewProgress(50)

	registry := prometheus.NewRegistry()
	vmc.NewMetrics(registry)

	return New(logger, progress, registry), progress
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStatusReflectsProgress(t *testing.T) {
	srv, progress := testServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	get := func() Status {
		t.Helper()
		resp, err := http.Get(ts.URL + "/status")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var st Status
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
		return st
	}

	st := get()
	assert.Equal(t, "running", st.Status)
	assert.Equal(t, 0, st.Step)
	assert.Equal(t, 50, st.NumSteps)

	progress.Update(9, 0.93, -0.48)
	st = get()
	assert.Equal(t, 10, st.Step)
	assert.InDelta(t, 0.93, st.Alpha, 1e-12)
	assert.InDelta(t, -0.48, st.Energy, 1e-12)

	progress.Complete()
	st = get()
	assert.Equal(t, "completed", st.Status)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := testServer(t)
	ts := httptest.NewServer(srv.Routes())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "vmc_proposals_accepted_total")
}
