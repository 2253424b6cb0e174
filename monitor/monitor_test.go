package monitor

import (
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wfunc/scorekeeper/state"
)

type fixedSource state.DerivedStatistics

func (f fixedSource) Derived() state.DerivedStatistics { return state.DerivedStatistics(f) }

func TestMonitor_ScoreEventsBySign(t *testing.T) {
	m := NewMonitor("test")

	m.StateChanged(state.Event{Kind: state.ScoreRegistered, Delta: 2})
	m.StateChanged(state.Event{Kind: state.ScoreRegistered, Delta: -1})
	m.StateChanged(state.Event{Kind: state.ScoreRegistered, Delta: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.metrics.ScoreEvents.WithLabelValues("positive")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.ScoreEvents.WithLabelValues("negative")))
}

func TestMonitor_RefreshFromSource(t *testing.T) {
	m := NewMonitor("test")
	m.StateChanged(state.Event{Kind: state.SessionAdded})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.metrics.ActiveSessions), "no source yet")

	m.SetSource(fixedSource{ActiveSessions: 3, ActivePlayers: 7})

	assert.Equal(t, 3.0, testutil.ToFloat64(m.metrics.ActiveSessions))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.metrics.ActivePlayers))
}

func TestMonitor_ObserveSave(t *testing.T) {
	m := NewMonitor("test")

	m.ObserveSave(time.Millisecond, nil)
	m.ObserveSave(2*time.Millisecond, errors.New("disk full"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.PersistFailures))
	assert.Equal(t, 1, testutil.CollectAndCount(m.metrics.PersistDuration))
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("scorekeeper")
	m.IncConnectedClients()
	m.IncMessagesReceived()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "scorekeeper_connected_clients 1"))
	assert.True(t, strings.Contains(body, "scorekeeper_messages_received_total 1"))
}

func TestNewMonitor_IndependentRegistries(t *testing.T) {
	require.NotPanics(t, func() {
		NewMonitor("dup")
		NewMonitor("dup")
	})
}
