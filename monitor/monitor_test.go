package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMonitor_Counters(t *testing.T) {
	m := NewMonitor("pegrace")

	m.ObserveRoll(false, 0.0001)
	m.ObserveRoll(true, 0.0001)
	m.ObserveMove("track", true)
	m.ObserveMove("launch", false)
	m.ObserveMove("track", false)
	m.ObserveWin("red")
	m.SetActiveSessions(3)

	metrics := m.Metrics()
	if got := testutil.ToFloat64(metrics.Rolls); got != 2 {
		t.Errorf("Expected 2 rolls, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.PassedTurns); got != 1 {
		t.Errorf("Expected 1 passed turn, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Moves.WithLabelValues("track")); got != 2 {
		t.Errorf("Expected 2 track moves, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Captures); got != 1 {
		t.Errorf("Expected 1 capture, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Wins.WithLabelValues("red")); got != 1 {
		t.Errorf("Expected 1 red win, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.ActiveSessions); got != 3 {
		t.Errorf("Expected 3 active sessions, got %v", got)
	}
}

func TestMonitor_Handler(t *testing.T) {
	m := NewMonitor("pegrace")
	m.ObserveRoll(false, 0.0001)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if rec.Code != 200 {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pegrace_rolls_total 1") {
		t.Errorf("Expected the rolls counter in the output:\n%s", rec.Body.String())
	}
}

func TestMonitor_SeparateRegistries(t *testing.T) {
	// Two monitors with the same namespace must not collide.
	a := NewMonitor("pegrace")
	b := NewMonitor("pegrace")
	a.ObserveWin("blue")

	if got := testutil.ToFloat64(b.Metrics().Wins.WithLabelValues("blue")); got != 0 {
		t.Errorf("Expected an independent registry, got %v", got)
	}
}
