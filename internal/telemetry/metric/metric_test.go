package metric

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegistry_ObserveRequest(t *testing.T) {
	r := NewRegistry()

	r.ObserveRequest("GET", 200, 10*time.Millisecond)
	r.ObserveRequest("GET", 200, 20*time.Millisecond)
	r.ObserveRequest("GET", 401, 5*time.Millisecond)
	r.ObserveRequest("POST", 0, time.Second)

	tests := []struct {
		method string
		status string
		want   float64
	}{
		{"GET", "200", 2},
		{"GET", "401", 1},
		{"POST", "0", 1},
		{"DELETE", "200", 0},
	}

	for _, tt := range tests {
		t.Run(tt.method+"_"+tt.status, func(t *testing.T) {
			got := testutil.ToFloat64(r.RequestsTotal.WithLabelValues(tt.method, tt.status))
			if got != tt.want {
				t.Errorf("requests_total{%s,%s} = %v, want %v", tt.method, tt.status, got, tt.want)
			}
		})
	}

	if n := testutil.CollectAndCount(r.RequestDuration); n != 2 {
		t.Errorf("request_duration series = %d, want 2", n)
	}
}

func TestRegistry_ObserveTransitionAndChallenge(t *testing.T) {
	r := NewRegistry()

	r.ObserveTransition("CheckingToken", "AwaitingBiometric")
	r.ObserveTransition("AwaitingBiometric", "Authenticated")
	r.ObserveChallenge("success")
	r.ObserveChallenge("failure")
	r.ObserveChallenge("failure")

	if got := testutil.ToFloat64(r.SessionTransitions.WithLabelValues("AwaitingBiometric", "Authenticated")); got != 1 {
		t.Errorf("transitions_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(r.BiometricChallenges.WithLabelValues("failure")); got != 2 {
		t.Errorf("challenges_total{failure} = %v, want 2", got)
	}
}

func TestRegistry_WriteTextfile(t *testing.T) {
	r := NewRegistry()
	r.ObserveChallenge("success")

	path := filepath.Join(t.TempDir(), "booklend.prom")
	if err := r.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, want := range []string{
		`booklend_biometric_challenges_total{result="success"} 1`,
		"booklend_build_info{",
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("textfile missing %q:\n%s", want, data)
		}
	}
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()

	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "booklend_test_gauge", Help: "test"})
	if err := r.Register(g); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(g); err == nil {
		t.Error("Register() of a duplicate collector should fail")
	}
}

func TestBuildCollector(t *testing.T) {
	c := NewBuildCollector()
	if n := testutil.CollectAndCount(c); n != 1 {
		t.Errorf("build collector series = %d, want 1", n)
	}
	if got := testutil.ToFloat64(c); got != 1 {
		t.Errorf("build_info = %v, want 1", got)
	}
}
