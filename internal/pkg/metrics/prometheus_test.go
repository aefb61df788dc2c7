package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "/api/v1/companies", want: "/api/v1/companies"},
		{path: "/api/v1/companies/42", want: "/api/v1/companies/:id"},
		{path: "/api/v1/companies/42/status", want: "/api/v1/companies/:id/status"},
		{path: "/api/v1/alerts?severity=critical", want: "/api/v1/alerts"},
		{path: "/api/v1/tasks/6f1c2a9e-8b7d-4c1e-9f3a-2d5b7c8e9a10", want: "/api/v1/tasks/:id"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := route(tt.path); got != tt.want {
				t.Errorf("route() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCollector(t *testing.T) {
	c := New()

	c.ObserveRequest("GET", "/api/v1/sites/1", 200, 10*time.Millisecond)
	c.ObserveRequest("GET", "/api/v1/sites/2", 200, 20*time.Millisecond)
	c.ObserveRequest("GET", "/api/v1/sites/3", 0, time.Millisecond)
	c.SetStoreItems("sites", 7)
	c.StaleState("sites", "delete")
	c.Mutation("sites", "update", nil)
	c.Mutation("sites", "update", errors.New("boom"))
	c.TaskPolled("PENDING")
	c.TaskFinished("success")

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/api/v1/sites/:id", "200")); got != 2 {
		t.Errorf("requests 200 = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("GET", "/api/v1/sites/:id", "error")); got != 1 {
		t.Errorf("requests error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.storeItems.WithLabelValues("sites")); got != 7 {
		t.Errorf("store items = %v, want 7", got)
	}
	if got := testutil.ToFloat64(c.staleState.WithLabelValues("sites", "delete")); got != 1 {
		t.Errorf("stale state = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mutationsTotal.WithLabelValues("sites", "update", "error")); got != 1 {
		t.Errorf("failed mutations = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.tasksFinished.WithLabelValues("success")); got != 1 {
		t.Errorf("finished tasks = %v, want 1", got)
	}
}

func TestHandler(t *testing.T) {
	c := New()
	c.TaskPolled("SUCCESS")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `darkwatch_task_polls_total{state="SUCCESS"} 1`) {
		t.Errorf("metrics output missing task polls:\n%s", body)
	}
}
