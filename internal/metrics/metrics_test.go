package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounts(t *testing.T) {
	r, err := NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r.Search("upwork", OutcomeSuccess)
	r.Search("upwork", OutcomeSuccess)
	r.Search("indeed", OutcomeFailure)
	r.Score(OutcomeRejected)
	r.Apply("linkedin", OutcomeSuccess)

	if got := testutil.ToFloat64(r.search.WithLabelValues("upwork", OutcomeSuccess)); got != 2 {
		t.Fatalf("expected 2 upwork searches, got %v", got)
	}
	if got := testutil.ToFloat64(r.search.WithLabelValues("indeed", OutcomeFailure)); got != 1 {
		t.Fatalf("expected 1 indeed failure, got %v", got)
	}
	if got := testutil.ToFloat64(r.score.WithLabelValues(OutcomeRejected)); got != 1 {
		t.Fatalf("expected 1 rejected score, got %v", got)
	}
	if got := testutil.ToFloat64(r.apply.WithLabelValues("linkedin", OutcomeSuccess)); got != 1 {
		t.Fatalf("expected 1 application, got %v", got)
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.Search("upwork", OutcomeSuccess)
	r.Score(OutcomeSuccess)
	r.Apply("upwork", OutcomeFailure)
}

func TestDoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewRecorder(reg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewRecorder(reg); err == nil {
		t.Fatal("expected duplicate registration error")
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r, err := NewRecorder(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	engine := gin.New()
	engine.Use(r.Middleware())
	engine.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	for _, path := range []string{"/jobs/1", "/jobs/2", "/missing"} {
		engine.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues(http.MethodGet, "/jobs/:id", "418")); got != 2 {
		t.Fatalf("expected 2 requests for route template, got %v", got)
	}
	if got := testutil.ToFloat64(r.httpRequests.WithLabelValues(http.MethodGet, "unmatched", "404")); got != 1 {
		t.Fatalf("expected 1 unmatched request, got %v", got)
	}
}
