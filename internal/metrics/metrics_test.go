package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequests_CountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(Requests.WithLabelValues(OutcomeClarify))
	Requests.WithLabelValues(OutcomeClarify).Inc()

	if got := testutil.ToFloat64(Requests.WithLabelValues(OutcomeClarify)); got != before+1 {
		t.Errorf("requests{outcome=clarify} = %v, want %v", got, before+1)
	}
}

func TestHandler_ExposesCollectors(t *testing.T) {
	TierCalls.WithLabelValues("basic", "ok").Inc()
	QualityScore.Observe(0.8)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{"bridge_llm_calls_total", "bridge_quality_overall_score"} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
