package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersExposed(t *testing.T) {
	before := testutil.ToFloat64(RequestTransitions.WithLabelValues("approved"))
	RequestTransitions.WithLabelValues("approved").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(RequestTransitions.WithLabelValues("approved")))

	SecondaryWriteFailures.WithLabelValues(KindActivity).Inc()

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "profinder_request_transitions_total")
	assert.Contains(t, w.Body.String(), `profinder_secondary_write_failures_total{kind="activity"}`)
}
