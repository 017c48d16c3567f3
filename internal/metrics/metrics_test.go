package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordThrottled(t *testing.T) {
	m := New()

	m.RecordThrottled("working_hours")
	m.RecordThrottled("working_hours")
	m.RecordThrottled("scoped")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.throttled.WithLabelValues("working_hours")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.throttled.WithLabelValues("scoped")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New()

	m.IncrementInFlight()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpInFlight))
	m.DecrementInFlight()

	m.RecordHTTPRequest("GET", "/cats/", "200", 10*time.Millisecond)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/cats/", "200")))

	m.RecordDenied("cats", "destroy")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.denied.WithLabelValues("cats", "destroy")))
}
