package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordActivityLogged(t *testing.T) {
	before := testutil.ToFloat64(activitiesLogged.WithLabelValues("food"))

	ts := time.Unix(1700000000, 0)
	RecordActivityLogged("food", 0.3, ts)

	assert.Equal(t, before+1, testutil.ToFloat64(activitiesLogged.WithLabelValues("food")))
	assert.Equal(t, float64(ts.Unix()), testutil.ToFloat64(lastActivityGauge))
}

func TestSessionStreamOpened(t *testing.T) {
	before := testutil.ToFloat64(sessionStreams)

	closeStream := SessionStreamOpened()
	assert.Equal(t, before+1, testutil.ToFloat64(sessionStreams))

	closeStream()
	assert.Equal(t, before, testutil.ToFloat64(sessionStreams))
}
