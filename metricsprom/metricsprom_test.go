package metricsprom

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordSceneLoad(50*time.Millisecond, nil)
	c.RecordSceneLoad(10*time.Millisecond, errors.New("boom"))
	c.RecordDecode("int4_phq_v1", 20*time.Millisecond, nil)
	c.RecordFetch(4096, 5*time.Millisecond, nil)
	c.RecordFetch(1024, time.Millisecond, nil)
	c.RecordInverseQuery(12, time.Millisecond, nil)
	c.RecordForwardQuery(time.Millisecond, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.sceneLoads.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sceneLoads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.decodes.WithLabelValues("int4_phq_v1", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.fetches))
	assert.Equal(t, 5120.0, testutil.ToFloat64(c.fetchedBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queries.WithLabelValues("inverse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queries.WithLabelValues("forward")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queryErrors.WithLabelValues("forward")))
}

func TestCollectorFailedOps(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordSceneLoad(time.Second, errors.New("boom"))
	c.RecordInverseQuery(4, time.Second, errors.New("boom"))
	c.RecordFetch(4096, time.Second, errors.New("boom"))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.sceneLoads.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.queryErrors.WithLabelValues("inverse")))

	// Failed fetches count but contribute no bytes.
	assert.Equal(t, 1.0, testutil.ToFloat64(c.fetches))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.fetchedBytes))

	_, err := reg.Gather()
	require.NoError(t, err)
}
