package monitoring

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveWrite(t *testing.T) {
	before := testutil.ToFloat64(StorageOperations.WithLabelValues("test", "save_client", "error"))

	err := ObserveWrite("test", "save_client", errors.New("boom"))
	assert.EqualError(t, err, "boom")
	assert.NoError(t, ObserveWrite("test", "save_client", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(StorageOperations.WithLabelValues("test", "save_client", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StorageOperations.WithLabelValues("test", "save_client", "success")))
}

func TestInitMetricsIsIdempotent(t *testing.T) {
	InitMetrics()
	InitMetrics()
}
