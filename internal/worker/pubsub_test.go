package worker_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statusboard/statusboard/internal/worker"
)

func TestDispatcher_StatusCheck(t *testing.T) {
	manager, _ := newManager(t, "web")
	job := worker.NewCheckJob(worker.CheckJobConfig{
		Catalog: manager,
		Fetcher: &hostFetcher{},
		Logger:  zerolog.Nop(),
	})
	d := worker.NewDispatcher(job, zerolog.Nop())

	err := d.Dispatch(context.Background(), []byte(`{"job_type":"status_check"}`))
	require.NoError(t, err)

	assert.Equal(t, int64(1), job.GetMetrics().TotalRuns)
}

func TestDispatcher_UnknownJobType(t *testing.T) {
	manager, _ := newManager(t, "web")
	job := worker.NewCheckJob(worker.CheckJobConfig{
		Catalog: manager,
		Fetcher: &hostFetcher{},
		Logger:  zerolog.Nop(),
	})
	d := worker.NewDispatcher(job, zerolog.Nop())

	err := d.Dispatch(context.Background(), []byte(`{"job_type":"provider_refresh"}`))

	assert.NoError(t, err)
	assert.Equal(t, int64(0), job.GetMetrics().TotalRuns)
}

func TestDispatcher_MalformedMessage(t *testing.T) {
	d := worker.NewDispatcher(nil, zerolog.Nop())

	err := d.Dispatch(context.Background(), []byte(`not json`))

	assert.ErrorIs(t, err, worker.ErrMalformedMessage)
}

func TestDispatcher_AllRecordsFailed(t *testing.T) {
	manager, _ := newManager(t, "web")
	job := worker.NewCheckJob(worker.CheckJobConfig{
		Catalog: &failingRecorder{Manager: manager},
		Fetcher: &hostFetcher{},
		Logger:  zerolog.Nop(),
	})
	d := worker.NewDispatcher(job, zerolog.Nop())

	err := d.Dispatch(context.Background(), []byte(`{"job_type":"status_check"}`))

	assert.Error(t, err)
}
