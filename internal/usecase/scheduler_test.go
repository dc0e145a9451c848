package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PocketTagger/internal/domain"
	"PocketTagger/internal/usecase"
)

type manualDriver struct {
	job     func(time.Time)
	stopped bool
}

func (d *manualDriver) Start(_ context.Context, job func(time.Time)) error {
	d.job = job
	return nil
}

func (d *manualDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestSchedulerTriggersRunner(t *testing.T) {
	t.Parallel()

	svc := &fakeService{resp: domain.GetResponse{List: []domain.Item{{ID: "1", ResolvedURL: "https://example.com"}}}}
	recorder := &fakeRecorder{}
	p, err := usecase.NewPipeline(usecase.PipelineDeps{Service: svc, Tagger: &fakeTagger{}, Recorder: recorder})
	require.NoError(t, err)

	driver := &manualDriver{}
	sched := usecase.NewScheduler(driver, usecase.NewRunner(p, recorder), nil)
	require.NoError(t, sched.Start(context.Background()))
	require.NotNil(t, driver.job)

	driver.job(time.Now())
	driver.job(time.Now())

	assert.Len(t, recorder.runs, 2)
	require.Len(t, svc.gets, 2)
	assert.Equal(t, usecase.DefaultFetchCount, svc.gets[0].Count)

	require.NoError(t, sched.Stop(context.Background()))
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriver(t *testing.T) {
	t.Parallel()

	sched := usecase.NewScheduler(nil, nil, nil)
	assert.NoError(t, sched.Start(context.Background()))
	assert.NoError(t, sched.Stop(context.Background()))
}
