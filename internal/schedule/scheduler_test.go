package schedule

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubJob struct {
	name  string
	runs  atomic.Int64
	block chan struct{}
}

func (j *stubJob) Name() string { return j.name }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	if j.block != nil {
		<-j.block
	}
	return nil
}

func TestAddJobRejectsBadSpec(t *testing.T) {
	s := NewCronScheduler()
	require.Error(t, s.AddJob(&stubJob{name: "bad"}, "not a cron spec"))
	// 6-field specs are not accepted either, the parser is 5-field only
	require.Error(t, s.AddJob(&stubJob{name: "six"}, "0 */5 * * * *"))
	require.NoError(t, s.AddJob(&stubJob{name: "ok"}, "*/5 * * * *"))
}

func TestGuardedSkipsOverlappingRuns(t *testing.T) {
	s := NewCronScheduler()
	job := &stubJob{name: "slow", block: make(chan struct{})}
	tick := s.guarded(job)

	done := make(chan struct{})
	go func() {
		tick()
		close(done)
	}()
	require.Eventually(t, func() bool { return job.runs.Load() == 1 }, time.Second, time.Millisecond)

	// second tick while the first is still running is a no-op
	tick()
	require.Equal(t, int64(1), job.runs.Load())

	close(job.block)
	<-done

	job.block = nil
	tick()
	require.Equal(t, int64(2), job.runs.Load())
}
