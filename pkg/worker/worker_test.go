package worker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/copperfret/lv2go/pkg/worker"
)

func TestWorkerRunsScheduledWorkAndDeliversResponse(t *testing.T) {
	defer goleak.VerifyNone(t)

	done := make(chan []byte, 1)
	w := worker.New(func(payload []byte, respond func([]byte) error) error {
		return respond(append([]byte("echo:"), payload...))
	}, 1024)
	defer w.Stop()

	require.NoError(t, w.ScheduleWork([]byte("hello")))

	require.Eventually(t, func() bool {
		w.DrainResponses(func(resp []byte) error {
			got := make([]byte, len(resp))
			copy(got, resp)
			done <- got
			return nil
		})
		return len(done) > 0
	}, time.Second, 2*time.Millisecond)

	assert.Equal(t, []byte("echo:hello"), <-done)
}

func TestWorkerScheduleWorkReturnsNoSpaceWhenRingFull(t *testing.T) {
	defer goleak.VerifyNone(t)

	block := make(chan struct{})
	w := worker.New(func(payload []byte, respond func([]byte) error) error {
		<-block
		return nil
	}, 64)
	defer func() {
		close(block)
		w.Stop()
	}()

	var sawNoSpace bool
	for i := 0; i < 10_000; i++ {
		if err := w.ScheduleWork([]byte("xxxxxxxxxxxxxxxxxxxxxxxxxxxxxxxx")); err != nil {
			sawNoSpace = true
			break
		}
	}
	assert.True(t, sawNoSpace, "request ring should saturate under sustained scheduling")

	noSpace, _ := w.Health()
	assert.Greater(t, noSpace, uint64(0))
}

func TestWorkerStopJoinsBackgroundThread(t *testing.T) {
	defer goleak.VerifyNone(t)

	w := worker.New(func(payload []byte, respond func([]byte) error) error {
		return nil
	}, 256)
	w.Stop()
	// Stop must be idempotent-safe to call once; a second ScheduleWork
	// after Stop is simply never drained, it must not panic or block.
	assert.NoError(t, w.ScheduleWork([]byte("after-stop")))
}
