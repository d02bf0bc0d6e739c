package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/jobs"
)

type stubEnqueuer struct {
	tasks []*asynq.Task
}

func (s *stubEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type(), Queue: jobs.QueueDefault}, nil
}

func (s *stubEnqueuer) Close() error { return nil }

type stubInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (s stubInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return s.info, s.err }
func (s stubInspector) Close() error                                 { return nil }

func newStubCLI(inspector stubInspector) (*JobsCLI, *stubEnqueuer) {
	enq := &stubEnqueuer{}
	return &JobsCLI{
		client:    enq,
		inspector: inspector,
		now:       func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) },
	}, enq
}

func TestJobsCommandTrigger(t *testing.T) {
	c, enq := newStubCLI(stubInspector{})
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := c.JobsCommand(context.Background(), JobsOptions{
		Args:   []string{"trigger", jobs.TaskInventoryLowStockScan},
		Stdout: stdout,
		Stderr: stderr,
	})
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, jobs.TaskInventoryLowStockScan, enq.tasks[0].Type())
	assert.Contains(t, stdout.String(), "enqueued inventory:low_stock_scan")

	var payload jobs.LowStockScanPayload
	require.NoError(t, json.Unmarshal(enq.tasks[0].Payload(), &payload))
	assert.Equal(t, "manual", payload.Trigger)

	code = c.JobsCommand(context.Background(), JobsOptions{
		Args:   []string{"trigger", "ledger:rebuild"},
		Stdout: stdout,
		Stderr: stderr,
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unsupported job")
}

func TestJobsCommandStats(t *testing.T) {
	c, _ := newStubCLI(stubInspector{info: &asynq.QueueInfo{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}})
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)

	code := c.JobsCommand(context.Background(), JobsOptions{Args: []string{"stats"}, Stdout: stdout, Stderr: stderr})
	require.Equal(t, 0, code, stderr.String())
	var stats QueueStats
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &stats))
	assert.Equal(t, QueueStats{Queue: jobs.QueueDefault, Pending: 2, Retry: 1}, stats)

	c, _ = newStubCLI(stubInspector{err: errors.New("redis down")})
	code = c.JobsCommand(context.Background(), JobsOptions{Args: []string{"stats"}, Stdout: stdout, Stderr: stderr})
	assert.Equal(t, 1, code)
}

func TestJobsCommandUsage(t *testing.T) {
	c, _ := newStubCLI(stubInspector{})
	stderr := new(bytes.Buffer)
	assert.Equal(t, 2, c.JobsCommand(context.Background(), JobsOptions{Stdout: new(bytes.Buffer), Stderr: stderr}))
	assert.Equal(t, 2, c.JobsCommand(context.Background(), JobsOptions{Args: []string{"purge"}, Stdout: new(bytes.Buffer), Stderr: stderr}))
}
