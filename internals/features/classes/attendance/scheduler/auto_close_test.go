package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeCloser struct {
	calls atomic.Int32
	err   error
}

func (f *fakeCloser) AutoCloseExpired(ctx context.Context, now time.Time) (int, error) {
	f.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("no deadline")
	}
	return 1, f.err
}

func TestRunOnce(t *testing.T) {
	f := &fakeCloser{}
	RunOnce(f, time.Second, zap.NewNop())
	assert.Equal(t, int32(1), f.calls.Load())

	f.err = errors.New("db down")
	RunOnce(f, time.Second, zap.NewNop())
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestStartSessionAutoClose(t *testing.T) {
	f := &fakeCloser{}

	_, err := StartSessionAutoClose(f, "not a schedule", nil)
	require.Error(t, err)

	c, err := StartSessionAutoClose(f, "", nil)
	require.NoError(t, err)
	assert.Empty(t, c.Entries())

	c, err = StartSessionAutoClose(f, "@every 1h", nil)
	require.NoError(t, err)
	defer c.Stop()
	assert.Len(t, c.Entries(), 1)
}
